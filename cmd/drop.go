package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-bookmarks/pkg/service"
)

func NewDropCmd(svc **service.Service) *cobra.Command {
	var workspace bool

	cmd := &cobra.Command{
		Use:   "drop <target>",
		Short: "Add a text/uri-list from stdin to a group, favorites or recents",
		Long: `Read a text/uri-list payload (one URI or path per line) from stdin and add
the entries to target. Target is a group name, a group URI, bm://favorites/ or
bm://recently-used-external-files/.

Entries inside the project and entries that do not exist are skipped; recents
only accept files.

Examples:
  printf 'file:///home/me/notes\n' | bm drop Docs
  find ~/papers -name '*.pdf' | bm drop bm://favorites/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			payload, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read %s payload: %w", service.MimeURIList, err)
			}

			target := args[0]
			if target != s.Favorites().URI() && target != s.Recents().URI() {
				target = groupURI(s, target, workspace)
			}

			added, err := s.Drop(cmd.Context(), &service.DropRequest{Target: target, URIList: string(payload)})
			if err != nil {
				return err
			}
			for _, ref := range added {
				fmt.Fprintln(cmd.OutOrStdout(), ref.FsPath())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&workspace, "workspace", "w", false, "resolve a group name in the project's groups")
	return cmd
}
