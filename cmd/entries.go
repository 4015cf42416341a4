package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-bookmarks/pkg/service"
)

func NewAddCmd(svc **service.Service) *cobra.Command {
	var workspace bool

	cmd := &cobra.Command{
		Use:   "add <group> <path>...",
		Short: "Add files or folders to a group",
		Long: `Add files or folders to a bookmark group, creating the group if needed.
Every path must exist; nothing is added otherwise.

Examples:
  bm add Docs ~/notes ~/papers/draft.md
  bm add -w Scratch /tmp/build.log`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			refs, err := parseRefs(args[1:])
			if err != nil {
				return err
			}
			return s.AddEntries(cmd.Context(), &service.AddEntriesRequest{
				Target: groupURI(s, args[0], workspace),
				Refs:   refs,
			})
		},
	}

	cmd.Flags().BoolVarP(&workspace, "workspace", "w", false, "use the project's groups")
	return cmd
}

func NewRmCmd(svc **service.Service) *cobra.Command {
	var workspace bool

	cmd := &cobra.Command{
		Use:   "rm <group> <path>",
		Short: "Remove an entry from a group",
		Long:  "Remove an entry from a bookmark group. The file or folder itself is not touched.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			ref, err := parseRef(args[1])
			if err != nil {
				return err
			}
			return s.RemoveEntry(cmd.Context(), &service.RemoveEntryRequest{
				Group: groupURI(s, args[0], workspace),
				Ref:   ref,
			})
		},
	}

	cmd.Flags().BoolVarP(&workspace, "workspace", "w", false, "use the project's groups")
	return cmd
}
