package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-bookmarks/pkg/service"
	"github.com/mattsolo1/grove-bookmarks/pkg/tree"
)

func NewTreeCmd(svc **service.Service) *cobra.Command {
	var (
		depth      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show favorites, bookmark groups and recent files as a tree",
		Long: `Show the bookmark hierarchy: favorites, global groups, project groups and
recently used external files. Folders are expanded up to --depth levels.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			snapshots := s.Tree(cmd.Context(), depth)

			if jsonOutput {
				data, err := json.MarshalIndent(snapshots, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal tree to JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			fmt.Fprint(cmd.OutOrStdout(), tree.Render(s.Config().ProjectDir, snapshots))
			for _, ref := range s.Synchronizer().Errors().Snapshot() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is missing or not accessible\n", ref.FsPath())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 2, "how many levels to expand")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}
