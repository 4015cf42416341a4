package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-bookmarks/pkg/service"
)

func NewGroupCmd(svc **service.Service) *cobra.Command {
	var workspace bool

	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage bookmark groups",
		Long: `Create, rename, remove and list bookmark groups.

Groups are global unless --workspace is given, in which case they belong to the
current project. A group can also be addressed by its URI, e.g.
bm://global-bookmark/Docs.`,
	}
	cmd.PersistentFlags().BoolVarP(&workspace, "workspace", "w", false, "use the project's groups instead of the global ones")

	cmd.AddCommand(&cobra.Command{
		Use:   "new <name>",
		Short: "Create an empty group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri, err := (*svc).NewGroup(cmd.Context(), &service.NewGroupRequest{Scope: scopeOf(workspace), Key: args[0]})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), uri)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <group> <new-name>",
		Short: "Rename a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			uri, err := s.RenameGroup(cmd.Context(), &service.RenameGroupRequest{
				URI:    groupURI(s, args[0], workspace),
				NewKey: args[1],
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), uri)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <group>",
		Aliases: []string{"remove"},
		Short:   "Remove a group and its entries",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			return s.RemoveGroup(cmd.Context(), &service.RemoveGroupRequest{URI: groupURI(s, args[0], workspace)})
		},
	})

	cmd.AddCommand(newGroupListCmd(svc))
	return cmd
}

func newGroupListCmd(svc **service.Service) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List groups",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups := (*svc).ListGroups(cmd.Context())

			if jsonOutput {
				data, err := json.MarshalIndent(groups, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal groups to JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			if len(groups) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No bookmark groups")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCOPE\tNAME\tENTRIES\tURI")
			for _, g := range groups {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", g.Scope, g.Key, g.Size, g.URI)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}
