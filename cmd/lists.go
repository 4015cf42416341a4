package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-bookmarks/pkg/service"
)

func NewFavCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fav",
		Aliases: []string{"favorite"},
		Short:   "Manage favorites",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <path>...",
		Short: "Star files or folders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := parseRefs(args)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				if err := (*svc).AddFavorite(cmd.Context(), ref); err != nil {
					return err
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <path>...",
		Short: "Unstar files or folders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := parseRefs(args)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				if err := (*svc).RemoveFavorite(cmd.Context(), ref); err != nil {
					return err
				}
			}
			return nil
		},
	})

	return cmd
}

func NewRecentCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Manage recently used external files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "touch <path>",
		Short: "Record a file as recently used",
		Long:  "Record a file as recently used. Files inside the project and anything that is not a regular file are ignored.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			recorded, err := (*svc).TouchRecent(cmd.Context(), ref)
			if err != nil {
				return err
			}
			if !recorded {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s is not an external file, not recorded\n", ref.FsPath())
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget every recently used file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return (*svc).ClearRecents(cmd.Context())
		},
	})

	return cmd
}
