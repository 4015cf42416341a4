package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-bookmarks/pkg/service"
)

func NewFsCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fs",
		Short: "Create, rename and delete bookmarked files and folders",
		Long: `Filesystem operations that keep every group, favorite and recent entry in step.

A rename rewrites every reference to the old path; a removal drops it everywhere.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "mkdir <parent> <name>",
		Short: "Create a folder inside parent (or next to parent if it is a file)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := parseRef(args[0])
			if err != nil {
				return err
			}
			ref, err := (*svc).NewFolder(cmd.Context(), &service.CreateRequest{Parent: parent, Name: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ref.FsPath())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "touch <parent> <name>",
		Short: "Create an empty file inside parent (or next to parent if it is a file)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := parseRef(args[0])
			if err != nil {
				return err
			}
			ref, err := (*svc).NewFile(cmd.Context(), &service.CreateRequest{Parent: parent, Name: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ref.FsPath())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "mv <path> <new-name>",
		Short: "Rename a file or folder in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			next, err := (*svc).Rename(cmd.Context(), &service.RenameRequest{Ref: ref, NewName: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), next.FsPath())
			return nil
		},
	})

	cmd.AddCommand(newFsRmCmd(svc))

	cmd.AddCommand(&cobra.Command{
		Use:   "reveal <path>",
		Short: "Print the folder to open for a file or folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			dir, err := (*svc).Reveal(cmd.Context(), ref)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	})

	return cmd
}

func newFsRmCmd(svc **service.Service) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file or folder permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			err = (*svc).Remove(cmd.Context(), &service.RemoveRequest{Ref: ref, Confirmed: yes})
			if errors.Is(err, service.ErrNotConfirmed) {
				return fmt.Errorf("refusing to delete %s without --yes", ref.FsPath())
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}
