package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-bookmarks/cmd"
	"github.com/mattsolo1/grove-bookmarks/cmd/config"
	"github.com/mattsolo1/grove-bookmarks/pkg/service"
)

var svc *service.Service

// Commands that never touch the bookmark state.
var skipService = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "bm",
		Short:         "Bookmark files and folders into groups, favorites and recents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cobra.OnInitialize(config.InitConfig)
	config.AddGlobalFlags(rootCmd)

	rootCmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		if skipService[c.Name()] || (c.Parent() != nil && skipService[c.Parent().Name()]) {
			return nil
		}
		logger := config.NewLogger()

		var err error
		svc, err = config.InitService(logger)
		if err != nil {
			return fmt.Errorf("failed to initialize service: %w", err)
		}
		return nil
	}
	rootCmd.PersistentPostRunE = func(c *cobra.Command, args []string) error {
		if svc == nil {
			return nil
		}
		return svc.Close()
	}

	rootCmd.AddCommand(cmd.NewGroupCmd(&svc))
	rootCmd.AddCommand(cmd.NewAddCmd(&svc))
	rootCmd.AddCommand(cmd.NewRmCmd(&svc))
	rootCmd.AddCommand(cmd.NewFavCmd(&svc))
	rootCmd.AddCommand(cmd.NewRecentCmd(&svc))
	rootCmd.AddCommand(cmd.NewTreeCmd(&svc))
	rootCmd.AddCommand(cmd.NewFsCmd(&svc))
	rootCmd.AddCommand(cmd.NewDropCmd(&svc))
	rootCmd.AddCommand(cmd.NewExportCmd(&svc))
	rootCmd.AddCommand(cmd.NewVersionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
