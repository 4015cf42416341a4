package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mattsolo1/grove-bookmarks/pkg/service"
	"github.com/mattsolo1/grove-bookmarks/pkg/store"
)

var (
	cfgFile string
	verbose bool
)

func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "bm")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("BM")
	viper.AutomaticEnv()

	// Set defaults
	defaults := service.DefaultConfig()
	viper.SetDefault("data_dir", filepath.Join(os.Getenv("HOME"), ".local", "share", "bm"))
	viper.SetDefault("project_dir", "")
	viper.SetDefault("max_recent_files", defaults.MaxRecentFiles)
	viper.SetDefault("favorites_scope", defaults.FavoritesScope)
	viper.SetDefault("recents_scope", defaults.RecentsScope)
	viper.SetDefault("hidden_files", defaults.HiddenFiles)

	// A missing config file is fine; defaults and env cover everything.
	_ = viper.ReadInConfig()
}

// NewLogger returns the stderr logger, quiet unless --verbose is set.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logger.WithField("file", used).Debug("using config file")
	}
	return logger
}

// ServiceConfig reads the service settings from viper.
func ServiceConfig() *service.Config {
	return &service.Config{
		ProjectDir:     viper.GetString("project_dir"),
		MaxRecentFiles: viper.GetInt("max_recent_files"),
		FavoritesScope: viper.GetString("favorites_scope"),
		RecentsScope:   viper.GetString("recents_scope"),
		HiddenFiles:    viper.GetStringSlice("hidden_files"),
	}
}

func InitService(logger logrus.FieldLogger) (*service.Service, error) {
	dataDir := viper.GetString("data_dir")

	backend, err := store.NewSQLite(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	svc, err := service.New(ServiceConfig(), backend, afero.NewOsFs(), logger)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return svc, nil
}

func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/bm/config.yaml)")
	cmd.PersistentFlags().StringP("project", "P", "", "project directory (default is the current directory)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	cobra.CheckErr(viper.BindPFlag("project_dir", cmd.PersistentFlags().Lookup("project")))
}
