package cmd

import (
	"context"
	"fmt"
	"os"

	"blogapi/config"
	"blogapi/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFiles []string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "blogapi",
	Short: "REST backend for posts, comments and users",
	Long: `blogapi serves a small blogging API backed by MongoDB.

Configuration comes from the environment, optionally seeded from dotenv files.

Examples:
  blogapi serve                          # Start the HTTP server
  blogapi indexes                        # Create collection indexes
  blogapi role alice@example.com admin   # Grant a role`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
}

// bootstrap loads configuration and builds the logger every command uses.
func bootstrap() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
