// Package cli provides the command-line interface of the podcast server.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/1930s/Podcast-Server/config"
)

// app carries what every command shares once the configuration is loaded
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "podcast-server",
		Short:         "Download podcast episodes and drive their download lifecycle",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newFetchCmd(a))

	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}
