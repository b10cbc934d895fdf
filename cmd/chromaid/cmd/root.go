// Package cmd provides CLI command implementations
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/ChromaID/pkg/config"
	"github.com/ChrisMcGann/ChromaID/pkg/logging"
)

// app carries state shared by all subcommands of one invocation.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	workers    int

	cfg    *config.Config
	logger *slog.Logger
}

// Execute runs the root command with signal-aware cancellation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "chromaid",
		Short: "ChromaID - GC-MS peak detection and library identification",
		Long: `ChromaID detects chromatographic peaks in GC-MS scan tables and identifies
each peak by matching its apex EI spectrum against a reference library.

Features:
- Smoothing (moving average, LWMA, Savitzky-Golay, binomial, LOWESS, LOESS)
- Rolling-minimum baseline correction
- Edge-refined peak detection with shape and purity scores
- Dot product / reverse dot product / presence scoring with RT or RI filtering
- MSP library import into SQLite`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: console or json")
	rootCmd.PersistentFlags().IntVar(&a.workers, "workers", 0, "Number of files processed concurrently (0 = from config)")

	rootCmd.AddCommand(newDetectCommand(a))
	rootCmd.AddCommand(newIdentifyCommand(a))
	rootCmd.AddCommand(newImportCommand(a))
	rootCmd.AddCommand(newConfigCommand(a))

	return rootCmd
}

// setup loads the configuration, applies global flag overrides and builds
// the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if skipConfig(cmd) {
		logger, err := logging.New(logging.Options{Level: a.logLevel, Format: a.logFormat, Writer: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		a.logger = logger
		return nil
	}

	cfg, path, exists, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if a.workers > 0 {
		cfg.Workers = a.workers
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	if exists {
		logger.Debug("configuration loaded", slog.String("path", path))
	} else {
		logger.Debug("no configuration file, using defaults", slog.String("path", path))
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func skipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipConfig"] == "true" {
			return true
		}
	}
	return false
}
