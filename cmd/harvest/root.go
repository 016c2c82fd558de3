package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/harvest/pkg/cli"
	"mercator-hq/harvest/pkg/config"
	"mercator-hq/harvest/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest - streaming survey submission exporter",
	Long: `Harvest exports survey submissions to CSV and JSON without buffering
the result set.

Storage URLs found in answers are rewritten to stable hub URLs scoped to the
owning form and submission, so exported files never carry signed storage
links.

Configuration is read from a YAML file (--config) and HARVEST_* environment
variables.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code for its error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults and HARVEST_* environment)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log format (json, text, console)")
}

// initialize loads the configuration snapshot and installs the default
// logger. Commands call it before building any component so component
// loggers inherit the configured handler.
func initialize() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("config", err.Error())
	}
	cfg := config.GetConfig()

	logCfg := logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	}
	if logLevel != "" {
		logCfg.Level = logLevel
	}
	if logFormat != "" {
		logCfg.Format = logFormat
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	return cfg, nil
}
