// Package cli implements the command-line interface for salesetl.
package cli

import (
	"github.com/spf13/cobra"

	"salesetl/internal/config"
	"salesetl/internal/logging"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var (
	// Global flags
	cfgFile     string
	sourcePath  string
	storageKind string
	storageDSN  string
	logLevel    string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "salesetl",
		Short: "Retail sales ETL: CSV in, star schema out",
		Long: `salesetl loads a retail orders CSV, cleans it, and builds a star
schema (customer, product and date dimensions plus a sales fact table)
together with derived customer RFM metrics and monthly revenue rollups.

Destination tables are replaced wholesale on every run. Supported sinks
are SQLite (default), PostgreSQL and SQL Server.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./salesetl.yaml)")
	rootCmd.PersistentFlags().StringVar(&sourcePath, "source", "",
		"path of the source CSV file")
	rootCmd.PersistentFlags().StringVar(&storageKind, "storage", "",
		"sink backend (sqlite, postgres, mssql)")
	rootCmd.PersistentFlags().StringVar(&storageDSN, "dsn", "",
		"sink connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(validateCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if sourcePath != "" {
		cfg.Source.Path = sourcePath
	}
	if storageKind != "" {
		cfg.Storage.Kind = storageKind
	}
	if storageDSN != "" {
		cfg.Storage.DSN = storageDSN
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with the configured level
	logging.Init(cfg.LogLevel, true)

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("salesetl " + Version)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		cmd.Println("configuration is valid")
		return nil
	},
}
