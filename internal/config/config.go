// Package config handles configuration management for salesetl.
// Configuration is loaded from a config file and overridden by CLI flags
// and SALESETL_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for salesetl.
type Config struct {
	// Job names the run for logging and metric tags.
	Job string `mapstructure:"job"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Source describes the input file.
	Source SourceConfig `mapstructure:"source"`

	// Parser controls CSV parsing.
	Parser ParserConfig `mapstructure:"parser"`

	// Storage selects and configures the sink.
	Storage StorageConfig `mapstructure:"storage"`

	// Export holds configuration for the export subcommand.
	Export ExportConfig `mapstructure:"export"`

	// Metrics selects the metrics backend.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// SourceConfig describes the input file.
type SourceConfig struct {
	// Path is the CSV file to load.
	Path string `mapstructure:"path"`
}

// ParserConfig controls CSV parsing.
type ParserConfig struct {
	// Comma is the field delimiter; a single character.
	Comma string `mapstructure:"comma"`

	// TrimSpace trims edge whitespace from every field.
	TrimSpace bool `mapstructure:"trim_space"`

	// LazyQuotes relaxes quote handling for sloppy exports.
	LazyQuotes bool `mapstructure:"lazy_quotes"`

	// Encoding is the source byte encoding: "", "utf-8", "windows-1252"
	// or "latin-1".
	Encoding string `mapstructure:"encoding"`
}

// StorageConfig selects and configures the sink backend.
type StorageConfig struct {
	// Kind is the backend name: sqlite, postgres or mssql.
	Kind string `mapstructure:"kind"`

	// DSN is the backend connection string. Environment variables in the
	// form $VAR are expanded before use.
	DSN string `mapstructure:"dsn"`

	// TablePrefix is prepended to every destination table name.
	TablePrefix string `mapstructure:"table_prefix"`
}

// ExportConfig holds configuration for the export subcommand.
type ExportConfig struct {
	// Dir is the directory that receives one CSV file per table.
	Dir string `mapstructure:"dir"`
}

// MetricsConfig selects the metrics backend.
type MetricsConfig struct {
	// Backend is "datadog" or "none".
	Backend string `mapstructure:"backend"`

	// FlushSeconds is the Datadog submit interval.
	FlushSeconds int `mapstructure:"flush_seconds"`

	// Tags are extra backend tags, comma separated (e.g. "env:prod,team:retail").
	Tags string `mapstructure:"tags"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Job:      "salesetl",
		LogLevel: "info",
		Parser: ParserConfig{
			Comma:     ",",
			TrimSpace: true,
		},
		Storage: StorageConfig{
			Kind:        "sqlite",
			DSN:         "salesetl.db",
			TablePrefix: "sa_",
		},
		Export: ExportConfig{
			Dir: "exports",
		},
		Metrics: MetricsConfig{
			Backend:      "none",
			FlushSeconds: 60,
		},
	}
}

// Load reads configuration from config files and the environment.
// Config file locations (in order of precedence):
//  1. Path specified by configFile parameter
//  2. ./salesetl.yaml
//  3. ~/.config/salesetl/config.yaml
//
// Environment variables override file values with the SALESETL_ prefix
// and underscores for nesting (e.g. SALESETL_STORAGE_DSN).
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("salesetl")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "salesetl"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	setDefaults(v)

	v.SetEnvPrefix("SALESETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every config key with viper. Unmarshal only
// consults the environment for keys viper already knows about, so the
// defaults must live here rather than in the target struct.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("job", d.Job)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("source.path", d.Source.Path)
	v.SetDefault("parser.comma", d.Parser.Comma)
	v.SetDefault("parser.trim_space", d.Parser.TrimSpace)
	v.SetDefault("parser.lazy_quotes", d.Parser.LazyQuotes)
	v.SetDefault("parser.encoding", d.Parser.Encoding)
	v.SetDefault("storage.kind", d.Storage.Kind)
	v.SetDefault("storage.dsn", d.Storage.DSN)
	v.SetDefault("storage.table_prefix", d.Storage.TablePrefix)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("metrics.backend", d.Metrics.Backend)
	v.SetDefault("metrics.flush_seconds", d.Metrics.FlushSeconds)
	v.SetDefault("metrics.tags", d.Metrics.Tags)
}

// Validate checks configuration shared by every command.
func (c *Config) Validate() error {
	if c.Storage.Kind == "" {
		return fmt.Errorf("storage.kind is required")
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required")
	}
	if len([]rune(c.Parser.Comma)) > 1 {
		return fmt.Errorf("parser.comma must be a single character")
	}
	switch c.Metrics.Backend {
	case "", "none", "datadog":
	default:
		return fmt.Errorf("metrics.backend must be 'datadog' or 'none'")
	}
	return nil
}

// ValidateRun checks configuration required for the run command.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Source.Path == "" {
		return fmt.Errorf("source.path is required for run")
	}
	return nil
}

// ValidateExport checks configuration required for the export command.
func (c *Config) ValidateExport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Export.Dir == "" {
		return fmt.Errorf("export.dir is required for export")
	}
	return nil
}

// CommaRune returns the parser delimiter as a rune, defaulting to ','.
func (c *Config) CommaRune() rune {
	r := []rune(c.Parser.Comma)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}

// ExpandedDSN returns the storage DSN with $VAR references expanded.
func (c *Config) ExpandedDSN() string {
	return os.ExpandEnv(c.Storage.DSN)
}
