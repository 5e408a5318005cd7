package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "salesetl.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsWhenFileAbsent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		// viper treats an explicit missing file as an error; both outcomes
		// are acceptable only for the search-path case, so assert the error.
		t.Fatalf("Load(explicit missing file) should fail, got %+v", cfg)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
job: nightly
source:
  path: /data/orders.csv
storage:
  kind: postgres
  dsn: postgres://$PGUSER@localhost/sales
  table_prefix: retail_
metrics:
  backend: datadog
  tags: "env:prod"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Job != "nightly" {
		t.Fatalf("job = %q", cfg.Job)
	}
	if cfg.Source.Path != "/data/orders.csv" {
		t.Fatalf("source.path = %q", cfg.Source.Path)
	}
	if cfg.Storage.Kind != "postgres" || cfg.Storage.TablePrefix != "retail_" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	// Untouched values keep their defaults.
	if cfg.LogLevel != "info" {
		t.Fatalf("log_level = %q, want default info", cfg.LogLevel)
	}
	if cfg.Parser.Comma != "," || !cfg.Parser.TrimSpace {
		t.Fatalf("parser = %+v, want defaults", cfg.Parser)
	}
	if cfg.Metrics.Backend != "datadog" || cfg.Metrics.FlushSeconds != 60 {
		t.Fatalf("metrics = %+v", cfg.Metrics)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SALESETL_STORAGE_KIND", "postgres")
	t.Setenv("SALESETL_STORAGE_DSN", "postgres://localhost/sales")
	t.Setenv("SALESETL_PARSER_TRIM_SPACE", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Storage.Kind != "postgres" {
		t.Fatalf("storage.kind = %q, want env override", cfg.Storage.Kind)
	}
	if cfg.Storage.DSN != "postgres://localhost/sales" {
		t.Fatalf("storage.dsn = %q, want env override", cfg.Storage.DSN)
	}
	if cfg.Parser.TrimSpace {
		t.Fatalf("parser.trim_space = true, want env override")
	}
	// Keys without an env override keep their defaults.
	if cfg.Job != "salesetl" || cfg.Storage.TablePrefix != "sa_" {
		t.Fatalf("job=%q prefix=%q, want defaults", cfg.Job, cfg.Storage.TablePrefix)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  kind: mssql
  dsn: sqlserver://localhost/sales
`)
	t.Setenv("SALESETL_STORAGE_DSN", "sqlserver://db.internal/sales")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.DSN != "sqlserver://db.internal/sales" {
		t.Fatalf("storage.dsn = %q, want env over file", cfg.Storage.DSN)
	}
	if cfg.Storage.Kind != "mssql" {
		t.Fatalf("storage.kind = %q, want file value", cfg.Storage.Kind)
	}
}

func TestExpandedDSN(t *testing.T) {
	t.Setenv("PGUSER", "loader")

	cfg := DefaultConfig()
	cfg.Storage.DSN = "postgres://$PGUSER@localhost/sales"
	if got := cfg.ExpandedDSN(); got != "postgres://loader@localhost/sales" {
		t.Fatalf("ExpandedDSN = %q", got)
	}
}

func TestCommaRune(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.CommaRune() != ',' {
		t.Fatalf("default comma rune = %q", cfg.CommaRune())
	}
	cfg.Parser.Comma = ";"
	if cfg.CommaRune() != ';' {
		t.Fatalf("comma rune = %q, want ';'", cfg.CommaRune())
	}
	cfg.Parser.Comma = ""
	if cfg.CommaRune() != ',' {
		t.Fatalf("empty comma rune = %q, want ','", cfg.CommaRune())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		check   func(*Config) error
		wantErr bool
	}{
		{
			name:   "defaults_valid",
			mutate: func(c *Config) {},
			check:  (*Config).Validate,
		},
		{
			name:    "missing_kind",
			mutate:  func(c *Config) { c.Storage.Kind = "" },
			check:   (*Config).Validate,
			wantErr: true,
		},
		{
			name:    "missing_dsn",
			mutate:  func(c *Config) { c.Storage.DSN = "" },
			check:   (*Config).Validate,
			wantErr: true,
		},
		{
			name:    "multi_char_comma",
			mutate:  func(c *Config) { c.Parser.Comma = ",," },
			check:   (*Config).Validate,
			wantErr: true,
		},
		{
			name:    "unknown_metrics_backend",
			mutate:  func(c *Config) { c.Metrics.Backend = "statsd" },
			check:   (*Config).Validate,
			wantErr: true,
		},
		{
			name:    "run_requires_source",
			mutate:  func(c *Config) {},
			check:   (*Config).ValidateRun,
			wantErr: true,
		},
		{
			name: "run_valid_with_source",
			mutate: func(c *Config) {
				c.Source.Path = "orders.csv"
			},
			check: (*Config).ValidateRun,
		},
		{
			name:    "export_requires_dir",
			mutate:  func(c *Config) { c.Export.Dir = "" },
			check:   (*Config).ValidateExport,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := tc.check(cfg)
			if tc.wantErr && err == nil {
				t.Fatalf("want error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
