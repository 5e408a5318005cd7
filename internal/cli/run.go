package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"salesetl/internal/config"
	"salesetl/internal/logging"
	"salesetl/internal/metrics"
	"salesetl/internal/metrics/datadog"
	csvparser "salesetl/internal/parser/csv"
	"salesetl/internal/pipeline"
	"salesetl/internal/storage"
)

var (
	runTablePrefix    string
	runMetricsBackend string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load the source file and rebuild the destination tables",
	Long: `Run the full pipeline: read the source CSV, sanitize it, build the
dimensional model and the derived metric tables, and replace the
destination tables in the configured sink.

Example:
  salesetl run --source orders.csv
  salesetl run --source orders.csv --storage postgres --dsn $DATABASE_URL`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runTablePrefix, "table-prefix", "",
		"prefix for destination table names (default: sa_)")
	runCmd.Flags().StringVar(&runMetricsBackend, "metrics", "",
		"metrics backend: datadog or none")
}

func runRun(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if runTablePrefix != "" {
		cfg.Storage.TablePrefix = runTablePrefix
	}
	if runMetricsBackend != "" {
		cfg.Metrics.Backend = runMetricsBackend
	}

	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Backend == "datadog" {
		b, err := datadog.NewBackend(ctx, datadog.Options{
			JobName:    cfg.Job,
			Tags:       datadog.ParseTagsCSV(cfg.Metrics.Tags),
			FlushEvery: time.Duration(cfg.Metrics.FlushSeconds) * time.Second,
		})
		if err != nil {
			logging.Warn().Err(err).Msg("datadog backend init failed; metrics disabled")
		} else {
			metrics.SetBackend(b)
			defer func() {
				if err := b.Close(); err != nil {
					logging.Warn().Err(err).Msg("datadog close/flush failed")
				}
			}()
		}
	}

	runner := pipeline.NewDefaultRunner()
	runner.Logger = logging.Printf{}

	start := time.Now()
	res, err := runner.Run(ctx, pipelineOptions(cfg))
	if err != nil {
		return err
	}

	logging.Info().
		Int("rows_in", res.Report.RowsIn).
		Int("rows_loaded", res.Report.RowsOut).
		Int("dropped_missing_key", res.Report.DroppedMissingKey).
		Int("dropped_quantity", res.Report.DroppedQuantity).
		Int("tables_written", len(res.Written)).
		Str("duration", time.Since(start).Truncate(time.Millisecond).String()).
		Msg("run complete")
	return nil
}

func pipelineOptions(c *config.Config) pipeline.Options {
	return pipeline.Options{
		Source: c.Source.Path,
		CSV: csvparser.Options{
			Comma:      c.CommaRune(),
			TrimSpace:  c.Parser.TrimSpace,
			LazyQuotes: c.Parser.LazyQuotes,
			Encoding:   c.Parser.Encoding,
		},
		Storage: storage.Config{
			Kind: c.Storage.Kind,
			DSN:  c.ExpandedDSN(),
		},
		TablePrefix: c.Storage.TablePrefix,
	}
}
