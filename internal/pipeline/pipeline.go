// Package pipeline wires the full run: read the source file, resolve and
// sanitize it, build the dimensional model and the derived metric tables,
// and replace the destination tables in the configured sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"salesetl/internal/analytics"
	"salesetl/internal/metrics"
	csvparser "salesetl/internal/parser/csv"
	"salesetl/internal/sanitize"
	"salesetl/internal/schema"
	"salesetl/internal/star"
	"salesetl/internal/storage"
)

// ErrSourceMissing is returned when the source file does not exist.
// Callers can map it to a distinct exit code.
var ErrSourceMissing = errors.New("pipeline: source file missing")

// DefaultTablePrefix is prepended to every destination table name unless
// overridden in Options.
const DefaultTablePrefix = "sa_"

// TableBaseNames lists the destination tables in write order: dimensions
// first, then the fact table, then the derived metric tables.
var TableBaseNames = []string{
	"dim_customer",
	"dim_product",
	"dim_date",
	"fact_sales",
	"customer_metrics",
	"monthly_sales",
}

// Metric names recorded through the metrics facade during a run.
const (
	metricStageTotal           = "pipeline_stage_total"
	metricRowsTotal            = "pipeline_rows_total"
	metricTablesWrittenTotal   = "pipeline_tables_written_total"
	metricStageDurationSeconds = "pipeline_stage_duration_seconds"
)

// Logger is the minimal logging interface used by the pipeline.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// Options configures one pipeline run.
type Options struct {
	// Source is the path of the CSV file to load.
	Source string

	// CSV controls source parsing. csvparser.DefaultOptions is the
	// typical setup for retail exports.
	CSV csvparser.Options

	// Storage selects and configures the sink backend.
	Storage storage.Config

	// TablePrefix is prepended to every destination table name.
	// Empty means DefaultTablePrefix.
	TablePrefix string
}

// Result summarizes a completed run.
type Result struct {
	// Report carries the sanitizer row accounting.
	Report sanitize.Report

	// Written lists the physical table names that were replaced, in
	// write order.
	Written []string

	// Skipped lists the base names of tables skipped because they came
	// out empty.
	Skipped []string
}

// Runner executes pipeline runs.
//
// The seams exist for unit tests: NewRepository lets tests inject a fake
// sink, Logger captures log lines. When nil they default to the registry
// factory and a discarding logger.
type Runner struct {
	NewRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)
	Logger        Logger
}

// NewDefaultRunner returns a Runner wired to the storage registry.
func NewDefaultRunner() *Runner {
	return &Runner{
		NewRepository: func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
			return storage.New(ctx, cfg)
		},
	}
}

// Run executes the full pipeline.
//
// Errors:
//   - ErrSourceMissing (wrapped) when opts.Source does not exist.
//   - Parse, sink construction and write errors, wrapped with the stage
//     that failed.
//
// Edge cases:
//   - Tables that come out empty are skipped, not written; the sink never
//     sees an empty replace.
//   - A source that sanitizes down to zero rows is not an error: every
//     table is skipped and the Result reports the drop counts.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	logf := r.logger()

	prefix := opts.TablePrefix
	if prefix == "" {
		prefix = DefaultTablePrefix
	}

	if _, err := os.Stat(opts.Source); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, opts.Source)
		}
		return nil, fmt.Errorf("source: %w", err)
	}

	readStart := time.Now()
	header, records, err := csvparser.ReadFile(opts.Source, opts.CSV)
	if err != nil {
		r.stageDone(logf, "read", readStart, err)
		return nil, fmt.Errorf("read: %w", err)
	}
	r.stageDone(logf, "read", readStart, nil)
	metrics.IncCounter(metricRowsTotal, float64(len(records)), metrics.Labels{"kind": "read"})

	cm := schema.Resolve(header)
	for _, line := range cm.Describe(header) {
		logf("resolve %s", line)
	}

	sanStart := time.Now()
	rows, report := sanitize.Sanitize(records, cm)
	r.stageDone(logf, "sanitize", sanStart, nil)
	logf("sanitize rows_in=%d rows_out=%d dropped_missing_key=%d dropped_quantity=%d",
		report.RowsIn, report.RowsOut, report.DroppedMissingKey, report.DroppedQuantity)
	metrics.IncCounter(metricRowsTotal, float64(report.RowsOut), metrics.Labels{"kind": "loaded"})
	metrics.IncCounter(metricRowsTotal, float64(report.DroppedMissingKey), metrics.Labels{"kind": "dropped_missing_key"})
	metrics.IncCounter(metricRowsTotal, float64(report.DroppedQuantity), metrics.Labels{"kind": "dropped_quantity"})

	buildStart := time.Now()
	fact := star.BuildFact(rows, cm)
	tables := []star.Table{
		star.BuildCustomerDim(rows),
		star.BuildProductDim(rows),
		star.BuildDateDim(rows),
		fact,
		analytics.CustomerMetrics(fact),
		analytics.MonthlySales(fact),
	}
	r.stageDone(logf, "build", buildStart, nil)

	repo, err := r.newRepository(ctx, opts.Storage)
	if err != nil {
		return nil, fmt.Errorf("sink: %w", err)
	}
	defer repo.Close()

	res := &Result{Report: report}

	writeStart := time.Now()
	for _, t := range tables {
		if t.Empty() {
			logf("write table=%s%s skipped=empty", prefix, t.Name)
			res.Skipped = append(res.Skipped, t.Name)
			continue
		}
		name := prefix + t.Name
		if err := repo.ReplaceTable(ctx, tableSpec(name, t), t.Rows); err != nil {
			r.stageDone(logf, "write", writeStart, err)
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		logf("write table=%s rows=%d", name, len(t.Rows))
		res.Written = append(res.Written, name)
	}
	r.stageDone(logf, "write", writeStart, nil)
	metrics.IncCounter(metricTablesWrittenTotal, float64(len(res.Written)), nil)

	return res, nil
}

func (r *Runner) newRepository(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	if r.NewRepository != nil {
		return r.NewRepository(ctx, cfg)
	}
	return storage.New(ctx, cfg)
}

func (r *Runner) logger() func(format string, v ...any) {
	if r.Logger == nil {
		l := log.New(discardWriter{}, "", 0)
		return l.Printf
	}
	return r.Logger.Printf
}

// stageDone logs one stage line and records the stage counter and
// duration histogram.
func (r *Runner) stageDone(logf func(format string, v ...any), stage string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	d := time.Since(start)
	logf("stage=%s %s duration=%s", stage, status, d.Truncate(time.Millisecond))
	metrics.IncCounter(metricStageTotal, 1, metrics.Labels{"stage": stage, "status": status})
	metrics.ObserveHistogram(metricStageDurationSeconds, d.Seconds(), metrics.Labels{"stage": stage})
}

func tableSpec(name string, t star.Table) storage.TableSpec {
	cols := make([]storage.ColumnSpec, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = storage.ColumnSpec{Name: c, Type: t.Types[i]}
	}
	return storage.TableSpec{Name: name, Columns: cols}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
