// Package export dumps destination tables to flat CSV files, one file per
// table, for spreadsheet users and downstream jobs that cannot talk to the
// sink directly.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"salesetl/internal/storage"
)

// Logger is the minimal logging interface used by the exporter.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// Exporter writes tables from a Repository to a directory of CSV files.
type Exporter struct {
	Repo   storage.Repository
	Dir    string
	Logger Logger
}

// Result summarizes one export run.
type Result struct {
	// Written lists the file paths produced, in table order.
	Written []string

	// Missing lists the tables skipped because the sink does not have
	// them. Missing tables are not an error: a prior run may have skipped
	// them as empty.
	Missing []string
}

// Run exports each named table to <Dir>/<table>.csv.
//
// Errors:
//   - Directory creation, read and file-write errors abort the run.
//   - A table the sink does not know (storage.ErrTableNotFound) is
//     recorded in Result.Missing and skipped.
func (e *Exporter) Run(ctx context.Context, tables []string) (*Result, error) {
	logf := e.logger()

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("export dir: %w", err)
	}

	res := &Result{}
	for _, table := range tables {
		cols, rows, err := e.Repo.ReadTable(ctx, table)
		if err != nil {
			if errors.Is(err, storage.ErrTableNotFound) {
				logf("export table=%s skipped=not_found", table)
				res.Missing = append(res.Missing, table)
				continue
			}
			return nil, fmt.Errorf("read %s: %w", table, err)
		}

		path := filepath.Join(e.Dir, table+".csv")
		if err := writeCSV(path, cols, rows); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		logf("export table=%s rows=%d file=%s", table, len(rows), path)
		res.Written = append(res.Written, path)
	}
	return res, nil
}

func (e *Exporter) logger() func(format string, v ...any) {
	if e.Logger == nil {
		l := log.New(discardWriter{}, "", 0)
		return l.Printf
	}
	return e.Logger.Printf
}

func writeCSV(path string, cols []string, rows [][]any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		f.Close()
		return err
	}

	record := make([]string, len(cols))
	for _, row := range rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = formatValue(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatValue renders one sink value as CSV text. NULL becomes the empty
// string; midnight timestamps render as bare dates.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
