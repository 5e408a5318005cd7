// Package sqlite implements the storage.Repository contract on SQLite via
// modernc.org/sqlite (no cgo). It is the default sink: the pipeline's
// original deployment persisted to a local analytics database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"salesetl/internal/storage"
)

// Repo implements storage.Repository for SQLite.
//
// Key design point vs Postgres: SQLite has no native DATE type, and
// modernc.org/sqlite stores whatever affinity the bound Go value suggests.
// Dates are therefore stored as "2006-01-02" TEXT and timestamps as RFC3339
// strings, which round-trip reliably and stay readable in debugging sessions.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// modernc.org/sqlite serializes writes anyway; a single connection keeps
	// in-memory DSNs coherent as well.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

// ReplaceTable drops, recreates and loads the table in one transaction.
func (r *Repo) ReplaceTable(ctx context.Context, spec storage.TableSpec, rows [][]any) error {
	if strings.TrimSpace(spec.Name) == "" {
		return fmt.Errorf("sqlite: table name is empty")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+sqlIdent(spec.Name)); err != nil {
		return fmt.Errorf("drop table %s: %w", spec.Name, err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(spec)); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Name, err)
	}
	if err := insertRows(ctx, tx, spec, rows); err != nil {
		return fmt.Errorf("insert into %s: %w", spec.Name, err)
	}

	return tx.Commit()
}

// ReadTable returns the full table contents in storage order.
func (r *Repo) ReadTable(ctx context.Context, name string) ([]string, [][]any, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM "+sqlIdent(name))
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, nil, fmt.Errorf("%w: %s", storage.ErrTableNotFound, name)
		}
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		scan := make([]any, len(cols))
		for i := range vals {
			scan[i] = &vals[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	return cols, out, rows.Err()
}

func createTableSQL(spec storage.TableSpec) string {
	parts := make([]string, 0, len(spec.Columns))
	for _, c := range spec.Columns {
		parts = append(parts, sqlIdent(c.Name)+" "+sqliteType(c.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", sqlIdent(spec.Name), strings.Join(parts, ",\n  "))
}

func sqliteType(logical string) string {
	switch logical {
	case storage.TypeInteger:
		return "INTEGER"
	case storage.TypeReal:
		return "REAL"
	case storage.TypeDate, storage.TypeTimestamp, storage.TypeText:
		return "TEXT"
	default:
		return "TEXT"
	}
}

// maxBindArgs keeps multi-row inserts comfortably below SQLite's
// bind-variable limit.
const maxBindArgs = 900

func insertRows(ctx context.Context, tx *sql.Tx, spec storage.TableSpec, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	nCols := len(spec.Columns)
	perChunk := maxBindArgs / nCols
	if perChunk < 1 {
		perChunk = 1
	}

	colList := make([]string, 0, nCols)
	for _, c := range spec.Columns {
		colList = append(colList, sqlIdent(c.Name))
	}
	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", nCols), ",") + ")"
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", sqlIdent(spec.Name), strings.Join(colList, ", "))

	for start := 0; start < len(rows); start += perChunk {
		end := start + perChunk
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		var b strings.Builder
		b.WriteString(prefix)
		args := make([]any, 0, len(chunk)*nCols)
		for i, row := range chunk {
			if len(row) != nCols {
				return fmt.Errorf("row length %d != columns length %d", len(row), nCols)
			}
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(placeholders)
			for j, v := range row {
				args = append(args, bindValue(v, spec.Columns[j].Type))
			}
		}

		if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

// bindValue formats time values as strings per the column's logical type;
// everything else passes through.
func bindValue(v any, logical string) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if logical == storage.TypeDate {
		return t.Format("2006-01-02")
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
