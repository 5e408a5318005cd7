// Package mssql implements the storage.Repository contract on SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"salesetl/internal/storage"
)

// Repo implements storage.Repository for SQL Server.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
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
		return fmt.Errorf("mssql: table name is empty")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	drop := fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s",
		strings.ReplaceAll(spec.Name, "'", "''"), msIdent(spec.Name))
	if _, err := tx.ExecContext(ctx, drop); err != nil {
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

// ReadTable returns the full table contents.
func (r *Repo) ReadTable(ctx context.Context, name string) ([]string, [][]any, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM "+msIdent(name))
	if err != nil {
		if strings.Contains(err.Error(), "Invalid object name") {
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
		parts = append(parts, msIdent(c.Name)+" "+msType(c.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", msIdent(spec.Name), strings.Join(parts, ",\n  "))
}

func msType(logical string) string {
	switch logical {
	case storage.TypeInteger:
		return "BIGINT"
	case storage.TypeReal:
		return "FLOAT"
	case storage.TypeDate:
		return "DATE"
	case storage.TypeTimestamp:
		return "DATETIMEOFFSET"
	default:
		return "NVARCHAR(MAX)"
	}
}

// SQL Server caps a statement at 2100 parameters; stay well below.
const maxParams = 2000

func insertRows(ctx context.Context, tx *sql.Tx, spec storage.TableSpec, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	nCols := len(spec.Columns)
	perChunk := maxParams / nCols
	if perChunk < 1 {
		perChunk = 1
	}

	colList := make([]string, 0, nCols)
	for _, c := range spec.Columns {
		colList = append(colList, msIdent(c.Name))
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", msIdent(spec.Name), strings.Join(colList, ", "))

	for start := 0; start < len(rows); start += perChunk {
		end := start + perChunk
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		var b strings.Builder
		b.WriteString(prefix)
		args := make([]any, 0, len(chunk)*nCols)
		p := 0
		for i, row := range chunk {
			if len(row) != nCols {
				return fmt.Errorf("row length %d != columns length %d", len(row), nCols)
			}
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("(")
			for j, v := range row {
				if j > 0 {
					b.WriteString(", ")
				}
				p++
				fmt.Fprintf(&b, "@p%d", p)
				args = append(args, bindValue(v, spec.Columns[j].Type))
			}
			b.WriteString(")")
		}

		if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

// bindValue truncates date-typed time values so DATE columns do not reject a
// time-of-day component.
func bindValue(v any, logical string) any {
	t, ok := v.(time.Time)
	if !ok || logical != storage.TypeDate {
		return v
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func msIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
