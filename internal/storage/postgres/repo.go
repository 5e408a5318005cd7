// Package postgres implements the storage.Repository contract on Postgres
// via pgx. Bulk loading uses the COPY protocol, which is the fastest path
// for whole-table replacement.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesetl/internal/storage"
)

// Repo implements storage.Repository for Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

// New creates a Postgres-backed Repo and verifies connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() { r.pool.Close() }

// ReplaceTable drops, recreates and COPY-loads the table in one transaction.
func (r *Repo) ReplaceTable(ctx context.Context, spec storage.TableSpec, rows [][]any) error {
	if strings.TrimSpace(spec.Name) == "" {
		return fmt.Errorf("postgres: table name is empty")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+pgIdent(spec.Name)); err != nil {
		return fmt.Errorf("drop table %s: %w", spec.Name, err)
	}
	if _, err := tx.Exec(ctx, createTableSQL(spec)); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Name, err)
	}

	if len(rows) > 0 {
		cols := make([]string, 0, len(spec.Columns))
		for _, c := range spec.Columns {
			cols = append(cols, c.Name)
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{spec.Name}, cols, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy into %s: %w", spec.Name, err)
		}
		if n != int64(len(rows)) {
			return fmt.Errorf("copy into %s: wrote %d of %d rows", spec.Name, n, len(rows))
		}
	}

	return tx.Commit(ctx)
}

// ReadTable returns the full table contents.
func (r *Repo) ReadTable(ctx context.Context, name string) ([]string, [][]any, error) {
	rows, err := r.pool.Query(ctx, "SELECT * FROM "+pgIdent(name))
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil, fmt.Errorf("%w: %s", storage.ErrTableNotFound, name)
		}
		return nil, nil, err
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}

	var out [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		if isUndefinedTable(err) {
			return nil, nil, fmt.Errorf("%w: %s", storage.ErrTableNotFound, name)
		}
		return nil, nil, err
	}
	return cols, out, nil
}

// isUndefinedTable matches SQLSTATE 42P01 (undefined_table).
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

func createTableSQL(spec storage.TableSpec) string {
	parts := make([]string, 0, len(spec.Columns))
	for _, c := range spec.Columns {
		parts = append(parts, pgIdent(c.Name)+" "+pgType(c.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", pgIdent(spec.Name), strings.Join(parts, ",\n  "))
}

func pgType(logical string) string {
	switch logical {
	case storage.TypeInteger:
		return "BIGINT"
	case storage.TypeReal:
		return "DOUBLE PRECISION"
	case storage.TypeDate:
		return "DATE"
	case storage.TypeTimestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func pgIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
