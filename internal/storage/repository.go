// Package storage defines the relational-sink boundary of the pipeline and a
// registry of backend implementations. The contract is deliberately small:
// whole-table replace on write, whole-table read for the exporter, nothing
// else. Partial-write visibility is not guaranteed by any backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Logical column types shared by every backend. Each backend translates them
// into its own dialect.
const (
	TypeText      = "text"
	TypeInteger   = "integer"
	TypeReal      = "real"
	TypeDate      = "date"
	TypeTimestamp = "timestamp"
)

// ErrTableNotFound is returned by ReadTable for tables that do not exist.
// The exporter treats it as "skip", not as a failure.
var ErrTableNotFound = errors.New("storage: table not found")

// TableSpec describes a destination table.
type TableSpec struct {
	Name    string
	Columns []ColumnSpec
}

// ColumnSpec describes one destination column with a logical type.
type ColumnSpec struct {
	Name string
	Type string
}

// Config is the minimal configuration needed to construct a Repository.
type Config struct {
	Kind string
	DSN  string
}

// Repository is the backend-agnostic sink interface.
//
// IMPORTANT: This interface is intentionally minimal and focused on the
// operations the pipeline needs. Each backend implements the semantics in its
// own idiomatic way (DROP+CREATE, dialect type mapping, bind formats).
type Repository interface {
	// Close releases backend resources. Treat as "call once" at shutdown.
	Close()

	// ReplaceTable drops any prior table with spec.Name, recreates it from
	// spec, and inserts all rows. Prior contents are discarded entirely;
	// there is no partial-write visibility guarantee. Rows must be aligned
	// to spec.Columns, with nil for SQL NULL.
	ReplaceTable(ctx context.Context, spec TableSpec, rows [][]any) error

	// ReadTable returns the full contents of a named table.
	//
	// Errors:
	//   - ErrTableNotFound (possibly wrapped) when the table does not exist.
	ReadTable(ctx context.Context, name string) (columns []string, rows [][]any, err error)
}

// ---- backend factories ----

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "sqlite", "postgres").
//
// When to use:
//   - Call Register from an init() function in a backend package.
//
// Panics:
//   - If kind is empty, f is nil, or kind is already registered. Failing
//     fast avoids ambiguous backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing Kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
