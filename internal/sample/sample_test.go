package sample

import (
	"bytes"
	"path/filepath"
	"testing"

	csvparser "salesetl/internal/parser/csv"
	"salesetl/internal/sanitize"
	"salesetl/internal/schema"
)

func generate(t *testing.T, opts Options) ([]string, [][]string) {
	t.Helper()

	var buf bytes.Buffer
	if err := Write(&buf, opts); err != nil {
		t.Fatalf("Write: %v", err)
	}

	header, records, err := csvparser.Read(&buf, csvparser.DefaultOptions())
	if err != nil {
		t.Fatalf("parse generated csv: %v", err)
	}
	return header, records
}

// The generated header must resolve every logical field.
func TestWrite_HeaderResolvesFully(t *testing.T) {
	t.Parallel()

	header, records := generate(t, Options{Rows: 50, Seed: 1})
	if len(records) != 50 {
		t.Fatalf("rows = %d, want 50", len(records))
	}

	cm := schema.Resolve(header)
	for _, f := range schema.Fields {
		if !cm.Has(f) {
			t.Fatalf("field %s not resolved from generated header", f)
		}
	}
}

// Generation is reproducible for a fixed seed.
func TestWrite_SeedIsReproducible(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	if err := Write(&a, Options{Rows: 20, Seed: 7}); err != nil {
		t.Fatalf("Write a: %v", err)
	}
	if err := Write(&b, Options{Rows: 20, Seed: 7}); err != nil {
		t.Fatalf("Write b: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("same seed produced different output")
	}
}

// A generous defect rate must leave the sanitizer rows to drop, and a
// zero-defect run must survive sanitization intact.
func TestWrite_DefectRateFeedsSanitizer(t *testing.T) {
	t.Parallel()

	header, records := generate(t, Options{Rows: 400, Seed: 3, DefectRate: 0.3})
	cm := schema.Resolve(header)
	_, report := sanitize.Sanitize(records, cm)

	dropped := report.DroppedMissingKey + report.DroppedQuantity
	if dropped == 0 {
		t.Fatalf("defect rate 0.3 produced no droppable rows")
	}
	if report.RowsOut == 0 {
		t.Fatalf("every row was dropped; defect capping failed")
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sample.csv")
	if err := WriteFile(path, Options{Rows: 5, Seed: 2}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	header, records, err := csvparser.ReadFile(path, csvparser.DefaultOptions())
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(header) != 20 || len(records) != 5 {
		t.Fatalf("got %d columns / %d rows", len(header), len(records))
	}
}
