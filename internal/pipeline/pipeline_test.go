package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	csvparser "salesetl/internal/parser/csv"
	"salesetl/internal/storage"
)

// fakeRepo records ReplaceTable calls in order.
type fakeRepo struct {
	mu     sync.Mutex
	tables []storage.TableSpec
	rows   map[string][][]any
	err    error
	closed bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[string][][]any)}
}

func (f *fakeRepo) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeRepo) ReplaceTable(ctx context.Context, spec storage.TableSpec, rows [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.tables = append(f.tables, spec)
	f.rows[spec.Name] = rows
	return nil
}

func (f *fakeRepo) ReadTable(ctx context.Context, name string) ([]string, [][]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.rows[name]
	if !ok {
		return nil, nil, storage.ErrTableNotFound
	}
	var cols []string
	for _, spec := range f.tables {
		if spec.Name == name {
			for _, c := range spec.Columns {
				cols = append(cols, c.Name)
			}
		}
	}
	return cols, rows, nil
}

// logCapture implements Logger and keeps every formatted line.
type logCapture struct {
	mu    sync.Mutex
	lines []string
}

func (l *logCapture) Printf(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func (l *logCapture) joined() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

const sourceCSV = `Order ID,Order Date,Ship Date,Ship Mode,Customer ID,Customer Name,Segment,Country,City,State,Postal Code,Region,Product ID,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit
CA-001,2024-01-05,2024-01-08,Second Class,CU-1,Alice,Consumer,United States,Seattle,Washington,98101,West,PR-1,Furniture,Chairs,Chair,100.00,2,0,20.00
CA-002,2024-01-06,2024-01-09,Standard Class,CU-2,Bob,Corporate,United States,Portland,Oregon,97201,West,PR-2,Technology,Phones,Phone,250.00,1,0.1,60.00
,2024-01-07,,First Class,CU-3,Carol,Consumer,United States,Denver,Colorado,80201,Central,PR-3,Furniture,Tables,Table,300.00,1,0,30.00
CA-004,2024-01-08,,First Class,CU-1,Alice,Consumer,United States,Seattle,Washington,98101,West,PR-1,Furniture,Chairs,Chair,50.00,0,0,5.00
`

func newTestRunner(repo *fakeRepo, logs *logCapture) *Runner {
	return &Runner{
		NewRepository: func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
			return repo, nil
		},
		Logger: logs,
	}
}

// TestRun_EndToEnd drives a small source file through every stage and
// checks the tables that reach the sink.
func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	logs := &logCapture{}
	r := newTestRunner(repo, logs)

	res, err := r.Run(context.Background(), Options{
		Source: writeSource(t, sourceCSV),
		CSV:    csvparser.DefaultOptions(),
		Storage: storage.Config{
			Kind: "fake",
			DSN:  "unused",
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Two defect rows: one missing order_id, one zero quantity.
	if res.Report.RowsIn != 4 || res.Report.RowsOut != 2 {
		t.Fatalf("report = %+v, want 4 in / 2 out", res.Report)
	}
	if res.Report.DroppedMissingKey != 1 || res.Report.DroppedQuantity != 1 {
		t.Fatalf("drop counts = %+v", res.Report)
	}

	want := []string{
		"sa_dim_customer",
		"sa_dim_product",
		"sa_dim_date",
		"sa_fact_sales",
		"sa_customer_metrics",
		"sa_monthly_sales",
	}
	if len(res.Written) != len(want) {
		t.Fatalf("written = %v, want %v", res.Written, want)
	}
	for i, name := range want {
		if res.Written[i] != name {
			t.Fatalf("written[%d] = %q, want %q", i, res.Written[i], name)
		}
		if repo.tables[i].Name != name {
			t.Fatalf("sink order[%d] = %q, want %q", i, repo.tables[i].Name, name)
		}
	}
	if len(res.Skipped) != 0 {
		t.Fatalf("skipped = %v, want none", res.Skipped)
	}

	// Two surviving rows, two distinct customers.
	if got := len(repo.rows["sa_fact_sales"]); got != 2 {
		t.Fatalf("fact rows = %d, want 2", got)
	}
	if got := len(repo.rows["sa_dim_customer"]); got != 2 {
		t.Fatalf("customer rows = %d, want 2", got)
	}
	// Date dim spans the min..max order date range contiguously.
	if got := len(repo.rows["sa_dim_date"]); got != 2 {
		t.Fatalf("date rows = %d, want 2 (2024-01-05..2024-01-06)", got)
	}

	if !repo.closed {
		t.Fatalf("repository was not closed")
	}

	out := logs.joined()
	for _, frag := range []string{"stage=read ok", "stage=sanitize ok", "stage=build ok", "stage=write ok", "rows_in=4 rows_out=2"} {
		if !strings.Contains(out, frag) {
			t.Fatalf("log output missing %q:\n%s", frag, out)
		}
	}
}

// TestRun_MissingSource verifies the sentinel for an absent source file.
func TestRun_MissingSource(t *testing.T) {
	t.Parallel()

	r := newTestRunner(newFakeRepo(), &logCapture{})
	_, err := r.Run(context.Background(), Options{
		Source: filepath.Join(t.TempDir(), "nope.csv"),
	})
	if !errors.Is(err, ErrSourceMissing) {
		t.Fatalf("err = %v, want ErrSourceMissing", err)
	}
}

// TestRun_EmptyAfterSanitize verifies that a source whose every row is
// dropped produces no writes and no error.
func TestRun_EmptyAfterSanitize(t *testing.T) {
	t.Parallel()

	src := "Order ID,Customer ID,Product ID,Order Date,Quantity\n,,,2024-01-05,1\nCA-1,CU-1,PR-1,2024-01-05,0\n"
	repo := newFakeRepo()
	r := newTestRunner(repo, &logCapture{})

	res, err := r.Run(context.Background(), Options{
		Source: writeSource(t, src),
		CSV:    csvparser.DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Written) != 0 {
		t.Fatalf("written = %v, want none", res.Written)
	}
	if len(res.Skipped) != len(TableBaseNames) {
		t.Fatalf("skipped = %v, want all %d tables", res.Skipped, len(TableBaseNames))
	}
	if len(repo.tables) != 0 {
		t.Fatalf("sink saw %d writes, want 0", len(repo.tables))
	}
}

// TestRun_WriteErrorWrapsTableName verifies sink failures name the table.
func TestRun_WriteErrorWrapsTableName(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.err = errors.New("disk full")
	r := newTestRunner(repo, &logCapture{})

	_, err := r.Run(context.Background(), Options{
		Source: writeSource(t, sourceCSV),
		CSV:    csvparser.DefaultOptions(),
	})
	if err == nil {
		t.Fatalf("Run should fail when the sink fails")
	}
	if !strings.Contains(err.Error(), "sa_dim_customer") {
		t.Fatalf("err = %v, want first table name", err)
	}
}

// TestRun_CustomPrefix verifies the table prefix override.
func TestRun_CustomPrefix(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := newTestRunner(repo, &logCapture{})

	res, err := r.Run(context.Background(), Options{
		Source:      writeSource(t, sourceCSV),
		CSV:         csvparser.DefaultOptions(),
		TablePrefix: "stage_",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Written[0] != "stage_dim_customer" {
		t.Fatalf("written[0] = %q, want stage_dim_customer", res.Written[0])
	}
}
