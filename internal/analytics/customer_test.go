package analytics

import (
	"testing"
	"time"

	"salesetl/internal/star"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func factTable(columns []string, rows ...[]any) star.Table {
	return star.Table{Name: "fact_sales", Columns: columns, Rows: rows}
}

var factCols = []string{"sales_id", "order_id", "order_date", "customer_id", "quantity", "sales_amount", "profit"}

func factRow(id int64, order, cust, day string, qty, sales, profit float64) []any {
	return []any{id, order, date(day), cust, qty, sales, profit}
}

// TestCustomerMetrics_SingleRowScenario pins the documented single-row case:
// total_revenue=100, total_orders=1, avg_order_value=100.
func TestCustomerMetrics_SingleRowScenario(t *testing.T) {
	t.Parallel()

	fact := factTable(factCols, factRow(1, "O1", "C1", "2024-01-05", 2, 100, 20))
	m := CustomerMetrics(fact)

	if len(m.Rows) != 1 {
		t.Fatalf("rows=%d, want 1", len(m.Rows))
	}
	r := m.Rows[0]
	get := func(col string) any { return r[m.ColumnIndex(col)] }

	if get("customer_id") != "C1" {
		t.Errorf("customer_id=%v", get("customer_id"))
	}
	if get("total_revenue") != 100.0 || get("total_orders") != int64(1) {
		t.Errorf("revenue=%v orders=%v", get("total_revenue"), get("total_orders"))
	}
	if get("avg_order_value") != 100.0 {
		t.Errorf("avg_order_value=%v, want 100", get("avg_order_value"))
	}
	if get("total_profit") != 20.0 || get("total_quantity") != 2.0 {
		t.Errorf("profit=%v quantity=%v", get("total_profit"), get("total_quantity"))
	}
	if get("days_since_last_order") != int64(0) {
		t.Errorf("days_since_last_order=%v, want 0", get("days_since_last_order"))
	}
	// Single-customer population: every cutoff equals the value itself, so
	// the quartile rank is 1 and R inverts to 4.
	if get("rfm_score") != "411" {
		t.Errorf("rfm_score=%v, want 411", get("rfm_score"))
	}
}

func TestCustomerMetrics_GroupingAndDistinctOrders(t *testing.T) {
	t.Parallel()

	fact := factTable(factCols,
		factRow(1, "O1", "C1", "2024-01-05", 1, 50, 5),
		factRow(2, "O1", "C1", "2024-01-05", 2, 30, 3), // same order, second line
		factRow(3, "O2", "C1", "2024-02-01", 1, 20, 2),
		factRow(4, "O3", "C2", "2024-03-10", 1, 10, 1),
	)
	m := CustomerMetrics(fact)

	if len(m.Rows) != 2 {
		t.Fatalf("rows=%d, want 2", len(m.Rows))
	}
	// Sorted by customer_id.
	c1 := m.Rows[0]
	get := func(row []any, col string) any { return row[m.ColumnIndex(col)] }

	if get(c1, "customer_id") != "C1" {
		t.Fatalf("row 0 customer=%v, want C1", get(c1, "customer_id"))
	}
	if get(c1, "total_revenue") != 100.0 {
		t.Errorf("C1 revenue=%v, want 100", get(c1, "total_revenue"))
	}
	if get(c1, "total_orders") != int64(2) {
		t.Errorf("C1 orders=%v, want 2 (distinct order_id)", get(c1, "total_orders"))
	}
	if get(c1, "avg_order_value") != 50.0 {
		t.Errorf("C1 avg_order_value=%v, want 50", get(c1, "avg_order_value"))
	}
	if !get(c1, "first_order_date").(time.Time).Equal(date("2024-01-05")) {
		t.Errorf("C1 first=%v", get(c1, "first_order_date"))
	}
	if !get(c1, "last_order_date").(time.Time).Equal(date("2024-02-01")) {
		t.Errorf("C1 last=%v", get(c1, "last_order_date"))
	}

	// Global max order date is 2024-03-10; C1 last ordered 2024-02-01.
	if get(c1, "days_since_last_order") != int64(38) {
		t.Errorf("C1 days_since_last_order=%v, want 38", get(c1, "days_since_last_order"))
	}
	c2 := m.Rows[1]
	if get(c2, "days_since_last_order") != int64(0) {
		t.Errorf("C2 days_since_last_order=%v, want 0", get(c2, "days_since_last_order"))
	}
}

func TestCustomerMetrics_RFMQuartiles(t *testing.T) {
	t.Parallel()

	// Four customers with clearly separated revenue; the top earner must get
	// M=4 and the bottom M=1.
	rows := [][]any{}
	for i, rev := range []float64{10, 20, 30, 1000} {
		cust := string(rune('A' + i))
		rows = append(rows, factRow(int64(i+1), "O"+cust, cust, "2024-01-05", 1, rev, 0))
	}
	m := CustomerMetrics(factTable(factCols, rows...))

	mi := m.ColumnIndex("m_score")
	if got := m.Rows[0][mi]; got != int64(1) {
		t.Errorf("lowest revenue m_score=%v, want 1", got)
	}
	if got := m.Rows[3][mi]; got != int64(4) {
		t.Errorf("highest revenue m_score=%v, want 4", got)
	}
}

// TestCustomerMetrics_OrderIDAbsent verifies the row-count fallback.
func TestCustomerMetrics_OrderIDAbsent(t *testing.T) {
	t.Parallel()

	cols := []string{"sales_id", "order_date", "customer_id", "sales_amount"}
	fact := factTable(cols,
		[]any{int64(1), date("2024-01-05"), "C1", 40.0},
		[]any{int64(2), date("2024-01-06"), "C1", 60.0},
	)
	m := CustomerMetrics(fact)

	get := func(col string) any { return m.Rows[0][m.ColumnIndex(col)] }
	if get("total_orders") != int64(2) {
		t.Errorf("total_orders=%v, want 2 (row count fallback)", get("total_orders"))
	}
	if get("avg_order_value") != 50.0 {
		t.Errorf("avg_order_value=%v, want 50", get("avg_order_value"))
	}
}

// TestCustomerMetrics_OrderDateAbsent verifies R defaults to 1 when recency
// cannot be computed.
func TestCustomerMetrics_OrderDateAbsent(t *testing.T) {
	t.Parallel()

	cols := []string{"sales_id", "order_id", "customer_id", "sales_amount"}
	fact := factTable(cols,
		[]any{int64(1), "O1", "C1", 40.0},
		[]any{int64(2), "O2", "C2", 60.0},
	)
	m := CustomerMetrics(fact)

	ri := m.ColumnIndex("r_score")
	for _, row := range m.Rows {
		if row[ri] != int64(1) {
			t.Errorf("r_score=%v, want 1 when order_date absent", row[ri])
		}
	}
	fi := m.ColumnIndex("first_order_date")
	if m.Rows[0][fi] != nil {
		t.Errorf("first_order_date=%v, want nil", m.Rows[0][fi])
	}
}

func TestCustomerMetrics_EmptyFact(t *testing.T) {
	t.Parallel()

	m := CustomerMetrics(star.Table{Name: "fact_sales", Columns: factCols})
	if !m.Empty() {
		t.Fatalf("rows=%d, want empty", len(m.Rows))
	}
}
