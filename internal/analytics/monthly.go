package analytics

import (
	"sort"
	"time"

	"salesetl/internal/star"
)

type monthAgg struct {
	year, month int
	revenue     float64
	profit      float64
	rowCount    int64
	orders      map[string]struct{}
}

// MonthlySales derives the monthly rollup table from the fact table.
//
// Grouping is by (year, month) of order_date. monthly_profit falls back to
// the revenue sum when the profit column is absent; total_orders falls back
// to the row count when order_id is absent. Rows are sorted ascending by
// (year, month) and cumulative_revenue is the running sum of monthly_revenue
// in that order — this is the only table with a defined row ordering.
//
// When order_date or sales_amount is entirely absent the result is empty, not
// an error.
func MonthlySales(fact star.Table) star.Table {
	t := star.Table{
		Name: "monthly_sales",
		Columns: []string{
			"year", "month", "monthly_revenue", "monthly_profit",
			"total_orders", "cumulative_revenue",
		},
		Types: []string{
			star.TypeInteger, star.TypeInteger, star.TypeReal, star.TypeReal,
			star.TypeInteger, star.TypeReal,
		},
	}

	dateIdx := fact.ColumnIndex("order_date")
	salesIdx := fact.ColumnIndex("sales_amount")
	if fact.Empty() || dateIdx < 0 || salesIdx < 0 {
		return t
	}

	profitIdx := fact.ColumnIndex("profit")
	orderIdx := fact.ColumnIndex("order_id")

	byMonth := map[[2]int]*monthAgg{}
	for _, row := range fact.Rows {
		d, ok := row[dateIdx].(time.Time)
		if !ok {
			continue
		}
		k := [2]int{d.Year(), int(d.Month())}
		a := byMonth[k]
		if a == nil {
			a = &monthAgg{year: k[0], month: k[1], orders: map[string]struct{}{}}
			byMonth[k] = a
		}

		a.revenue += numAt(row, salesIdx)
		if profitIdx >= 0 {
			a.profit += numAt(row, profitIdx)
		} else {
			a.profit += numAt(row, salesIdx)
		}
		a.rowCount++
		if orderIdx >= 0 {
			if oid, ok := row[orderIdx].(string); ok && oid != "" {
				a.orders[oid] = struct{}{}
			}
		}
	}

	months := make([]*monthAgg, 0, len(byMonth))
	for _, a := range byMonth {
		months = append(months, a)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})

	cumulative := 0.0
	for _, a := range months {
		orders := int64(len(a.orders))
		if orderIdx < 0 {
			orders = a.rowCount
		}
		cumulative += a.revenue
		t.Rows = append(t.Rows, []any{
			int64(a.year), int64(a.month), a.revenue, a.profit,
			orders, cumulative,
		})
	}
	return t
}
