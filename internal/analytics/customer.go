package analytics

import (
	"sort"
	"strconv"
	"time"

	"salesetl/internal/star"
)

type customerAgg struct {
	id       string
	revenue  float64
	profit   float64
	quantity float64
	rowCount int64
	orders   map[string]struct{}
	first    time.Time
	last     time.Time

	orderCount int64
	daysSince  int64
	avgOrder   float64
	r, f, m    int
}

// CustomerMetrics derives the per-customer metrics table from the fact table.
//
// Aggregation per customer_id: total_revenue = sum(sales_amount), total_profit
// = sum(profit), total_orders = count-distinct(order_id) with a row-count
// fallback when the order_id column is absent, total_quantity = sum(quantity),
// first/last order date. days_since_last_order is measured against the global
// max order_date across all fact rows, in whole days. avg_order_value is 0
// when a customer somehow has no orders.
//
// RFM scoring: quartile ranks against the p25/p50/p75 cutoffs over all
// customers; R is inverted (5 - quartile of days_since_last_order) so recent
// buyers score high. When order_date is entirely absent, R defaults to 1 for
// every customer instead of failing.
//
// Output rows are sorted by customer_id.
func CustomerMetrics(fact star.Table) star.Table {
	t := star.Table{
		Name: "customer_metrics",
		Columns: []string{
			"customer_id", "total_revenue", "total_profit", "total_orders",
			"total_quantity", "first_order_date", "last_order_date",
			"days_since_last_order", "avg_order_value",
			"r_score", "f_score", "m_score", "rfm_score",
		},
		Types: []string{
			star.TypeText, star.TypeReal, star.TypeReal, star.TypeInteger,
			star.TypeReal, star.TypeDate, star.TypeDate,
			star.TypeInteger, star.TypeReal,
			star.TypeInteger, star.TypeInteger, star.TypeInteger, star.TypeText,
		},
	}

	custIdx := fact.ColumnIndex("customer_id")
	if fact.Empty() || custIdx < 0 {
		return t
	}

	salesIdx := fact.ColumnIndex("sales_amount")
	profitIdx := fact.ColumnIndex("profit")
	orderIdx := fact.ColumnIndex("order_id")
	qtyIdx := fact.ColumnIndex("quantity")
	dateIdx := fact.ColumnIndex("order_date")

	byID := map[string]*customerAgg{}
	var globalMax time.Time

	for _, row := range fact.Rows {
		id, ok := row[custIdx].(string)
		if !ok || id == "" {
			continue
		}
		a := byID[id]
		if a == nil {
			a = &customerAgg{id: id, orders: map[string]struct{}{}}
			byID[id] = a
		}

		a.revenue += numAt(row, salesIdx)
		a.profit += numAt(row, profitIdx)
		a.quantity += numAt(row, qtyIdx)
		a.rowCount++
		if orderIdx >= 0 {
			if oid, ok := row[orderIdx].(string); ok && oid != "" {
				a.orders[oid] = struct{}{}
			}
		}
		if dateIdx >= 0 {
			if d, ok := row[dateIdx].(time.Time); ok {
				if a.first.IsZero() || d.Before(a.first) {
					a.first = d
				}
				if d.After(a.last) {
					a.last = d
				}
				if d.After(globalMax) {
					globalMax = d
				}
			}
		}
	}

	aggs := make([]*customerAgg, 0, len(byID))
	for _, a := range byID {
		aggs = append(aggs, a)
	}
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].id < aggs[j].id })

	for _, a := range aggs {
		a.orderCount = int64(len(a.orders))
		if orderIdx < 0 {
			a.orderCount = a.rowCount
		}
		if dateIdx >= 0 && !a.last.IsZero() {
			a.daysSince = int64(globalMax.Sub(a.last).Hours() / 24)
		}
		if a.orderCount > 0 {
			a.avgOrder = a.revenue / float64(a.orderCount)
		}
	}

	scoreRFM(aggs, dateIdx >= 0)

	for _, a := range aggs {
		t.Rows = append(t.Rows, []any{
			a.id, a.revenue, a.profit, a.orderCount,
			a.quantity, dateOrNil(a.first), dateOrNil(a.last),
			a.daysSince, a.avgOrder,
			int64(a.r), int64(a.f), int64(a.m),
			strconv.Itoa(a.r) + strconv.Itoa(a.f) + strconv.Itoa(a.m),
		})
	}
	return t
}

// scoreRFM assigns R/F/M quartile scores across the customer population.
// haveDates=false means recency is unavailable; R defaults to 1.
func scoreRFM(aggs []*customerAgg, haveDates bool) {
	freq := make([]float64, len(aggs))
	monetary := make([]float64, len(aggs))
	recency := make([]float64, len(aggs))
	for i, a := range aggs {
		freq[i] = float64(a.orderCount)
		monetary[i] = a.revenue
		recency[i] = float64(a.daysSince)
	}

	f25, f50, f75 := quartileCutoffs(freq)
	m25, m50, m75 := quartileCutoffs(monetary)
	r25, r50, r75 := quartileCutoffs(recency)

	for i, a := range aggs {
		if haveDates {
			a.r = 5 - quartileScore(recency[i], r25, r50, r75)
		} else {
			a.r = 1
		}
		a.f = quartileScore(freq[i], f25, f50, f75)
		a.m = quartileScore(monetary[i], m25, m50, m75)
	}
}

func numAt(row []any, idx int) float64 {
	if idx < 0 || idx >= len(row) {
		return 0
	}
	switch v := row[idx].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func dateOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
