package star

import (
	"strconv"
	"strings"
	"time"

	"salesetl/internal/sanitize"
)

// BuildCustomerDim projects working rows to the customer dimension,
// deduplicated by full-row equality. customer_id is the natural key; no
// surrogate is assigned.
func BuildCustomerDim(rows []sanitize.Row) Table {
	t := Table{
		Name: "dim_customer",
		Columns: []string{
			"customer_id", "customer_name", "segment",
			"country", "city", "state", "region", "postal_code",
		},
		Types: []string{
			TypeText, TypeText, TypeText,
			TypeText, TypeText, TypeText, TypeText, TypeText,
		},
	}

	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		out := []any{
			r.CustomerID,
			nullableString(r.CustomerName),
			nullableString(r.Segment),
			nullableString(r.Country),
			nullableString(r.City),
			nullableString(r.State),
			nullableString(r.Region),
			nullableString(r.PostalCode),
		}
		k := rowKey(out)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		t.Rows = append(t.Rows, out)
	}
	return t
}

// BuildProductDim projects working rows to the product dimension,
// deduplicated by full-row equality.
func BuildProductDim(rows []sanitize.Row) Table {
	t := Table{
		Name:    "dim_product",
		Columns: []string{"product_id", "product_name", "category", "sub_category"},
		Types:   []string{TypeText, TypeText, TypeText, TypeText},
	}

	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		out := []any{
			r.ProductID,
			nullableString(r.ProductName),
			nullableString(r.Category),
			nullableString(r.SubCategory),
		}
		k := rowKey(out)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		t.Rows = append(t.Rows, out)
	}
	return t
}

// BuildDateDim generates one row per calendar day spanning the inclusive
// [min(order_date), max(order_date)] range of the working rows. The dimension
// is generated, never sourced: days with no transactions still get a row.
// An empty working set yields an empty dimension.
func BuildDateDim(rows []sanitize.Row) Table {
	t := Table{
		Name: "dim_date",
		Columns: []string{
			"date", "date_key", "day", "month", "month_name",
			"year", "quarter", "day_of_week", "day_name", "is_weekend",
		},
		Types: []string{
			TypeDate, TypeInteger, TypeInteger, TypeInteger, TypeText,
			TypeInteger, TypeInteger, TypeInteger, TypeText, TypeInteger,
		},
	}
	if len(rows) == 0 {
		return t
	}

	min, max := rows[0].OrderDate, rows[0].OrderDate
	for _, r := range rows[1:] {
		if r.OrderDate.Before(min) {
			min = r.OrderDate
		}
		if r.OrderDate.After(max) {
			max = r.OrderDate
		}
	}

	for d := min; !d.After(max); d = d.AddDate(0, 0, 1) {
		dow := mondayIndexed(d.Weekday())
		weekend := int64(0)
		if dow >= 5 {
			weekend = 1
		}
		t.Rows = append(t.Rows, []any{
			d,
			DateKey(d),
			int64(d.Day()),
			int64(d.Month()),
			d.Format("Jan"),
			int64(d.Year()),
			int64((int(d.Month())-1)/3 + 1),
			int64(dow),
			d.Format("Monday"),
			weekend,
		})
	}
	return t
}

// mondayIndexed converts Go's Sunday-origin weekday to the 0=Monday origin
// used by the date dimension.
func mondayIndexed(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// rowKey builds a dedupe key over a projected row. Every present value is
// written with an explicit length prefix so no byte sequence inside a value
// can fake a field boundary, and nil stays distinct from every string.
func rowKey(vals []any) string {
	var b strings.Builder
	for _, v := range vals {
		if v == nil {
			b.WriteByte(0)
			continue
		}
		s := v.(string)
		b.WriteByte(1)
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}
