// Package sanitize turns raw source records into the typed working row set.
// It enforces the data-quality invariants: required keys present, quantity
// positive, dates and numerics coerced or null.
package sanitize

import (
	"strconv"
	"strings"
	"time"

	"salesetl/internal/schema"
)

// Row is a sanitized working row holding exactly the logical fields.
//
// Invariants (guaranteed for every Row produced by Sanitize):
//   - OrderID, CustomerID, ProductID are non-empty.
//   - OrderDate is a valid date.
//   - Quantity > 0.
//
// All other fields are nullable; nil means the value was missing or failed
// coercion.
type Row struct {
	OrderID   string
	OrderDate time.Time
	ShipDate  *time.Time
	ShipMode  *string

	CustomerID   string
	CustomerName *string
	Segment      *string
	Country      *string
	City         *string
	State        *string
	Region       *string
	PostalCode   *string

	ProductID   string
	ProductName *string
	Category    *string
	SubCategory *string

	Sales    *float64
	Quantity float64
	Discount *float64
	Profit   *float64
}

// Report summarizes what Sanitize did to the input.
type Report struct {
	RowsIn  int
	RowsOut int

	// DroppedMissingKey counts rows dropped for a null order_id, customer_id,
	// product_id or order_date.
	DroppedMissingKey int
	// DroppedQuantity counts rows dropped for null or non-positive quantity.
	DroppedQuantity int
}

// Sanitize coerces and filters raw records into working rows.
//
// Field extraction follows the column map: a logical field absent from the
// source is null for every row, a field mapped past the end of a short record
// is null for that row. Coercion failures become nulls and never abort the
// run; rows violating the required-key or quantity invariants are dropped and
// counted.
func Sanitize(records [][]string, cm schema.ColumnMap) ([]Row, Report) {
	rep := Report{RowsIn: len(records)}
	out := make([]Row, 0, len(records))

	for _, rec := range records {
		get := func(f schema.Field) string {
			i := cm[f]
			if i < 0 || i >= len(rec) {
				return ""
			}
			return rec[i]
		}

		orderID := get(schema.OrderID)
		customerID := get(schema.CustomerID)
		productID := get(schema.ProductID)
		orderDate, dateOK := ParseDate(get(schema.OrderDate))

		if orderID == "" || customerID == "" || productID == "" || !dateOK {
			rep.DroppedMissingKey++
			continue
		}

		qty, qtyOK := ParseNumber(get(schema.Quantity))
		if !qtyOK || qty <= 0 {
			rep.DroppedQuantity++
			continue
		}

		r := Row{
			OrderID:      orderID,
			OrderDate:    orderDate,
			ShipMode:     optString(get(schema.ShipMode)),
			CustomerID:   customerID,
			CustomerName: optString(get(schema.CustomerName)),
			Segment:      optString(get(schema.Segment)),
			Country:      optString(get(schema.Country)),
			City:         optString(get(schema.City)),
			State:        optString(get(schema.State)),
			Region:       optString(get(schema.Region)),
			PostalCode:   optString(get(schema.PostalCode)),
			ProductID:    productID,
			ProductName:  optString(get(schema.ProductName)),
			Category:     optString(get(schema.Category)),
			SubCategory:  optString(get(schema.SubCategory)),
			Quantity:     qty,
		}
		if d, ok := ParseDate(get(schema.ShipDate)); ok {
			r.ShipDate = &d
		}
		r.Sales = optNumber(get(schema.Sales))
		r.Discount = optNumber(get(schema.Discount))
		r.Profit = optNumber(get(schema.Profit))

		out = append(out, r)
	}

	rep.RowsOut = len(out)
	return out, rep
}

// dateLayouts are tried in order. Month-first US forms outrank day-first
// since the source is a US retail export.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006",
	"1/2/2006 15:04",
	"2/1/2006",
	"02.01.2006",
	time.RFC3339,
}

// ParseDate parses a date-like value, truncating any time-of-day component.
// Unparsable or empty input returns ok=false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a numeric value, tolerating thousands separators and a
// leading currency sign. Unparsable or empty input returns ok=false.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optNumber(s string) *float64 {
	f, ok := ParseNumber(s)
	if !ok {
		return nil
	}
	return &f
}
