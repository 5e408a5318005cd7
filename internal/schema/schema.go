// Package schema defines the logical field set of the retail transactions
// source and the resolver that maps messy spreadsheet headers onto it.
//
// The resolver is a pure function from (raw header list) -> (logical->actual
// mapping). It carries the entire input-compatibility surface of the
// pipeline: any future source format whose headers satisfy the synonym table
// is supported without code change.
package schema

import "strings"

// Field is a canonical logical field name.
type Field string

const (
	OrderID      Field = "order_id"
	OrderDate    Field = "order_date"
	ShipDate     Field = "ship_date"
	ShipMode     Field = "ship_mode"
	CustomerID   Field = "customer_id"
	CustomerName Field = "customer_name"
	Segment      Field = "segment"
	Country      Field = "country"
	City         Field = "city"
	State        Field = "state"
	Region       Field = "region"
	PostalCode   Field = "postal_code"
	ProductID    Field = "product_id"
	ProductName  Field = "product_name"
	Category     Field = "category"
	SubCategory  Field = "sub_category"
	Sales        Field = "sales"
	Quantity     Field = "quantity"
	Discount     Field = "discount"
	Profit       Field = "profit"
)

// Fields lists every logical field in canonical order.
var Fields = []Field{
	OrderID, OrderDate, ShipDate, ShipMode,
	CustomerID, CustomerName, Segment,
	Country, City, State, Region, PostalCode,
	ProductID, ProductName, Category, SubCategory,
	Sales, Quantity, Discount, Profit,
}

// synonyms maps each logical field to its accepted source names, in priority
// order. Matching is exact after NormalizeName; first match wins.
var synonyms = map[Field][]string{
	OrderID:      {"order_id"},
	OrderDate:    {"order_date", "orderdate"},
	ShipDate:     {"ship_date", "shipdate"},
	ShipMode:     {"ship_mode", "shipmode"},
	CustomerID:   {"customer_id", "customerid"},
	CustomerName: {"customer_name", "customername", "customer"},
	Segment:      {"segment"},
	Country:      {"country"},
	City:         {"city"},
	State:        {"state"},
	Region:       {"region"},
	PostalCode:   {"postal_code", "postalcode", "zip", "zipcode"},
	ProductID:    {"product_id", "productid"},
	ProductName:  {"product_name", "productname", "product"},
	Category:     {"category"},
	SubCategory:  {"sub_category", "subcategory"},
	Sales:        {"sales", "sales_amount"},
	Quantity:     {"quantity", "qty"},
	Discount:     {"discount"},
	Profit:       {"profit"},
}

// NormalizeName converts a raw header into the canonical comparison form:
// lowercase, edge whitespace trimmed, spaces and hyphens turned into
// underscores. "Sub-Category" and "sub_category" normalize identically.
func NormalizeName(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// ColumnMap records, for every logical field, the index of the source column
// it resolved to, or -1 when the field is absent from the source.
//
// A ColumnMap is built once per ingestion run and is read-only thereafter.
type ColumnMap map[Field]int

// Has reports whether the logical field resolved to a source column.
func (m ColumnMap) Has(f Field) bool { return m[f] >= 0 }

// Resolve maps raw header names onto the logical schema.
//
// Each header is normalized once; for every logical field the synonym list is
// tested in priority order against the normalized headers and the first match
// wins. When two source columns normalize to the same name, the leftmost one
// is used.
func Resolve(headers []string) ColumnMap {
	byName := make(map[string]int, len(headers))
	for i, h := range headers {
		n := NormalizeName(h)
		if _, ok := byName[n]; !ok {
			byName[n] = i
		}
	}

	m := make(ColumnMap, len(Fields))
	for _, f := range Fields {
		m[f] = -1
		for _, cand := range synonyms[f] {
			if i, ok := byName[cand]; ok {
				m[f] = i
				break
			}
		}
	}
	return m
}

// Describe renders one "logical -> actual" line per field for operator
// diagnostics. The output is informational only; nothing parses it.
func (m ColumnMap) Describe(headers []string) []string {
	out := make([]string, 0, len(Fields))
	for _, f := range Fields {
		actual := "absent"
		if i := m[f]; i >= 0 && i < len(headers) {
			actual = headers[i]
		}
		out = append(out, string(f)+" -> "+actual)
	}
	return out
}
