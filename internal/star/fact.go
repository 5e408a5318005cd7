package star

import (
	"salesetl/internal/sanitize"
	"salesetl/internal/schema"
)

// factColumn describes one fact table column: where its value comes from and
// which logical field (if any) must be resolved for it to appear at all.
type factColumn struct {
	name string
	typ  string
	// source is the logical field the column is copied from; empty for
	// derived columns, which are always present.
	source schema.Field
	value  func(r sanitize.Row) any
}

var factColumns = []factColumn{
	{name: "sales_id", typ: TypeInteger},
	{name: "order_id", typ: TypeText, source: schema.OrderID,
		value: func(r sanitize.Row) any { return r.OrderID }},
	{name: "order_date", typ: TypeDate, source: schema.OrderDate,
		value: func(r sanitize.Row) any { return r.OrderDate }},
	{name: "order_date_key", typ: TypeInteger},
	{name: "ship_date", typ: TypeDate, source: schema.ShipDate,
		value: func(r sanitize.Row) any { return nullableTime(r.ShipDate) }},
	{name: "ship_mode", typ: TypeText, source: schema.ShipMode,
		value: func(r sanitize.Row) any { return nullableString(r.ShipMode) }},
	{name: "customer_id", typ: TypeText, source: schema.CustomerID,
		value: func(r sanitize.Row) any { return r.CustomerID }},
	{name: "product_id", typ: TypeText, source: schema.ProductID,
		value: func(r sanitize.Row) any { return r.ProductID }},
	{name: "country", typ: TypeText, source: schema.Country,
		value: func(r sanitize.Row) any { return nullableString(r.Country) }},
	{name: "city", typ: TypeText, source: schema.City,
		value: func(r sanitize.Row) any { return nullableString(r.City) }},
	{name: "state", typ: TypeText, source: schema.State,
		value: func(r sanitize.Row) any { return nullableString(r.State) }},
	{name: "region", typ: TypeText, source: schema.Region,
		value: func(r sanitize.Row) any { return nullableString(r.Region) }},
	{name: "quantity", typ: TypeReal, source: schema.Quantity,
		value: func(r sanitize.Row) any { return r.Quantity }},
	{name: "sales_amount", typ: TypeReal, source: schema.Sales,
		value: func(r sanitize.Row) any { return nullableFloat(r.Sales) }},
	{name: "gross_sales", typ: TypeReal},
	{name: "discount", typ: TypeReal, source: schema.Discount,
		value: func(r sanitize.Row) any { return nullableFloat(r.Discount) }},
	{name: "discount_pct", typ: TypeReal},
	{name: "profit", typ: TypeReal, source: schema.Profit,
		value: func(r sanitize.Row) any { return nullableFloat(r.Profit) }},
}

// BuildFact derives the sales fact table from the working rows.
//
// Behavior:
//   - One fact row per working row, in sanitized order; sales_id is a 1-based
//     sequential surrogate assigned in that order.
//   - order_date_key follows the dim_date YYYYMMDD formula.
//   - gross_sales = sales + discount with nulls treated as 0; discount_pct =
//     discount/gross_sales when gross_sales > 0, else 0. The stored discount
//     column keeps its null.
//   - Columns whose logical source field is absent from cm are omitted from
//     the output column set entirely; derived columns are always present.
func BuildFact(rows []sanitize.Row, cm schema.ColumnMap) Table {
	cols := make([]factColumn, 0, len(factColumns))
	for _, c := range factColumns {
		if c.source != "" && !cm.Has(c.source) {
			continue
		}
		cols = append(cols, c)
	}

	t := Table{Name: "fact_sales"}
	for _, c := range cols {
		t.Columns = append(t.Columns, c.name)
		t.Types = append(t.Types, c.typ)
	}

	for i, r := range rows {
		sales := 0.0
		if r.Sales != nil {
			sales = *r.Sales
		}
		discount := 0.0
		if r.Discount != nil {
			discount = *r.Discount
		}
		gross := sales + discount
		pct := 0.0
		if gross > 0 {
			pct = discount / gross
		}

		out := make([]any, len(cols))
		for j, c := range cols {
			switch c.name {
			case "sales_id":
				out[j] = int64(i + 1)
			case "order_date_key":
				out[j] = DateKey(r.OrderDate)
			case "gross_sales":
				out[j] = gross
			case "discount_pct":
				out[j] = pct
			default:
				out[j] = c.value(r)
			}
		}
		t.Rows = append(t.Rows, out)
	}
	return t
}
