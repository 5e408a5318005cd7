// Package sample generates a synthetic retail-orders CSV shaped like the
// exports the pipeline normally ingests. It exists for demos and for
// exercising a full run without customer data.
package sample

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Options controls generation.
type Options struct {
	// Rows is the number of order lines to produce. If <= 0, defaults to 500.
	Rows int

	// Seed makes output reproducible. Zero seeds from the clock.
	Seed uint64

	// DefectRate is the fraction of rows given a deliberate data-quality
	// defect (missing key or non-positive quantity) so the sanitizer has
	// something to drop. If <= 0, defaults to 0.05; capped at 0.5.
	DefectRate float64
}

// header matches the column spellings of typical retail exports. The
// resolver maps them to logical fields, so the generator keeps the messy
// original casing on purpose.
var header = []string{
	"Order ID", "Order Date", "Ship Date", "Ship Mode",
	"Customer ID", "Customer Name", "Segment",
	"Country", "City", "State", "Postal Code", "Region",
	"Product ID", "Category", "Sub-Category", "Product Name",
	"Sales", "Quantity", "Discount", "Profit",
}

var shipModes = []string{"Standard Class", "Second Class", "First Class", "Same Day"}
var segments = []string{"Consumer", "Corporate", "Home Office"}
var regions = []string{"West", "East", "Central", "South"}

var catalog = map[string][]string{
	"Furniture":       {"Chairs", "Tables", "Bookcases", "Furnishings"},
	"Office Supplies": {"Paper", "Binders", "Storage", "Art", "Labels"},
	"Technology":      {"Phones", "Accessories", "Machines", "Copiers"},
}

var categories = []string{"Furniture", "Office Supplies", "Technology"}

// customer is a stable identity reused across that customer's orders.
type customer struct {
	id, name, segment    string
	country, city, state string
	postalCode, region   string
}

// WriteFile generates a sample CSV at path.
func WriteFile(path string, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sample: %w", err)
	}

	if err := Write(f, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write generates a sample CSV into w.
func Write(w io.Writer, opts Options) error {
	rows := opts.Rows
	if rows <= 0 {
		rows = 500
	}
	defectRate := opts.DefectRate
	if defectRate <= 0 {
		defectRate = 0.05
	}
	if defectRate > 0.5 {
		defectRate = 0.5
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	faker := gofakeit.New(seed)

	// A small customer pool so orders repeat customers, which gives the
	// RFM scoring something to rank.
	customers := make([]customer, 0, rows/8+1)
	for i := 0; i < cap(customers); i++ {
		addr := faker.Address()
		customers = append(customers, customer{
			id:         fmt.Sprintf("CU-%05d", i+1),
			name:       faker.Name(),
			segment:    segments[faker.IntRange(0, len(segments)-1)],
			country:    "United States",
			city:       addr.City,
			state:      addr.State,
			postalCode: addr.Zip,
			region:     regions[faker.IntRange(0, len(regions)-1)],
		})
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("sample: %w", err)
	}

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		c := customers[faker.IntRange(0, len(customers)-1)]

		orderDate := start.AddDate(0, 0, faker.IntRange(0, 364))
		shipDate := orderDate.AddDate(0, 0, faker.IntRange(1, 6))

		category := categories[faker.IntRange(0, len(categories)-1)]
		subs := catalog[category]
		sub := subs[faker.IntRange(0, len(subs)-1)]

		quantity := faker.IntRange(1, 9)
		unit := 5 + faker.Float64Range(0, 495)
		sales := unit * float64(quantity)
		discount := 0.0
		if faker.IntRange(0, 3) == 0 {
			discount = sales * faker.Float64Range(0.05, 0.3)
		}
		profit := (sales - discount) * faker.Float64Range(-0.1, 0.4)

		rec := []string{
			fmt.Sprintf("OR-%06d", i+1),
			orderDate.Format("2006-01-02"),
			shipDate.Format("2006-01-02"),
			shipModes[faker.IntRange(0, len(shipModes)-1)],
			c.id,
			c.name,
			c.segment,
			c.country,
			c.city,
			c.state,
			c.postalCode,
			c.region,
			fmt.Sprintf("PR-%04d", faker.IntRange(1, 400)),
			category,
			sub,
			faker.ProductName(),
			fmt.Sprintf("%.2f", sales),
			fmt.Sprintf("%d", quantity),
			fmt.Sprintf("%.2f", discount),
			fmt.Sprintf("%.2f", profit),
		}

		if faker.Float64Range(0, 1) < defectRate {
			breakRecord(faker, rec)
		}

		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("sample: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("sample: %w", err)
	}
	return nil
}

// breakRecord introduces one of the defects the sanitizer is built to
// catch: a missing key column, a garbled order date, or a non-positive
// quantity.
func breakRecord(faker *gofakeit.Faker, rec []string) {
	switch faker.IntRange(0, 4) {
	case 0:
		rec[0] = "" // order id
	case 1:
		rec[4] = "" // customer id
	case 2:
		rec[12] = "" // product id
	case 3:
		rec[1] = "not-a-date"
	default:
		rec[17] = "0" // quantity
	}
}
