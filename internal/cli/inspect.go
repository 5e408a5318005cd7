package cli

import (
	"github.com/spf13/cobra"

	csvparser "salesetl/internal/parser/csv"
	"salesetl/internal/sanitize"
	"salesetl/internal/schema"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Report how a source file would resolve and sanitize",
	Long: `Read the source file and report the header-to-field resolution plus
the row counts the sanitizer would produce, without touching the sink.
Use this to check a new export before running the pipeline against it.

Example:
  salesetl inspect --source orders.csv`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	header, records, err := csvparser.ReadFile(cfg.Source.Path, csvparser.Options{
		Comma:      cfg.CommaRune(),
		TrimSpace:  cfg.Parser.TrimSpace,
		LazyQuotes: cfg.Parser.LazyQuotes,
		Encoding:   cfg.Parser.Encoding,
	})
	if err != nil {
		return err
	}

	cm := schema.Resolve(header)
	cmd.Printf("source: %s\n", cfg.Source.Path)
	cmd.Printf("columns: %d, rows: %d\n\n", len(header), len(records))
	for _, line := range cm.Describe(header) {
		cmd.Println("  " + line)
	}

	_, report := sanitize.Sanitize(records, cm)
	cmd.Printf("\nrows_in=%d rows_out=%d dropped_missing_key=%d dropped_quantity=%d\n",
		report.RowsIn, report.RowsOut, report.DroppedMissingKey, report.DroppedQuantity)
	return nil
}
