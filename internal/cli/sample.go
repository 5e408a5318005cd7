package cli

import (
	"github.com/spf13/cobra"

	"salesetl/internal/logging"
	"salesetl/internal/sample"
)

var (
	sampleOut        string
	sampleRows       int
	sampleSeed       uint64
	sampleDefectRate float64
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Generate a synthetic source CSV",
	Long: `Generate a synthetic retail-orders CSV shaped like the exports the
pipeline normally ingests, including a small fraction of defective rows
for the sanitizer to drop.

Example:
  salesetl sample --out orders.csv --rows 1000
  salesetl sample --out orders.csv --seed 42 --defect-rate 0.1`,
	RunE: runSample,
}

func init() {
	sampleCmd.Flags().StringVar(&sampleOut, "out", "sample.csv",
		"output file path")
	sampleCmd.Flags().IntVar(&sampleRows, "rows", 500,
		"number of order lines to generate")
	sampleCmd.Flags().Uint64Var(&sampleSeed, "seed", 0,
		"random seed (0 = seed from the clock)")
	sampleCmd.Flags().Float64Var(&sampleDefectRate, "defect-rate", 0.05,
		"fraction of rows given a data-quality defect")
}

func runSample(cmd *cobra.Command, args []string) error {
	err := sample.WriteFile(sampleOut, sample.Options{
		Rows:       sampleRows,
		Seed:       sampleSeed,
		DefectRate: sampleDefectRate,
	})
	if err != nil {
		return err
	}

	logging.Info().
		Str("file", sampleOut).
		Int("rows", sampleRows).
		Msg("sample written")
	return nil
}
