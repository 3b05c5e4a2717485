package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/brianvoe/gofakeit/v7"

	"fog-fraud-lab/internal/domain"
)

// GeneratorOptions configures synthetic dataset generation.
type GeneratorOptions struct {
	Rows      int
	FraudRate float64 // fraction of rows labeled fraud, in [0,1]
	Seed      uint64  // 0 means non-deterministic
}

// Generate writes a synthetic simulation dataset with the standard header
// (Time, V1..V28, Amount, Class). Fraudulent rows get shifted feature
// distributions and larger amounts so a trained classifier has signal.
func Generate(w io.Writer, opts GeneratorOptions) error {
	if opts.Rows <= 0 {
		return fmt.Errorf("generate dataset: rows must be positive")
	}
	if opts.FraudRate < 0 || opts.FraudRate > 1 {
		return fmt.Errorf("generate dataset: fraud rate %v out of [0,1]", opts.FraudRate)
	}

	faker := gofakeit.New(opts.Seed)

	cw := csv.NewWriter(w)
	header := make([]string, 0, domain.FeatureCount+3)
	header = append(header, "Time")
	for i := 1; i <= domain.FeatureCount; i++ {
		header = append(header, fmt.Sprintf("V%d", i))
	}
	header = append(header, "Amount", "Class")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write dataset header: %w", err)
	}

	clock := 0.0
	for i := 0; i < opts.Rows; i++ {
		clock += faker.Float64Range(0.5, 30)
		fraud := faker.Float64Range(0, 1) < opts.FraudRate

		record := make([]string, 0, domain.FeatureCount+3)
		record = append(record, strconv.FormatFloat(clock, 'f', 0, 64))
		for j := 0; j < domain.FeatureCount; j++ {
			v := faker.Float64Range(-2, 2)
			if fraud {
				v += faker.Float64Range(1, 3)
			}
			record = append(record, strconv.FormatFloat(v, 'f', 6, 64))
		}

		amount := faker.Float64Range(1, 200)
		if fraud {
			amount = faker.Float64Range(200, 2500)
		}
		record = append(record, strconv.FormatFloat(amount, 'f', 2, 64))

		label := "0"
		if fraud {
			label = "1"
		}
		record = append(record, label)

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write dataset row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush dataset: %w", err)
	}
	return nil
}
