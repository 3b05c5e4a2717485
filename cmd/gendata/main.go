// gendata writes synthetic per-node simulation datasets in the same CSV
// shape the edge emitter replays (Time, V1..V28, Amount, Class).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"fog-fraud-lab/internal/dataset"
)

func main() {
	outDir := flag.String("out", ".", "Output directory for the generated CSV files")
	nodes := flag.Int("nodes", 3, "Number of node datasets to generate")
	rows := flag.Int("rows", 500, "Rows per dataset")
	fraudRate := flag.Float64("fraud-rate", 0.05, "Fraction of rows labeled as fraud")
	seed := flag.Uint64("seed", 0, "Random seed (0 for time-based)")

	flag.Parse()

	logger := log.New(os.Stdout, "[gendata] ", log.LstdFlags)

	if *nodes < 1 {
		logger.Fatal("--nodes must be at least 1")
	}
	if *fraudRate < 0 || *fraudRate > 1 {
		logger.Fatal("--fraud-rate must be in [0,1]")
	}

	for i := 1; i <= *nodes; i++ {
		// Per-node offset keeps seeded runs reproducible without every node
		// getting an identical dataset.
		nodeSeed := *seed
		if nodeSeed != 0 {
			nodeSeed += uint64(i)
		}
		path := filepath.Join(*outDir, fmt.Sprintf("simulation_node_%d.csv", i))
		if err := writeDataset(path, dataset.GeneratorOptions{
			Rows:      *rows,
			FraudRate: *fraudRate,
			Seed:      nodeSeed,
		}); err != nil {
			logger.Fatalf("Failed to generate %s: %v", path, err)
		}
		logger.Printf("Wrote %s (%d rows)", path, *rows)
	}
}

func writeDataset(path string, opts dataset.GeneratorOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dataset.Generate(f, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
