// Command gendata writes a reproducible synthetic training dataset so the
// model can be trained without the historical CSV.
//
// Usage:
//
//	go run ./cmd/gendata -out ml/rainfall_data.csv -rows 1000 -seed 42
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fixmycity/rainfall-service/internal/model"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "ml/rainfall_data.csv", "output path for the CSV dataset")
	rows := flag.Int("rows", 1000, "number of records to generate")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *rows < 1 {
		flag.Usage()
		return errors.New("-rows must be at least 1")
	}

	records := model.SyntheticDataset(*rows, *seed)

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := model.WriteDataset(w, records); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", *out, err)
	}

	log.Printf("wrote %d records to %s (seed %d)", len(records), *out, *seed)
	return nil
}
