package model

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fixmycity/rainfall-service/internal/domain"
)

// ReadDataset loads training records from a CSV file. See ParseDataset.
func ReadDataset(path string) ([]domain.TrainingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	records, err := ParseDataset(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ParseDataset reads CSV rows with a header naming the four feature columns
// and the Rainfall label. Columns may appear in any order; extra columns are
// ignored. Any missing column or unparsable value fails the whole dataset.
func ParseDataset(r io.Reader) ([]domain.TrainingRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	wanted := append(append([]string{}, domain.FeatureNames...), domain.LabelName)
	cols := make([]int, len(wanted))
	var missing []string
	for i, name := range wanted {
		idx, ok := colIdx[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[i] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	var records []domain.TrainingRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		vals := make([]float64, len(cols))
		for i, c := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %s: %w", line, wanted[i], err)
			}
			vals[i] = v
		}

		records = append(records, domain.TrainingRecord{
			Features: domain.Features{
				Temperature: vals[0],
				Humidity:    vals[1],
				Pressure:    vals[2],
				WindSpeed:   vals[3],
			},
			Rainfall: vals[4],
		})
	}

	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	return records, nil
}

// WriteDataset writes records as CSV with the canonical header.
func WriteDataset(w io.Writer, records []domain.TrainingRecord) error {
	cw := csv.NewWriter(w)
	header := append(append([]string{}, domain.FeatureNames...), domain.LabelName)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			formatFloat(r.Temperature),
			formatFloat(r.Humidity),
			formatFloat(r.Pressure),
			formatFloat(r.WindSpeed),
			formatFloat(r.Rainfall),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
