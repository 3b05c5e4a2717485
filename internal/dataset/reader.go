// Package dataset reads and generates the simulation CSV datasets replayed
// by edge nodes (Time, V1..V28, Amount and the ground-truth Class label).
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"fog-fraud-lab/internal/domain"
)

// Row is one dataset record. Blank cells stay nil and flow through to the
// payload (and ultimately to NULL columns) unchanged.
type Row struct {
	Time     *float64
	Features [domain.FeatureCount]*float64
	Amount   *float64
	Class    *int // ground-truth label, stripped before publishing
}

// Reader streams rows from a simulation CSV file.
type Reader struct {
	f      *os.File
	csv    *csv.Reader
	cols   map[string]int // lower-cased header name -> column index
	record int
}

// Open opens the dataset at path and reads its header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["time"]; !ok {
		f.Close()
		return nil, fmt.Errorf("dataset %s has no Time column", path)
	}

	return &Reader{f: f, csv: r, cols: cols}, nil
}

// Next returns the next row, or io.EOF when the dataset is exhausted.
func (r *Reader) Next() (*Row, error) {
	record, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read dataset record %d: %w", r.record+1, err)
	}
	r.record++

	row := &Row{
		Time:   r.float(record, "time"),
		Amount: r.float(record, "amount"),
	}
	for i := 0; i < domain.FeatureCount; i++ {
		row.Features[i] = r.float(record, fmt.Sprintf("v%d", i+1))
	}
	if c := r.float(record, "class"); c != nil {
		label := int(*c)
		row.Class = &label
	}
	return row, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// float parses the named cell; blank or unparsable cells are nil.
func (r *Reader) float(record []string, name string) *float64 {
	idx, ok := r.cols[name]
	if !ok || idx >= len(record) {
		return nil
	}
	cell := strings.TrimSpace(record[idx])
	if cell == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil
	}
	return &v
}

// FeatureVector lays the row out as the classifier's input (Time, V1..V28,
// Amount). Absent values are treated as zero, which after standard scaling
// lands them at the mean-relative origin.
func (row *Row) FeatureVector() []float64 {
	vec := make([]float64, 0, domain.FeatureCount+2)
	vec = append(vec, orZero(row.Time))
	for _, f := range row.Features {
		vec = append(vec, orZero(f))
	}
	vec = append(vec, orZero(row.Amount))
	return vec
}

func orZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
