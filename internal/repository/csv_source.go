package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"MandiPulse/internal/domain/repository"
)

// headerAliases maps normalized CSV headers onto canonical column names.
var headerAliases = map[string]string{
	"district_name": "district",
	"market_name":   "market",
	"arrival_date":  "price_date",
	"date":          "price_date",
	"modal":         "modal_price",
	"min":           "min_price",
	"max":           "max_price",
}

var requiredColumns = []string{"commodity", "price_date", "modal_price"}

// CSVSource reads the bundled dataset from a CSV file on disk.
type CSVSource struct {
	path string
	open func() (io.ReadCloser, error)
}

var _ repository.PriceSource = (*CSVSource)(nil)

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{
		path: path,
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// NewCSVReaderSource wraps an in-memory reader; name is used in logs and errors.
func NewCSVReaderSource(name string, r io.Reader) *CSVSource {
	return &CSVSource{
		path: name,
		open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	}
}

func (s *CSVSource) Name() string { return "csv:" + s.path }

func (s *CSVSource) Rows(ctx context.Context) ([]repository.RawPrice, error) {
	f, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("csv missing column %q", col)
		}
	}

	col := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []repository.RawPrice
	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				// malformed line, drop it like any other uncoercible row
				continue
			}
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		out = append(out, repository.RawPrice{
			Commodity:  col(row, "commodity"),
			State:      col(row, "state"),
			District:   col(row, "district"),
			Market:     col(row, "market"),
			PriceDate:  col(row, "price_date"),
			ModalPrice: col(row, "modal_price"),
			MinPrice:   col(row, "min_price"),
			MaxPrice:   col(row, "max_price"),
		})
	}
	return out, nil
}

// NormalizeHeader trims, lowercases and underscores a header, then resolves aliases.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.Join(strings.Fields(h), "_")
	if canon, ok := headerAliases[h]; ok {
		return canon
	}
	return h
}
