package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"emas-scraper/models"
)

// CSVWriter appends raw (unnormalized) extracted fields to a CSV file so
// silent extraction gaps can be diagnosed after a source changes layout.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"source", "category", "weight_text", "sell_text", "buy_text", "extracted_at",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends the extracted fields of one run to the CSV file.
func (c *CSVWriter) WriteRaw(fields []*models.RawField) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	extractedAt := time.Now().Format(time.RFC3339)
	for _, f := range fields {
		row := []string{
			f.Source,
			f.Category,
			f.WeightText,
			f.SellText,
			f.BuyText,
			extractedAt,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
