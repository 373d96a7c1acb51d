package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"airbnb-cleaner/models"
)

// CSVWriter serializes a cleaned table to a CSV file, no index column.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path.
// Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	return &CSVWriter{file: f, writer: csv.NewWriter(f)}, nil
}

// WriteTable writes the header row followed by every data row. Null
// cells serialize as empty strings.
func (c *CSVWriter) WriteTable(t *models.Table) error {
	if err := c.writer.Write(t.Columns()); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	row := make([]string, t.NumCols())
	for r := 0; r < t.NumRows(); r++ {
		for i := range row {
			row[i] = t.CellAt(r, i).Display()
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row %d: %w", r+1, err)
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
