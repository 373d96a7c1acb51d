package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"airbnb-cleaner/models"
)

// XLSXWriter serializes a cleaned table to a spreadsheet. Rows go
// through the excelize stream writer so memory stays flat on large
// exports.
type XLSXWriter struct {
	path string
	file *excelize.File
}

// NewXLSXWriter prepares a workbook for the given path. Intermediate
// directories are created automatically; nothing is written until
// WriteTable runs.
func NewXLSXWriter(path string) (*XLSXWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("xlsx: create output dir: %w", err)
	}
	return &XLSXWriter{path: path, file: excelize.NewFile()}, nil
}

// WriteTable writes the header and all data rows to the default sheet
// and saves the workbook. Numbers stay numeric cells, null cells stay
// empty.
func (x *XLSXWriter) WriteTable(t *models.Table) error {
	sw, err := x.file.NewStreamWriter("Sheet1")
	if err != nil {
		return fmt.Errorf("xlsx: stream writer: %w", err)
	}

	header := make([]interface{}, t.NumCols())
	for i, col := range t.Columns() {
		header[i] = col
	}
	if err := setStreamRow(sw, 1, header); err != nil {
		return err
	}

	for r := 0; r < t.NumRows(); r++ {
		row := make([]interface{}, t.NumCols())
		for i := range row {
			cell := t.CellAt(r, i)
			switch cell.Kind {
			case models.KindNumber:
				row[i] = cell.Num
			case models.KindText:
				row[i] = cell.Text
			}
		}
		if err := setStreamRow(sw, r+2, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("xlsx: flush: %w", err)
	}
	if err := x.file.SaveAs(x.path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", x.path, err)
	}
	return nil
}

func setStreamRow(sw *excelize.StreamWriter, row int, values []interface{}) error {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: cell name for row %d: %w", row, err)
	}
	if err := sw.SetRow(axis, values); err != nil {
		return fmt.Errorf("xlsx: write row %d: %w", row, err)
	}
	return nil
}

// Close releases the workbook's temporary resources.
func (x *XLSXWriter) Close() error {
	return x.file.Close()
}
