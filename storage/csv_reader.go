package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadTable loads a delimited text file into a table. The first record
// is the header; empty cells become null and everything else starts as
// text, numeric conversion being the pipeline's job. Source exports
// are ragged in practice, so short rows are padded with nulls and
// cells beyond the header width are dropped, with both counts logged
// so the irregularity stays visible.
func ReadTable(logger *utils.Logger, path string) (*models.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", path, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %q has no header row", path)
	}

	t, padded, truncated, err := tableFromRecords(records)
	if err != nil {
		return nil, err
	}
	if padded > 0 {
		logger.Warn("[csv] %s: padded %d short rows with nulls", path, padded)
	}
	if truncated > 0 {
		logger.Warn("[csv] %s: dropped extra cells from %d rows wider than the header", path, truncated)
	}
	return t, nil
}

// tableFromRecords builds the table from raw CSV records, reporting
// how many rows were shorter or wider than the header.
func tableFromRecords(records [][]string) (*models.Table, int, int, error) {
	t := models.NewTable(records[0])
	width := t.NumCols()

	padded, truncated := 0, 0
	for i, rec := range records[1:] {
		if len(rec) < width {
			padded++
		} else if len(rec) > width {
			truncated++
		}
		cells := make([]models.Cell, width)
		for c := 0; c < width; c++ {
			if c >= len(rec) || rec[c] == "" {
				cells[c] = models.NullCell()
			} else {
				cells[c] = models.TextCell(rec[c])
			}
		}
		if err := t.AppendRow(cells); err != nil {
			return nil, 0, 0, fmt.Errorf("csv: load row %d: %w", i+2, err)
		}
	}
	return t, padded, truncated, nil
}
