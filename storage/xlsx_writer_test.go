package storage

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSXWriterWriteTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "cleaned.xlsx")

	w, err := NewXLSXWriter(path)
	if err != nil {
		t.Fatalf("NewXLSXWriter: %v", err)
	}
	if err := w.WriteTable(exportTable(t)); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows: got %d, want 4", len(rows))
	}

	wantHeader := []string{"name", "price", "room_type"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header[%d]: got %q, want %q", i, rows[0][i], col)
		}
	}

	if rows[1][0] != "loft" || rows[1][1] != "1234.5" {
		t.Errorf("row 1: got %v, want loft / 1234.5", rows[1])
	}
	// Null price leaves the middle cell empty.
	if rows[2][0] != "flat" || rows[2][1] != "" || rows[2][2] != "Private room" {
		t.Errorf("row 2: got %v, want flat / empty / Private room", rows[2])
	}
}
