package models

import (
	"reflect"
	"testing"
)

func buildTable(t *testing.T, columns []string, rows ...[]Cell) *Table {
	t.Helper()
	tbl := NewTable(columns)
	for _, row := range rows {
		if err := tbl.AppendRow(row); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
	}
	return tbl
}

func TestNewTableUniquifiesDuplicateHeaders(t *testing.T) {
	tbl := NewTable([]string{"price", "price", "price", "name"})
	want := []string{"price", "price_2", "price_3", "name"}
	if got := tbl.Columns(); !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}
}

func TestAppendRowRejectsWrongWidth(t *testing.T) {
	tbl := NewTable([]string{"a", "b"})
	if err := tbl.AppendRow([]Cell{TextCell("x")}); err == nil {
		t.Error("expected error for short row")
	}
}

func TestRenameColumnsKeepsCollisionsApart(t *testing.T) {
	tbl := NewTable([]string{"Neighbourhood", "neighborhood"})
	fold := func(s string) string {
		if s == "Neighbourhood" {
			return "neighborhood"
		}
		return s
	}
	tbl.RenameColumns(fold)
	want := []string{"neighborhood", "neighborhood_2"}
	if got := tbl.Columns(); !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}

	// A second application must not shuffle names any further.
	tbl.RenameColumns(fold)
	if got := tbl.Columns(); !reflect.DeepEqual(got, want) {
		t.Errorf("second rename: Columns() = %v, want %v", got, want)
	}
}

func TestDropColumnsSkipsAbsentNames(t *testing.T) {
	tbl := buildTable(t, []string{"id", "name", "price"},
		[]Cell{TextCell("1"), TextCell("Loft"), TextCell("$90")},
	)
	dropped := tbl.DropColumns("id", "country", "country_code")
	if !reflect.DeepEqual(dropped, []string{"id"}) {
		t.Errorf("dropped = %v, want [id]", dropped)
	}
	if got := tbl.Columns(); !reflect.DeepEqual(got, []string{"name", "price"}) {
		t.Errorf("Columns() = %v", got)
	}
	if c, _ := tbl.Cell(0, "price"); c.Text != "$90" {
		t.Errorf("price cell = %q, want $90", c.Text)
	}
}

func TestSetColumnAddsThenReplaces(t *testing.T) {
	tbl := buildTable(t, []string{"a"},
		[]Cell{TextCell("x")},
		[]Cell{TextCell("y")},
	)
	if err := tbl.SetColumn("derived", []Cell{NumberCell(1), NumberCell(2)}); err != nil {
		t.Fatalf("SetColumn add: %v", err)
	}
	if tbl.NumCols() != 2 {
		t.Fatalf("NumCols = %d, want 2", tbl.NumCols())
	}
	if err := tbl.SetColumn("derived", []Cell{NumberCell(3), NumberCell(4)}); err != nil {
		t.Fatalf("SetColumn replace: %v", err)
	}
	if tbl.NumCols() != 2 {
		t.Errorf("replace grew column count to %d", tbl.NumCols())
	}
	c, _ := tbl.Cell(1, "derived")
	if v, ok := c.Float(); !ok || v != 4 {
		t.Errorf("derived[1] = %+v, want 4", c)
	}

	if err := tbl.SetColumn("short", []Cell{NumberCell(1)}); err == nil {
		t.Error("expected error for column of wrong length")
	}
}

func TestDeduplicateRowsKeepsFirstAndIsIdempotent(t *testing.T) {
	tbl := buildTable(t, []string{"a", "b"},
		[]Cell{TextCell("x"), NullCell()},
		[]Cell{TextCell("x"), NullCell()},
		[]Cell{TextCell("x"), TextCell("")},
		[]Cell{NumberCell(1), TextCell("1")},
		[]Cell{TextCell("1"), TextCell("1")},
		[]Cell{NumberCell(1), TextCell("1")},
	)
	removed := tbl.DeduplicateRows()
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if tbl.NumRows() != 4 {
		t.Errorf("NumRows = %d, want 4", tbl.NumRows())
	}
	if again := tbl.DeduplicateRows(); again != 0 {
		t.Errorf("second pass removed %d rows, want 0", again)
	}
}

func TestMissingCount(t *testing.T) {
	tbl := buildTable(t, []string{"a", "b"},
		[]Cell{NullCell(), TextCell("v")},
		[]Cell{NullCell(), NullCell()},
		[]Cell{TextCell("x"), TextCell("w")},
	)
	if got := tbl.MissingCount("a"); got != 2 {
		t.Errorf("MissingCount(a) = %d, want 2", got)
	}
	if got := tbl.MissingCount("b"); got != 1 {
		t.Errorf("MissingCount(b) = %d, want 1", got)
	}
	if got := tbl.MissingCount("absent"); got != 0 {
		t.Errorf("MissingCount(absent) = %d, want 0", got)
	}
}

func TestSummarizeKinds(t *testing.T) {
	tbl := buildTable(t, []string{"num", "txt", "mix", "void"},
		[]Cell{NumberCell(1), TextCell("a"), NumberCell(2), NullCell()},
		[]Cell{NumberCell(2), TextCell("b"), TextCell("x"), NullCell()},
		[]Cell{NullCell(), NullCell(), NullCell(), NullCell()},
	)
	got := tbl.Summarize()
	wantKinds := []string{"number", "text", "mixed", "empty"}
	for i, s := range got {
		if s.Kind != wantKinds[i] {
			t.Errorf("column %s kind = %s, want %s", s.Name, s.Kind, wantKinds[i])
		}
	}
	if got[0].NonNull != 2 || got[0].Missing != 1 {
		t.Errorf("num counts = %d/%d, want 2/1", got[0].NonNull, got[0].Missing)
	}
}

func TestCellDisplay(t *testing.T) {
	tests := []struct {
		cell Cell
		want string
	}{
		{NullCell(), ""},
		{TextCell("  Private room "), "  Private room "},
		{NumberCell(65), "65"},
		{NumberCell(1234.5), "1234.5"},
		{NumberCell(0), "0"},
	}
	for _, tt := range tests {
		if got := tt.cell.Display(); got != tt.want {
			t.Errorf("Display(%+v) = %q, want %q", tt.cell, got, tt.want)
		}
	}
}

func TestHead(t *testing.T) {
	tbl := buildTable(t, []string{"a", "b"},
		[]Cell{TextCell("x"), NumberCell(1)},
		[]Cell{NullCell(), NumberCell(2)},
	)
	head := tbl.Head(5)
	if len(head) != 2 {
		t.Fatalf("Head(5) returned %d rows, want 2", len(head))
	}
	if !reflect.DeepEqual(head[1], []string{"", "2"}) {
		t.Errorf("head[1] = %v", head[1])
	}
}
