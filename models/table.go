package models

import (
	"fmt"
	"strconv"
	"strings"
)

// CellKind tags what a Cell currently holds.
type CellKind uint8

const (
	// KindNull marks a missing or unparseable-and-coerced value.
	KindNull CellKind = iota
	// KindText is a raw string cell, exactly as read from the input.
	KindText
	// KindNumber is a parsed float64 cell.
	KindNumber
)

// Cell is one null-aware value in the table. Cells load as text (or null for
// empty input) and become numbers only through an explicit pipeline step.
type Cell struct {
	Kind CellKind
	Text string
	Num  float64
}

// NullCell returns the missing-value marker.
func NullCell() Cell { return Cell{Kind: KindNull} }

// TextCell wraps a raw string value.
func TextCell(s string) Cell { return Cell{Kind: KindText, Text: s} }

// NumberCell wraps a parsed numeric value.
func NumberCell(f float64) Cell { return Cell{Kind: KindNumber, Num: f} }

// IsNull reports whether the cell holds no value.
func (c Cell) IsNull() bool { return c.Kind == KindNull }

// Float returns the numeric value and true when the cell is a number.
func (c Cell) Float() (float64, bool) {
	if c.Kind != KindNumber {
		return 0, false
	}
	return c.Num, true
}

// Display renders the cell the way it is exported: empty for null, the raw
// text for strings, and the shortest exact form for numbers.
func (c Cell) Display() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// Table is an ordered collection of rows over a dynamic set of named columns.
// The column set is uncontrolled upstream, so callers must treat every column
// as optional and check presence before depending on it.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Cell
}

// NewTable creates an empty table with the given header. Duplicate header
// names are made unique with a numeric suffix so the name index stays usable.
func NewTable(columns []string) *Table {
	t := &Table{
		columns: make([]string, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for _, name := range columns {
		unique := t.uniqueName(name)
		t.index[unique] = len(t.columns)
		t.columns = append(t.columns, unique)
	}
	return t
}

// uniqueName suffixes name with _2, _3, ... until it is free in the index.
func (t *Table) uniqueName(name string) string {
	if _, taken := t.index[name]; !taken {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", name, n)
		if _, taken := t.index[candidate]; !taken {
			return candidate
		}
	}
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// NumRows returns the current row count.
func (t *Table) NumRows() int { return len(t.rows) }

// NumCols returns the current column count.
func (t *Table) NumCols() int { return len(t.columns) }

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// AppendRow adds a row. The cell count must match the column count; the CSV
// reader is responsible for padding short records beforehand.
func (t *Table) AppendRow(cells []Cell) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf("table: row has %d cells, want %d", len(cells), len(t.columns))
	}
	t.rows = append(t.rows, cells)
	return nil
}

// CellAt returns the cell at the given row and column positions.
func (t *Table) CellAt(row, col int) Cell {
	return t.rows[row][col]
}

// SetCellAt overwrites the cell at the given row and column positions.
func (t *Table) SetCellAt(row, col int, c Cell) {
	t.rows[row][col] = c
}

// Cell looks a cell up by column name.
func (t *Table) Cell(row int, column string) (Cell, bool) {
	i, ok := t.index[column]
	if !ok {
		return Cell{}, false
	}
	return t.rows[row][i], true
}

// RenameColumns applies fn to every column name in order and re-uniquifies
// the result, so two names folding onto the same target stay distinguishable.
func (t *Table) RenameColumns(fn func(string) string) {
	renamed := &Table{
		columns: make([]string, 0, len(t.columns)),
		index:   make(map[string]int, len(t.columns)),
	}
	for _, name := range t.columns {
		unique := renamed.uniqueName(fn(name))
		renamed.index[unique] = len(renamed.columns)
		renamed.columns = append(renamed.columns, unique)
	}
	t.columns = renamed.columns
	t.index = renamed.index
}

// DropColumns removes the named columns where present and returns the names
// actually dropped, preserving the order of the names argument. Unknown names
// are skipped silently: upstream data decides which columns exist.
func (t *Table) DropColumns(names ...string) []string {
	drop := make(map[int]bool, len(names))
	dropped := make([]string, 0, len(names))
	for _, name := range names {
		if i, ok := t.index[name]; ok && !drop[i] {
			drop[i] = true
			dropped = append(dropped, name)
		}
	}
	if len(dropped) == 0 {
		return nil
	}

	keep := make([]int, 0, len(t.columns)-len(dropped))
	for i := range t.columns {
		if !drop[i] {
			keep = append(keep, i)
		}
	}

	columns := make([]string, len(keep))
	index := make(map[string]int, len(keep))
	for newPos, oldPos := range keep {
		columns[newPos] = t.columns[oldPos]
		index[t.columns[oldPos]] = newPos
	}
	for r, row := range t.rows {
		next := make([]Cell, len(keep))
		for newPos, oldPos := range keep {
			next[newPos] = row[oldPos]
		}
		t.rows[r] = next
	}
	t.columns = columns
	t.index = index
	return dropped
}

// SetColumn adds a derived column, or replaces an existing column of the same
// name in place. The cell count must match the row count.
func (t *Table) SetColumn(name string, cells []Cell) error {
	if len(cells) != len(t.rows) {
		return fmt.Errorf("table: column %q has %d cells, want %d", name, len(cells), len(t.rows))
	}
	if i, ok := t.index[name]; ok {
		for r := range t.rows {
			t.rows[r][i] = cells[r]
		}
		return nil
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	for r := range t.rows {
		t.rows[r] = append(t.rows[r], cells[r])
	}
	return nil
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]Cell, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	cells := make([]Cell, len(t.rows))
	for r, row := range t.rows {
		cells[r] = row[i]
	}
	return cells, true
}

// MissingCount returns how many cells in the named column are null.
func (t *Table) MissingCount(column string) int {
	i, ok := t.index[column]
	if !ok {
		return 0
	}
	n := 0
	for _, row := range t.rows {
		if row[i].IsNull() {
			n++
		}
	}
	return n
}

// DeduplicateRows removes rows that are exact duplicates of an earlier row
// across every column, keeping the first occurrence. Returns the number of
// rows removed. Running it again on its own output removes nothing.
func (t *Table) DeduplicateRows() int {
	seen := make(map[string]struct{}, len(t.rows))
	kept := t.rows[:0]
	removed := 0
	for _, row := range t.rows {
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	t.rows = kept
	return removed
}

// rowKey builds a collision-safe fingerprint of a row. The kind marker keeps
// the text "1" distinct from the number 1 and from null, and text is length
// prefixed so cell boundaries cannot alias.
func rowKey(row []Cell) string {
	var b strings.Builder
	for _, c := range row {
		switch c.Kind {
		case KindNull:
			b.WriteByte('n')
		case KindText:
			b.WriteByte('t')
			b.WriteString(strconv.Itoa(len(c.Text)))
			b.WriteByte(':')
			b.WriteString(c.Text)
		case KindNumber:
			b.WriteByte('f')
			b.WriteString(strconv.FormatFloat(c.Num, 'g', -1, 64))
		}
		b.WriteByte(0x1f)
	}
	return b.String()
}

// ColumnSummary describes one column for the dtype-style preview.
type ColumnSummary struct {
	Name    string
	Kind    string // number | text | mixed | empty
	NonNull int
	Missing int
}

// Summarize reports, per column in order, the inferred kind and null counts.
func (t *Table) Summarize() []ColumnSummary {
	out := make([]ColumnSummary, len(t.columns))
	for i, name := range t.columns {
		var numbers, texts int
		for _, row := range t.rows {
			switch row[i].Kind {
			case KindNumber:
				numbers++
			case KindText:
				texts++
			}
		}
		s := ColumnSummary{Name: name, NonNull: numbers + texts, Missing: len(t.rows) - numbers - texts}
		switch {
		case numbers > 0 && texts > 0:
			s.Kind = "mixed"
		case numbers > 0:
			s.Kind = "number"
		case texts > 0:
			s.Kind = "text"
		default:
			s.Kind = "empty"
		}
		out[i] = s
	}
	return out
}

// Head returns up to n rows rendered as display strings, for console preview.
func (t *Table) Head(n int) [][]string {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	out := make([][]string, 0, n)
	for r := 0; r < n; r++ {
		row := make([]string, len(t.columns))
		for i := range t.columns {
			row[i] = t.rows[r][i].Display()
		}
		out = append(out, row)
	}
	return out
}
