package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

// cleanTableName is the Postgres relation the cleaned table lands in.
const cleanTableName = "listings_clean"

// PostgresWriter mirrors the cleaned table into PostgreSQL so results
// can be queried after the run. The relation is rebuilt on every
// export because the cleaned schema follows the source file.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL and verifies it
// with retries, since the database may still be starting up.
func NewPostgresWriter(dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do("postgres ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	return &PostgresWriter{db: db}, nil
}

// WriteTable drops and recreates the target relation to match the
// table's columns, then batch-inserts every row.
func (pw *PostgresWriter) WriteTable(t *models.Table) error {
	if t.NumCols() == 0 {
		return fmt.Errorf("postgres: refusing to export a table with no columns")
	}

	sums := t.Summarize()
	if _, err := pw.db.Exec("DROP TABLE IF EXISTS " + pq.QuoteIdentifier(cleanTableName)); err != nil {
		return fmt.Errorf("postgres: drop old table: %w", err)
	}
	if _, err := pw.db.Exec(createTableSQL(cleanTableName, sums)); err != nil {
		return fmt.Errorf("postgres: create table: %w", err)
	}

	const batchSize = 50
	for start := 0; start < t.NumRows(); start += batchSize {
		end := start + batchSize
		if end > t.NumRows() {
			end = t.NumRows()
		}
		if err := pw.insertBatch(t, sums, start, end); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(t *models.Table, sums []models.ColumnSummary, start, end int) error {
	query := insertSQL(cleanTableName, sums, end-start)
	args := make([]interface{}, 0, (end-start)*len(sums))
	for r := start; r < end; r++ {
		args = append(args, rowArgs(t, sums, r)...)
	}
	if _, err := pw.db.Exec(query, args...); err != nil {
		return fmt.Errorf("postgres: insert rows %d-%d: %w", start+1, end, err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// createTableSQL renders the CREATE TABLE statement for the cleaned
// schema. Purely numeric columns become DOUBLE PRECISION, everything
// else is TEXT.
func createTableSQL(name string, sums []models.ColumnSummary) string {
	cols := make([]string, len(sums))
	for i, cs := range sums {
		typ := "TEXT"
		if cs.Kind == "number" {
			typ = "DOUBLE PRECISION"
		}
		cols[i] = pq.QuoteIdentifier(cs.Name) + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", pq.QuoteIdentifier(name), strings.Join(cols, ", "))
}

// insertSQL renders a multi-row INSERT with positional placeholders.
func insertSQL(name string, sums []models.ColumnSummary, rowCount int) string {
	cols := make([]string, len(sums))
	for i, cs := range sums {
		cols[i] = pq.QuoteIdentifier(cs.Name)
	}

	values := make([]string, rowCount)
	n := 1
	for r := 0; r < rowCount; r++ {
		ph := make([]string, len(sums))
		for i := range sums {
			ph[i] = fmt.Sprintf("$%d", n)
			n++
		}
		values[r] = "(" + strings.Join(ph, ",") + ")"
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		pq.QuoteIdentifier(name), strings.Join(cols, ", "), strings.Join(values, ","))
}

// rowArgs converts one table row into driver arguments. Null cells
// become NULL; cells in a TEXT-typed column are passed as their
// display string so mixed columns insert cleanly.
func rowArgs(t *models.Table, sums []models.ColumnSummary, row int) []interface{} {
	args := make([]interface{}, len(sums))
	for i, cs := range sums {
		cell := t.CellAt(row, i)
		switch {
		case cell.IsNull():
			args[i] = nil
		case cs.Kind == "number":
			args[i] = cell.Num
		default:
			args[i] = cell.Display()
		}
	}
	return args
}
