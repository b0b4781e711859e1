package dataset

import (
	"strconv"
	"strings"

	apperrors "claimscope/internal/errors"
)

// Table is an immutable in-memory view of one loaded delimited file.
// Column names are lower-cased on load so grouping keys are insensitive
// to the casing of the source header.
type Table struct {
	// Name identifies the source dataset in error messages.
	Name string

	columns []string
	index   map[string]int
	rows    [][]string
}

// NewTable builds a table from a header and data rows. Header cells are
// lower-cased and trimmed.
func NewTable(name string, header []string, rows [][]string) *Table {
	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, h := range header {
		c := strings.ToLower(strings.TrimSpace(h))
		columns[i] = c
		index[c] = i
	}
	return &Table{Name: name, columns: columns, index: index, rows: rows}
}

// EmptyTable returns a table with no columns and no rows. Downstream
// aggregations over it degrade to empty results.
func EmptyTable(name string) *Table {
	return NewTable(name, nil, nil)
}

// Columns returns the canonical (lower-cased) column names in file order.
func (t *Table) Columns() []string {
	return t.columns
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[strings.ToLower(name)]
	return i, ok
}

// RequireColumns verifies every named column exists, returning the
// 422 missing-column error for the first absent one.
func (t *Table) RequireColumns(names ...string) error {
	for _, n := range names {
		if _, ok := t.ColumnIndex(n); !ok {
			return apperrors.ErrMissingColumn(t.Name, n)
		}
	}
	return nil
}

// Value returns the cell at (row, column name), or "" when the column is
// absent or the row is ragged.
func (t *Table) Value(row int, name string) string {
	i, ok := t.index[strings.ToLower(name)]
	if !ok || row < 0 || row >= len(t.rows) || i >= len(t.rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.rows[row][i])
}

// IntValue parses the cell at (row, column name) as a non-negative count.
// Blank cells read as 0; anything unparseable is an error so corrupt
// counts surface instead of silently vanishing.
func (t *Table) IntValue(row int, name string) (int64, error) {
	s := t.Value(row, name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// Distinct returns the sorted-by-first-appearance distinct values of one
// column, mirroring how a dashboard populates a filter dropdown.
func (t *Table) Distinct(name string) []string {
	i, ok := t.index[strings.ToLower(name)]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, row := range t.rows {
		if i >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[i])
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
