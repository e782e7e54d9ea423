// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blockmodel

import (
	"strings"

	"github.com/gvivero-alarcon/planning-app/internal/planerr"
)

// Table is a rectangular numeric table stored column by column.
type Table struct {
	columns []string
	data    map[string][]float64
	rows    int
}

// NewTable builds a table from row-major values. Column names must be
// unique and non-empty and every row must have one value per column.
func NewTable(columns []string, rows [][]float64) (*Table, error) {
	if len(columns) == 0 {
		return nil, planerr.New(planerr.CodeInvalidInput, "block table has no columns")
	}

	t := &Table{
		columns: make([]string, len(columns)),
		data:    make(map[string][]float64, len(columns)),
		rows:    len(rows),
	}
	for i, name := range columns {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, planerr.New(planerr.CodeInvalidInput, "column %d has an empty name", i)
		}
		if _, dup := t.data[name]; dup {
			return nil, planerr.New(planerr.CodeInvalidInput, "duplicate column %q", name)
		}
		t.columns[i] = name
		t.data[name] = make([]float64, len(rows))
	}

	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, planerr.New(planerr.CodeInvalidInput,
				"row %d has %d values, want %d", r+1, len(row), len(columns))
		}
		for c, v := range row {
			t.data[t.columns[c]][r] = v
		}
	}
	return t, nil
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.data[name]
	return ok
}

// Column returns the values of a column. The slice is shared with the
// table and must not be modified.
func (t *Table) Column(name string) ([]float64, bool) {
	v, ok := t.data[name]
	return v, ok
}
