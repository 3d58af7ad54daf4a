// pkg/model/table.go
package model

import (
	"fmt"
	"math"
	"sort"
)

// Row maps a column name to its cell value
type Row map[string]interface{}

// Table is an ordered collection of rows sharing a soft schema.
// Cells of columns a row does not carry read as missing.
type Table struct {
	columns []string
	rows    []Row
}

// NewTable creates an empty table with the given column order
func NewTable(columns ...string) *Table {
	t := &Table{}
	for _, col := range columns {
		t.addColumnName(col)
	}
	return t
}

// Missing returns the missing-value marker used in numeric cells
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether a cell holds no valid value.
// nil and NaN are both treated as missing.
func IsMissing(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(val)
	case float32:
		return math.IsNaN(float64(val))
	default:
		return false
	}
}

// Columns returns a copy of the column names in order
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether the named column is part of the schema
func (t *Table) HasColumn(name string) bool {
	return t.columnIndex(name) >= 0
}

// AppendRow adds a row, extending the schema with any unseen columns.
// The row map is copied so the caller keeps no alias into the table.
func (t *Table) AppendRow(row Row) {
	copied := make(Row, len(row))
	var unseen []string
	for k, v := range row {
		copied[k] = v
		if t.columnIndex(k) < 0 {
			unseen = append(unseen, k)
		}
	}
	sort.Strings(unseen)
	t.AppendColumns(unseen...)
	t.rows = append(t.rows, copied)
}

// AppendColumns extends the schema without touching existing rows
func (t *Table) AppendColumns(names ...string) {
	for _, name := range names {
		t.addColumnName(name)
	}
}

// Value returns the cell at row i for the given column (nil when absent)
func (t *Table) Value(i int, column string) interface{} {
	return t.rows[i][column]
}

// SetValue overwrites a single cell
func (t *Table) SetValue(i int, column string, v interface{}) {
	t.addColumnName(column)
	t.rows[i][column] = v
}

// Column returns the values of a column in row order
func (t *Table) Column(name string) []interface{} {
	values := make([]interface{}, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[name]
	}
	return values
}

// SetColumn adds or replaces a column. values must have one entry per row.
func (t *Table) SetColumn(name string, values []interface{}) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %s has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	t.addColumnName(name)
	for i, row := range t.rows {
		row[name] = values[i]
	}
	return nil
}

// SetFloatColumn is SetColumn for numeric columns
func (t *Table) SetFloatColumn(name string, values []float64) error {
	boxed := make([]interface{}, len(values))
	for i, v := range values {
		boxed[i] = v
	}
	return t.SetColumn(name, boxed)
}

// DropColumn removes a column from the schema and every row
func (t *Table) DropColumn(name string) {
	idx := t.columnIndex(name)
	if idx < 0 {
		return
	}
	t.columns = append(t.columns[:idx], t.columns[idx+1:]...)
	for _, row := range t.rows {
		delete(row, name)
	}
}

// Clone returns a deep copy of the table. Cell values are scalars and are
// shared by value.
func (t *Table) Clone() *Table {
	out := &Table{
		columns: t.Columns(),
		rows:    make([]Row, 0, len(t.rows)),
	}
	for _, row := range t.rows {
		copied := make(Row, len(row))
		for k, v := range row {
			copied[k] = v
		}
		out.rows = append(out.rows, copied)
	}
	return out
}

// Row returns a copy of row i
func (t *Table) Row(i int) Row {
	copied := make(Row, len(t.columns))
	for _, col := range t.columns {
		copied[col] = t.rows[i][col]
	}
	return copied
}

// CountMissing counts missing cells in a column
func (t *Table) CountMissing(column string) int {
	count := 0
	for _, row := range t.rows {
		if IsMissing(row[column]) {
			count++
		}
	}
	return count
}

func (t *Table) columnIndex(name string) int {
	for i, col := range t.columns {
		if col == name {
			return i
		}
	}
	return -1
}

func (t *Table) addColumnName(name string) {
	if t.columnIndex(name) < 0 {
		t.columns = append(t.columns, name)
	}
}
