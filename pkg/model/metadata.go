// pkg/model/metadata.go
package model

import "strings"

// Well-known census columns
const (
	ColumnIncome    = "Income"
	ColumnGenderPop = "GenderPop"
	ColumnTotalPop  = "TotalPop"
	ColumnMale      = "male"
	ColumnFemale    = "female"
	ColumnState     = "State"
)

// RaceColumns are the percentage columns handed to the renderer
var RaceColumns = []string{"Hispanic", "White", "Black", "Native", "Asian", "Pacific"}

// ColumnKind classifies the values held by a column
type ColumnKind string

const (
	KindNumeric ColumnKind = "numeric"
	KindText    ColumnKind = "text"
	KindEmpty   ColumnKind = "empty"
)

// TableMetadata describes the shape of a table for output sinks
type TableMetadata struct {
	Schema  string   // Target schema name
	Table   string   // Target table name
	Columns []Column // Column definitions in table order
}

// Column represents metadata about a table column
type Column struct {
	Name     string     // Column name
	Kind     ColumnKind // Inferred value kind
	PgType   string     // Mapped PostgreSQL type
	Nullable bool       // Whether any row is missing a value
}

// InferMetadata derives column kinds from the values a table holds.
// A column is numeric when every present value is a Go number.
func InferMetadata(t *Table, schema, table string) *TableMetadata {
	meta := &TableMetadata{Schema: schema, Table: table}
	for _, name := range t.Columns() {
		col := Column{Name: name, Kind: KindEmpty}
		for _, v := range t.Column(name) {
			if IsMissing(v) {
				col.Nullable = true
				continue
			}
			if !IsNumeric(v) {
				col.Kind = KindText
			} else if col.Kind == KindEmpty {
				col.Kind = KindNumeric
			}
		}
		meta.Columns = append(meta.Columns, col)
	}
	return meta
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (tm *TableMetadata) GetColumnByName(name string) *Column {
	normalizedName := normalizeColumnName(name)
	for i, col := range tm.Columns {
		if normalizeColumnName(col.Name) == normalizedName {
			return &tm.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the column names in order
func (tm *TableMetadata) ColumnNames() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
