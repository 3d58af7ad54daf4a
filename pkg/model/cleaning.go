// pkg/model/cleaning.go
package model

import (
	"time"
)

// Cleaning operation kinds
const (
	OperationCurrencyNormalization   = "currency_normalization"
	OperationPercentageNormalization = "percentage_normalization"
	OperationGenderSplit             = "gender_split"
	OperationGenderImputation        = "gender_imputation"
)

// ReasonUnparseableValue marks a cell that was present before cleaning and
// missing after
const ReasonUnparseableValue = "unparseable_value"

// CleaningOperation represents a single cell-level cleaning event
type CleaningOperation struct {
	RunID             string      // Identifies the pipeline run that produced the operation
	ColumnName        string      // Column that was cleaned
	OriginalValue     interface{} // Original value (may be nil)
	NewValue          string      // New value after cleaning ("NaN" when missing)
	RowIdentifier     string      // Row index, qualified by state when known
	CleaningOperation string      // Type of cleaning performed (e.g., "gender_imputation")
	CleaningReason    string      // Reason for cleaning (e.g., "unparseable_value")
	CleanedAt         time.Time
}

// CleaningReport summarizes a Clean pass over a table
type CleaningReport struct {
	RunID               string
	StepsApplied        []string
	PercentageColumns   []string
	UnparseableByColumn map[string]int // present cells that became missing
}

// ImputationResult summarizes a gender imputation pass
type ImputationResult struct {
	Skipped          bool
	FemaleImputed    int
	MaleImputed      int
	MissingAfterFill int // missing male+female cells after the female pass
	RemainingMissing int // missing male+female cells at the end
}
