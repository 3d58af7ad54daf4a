// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/census-ingress/pkg/model"
)

// Config names the columns the cleaning steps look for
type Config struct {
	CurrencyColumn  string
	GenderColumn    string
	TotalColumn     string
	RowLabelColumn  string // used to qualify row identifiers in audit records
	AuditUnparsable bool   // record an operation per cell turned missing
}

// DefaultConfig returns the census column layout
func DefaultConfig() Config {
	return Config{
		CurrencyColumn:  model.ColumnIncome,
		GenderColumn:    model.ColumnGenderPop,
		TotalColumn:     model.ColumnTotalPop,
		RowLabelColumn:  model.ColumnState,
		AuditUnparsable: true,
	}
}

// DataCleaner normalizes raw census tables and imputes gender counts
type DataCleaner struct {
	logger     *zap.Logger
	config     Config
	runID      string
	operations []model.CleaningOperation
}

// NewDataCleaner creates a new DataCleaner instance with the default layout
func NewDataCleaner(logger *zap.Logger) (*DataCleaner, error) {
	return NewDataCleanerWithConfig(logger, DefaultConfig())
}

// NewDataCleanerWithConfig creates a DataCleaner with a custom column layout
func NewDataCleanerWithConfig(logger *zap.Logger, cfg Config) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GenderColumn == "" || cfg.TotalColumn == "" {
		return nil, errors.New("gender and total population columns must be named")
	}

	return &DataCleaner{
		logger: logger.Named("cleaner"),
		config: cfg,
		runID:  uuid.New().String(),
	}, nil
}

// RunID identifies the audit records produced by this cleaner
func (c *DataCleaner) RunID() string {
	return c.runID
}

// Operations returns the audit records collected so far
func (c *DataCleaner) Operations() []model.CleaningOperation {
	out := make([]model.CleaningOperation, len(c.operations))
	copy(out, c.operations)
	return out
}

// Clean returns a cleaned copy of raw. The steps run in a fixed order:
// currency, percentages, gender split. Steps whose column is absent are skipped.
func (c *DataCleaner) Clean(raw *model.Table) (*model.Table, *model.CleaningReport) {
	start := time.Now()
	t := raw.Clone()
	report := &model.CleaningReport{
		RunID:               c.runID,
		UnparseableByColumn: make(map[string]int),
	}

	if c.config.CurrencyColumn != "" && t.HasColumn(c.config.CurrencyColumn) {
		col := c.config.CurrencyColumn
		before := t.Column(col)
		cleaned := NormalizeCurrency(before)
		_ = t.SetFloatColumn(col, cleaned)
		report.UnparseableByColumn[col] = c.auditMissing(t, col, before, cleaned, model.OperationCurrencyNormalization)
		report.StepsApplied = append(report.StepsApplied, model.OperationCurrencyNormalization)
	} else {
		c.logger.Debug("Currency column absent, skipping", zap.String("column", c.config.CurrencyColumn))
	}

	// percentage detection scans the table as it is after currency cleaning
	pctColumns := FindPercentageColumns(t)
	originals := NormalizePercentageColumns(t, pctColumns)
	report.PercentageColumns = pctColumns
	for _, col := range pctColumns {
		cleaned := make([]float64, t.Len())
		for i, v := range t.Column(col) {
			cleaned[i] = toFloat(v)
		}
		report.UnparseableByColumn[col] = c.auditMissing(t, col, originals[col], cleaned, model.OperationPercentageNormalization)
	}
	if len(pctColumns) > 0 {
		report.StepsApplied = append(report.StepsApplied, model.OperationPercentageNormalization)
	}

	if t.HasColumn(c.config.GenderColumn) {
		before := t.Column(c.config.GenderColumn)
		SplitGender(t, c.config.GenderColumn)
		report.UnparseableByColumn[model.ColumnMale] = c.auditSplit(t, before, model.ColumnMale)
		report.UnparseableByColumn[model.ColumnFemale] = c.auditSplit(t, before, model.ColumnFemale)
		report.StepsApplied = append(report.StepsApplied, model.OperationGenderSplit)
	} else {
		c.logger.Debug("Gender column absent, skipping", zap.String("column", c.config.GenderColumn))
	}

	c.logger.Info("Cleaned table",
		zap.Int("rows", t.Len()),
		zap.Strings("steps", report.StepsApplied),
		zap.Strings("percentageColumns", report.PercentageColumns),
		zap.Duration("duration", time.Since(start)))

	return t, report
}

// auditMissing records cells that were present before cleaning but are
// missing after. It returns how many there were; cells missing on input
// are not counted.
func (c *DataCleaner) auditMissing(
	t *model.Table,
	column string,
	before []interface{},
	after []float64,
	operation string,
) int {
	count := 0
	for i, v := range after {
		if !isMissingFloat(v) || model.IsMissing(before[i]) {
			continue
		}
		count++
		if c.config.AuditUnparsable {
			c.record(t, i, column, before[i], "NaN", operation, model.ReasonUnparseableValue)
		}
	}
	if count > 0 {
		c.logger.Debug("Cells resolved to missing",
			zap.String("column", column),
			zap.Int("count", count))
	}
	return count
}

func (c *DataCleaner) auditSplit(t *model.Table, before []interface{}, column string) int {
	after := make([]float64, t.Len())
	for i, v := range t.Column(column) {
		after[i] = toFloat(v)
	}
	return c.auditMissing(t, column, before, after, model.OperationGenderSplit)
}

func (c *DataCleaner) record(
	t *model.Table,
	row int,
	column string,
	original interface{},
	newValue string,
	operation, reason string,
) {
	c.operations = append(c.operations, model.CleaningOperation{
		RunID:             c.runID,
		ColumnName:        column,
		OriginalValue:     original,
		NewValue:          newValue,
		RowIdentifier:     c.rowIdentifier(t, row),
		CleaningOperation: operation,
		CleaningReason:    reason,
		CleanedAt:         time.Now(),
	})
}

// rowIdentifier is the row index, prefixed by the row label when present
func (c *DataCleaner) rowIdentifier(t *model.Table, row int) string {
	id := strconv.Itoa(row)
	if c.config.RowLabelColumn == "" {
		return id
	}
	if label := t.Value(row, c.config.RowLabelColumn); !model.IsMissing(label) {
		return fmt.Sprintf("%v#%s", label, id)
	}
	return id
}
