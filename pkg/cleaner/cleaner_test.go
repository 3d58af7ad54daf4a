package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/census-ingress/pkg/model"
)

func censusFixture() *model.Table {
	table := model.NewTable("Income", "GenderPop", "TotalPop", "White")
	table.AppendRow(model.Row{"Income": "$50,000", "GenderPop": "40M_60F", "TotalPop": 100, "White": "70%"})
	table.AppendRow(model.Row{"Income": "$0", "GenderPop": "30M_NaN", "TotalPop": 50, "White": "40%"})
	return table
}

func newTestCleaner(t *testing.T) *DataCleaner {
	t.Helper()
	c, err := NewDataCleaner(zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewDataCleaner(t *testing.T) {
	_, err := NewDataCleaner(nil)
	assert.Error(t, err)

	_, err = NewDataCleanerWithConfig(zap.NewNop(), Config{})
	assert.Error(t, err)

	c, err := NewDataCleaner(zap.NewNop())
	require.NoError(t, err)
	assert.NotEmpty(t, c.RunID())
}

func TestCleanEndToEnd(t *testing.T) {
	c := newTestCleaner(t)
	raw := censusFixture()

	cleaned, report := c.Clean(raw)

	assert.ElementsMatch(t, []string{"Income", "TotalPop", "White", "male", "female"}, cleaned.Columns())
	assert.Equal(t, 50000.0, cleaned.Value(0, "Income"))
	assert.Equal(t, 40.0, cleaned.Value(0, "male"))
	assert.Equal(t, 60.0, cleaned.Value(0, "female"))
	assert.Equal(t, 100, cleaned.Value(0, "TotalPop"))
	assert.Equal(t, 70.0, cleaned.Value(0, "White"))

	assert.Equal(t, 0.0, cleaned.Value(1, "Income"))
	assert.Equal(t, 30.0, cleaned.Value(1, "male"))
	assert.True(t, model.IsMissing(cleaned.Value(1, "female")))
	assert.Equal(t, 40.0, cleaned.Value(1, "White"))

	assert.Equal(t, []string{"White"}, report.PercentageColumns)
	assert.Equal(t, []string{
		model.OperationCurrencyNormalization,
		model.OperationPercentageNormalization,
		model.OperationGenderSplit,
	}, report.StepsApplied)
	assert.Equal(t, 1, report.UnparseableByColumn["female"])

	imputed, result := c.ImputeGender(cleaned)

	assert.Equal(t, 20.0, imputed.Value(1, "female"))
	assert.Equal(t, 1, result.FemaleImputed)
	assert.Equal(t, 0, result.MaleImputed)
	assert.Equal(t, 0, result.RemainingMissing)
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	c := newTestCleaner(t)
	raw := censusFixture()

	_, _ = c.Clean(raw)

	assert.True(t, raw.HasColumn("GenderPop"))
	assert.False(t, raw.HasColumn("male"))
	assert.Equal(t, "$50,000", raw.Value(0, "Income"))
	assert.Equal(t, "70%", raw.Value(0, "White"))
}

func TestCleanPartialSchema(t *testing.T) {
	c := newTestCleaner(t)
	raw := model.NewTable("State", "TotalPop")
	raw.AppendRow(model.Row{"State": "Ohio", "TotalPop": 10})

	cleaned, report := c.Clean(raw)

	assert.Empty(t, report.StepsApplied)
	assert.Equal(t, []string{"State", "TotalPop"}, cleaned.Columns())
	assert.Equal(t, "Ohio", cleaned.Value(0, "State"))
}

func TestCleanRecordsUnparseableCells(t *testing.T) {
	c := newTestCleaner(t)
	raw := model.NewTable("State", "Income")
	raw.AppendRow(model.Row{"State": "Ohio", "Income": "unknown"})
	raw.AppendRow(model.Row{"State": "Utah", "Income": "$10"})

	_, report := c.Clean(raw)

	assert.Equal(t, 1, report.UnparseableByColumn["Income"])
	ops := c.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, "Income", ops[0].ColumnName)
	assert.Equal(t, "unknown", ops[0].OriginalValue)
	assert.Equal(t, "Ohio#0", ops[0].RowIdentifier)
	assert.Equal(t, model.OperationCurrencyNormalization, ops[0].CleaningOperation)
	assert.Equal(t, c.RunID(), ops[0].RunID)
}

func TestCleanCountsOnlyCellsMadeMissing(t *testing.T) {
	c := newTestCleaner(t)
	raw := model.NewTable("State", "Income", "Hispanic")
	raw.AppendRow(model.Row{"State": "Ohio", "Income": "$10", "Hispanic": "5%"})
	raw.AppendRow(model.Row{"State": "Utah", "Income": nil, "Hispanic": nil})
	// a row from a file without the Income column at all
	raw.AppendRow(model.Row{"State": "Iowa", "Hispanic": "n/a"})

	cleaned, report := c.Clean(raw)

	assert.True(t, model.IsMissing(cleaned.Value(1, "Income")))
	assert.True(t, model.IsMissing(cleaned.Value(2, "Income")))
	assert.Equal(t, 0, report.UnparseableByColumn["Income"])
	assert.Equal(t, 1, report.UnparseableByColumn["Hispanic"])

	ops := c.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, "Iowa#2", ops[0].RowIdentifier)
	assert.Equal(t, "n/a", ops[0].OriginalValue)
}
