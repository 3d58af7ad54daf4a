package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/census-ingress/pkg/model"
)

func censusTable() *model.Table {
	t := model.NewTable(model.ColumnState, model.ColumnIncome, "White", model.ColumnFemale)
	t.AppendRow(model.Row{model.ColumnState: "Alabama", model.ColumnIncome: 40000.0, "White": 60.0, model.ColumnFemale: 110.0})
	t.AppendRow(model.Row{model.ColumnState: "Alabama", model.ColumnIncome: 50000.0, "White": 70.0, model.ColumnFemale: 130.0})
	t.AppendRow(model.Row{model.ColumnState: "Alaska", model.ColumnIncome: math.NaN(), "White": 50.0, model.ColumnFemale: 90.0})
	t.AppendRow(model.Row{model.ColumnState: "Arizona", model.ColumnIncome: 60000.0, "White": math.NaN(), model.ColumnFemale: 150.0})
	return t
}

func TestSummarize(t *testing.T) {
	summaries := Summarize(censusTable(), []string{model.ColumnIncome, "White", "Missing"})
	require.Len(t, summaries, 2)

	income := summaries[0]
	assert.Equal(t, model.ColumnIncome, income.Column)
	assert.Equal(t, 3, income.Count)
	assert.Equal(t, 1, income.Missing)
	assert.InDelta(t, 50000.0, income.Mean, 1e-9)
	assert.InDelta(t, 50000.0, income.Median, 1e-9)
	assert.Equal(t, 40000.0, income.Min)
	assert.Equal(t, 60000.0, income.Max)
	assert.Greater(t, income.StdDev, 0.0)

	white := summaries[1]
	assert.Equal(t, 3, white.Count)
	assert.InDelta(t, 60.0, white.Mean, 1e-9)
}

func TestSummarize_SkipsTextColumns(t *testing.T) {
	summaries := Summarize(censusTable(), []string{model.ColumnState})
	assert.Empty(t, summaries)
}

func TestNumericColumns(t *testing.T) {
	cols := NumericColumns(censusTable())
	assert.Equal(t, []string{model.ColumnIncome, "White", model.ColumnFemale}, cols)
}

func TestGroupMeans(t *testing.T) {
	labels, means := GroupMeans(censusTable(), model.ColumnState, "White")
	assert.Equal(t, []string{"Alabama", "Alaska"}, labels)
	assert.InDeltaSlice(t, []float64{65.0, 50.0}, means, 1e-9)
}

func TestGroupMeans_NoLabelColumn(t *testing.T) {
	labels, _ := GroupMeans(censusTable(), "", model.ColumnFemale)
	assert.Equal(t, []string{"row 0", "row 1", "row 2", "row 3"}, labels)
}

func TestFormatSummaries(t *testing.T) {
	out := FormatSummaries(Summarize(censusTable(), []string{model.ColumnIncome}))
	assert.Contains(t, out, "column")
	assert.Contains(t, out, model.ColumnIncome)
	assert.Contains(t, out, "50000.00")
}
