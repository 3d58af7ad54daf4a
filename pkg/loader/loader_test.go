package loader

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/David-Botos/census-ingress/pkg/model"
)

const statesCSV = `State,TotalPop,Income,GenderPop,White
Ohio,100,"$50,000",40M_60F,70%
Utah,50,$0,30M_,40%
`

const moreStatesCSV = `State,TotalPop,Hispanic
Iowa,80,5.5%
Idaho,,
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadNoInputFound(t *testing.T) {
	l := NewLoader(zap.NewNop())

	_, err := l.Load(filepath.Join(t.TempDir(), "states*.csv"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoInputFound))
}

func TestLoadInvalidPattern(t *testing.T) {
	l := NewLoader(zap.NewNop())

	_, err := l.Load("[")

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoInputFound))
}

func TestLoadConcatenatesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "states0.csv", statesCSV)
	writeFile(t, dir, "states1.csv", moreStatesCSV)
	writeFile(t, dir, "other.csv", "x\n1\n")

	l := NewLoader(nil)
	res, err := l.Load(filepath.Join(dir, "states*.csv"))
	require.NoError(t, err)

	table := res.Table
	assert.Len(t, res.Files, 2)
	assert.Equal(t, 4, table.Len())
	assert.Equal(t, []string{"State", "TotalPop", "Income", "GenderPop", "White", "Hispanic"}, table.Columns())

	assert.Equal(t, "Ohio", table.Value(0, "State"))
	assert.Equal(t, 100, table.Value(0, "TotalPop"))
	assert.Equal(t, "$50,000", table.Value(0, "Income"))
	assert.Equal(t, "40M_60F", table.Value(0, "GenderPop"))
	assert.Equal(t, "70%", table.Value(0, "White"))

	// rows from the second file do not carry the first file's columns
	assert.True(t, model.IsMissing(table.Value(2, "Income")))
	assert.Equal(t, "5.5%", table.Value(2, "Hispanic"))
	assert.True(t, model.IsMissing(table.Value(3, "TotalPop")))
	assert.True(t, model.IsMissing(table.Value(3, "Hispanic")))

	assert.Equal(t, 2, res.RowsPerFile[filepath.Join(dir, "states0.csv")])
}

func TestLoadWithDelimiter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "states.csv", "State;TotalPop\nOhio;10\n")

	l := NewLoader(zap.NewNop(), WithDelimiter(';'))
	res, err := l.Load(filepath.Join(dir, "*.csv"))
	require.NoError(t, err)

	assert.Equal(t, 10, res.Table.Value(0, "TotalPop"))
}

func TestLoadExcel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "states.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"State", "TotalPop", "GenderPop"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Ohio", 100, "40M_60F"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Utah", 50}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	l := NewLoader(zap.NewNop())
	res, err := l.Load(filepath.Join(dir, "*.xlsx"))
	require.NoError(t, err)

	table := res.Table
	require.Equal(t, 2, table.Len())
	assert.Equal(t, 100, table.Value(0, "TotalPop"))
	assert.Equal(t, "40M_60F", table.Value(0, "GenderPop"))
	assert.True(t, model.IsMissing(table.Value(1, "GenderPop")))
}

func TestWriteCSV(t *testing.T) {
	table := model.NewTable("State", "Income", "female")
	table.AppendRow(model.Row{"State": "Ohio", "Income": 50000.0, "female": 60.0})
	table.AppendRow(model.Row{"State": "Utah", "Income": 0.0, "female": model.Missing()})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table, nil, ','))

	assert.Equal(t, "State,Income,female\nOhio,50000,60\nUtah,0,\n", buf.String())
}

func TestWriteCSVFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "clean.csv")
	table := model.NewTable("State", "male")
	table.AppendRow(model.Row{"State": "Ohio", "male": 40.0})

	require.NoError(t, WriteCSVFile(path, table, nil, ','))

	res, err := NewLoader(zap.NewNop()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Ohio", res.Table.Value(0, "State"))
	assert.Equal(t, 40, res.Table.Value(0, "male"))
}
