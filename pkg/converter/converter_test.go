package converter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/census-ingress/pkg/model"
)

func TestGenerateColumnDefinitions(t *testing.T) {
	c := NewTypeConverter(nil)
	meta := &model.TableMetadata{Columns: []model.Column{
		{Name: "State", Kind: model.KindText},
		{Name: "Income", Kind: model.KindNumeric, Nullable: true},
		{Name: "Blank", Kind: model.KindEmpty},
	}}

	defs, err := c.GenerateColumnDefinitions(meta)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`"state" TEXT NOT NULL`,
		`"income" DOUBLE PRECISION NULL`,
		`"blank" TEXT NULL`,
	}, defs)
}

func TestGenerateColumnDefinitionsRejectsCollisions(t *testing.T) {
	c := NewTypeConverter(nil)
	meta := &model.TableMetadata{Columns: []model.Column{{Name: "Male"}, {Name: "male"}}}

	_, err := c.GenerateColumnDefinitions(meta)
	assert.Error(t, err)

	_, err = c.GenerateColumnDefinitions(&model.TableMetadata{})
	assert.Error(t, err)
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"totalpop"`, QuoteIdentifier("TotalPop"))
	assert.Equal(t, `"a""b"`, QuoteIdentifier(`a"b`))
	assert.Equal(t, `"column"`, QuoteIdentifier(""))
}

func TestConvertValueForPostgres(t *testing.T) {
	c := NewTypeConverter(nil)

	v, err := c.ConvertValueForPostgres(math.NaN(), "DOUBLE PRECISION", "female")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = c.ConvertValueForPostgres(100, "DOUBLE PRECISION", "TotalPop")
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)

	v, err = c.ConvertValueForPostgres("Ohio", "TEXT", "State")
	require.NoError(t, err)
	assert.Equal(t, "Ohio", v)

	_, err = c.ConvertValueForPostgres("abc", "DOUBLE PRECISION", "Income")
	assert.Error(t, err)
}

func TestConvertRow(t *testing.T) {
	c := NewTypeConverter(nil)
	meta := c.ApplyPostgresTypes(&model.TableMetadata{Columns: []model.Column{
		{Name: "State", Kind: model.KindText},
		{Name: "male", Kind: model.KindNumeric},
	}})

	values, err := c.ConvertRow(model.Row{"State": "Ohio", "male": math.NaN()}, meta)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Ohio", nil}, values)
}

func TestFormatValue(t *testing.T) {
	c := NewTypeConverter(nil)

	assert.Equal(t, "", c.FormatValue(math.NaN()))
	assert.Equal(t, "", c.FormatValue(nil))
	assert.Equal(t, "50000", c.FormatValue(50000.0))
	assert.Equal(t, "1234.5", c.FormatValue(1234.5))
	assert.Equal(t, "100", c.FormatValue(100))
	assert.Equal(t, "Ohio", c.FormatValue("Ohio"))

	custom := NewTypeConverterWithConfig(nil, TypeConverterConfig{MissingText: "NaN", FloatPrecision: 2})
	assert.Equal(t, "NaN", custom.FormatValue(math.NaN()))
	assert.Equal(t, "70.00", custom.FormatValue(70.0))
}

func TestConvertRowAcceptsEveryInferredNumeric(t *testing.T) {
	c := NewTypeConverter(nil)
	table := model.NewTable("small", "unsigned")
	table.AppendRow(model.Row{"small": int16(12), "unsigned": uint32(7)})

	meta := c.ApplyPostgresTypes(model.InferMetadata(table, "public", "census"))
	values, err := c.ConvertRow(table.Row(0), meta)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{12.0, 7.0}, values)
}
