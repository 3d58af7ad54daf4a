// pkg/converter/converter.go
package converter

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/census-ingress/pkg/model"
)

// TypeConverter maps cleaned table values onto output representations
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Postgres type used for numeric columns
	NumericType string
	// Postgres type used for text and unknown columns
	TextType string
	// Text written to CSV for missing cells
	MissingText string
	// Decimal places written for floats; -1 keeps the shortest exact form
	FloatPrecision int
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		NumericType:    "DOUBLE PRECISION",
		TextType:       "TEXT",
		MissingText:    "",
		FloatPrecision: -1,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// MapKindToPostgres converts an inferred column kind to a PostgreSQL type
func (c *TypeConverter) MapKindToPostgres(kind model.ColumnKind) string {
	switch kind {
	case model.KindNumeric:
		return c.config.NumericType
	default:
		return c.config.TextType
	}
}

// ApplyPostgresTypes fills PgType for every column of metadata
func (c *TypeConverter) ApplyPostgresTypes(metadata *model.TableMetadata) *model.TableMetadata {
	for i := range metadata.Columns {
		col := &metadata.Columns[i]
		if col.PgType == "" {
			col.PgType = c.MapKindToPostgres(col.Kind)
		}
	}
	return metadata
}

// GenerateColumnDefinitions creates PostgreSQL column definitions
func (c *TypeConverter) GenerateColumnDefinitions(metadata *model.TableMetadata) ([]string, error) {
	if metadata == nil || len(metadata.Columns) == 0 {
		return nil, fmt.Errorf("table metadata has no columns")
	}

	definitions := make([]string, 0, len(metadata.Columns))
	seen := make(map[string]string, len(metadata.Columns))

	for _, col := range metadata.Columns {
		quoted := QuoteIdentifier(col.Name)
		if prev, ok := seen[quoted]; ok {
			return nil, fmt.Errorf("columns %q and %q map to the same identifier %s", prev, col.Name, quoted)
		}
		seen[quoted] = col.Name

		pgType := col.PgType
		if pgType == "" {
			pgType = c.MapKindToPostgres(col.Kind)
		}

		nullability := "NULL"
		if !col.Nullable && col.Kind != model.KindEmpty {
			nullability = "NOT NULL"
		}

		definitions = append(definitions, fmt.Sprintf("%s %s %s", quoted, pgType, nullability))
	}

	return definitions, nil
}

// QuoteIdentifier properly quotes and escapes a PostgreSQL identifier
func QuoteIdentifier(name string) string {
	// Handle case sensitivity by quoting lowercase table/column names
	if strings.TrimSpace(name) == "" {
		name = "column"
	}
	return fmt.Sprintf("\"%s\"", strings.ToLower(strings.ReplaceAll(name, "\"", "\"\"")))
}
