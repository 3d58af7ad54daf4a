// pkg/converter/values.go
package converter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/David-Botos/census-ingress/pkg/model"
)

// ConvertValueForPostgres converts a value to a PostgreSQL compatible type.
// Missing cells become NULL.
func (c *TypeConverter) ConvertValueForPostgres(value interface{}, targetType string, colName string) (interface{}, error) {
	// Handle NULL values
	if model.IsMissing(value) {
		return nil, nil
	}

	targetType = strings.ToLower(targetType)

	switch {
	case targetType == "text", strings.HasPrefix(targetType, "varchar"):
		return c.FormatValue(value), nil

	case targetType == "double precision",
		targetType == "real",
		strings.HasPrefix(targetType, "numeric"),
		strings.HasPrefix(targetType, "decimal"):
		f, err := c.convertToNumeric(value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", colName, err)
		}
		return f, nil

	default:
		return c.FormatValue(value), nil
	}
}

// ConvertRow converts one row for insertion, following the metadata column order
func (c *TypeConverter) ConvertRow(row model.Row, metadata *model.TableMetadata) ([]interface{}, error) {
	values := make([]interface{}, len(metadata.Columns))
	for i, col := range metadata.Columns {
		pgType := col.PgType
		if pgType == "" {
			pgType = c.MapKindToPostgres(col.Kind)
		}
		v, err := c.ConvertValueForPostgres(row[col.Name], pgType, col.Name)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// FormatValue renders a cell as text for CSV output
func (c *TypeConverter) FormatValue(value interface{}) string {
	if model.IsMissing(value) {
		return c.config.MissingText
	}

	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', c.config.FloatPrecision, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', c.config.FloatPrecision, 32)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// convertToNumeric converts a value to float64
func (c *TypeConverter) convertToNumeric(value interface{}) (float64, error) {
	if f, ok := model.AsFloat(value); ok {
		return f, nil
	}

	if v, ok := value.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) {
			return 0, fmt.Errorf("cannot convert string '%s' to numeric", v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot convert %T to numeric", value)
}
