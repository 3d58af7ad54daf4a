// pkg/cleaner/operations.go
package cleaner

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/David-Botos/census-ingress/pkg/model"
)

var (
	// numericPattern matches the leftmost run of digits, commas and periods
	numericPattern = regexp.MustCompile(`[\d,.]+`)
	// genderPopPattern is the full combined code, e.g. "40M_60F"
	genderPopPattern  = regexp.MustCompile(`^(\d+)M_(\d+)F$`)
	maleHalfPattern   = regexp.MustCompile(`^(\d+)M$`)
	femaleHalfPattern = regexp.MustCompile(`^(\d+)F$`)
)

// ExtractNumber pulls a float out of free text such as "$45,000" or "70%".
// Thousands separators are stripped before parsing. Anything without
// a parseable number comes back as the missing marker.
func ExtractNumber(v interface{}) float64 {
	match := numericPattern.FindString(toString(v))
	if match == "" {
		return model.Missing()
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return model.Missing()
	}
	return f
}

// NormalizeCurrency converts a column of currency strings to floats
func NormalizeCurrency(values []interface{}) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = ExtractNumber(v)
	}
	return out
}

// FindPercentageColumns returns, in table order, every column that has at
// least one cell whose string form contains '%'
func FindPercentageColumns(t *model.Table) []string {
	var found []string
	for _, col := range t.Columns() {
		for _, v := range t.Column(col) {
			if strings.Contains(toString(v), "%") {
				found = append(found, col)
				break
			}
		}
	}
	return found
}

// NormalizePercentages replaces every percent-bearing column with its
// numeric form in place. A table without such columns is returned as is.
func NormalizePercentages(t *model.Table) (*model.Table, []string) {
	columns := FindPercentageColumns(t)
	NormalizePercentageColumns(t, columns)
	return t, columns
}

// NormalizePercentageColumns converts already detected columns in place and
// returns their values as they were before conversion
func NormalizePercentageColumns(t *model.Table, columns []string) map[string][]interface{} {
	originals := make(map[string][]interface{}, len(columns))
	for _, col := range columns {
		before := t.Column(col)
		originals[col] = before
		// lengths always match, the column comes from the same table
		_ = t.SetFloatColumn(col, NormalizeCurrency(before))
	}
	return originals
}

// SplitGenderCode decomposes "<N>M_<N>F". Values without the underscore
// separated shape yield missing for both halves; a half that fails its own
// pattern is missing on its own.
func SplitGenderCode(v interface{}) (male, female float64) {
	s := strings.TrimSpace(toString(v))
	if m := genderPopPattern.FindStringSubmatch(s); m != nil {
		return parseCount(m[1]), parseCount(m[2])
	}

	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return model.Missing(), model.Missing()
	}
	male, female = model.Missing(), model.Missing()
	if m := maleHalfPattern.FindStringSubmatch(parts[0]); m != nil {
		male = parseCount(m[1])
	}
	if m := femaleHalfPattern.FindStringSubmatch(parts[1]); m != nil {
		female = parseCount(m[1])
	}
	return male, female
}

// SplitGender replaces the combined column with numeric male and female
// columns. The combined column does not survive.
func SplitGender(t *model.Table, column string) *model.Table {
	values := t.Column(column)
	males := make([]float64, len(values))
	females := make([]float64, len(values))
	for i, v := range values {
		males[i], females[i] = SplitGenderCode(v)
	}
	t.DropColumn(column)
	_ = t.SetFloatColumn(model.ColumnMale, males)
	_ = t.SetFloatColumn(model.ColumnFemale, females)
	return t
}

// Helper functions

func parseCount(digits string) float64 {
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return model.Missing()
	}
	return f
}

// toString converts an interface to its string form; missing renders as "NaN"
func toString(v interface{}) string {
	if model.IsMissing(v) {
		return "NaN"
	}

	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// toFloat converts a cell to float64, mapping anything unusable to NaN
func toFloat(v interface{}) float64 {
	if f, ok := model.AsFloat(v); ok {
		return f
	}

	s, ok := v.(string)
	if !ok {
		return model.Missing()
	}
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return model.Missing()
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return model.Missing()
	}
	return f
}

// isMissingFloat is IsMissing for already-coerced values
func isMissingFloat(f float64) bool {
	return math.IsNaN(f)
}
