// pkg/report/summary.go
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/David-Botos/census-ingress/pkg/model"
)

// ColumnSummary holds descriptive statistics for one numeric column
type ColumnSummary struct {
	Column  string
	Count   int // present values
	Missing int
	Mean    float64
	Median  float64
	Min     float64
	Max     float64
	StdDev  float64
}

// Summarize computes statistics for the named columns. Columns that are
// absent or have no numeric values are skipped.
func Summarize(t *model.Table, columns []string) []ColumnSummary {
	var summaries []ColumnSummary
	for _, col := range columns {
		if !t.HasColumn(col) {
			continue
		}
		data, missing := numericValues(t, col)
		if len(data) == 0 {
			continue
		}

		s := ColumnSummary{Column: col, Count: len(data), Missing: missing}
		// errors only occur for empty input, which is excluded above
		s.Mean, _ = stats.Mean(data)
		s.Median, _ = stats.Median(data)
		s.Min, _ = stats.Min(data)
		s.Max, _ = stats.Max(data)
		s.StdDev, _ = stats.StandardDeviation(data)
		summaries = append(summaries, s)
	}
	return summaries
}

// NumericColumns lists columns holding at least one numeric value
func NumericColumns(t *model.Table) []string {
	var out []string
	for _, col := range t.Columns() {
		if data, _ := numericValues(t, col); len(data) > 0 {
			out = append(out, col)
		}
	}
	return out
}

// FormatSummaries renders summaries as an aligned text block
func FormatSummaries(summaries []ColumnSummary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-12s %8s %8s %14s %14s %14s %14s\n",
		"column", "count", "missing", "mean", "median", "min", "max"))
	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("%-12s %8d %8d %14.2f %14.2f %14.2f %14.2f\n",
			s.Column, s.Count, s.Missing, s.Mean, s.Median, s.Min, s.Max))
	}
	return sb.String()
}

// GroupMeans averages a numeric column per label, sorted by label
func GroupMeans(t *model.Table, labelColumn, valueColumn string) ([]string, []float64) {
	groups := make(map[string]stats.Float64Data)
	for i := 0; i < t.Len(); i++ {
		v, ok := model.AsFloat(t.Value(i, valueColumn))
		if !ok {
			continue
		}
		label := rowLabel(t, i, labelColumn)
		groups[label] = append(groups[label], v)
	}

	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	means := make([]float64, len(labels))
	for i, label := range labels {
		means[i], _ = stats.Mean(groups[label])
	}
	return labels, means
}

func numericValues(t *model.Table, col string) (stats.Float64Data, int) {
	var data stats.Float64Data
	missing := 0
	for _, v := range t.Column(col) {
		f, ok := model.AsFloat(v)
		if !ok {
			if model.IsMissing(v) {
				missing++
			}
			continue
		}
		data = append(data, f)
	}
	return data, missing
}

func rowLabel(t *model.Table, i int, labelColumn string) string {
	if labelColumn != "" {
		if v := t.Value(i, labelColumn); !model.IsMissing(v) {
			return fmt.Sprintf("%v", v)
		}
	}
	return fmt.Sprintf("row %d", i)
}
