package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/census-ingress/pkg/loader"
	"github.com/David-Botos/census-ingress/pkg/model"
)

// Pipeline stage names
const (
	StageLoad    = "load"
	StageClean   = "clean"
	StageImpute  = "impute"
	StageExport  = "export"
	StageCharts  = "charts"
	StageSummary = "summary"
	StagePersist = "persist"
)

// RunMetrics tracks metrics for one cleaning run
type RunMetrics struct {
	mu                sync.Mutex
	logger            *zap.Logger
	RunID             string
	StartTime         time.Time
	EndTime           time.Time
	FilesLoaded       int
	RowsLoaded        int
	RowsExported      int
	RowsPersisted     int64
	ChartsRendered    int
	CleaningOps       int
	PercentageColumns []string
	UnparseableCells  map[string]int
	FemaleImputed     int
	MaleImputed       int
	RemainingMissing  int
	StageDurations    map[string]time.Duration
	ErrorCounts       map[ErrorCategory]int
}

// NewRunMetrics creates a new RunMetrics instance
func NewRunMetrics(logger *zap.Logger, runID string) *RunMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunMetrics{
		logger:           logger,
		RunID:            runID,
		StartTime:        time.Now(),
		UnparseableCells: make(map[string]int),
		StageDurations:   make(map[string]time.Duration),
		ErrorCounts:      make(map[ErrorCategory]int),
	}
}

// StartStage begins timing a stage; call the returned func when it ends
func (m *RunMetrics) StartStage(stage string) func() {
	start := time.Now()
	return func() {
		m.RecordStage(stage, time.Since(start))
	}
}

// RecordStage adds to the time spent in a stage
func (m *RunMetrics) RecordStage(stage string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StageDurations[stage] += d
	m.logger.Debug("Completed stage",
		zap.String("stage", stage),
		zap.Duration("duration", d))
}

// RecordLoad records a loader result
func (m *RunMetrics) RecordLoad(result *loader.LoadResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FilesLoaded = len(result.Files)
	m.RowsLoaded = result.Table.Len()
}

// RecordCleaning records the cleaning report and audit count
func (m *RunMetrics) RecordCleaning(report *model.CleaningReport, operations int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PercentageColumns = append([]string(nil), report.PercentageColumns...)
	for col, n := range report.UnparseableByColumn {
		m.UnparseableCells[col] = n
		// unparseable cells are not errors, but they are counted in aggregate
		m.ErrorCounts[ErrorCategoryDataConversion] += n
	}
	m.CleaningOps = operations
}

// RecordImputation records the gender imputation outcome
func (m *RunMetrics) RecordImputation(result model.ImputationResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FemaleImputed = result.FemaleImputed
	m.MaleImputed = result.MaleImputed
	m.RemainingMissing = result.RemainingMissing
}

// RecordExport records rows written to the output file
func (m *RunMetrics) RecordExport(rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RowsExported = rows
}

// RecordCharts records the number of rendered charts
func (m *RunMetrics) RecordCharts(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChartsRendered = count
}

// RecordPersisted records rows inserted into the database sink
func (m *RunMetrics) RecordPersisted(rows int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RowsPersisted = rows
}

// RecordError increments the error counter for a category
func (m *RunMetrics) RecordError(category ErrorCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCounts[category]++
}

// Complete marks the run as finished
func (m *RunMetrics) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EndTime = time.Now()
	m.logger.Info("Run completed",
		zap.String("runId", m.RunID),
		zap.Duration("duration", m.duration()),
		zap.Int("files", m.FilesLoaded),
		zap.Int("rows", m.RowsLoaded),
		zap.Int("femaleImputed", m.FemaleImputed),
		zap.Int("maleImputed", m.MaleImputed),
		zap.Int("remainingMissing", m.RemainingMissing))
}

// Duration returns the total duration of the run
func (m *RunMetrics) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration()
}

func (m *RunMetrics) duration() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// GenerateMetricsReport creates a detailed metrics report
func (m *RunMetrics) GenerateMetricsReport() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`
Cleaning Run Report
===================
Run ID:                  %s
Duration:                %s

Data Summary
------------
Files Loaded:            %d
Rows Loaded:             %d
Rows Exported:           %d
Rows Persisted:          %d
Charts Rendered:         %d
Cleaning Ops:            %d
Percentage Columns:      %s

Gender Imputation
-----------------
Female Imputed:          %d
Male Imputed:            %d
Still Missing:           %d
`,
		m.RunID,
		formatDuration(m.duration()),
		m.FilesLoaded,
		m.RowsLoaded,
		m.RowsExported,
		m.RowsPersisted,
		m.ChartsRendered,
		m.CleaningOps,
		strings.Join(m.PercentageColumns, ", "),
		m.FemaleImputed,
		m.MaleImputed,
		m.RemainingMissing,
	))

	if len(m.StageDurations) > 0 {
		sb.WriteString("\nStage Durations\n---------------\n")
		for _, stage := range sortedKeys(m.StageDurations) {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", stage, formatDuration(m.StageDurations[stage])))
		}
	}

	if len(m.UnparseableCells) > 0 {
		sb.WriteString("\nUnparseable Cells\n-----------------\n")
		for _, col := range sortedKeys(m.UnparseableCells) {
			sb.WriteString(fmt.Sprintf("- %s: %d\n", col, m.UnparseableCells[col]))
		}
	}

	if len(m.ErrorCounts) > 0 {
		sb.WriteString("\nError Distribution\n------------------\n")
		for category := ErrorCategoryNone; category <= ErrorCategoryCritical; category++ {
			if count, ok := m.ErrorCounts[category]; ok {
				sb.WriteString(fmt.Sprintf("- %s: %d\n", category.String(), count))
			}
		}
	}

	return sb.String()
}

// ToJSON serializes metrics to JSON
func (m *RunMetrics) ToJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stages := make(map[string]string, len(m.StageDurations))
	for stage, d := range m.StageDurations {
		stages[stage] = formatDuration(d)
	}
	errorCounts := make(map[string]int, len(m.ErrorCounts))
	for category, count := range m.ErrorCounts {
		errorCounts[category.String()] = count
	}

	return json.Marshal(struct {
		RunID             string            `json:"runId"`
		Duration          string            `json:"duration"`
		FilesLoaded       int               `json:"filesLoaded"`
		RowsLoaded        int               `json:"rowsLoaded"`
		RowsExported      int               `json:"rowsExported"`
		RowsPersisted     int64             `json:"rowsPersisted"`
		ChartsRendered    int               `json:"chartsRendered"`
		CleaningOps       int               `json:"cleaningOps"`
		PercentageColumns []string          `json:"percentageColumns"`
		UnparseableCells  map[string]int    `json:"unparseableCells"`
		FemaleImputed     int               `json:"femaleImputed"`
		MaleImputed       int               `json:"maleImputed"`
		RemainingMissing  int               `json:"remainingMissing"`
		StageDurations    map[string]string `json:"stageDurations"`
		ErrorCounts       map[string]int    `json:"errorCounts"`
	}{
		RunID:             m.RunID,
		Duration:          formatDuration(m.duration()),
		FilesLoaded:       m.FilesLoaded,
		RowsLoaded:        m.RowsLoaded,
		RowsExported:      m.RowsExported,
		RowsPersisted:     m.RowsPersisted,
		ChartsRendered:    m.ChartsRendered,
		CleaningOps:       m.CleaningOps,
		PercentageColumns: m.PercentageColumns,
		UnparseableCells:  m.UnparseableCells,
		FemaleImputed:     m.FemaleImputed,
		MaleImputed:       m.MaleImputed,
		RemainingMissing:  m.RemainingMissing,
		StageDurations:    stages,
		ErrorCounts:       errorCounts,
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
