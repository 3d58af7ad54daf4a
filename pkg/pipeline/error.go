package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/census-ingress/pkg/loader"
)

// Action defines the recommended action after an error
type Action int

const (
	// ActionContinue indicates the run should continue despite the error
	ActionContinue Action = iota
	// ActionAbort indicates the run should stop and surface the error
	ActionAbort
)

// ErrorCategory defines categories of errors during a run
type ErrorCategory int

const (
	// Error categories with increasing severity
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryWarning
	ErrorCategoryDataConversion
	ErrorCategorySchema
	ErrorCategoryInput
	ErrorCategoryOutput
	ErrorCategorySink
	ErrorCategoryCritical
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryWarning:
		return "Warning"
	case ErrorCategoryDataConversion:
		return "DataConversion"
	case ErrorCategorySchema:
		return "Schema"
	case ErrorCategoryInput:
		return "Input"
	case ErrorCategoryOutput:
		return "Output"
	case ErrorCategorySink:
		return "Sink"
	case ErrorCategoryCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// Fatal reports whether errors of this category stop the run
func (ec ErrorCategory) Fatal() bool {
	return ec >= ErrorCategoryInput
}

// ErrorRecord represents a single error during a run
type ErrorRecord struct {
	Category    ErrorCategory
	Stage       string
	ColumnName  string
	SourceValue interface{}
	Error       error
	Message     string // Derived from Error but stored for serialization
	Timestamp   time.Time
	Recoverable bool
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:    category,
		Error:       err,
		Timestamp:   time.Now(),
		Recoverable: !category.Fatal(),
	}

	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// WithStage adds the pipeline stage to the error record
func (r ErrorRecord) WithStage(stage string) ErrorRecord {
	r.Stage = stage
	return r
}

// WithColumn adds column information to the error record
func (r ErrorRecord) WithColumn(columnName string, sourceValue interface{}) ErrorRecord {
	r.ColumnName = columnName
	r.SourceValue = sourceValue
	return r
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))

	if r.Stage != "" {
		sb.WriteString(fmt.Sprintf("Stage: %s ", r.Stage))
	}

	if r.ColumnName != "" {
		sb.WriteString(fmt.Sprintf("Column: %s ", r.ColumnName))
		if r.SourceValue != nil {
			sb.WriteString(fmt.Sprintf("Value: %v ", r.SourceValue))
		}
	}

	if r.Error != nil {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Error.Error()))
	} else if r.Message != "" {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Message))
	}

	return strings.TrimSpace(sb.String())
}

// ErrorHandler classifies errors and keeps per-category counts and samples
type ErrorHandler struct {
	logger       *zap.Logger
	errorCounts  map[ErrorCategory]int
	sampleErrors map[ErrorCategory][]ErrorRecord
	mu           sync.Mutex
	maxSamples   int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{
		logger:       logger,
		errorCounts:  make(map[ErrorCategory]int),
		sampleErrors: make(map[ErrorCategory][]ErrorRecord),
		maxSamples:   5, // Store up to 5 sample errors per category
	}
}

// CategorizeError determines the category of an error
func (eh *ErrorHandler) CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	var pqErr *pq.Error
	var category ErrorCategory

	switch {
	case errors.Is(err, loader.ErrNoInputFound):
		category = ErrorCategoryInput

	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		category = ErrorCategoryCritical

	case errors.As(err, &pqErr):
		category = ErrorCategorySink

	case containsAny(err.Error(), "connection", "postgres"):
		category = ErrorCategorySink

	case containsAny(err.Error(), "convert", "parse"):
		category = ErrorCategoryDataConversion

	case containsAny(err.Error(), "column", "schema"):
		category = ErrorCategorySchema

	case containsAny(err.Error(), "write", "create", "permission"):
		category = ErrorCategoryOutput

	default:
		category = ErrorCategoryCritical
	}

	eh.logger.Debug("Categorized error",
		zap.String("error", err.Error()),
		zap.String("category", category.String()))

	return category
}

// HandleError records an error and determines the action
func (eh *ErrorHandler) HandleError(record ErrorRecord) Action {
	eh.RecordError(record)

	if record.Category.Fatal() {
		eh.logger.Error("Fatal error during run",
			zap.String("category", record.Category.String()),
			zap.String("stage", record.Stage),
			zap.String("error", record.Message))
		return ActionAbort
	}

	if record.Category != ErrorCategoryNone {
		eh.logger.Warn("Continuing after error",
			zap.String("category", record.Category.String()),
			zap.String("stage", record.Stage),
			zap.String("error", record.Message))
	}
	return ActionContinue
}

// RecordError saves an error occurrence
func (eh *ErrorHandler) RecordError(record ErrorRecord) {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.errorCounts[record.Category]++
	if len(eh.sampleErrors[record.Category]) < eh.maxSamples {
		eh.sampleErrors[record.Category] = append(eh.sampleErrors[record.Category], record)
	}
}

// GetErrorSummary returns error counts by category
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	summary := make(map[ErrorCategory]int, len(eh.errorCounts))
	for category, count := range eh.errorCounts {
		summary[category] = count
	}
	return summary
}

// GetErrorSamples returns sample errors for each category
func (eh *ErrorHandler) GetErrorSamples() map[ErrorCategory][]ErrorRecord {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	samples := make(map[ErrorCategory][]ErrorRecord, len(eh.sampleErrors))
	for category, records := range eh.sampleErrors {
		samples[category] = append([]ErrorRecord(nil), records...)
	}
	return samples
}

// WrapError creates a new error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func containsAny(s string, needles ...string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
