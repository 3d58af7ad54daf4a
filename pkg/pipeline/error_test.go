package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/David-Botos/census-ingress/pkg/loader"
)

func TestCategorizeError(t *testing.T) {
	eh := NewErrorHandler(zap.NewNop())

	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ErrorCategoryNone},
		{"no input", fmt.Errorf("%w: states*.csv", loader.ErrNoInputFound), ErrorCategoryInput},
		{"canceled", fmt.Errorf("insert: %w", context.Canceled), ErrorCategoryCritical},
		{"pq error", &pq.Error{Message: "relation does not exist"}, ErrorCategorySink},
		{"connection", errors.New("dial tcp: connection refused"), ErrorCategorySink},
		{"parse", errors.New("failed to parse file"), ErrorCategoryDataConversion},
		{"schema", errors.New("column Income has 3 values"), ErrorCategorySchema},
		{"write", errors.New("failed to write header"), ErrorCategoryOutput},
		{"unknown", errors.New("boom"), ErrorCategoryCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eh.CategorizeError(tt.err))
		})
	}
}

func TestErrorCategoryFatal(t *testing.T) {
	assert.False(t, ErrorCategoryWarning.Fatal())
	assert.False(t, ErrorCategoryDataConversion.Fatal())
	assert.False(t, ErrorCategorySchema.Fatal())
	assert.True(t, ErrorCategoryInput.Fatal())
	assert.True(t, ErrorCategorySink.Fatal())
	assert.True(t, ErrorCategoryCritical.Fatal())
	assert.Equal(t, "Unknown(42)", ErrorCategory(42).String())
}

func TestHandleError(t *testing.T) {
	eh := NewErrorHandler(nil)

	assert.Equal(t, ActionContinue, eh.HandleError(NewErrorRecord(errors.New("chart"), ErrorCategoryWarning)))
	assert.Equal(t, ActionAbort, eh.HandleError(NewErrorRecord(loader.ErrNoInputFound, ErrorCategoryInput)))

	for i := 0; i < 10; i++ {
		eh.HandleError(NewErrorRecord(errors.New("skip"), ErrorCategoryWarning))
	}

	summary := eh.GetErrorSummary()
	assert.Equal(t, 11, summary[ErrorCategoryWarning])
	assert.Equal(t, 1, summary[ErrorCategoryInput])
	assert.Len(t, eh.GetErrorSamples()[ErrorCategoryWarning], 5)
}

func TestErrorRecordString(t *testing.T) {
	rec := NewErrorRecord(errors.New("bad value"), ErrorCategoryDataConversion).
		WithStage(StageClean).
		WithColumn("Income", "$abc")

	assert.True(t, rec.Recoverable)
	assert.Equal(t, "[DataConversion] Stage: clean Column: Income Value: $abc Error: bad value", rec.String())
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(nil, "ctx"))

	err := WrapError(loader.ErrNoInputFound, "load")
	assert.ErrorIs(t, err, loader.ErrNoInputFound)
	assert.Equal(t, "load: "+loader.ErrNoInputFound.Error(), err.Error())
}
