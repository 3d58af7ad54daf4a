package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/census-ingress/pkg/cleaner"
	"github.com/David-Botos/census-ingress/pkg/config"
	"github.com/David-Botos/census-ingress/pkg/connector"
	"github.com/David-Botos/census-ingress/pkg/converter"
	"github.com/David-Botos/census-ingress/pkg/loader"
	"github.com/David-Botos/census-ingress/pkg/model"
	"github.com/David-Botos/census-ingress/pkg/report"
)

var errUnparseable = errors.New("value could not be parsed as a number")

// SinkFactory opens the database sink for a run
type SinkFactory func(ctx context.Context) (connector.TableSink, error)

// Runner orchestrates one load, clean, impute and output pass
type Runner struct {
	cfg           *config.Config
	logger        *zap.Logger
	loader        *loader.Loader
	typeConverter *converter.TypeConverter
	errorHandler  *ErrorHandler
	openSink      SinkFactory
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithSinkFactory overrides how the database sink is opened
func WithSinkFactory(f SinkFactory) RunnerOption {
	return func(r *Runner) {
		r.openSink = f
	}
}

// RunResult is everything a run produced
type RunResult struct {
	RunID        string
	Table        *model.Table
	Report       *model.CleaningReport
	Imputation   model.ImputationResult
	Operations   []model.CleaningOperation
	Charts       []string
	Summaries    []report.ColumnSummary
	Metrics      *RunMetrics
	Persisted    bool
	ErrorCounts  map[ErrorCategory]int
	ErrorSamples map[ErrorCategory][]ErrorRecord
}

// InspectResult describes a cleaned table without writing anything
type InspectResult struct {
	Files             []string
	Rows              int
	Columns           []string
	PercentageColumns []string
	MissingByColumn   map[string]int
	Report            *model.CleaningReport
}

// NewRunner creates a Runner for the given configuration
func NewRunner(cfg *config.Config, logger *zap.Logger, opts ...RunnerOption) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("configuration cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	var loaderOpts []loader.Option
	if cfg.CSVDelimiter != 0 {
		loaderOpts = append(loaderOpts, loader.WithDelimiter(cfg.CSVDelimiter))
	}
	if len(cfg.NaNValues) > 0 {
		loaderOpts = append(loaderOpts, loader.WithNaNValues(cfg.NaNValues))
	}

	r := &Runner{
		cfg:           cfg,
		logger:        logger.Named("pipeline"),
		loader:        loader.NewLoader(logger, loaderOpts...),
		typeConverter: converter.NewTypeConverter(logger),
		errorHandler:  NewErrorHandler(logger.Named("errors")),
	}
	if cfg.Postgres != nil {
		r.openSink = func(ctx context.Context) (connector.TableSink, error) {
			return connector.NewPostgresConnector(ctx, cfg.Postgres, logger, cfg.BatchSize)
		}
	}

	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes the full pipeline. Input absence and output failures abort
// the run; chart failures are logged and the run continues.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	dataCleaner, err := cleaner.NewDataCleaner(r.logger)
	if err != nil {
		return nil, err
	}

	metrics := NewRunMetrics(r.logger, dataCleaner.RunID())
	result := &RunResult{RunID: dataCleaner.RunID(), Metrics: metrics}

	r.logger.Info("Starting cleaning run",
		zap.String("runId", result.RunID),
		zap.String("pattern", r.cfg.InputPattern))

	// Stage 1: load
	stop := metrics.StartStage(StageLoad)
	loaded, err := r.loader.Load(r.cfg.InputPattern)
	stop()
	if err != nil {
		return result, r.fail(metrics, StageLoad, err)
	}
	metrics.RecordLoad(loaded)

	// Stage 2: clean
	stop = metrics.StartStage(StageClean)
	cleaned, cleaningReport := dataCleaner.Clean(loaded.Table)
	stop()
	result.Report = cleaningReport

	// Stage 3: impute
	stop = metrics.StartStage(StageImpute)
	imputed, imputation := dataCleaner.ImputeGender(cleaned)
	stop()
	result.Table = imputed
	result.Imputation = imputation
	result.Operations = dataCleaner.Operations()
	metrics.RecordCleaning(cleaningReport, len(result.Operations))
	r.recordUnparseable(result.Operations)
	metrics.RecordImputation(imputation)

	// Stage 4: export
	if r.cfg.OutputPath != "" {
		stop = metrics.StartStage(StageExport)
		err := loader.WriteCSVFile(r.cfg.OutputPath, imputed, r.typeConverter, r.cfg.CSVDelimiter)
		stop()
		if err != nil {
			return result, r.fail(metrics, StageExport, WrapError(err, "failed to write cleaned table"))
		}
		metrics.RecordExport(imputed.Len())
		r.logger.Info("Wrote cleaned table", zap.String("path", r.cfg.OutputPath))
	}

	// Stage 5: charts
	if r.cfg.ChartDir != "" {
		stop = metrics.StartStage(StageCharts)
		charts, err := r.renderCharts(imputed)
		stop()
		result.Charts = charts
		metrics.RecordCharts(len(charts))
		if err != nil {
			record := NewErrorRecord(err, ErrorCategoryWarning).WithStage(StageCharts)
			metrics.RecordError(record.Category)
			r.errorHandler.HandleError(record)
		}
	}

	// Stage 6: summary
	stop = metrics.StartStage(StageSummary)
	result.Summaries = report.Summarize(imputed, report.NumericColumns(imputed))
	stop()

	// Stage 7: persist
	if r.openSink != nil {
		stop = metrics.StartStage(StagePersist)
		err := r.persist(ctx, metrics, imputed, result.Operations)
		stop()
		if err != nil {
			return result, r.fail(metrics, StagePersist, err)
		}
		result.Persisted = true
	}

	metrics.Complete()
	result.ErrorCounts = r.errorHandler.GetErrorSummary()
	result.ErrorSamples = r.errorHandler.GetErrorSamples()
	return result, nil
}

// Inspect loads and cleans the input and reports on it without writing
func (r *Runner) Inspect() (*InspectResult, error) {
	dataCleaner, err := cleaner.NewDataCleaner(r.logger)
	if err != nil {
		return nil, err
	}

	loaded, err := r.loader.Load(r.cfg.InputPattern)
	if err != nil {
		r.errorHandler.HandleError(NewErrorRecord(err, r.errorHandler.CategorizeError(err)).WithStage(StageLoad))
		return nil, err
	}

	cleaned, cleaningReport := dataCleaner.Clean(loaded.Table)
	result := &InspectResult{
		Files:             loaded.Files,
		Rows:              cleaned.Len(),
		Columns:           cleaned.Columns(),
		PercentageColumns: cleaningReport.PercentageColumns,
		MissingByColumn:   make(map[string]int),
		Report:            cleaningReport,
	}
	for _, col := range result.Columns {
		result.MissingByColumn[col] = cleaned.CountMissing(col)
	}
	return result, nil
}

// ErrorHandler exposes the handler that classified this runner's errors
func (r *Runner) ErrorHandler() *ErrorHandler {
	return r.errorHandler
}

// recordUnparseable files one DataConversion record per cell the cleaner
// could not parse. These are counted, not logged one by one.
func (r *Runner) recordUnparseable(operations []model.CleaningOperation) {
	for _, op := range operations {
		if op.CleaningReason != model.ReasonUnparseableValue {
			continue
		}
		record := NewErrorRecord(errUnparseable, ErrorCategoryDataConversion).
			WithStage(StageClean).
			WithColumn(op.ColumnName, op.OriginalValue)
		r.errorHandler.RecordError(record)
	}
}

func (r *Runner) renderCharts(t *model.Table) ([]string, error) {
	renderer, err := report.NewRenderer(r.logger, report.RendererConfig{OutputDir: r.cfg.ChartDir})
	if err != nil {
		return nil, err
	}
	return renderer.RenderAll(t, model.RaceColumns)
}

func (r *Runner) persist(
	ctx context.Context,
	metrics *RunMetrics,
	t *model.Table,
	operations []model.CleaningOperation,
) (err error) {
	sink, err := r.openSink(ctx)
	if err != nil {
		return WrapError(err, "failed to open postgres sink")
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = WrapError(cerr, "failed to close postgres sink")
		}
	}()

	rows, err := sink.WriteTable(ctx, t, nil)
	if err != nil {
		return WrapError(err, "failed to write table to postgres")
	}
	metrics.RecordPersisted(rows)

	if err := sink.RecordCleaningOperations(ctx, operations); err != nil {
		return WrapError(err, "failed to record cleaning operations")
	}

	r.logger.Info("Persisted cleaned table",
		zap.Int64("rows", rows),
		zap.Int("operations", len(operations)))
	return nil
}

// fail records a stage error and returns it for the caller to surface
func (r *Runner) fail(metrics *RunMetrics, stage string, err error) error {
	category := r.errorHandler.CategorizeError(err)
	if !category.Fatal() {
		category = ErrorCategoryCritical
	}
	metrics.RecordError(category)
	r.errorHandler.HandleError(NewErrorRecord(err, category).WithStage(stage))
	metrics.Complete()
	return fmt.Errorf("%s stage: %w", stage, err)
}
