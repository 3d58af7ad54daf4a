package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/census-ingress/pkg/config"
	"github.com/David-Botos/census-ingress/pkg/pipeline"
	"github.com/David-Botos/census-ingress/pkg/report"
)

type options struct {
	envFile     string
	pattern     string
	output      string
	charts      string
	logLevel    string
	logFormat   string
	postgres    bool
	metricsJSON string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "censusclean",
		Short:         "Clean and impute per-state census CSV files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", "", "load configuration from this .env file")
	flags.StringVar(&opts.pattern, "pattern", "", "glob selecting the input files (INPUT_PATTERN)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (LOG_LEVEL)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format, json or console (LOG_FORMAT)")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newInspectCmd(opts),
	)
	return rootCmd
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Clean the input, impute gender counts and write the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			runner, err := pipeline.NewRunner(cfg, logger)
			if err != nil {
				return err
			}

			result, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, result.Metrics.GenerateMetricsReport())
			if len(result.Summaries) > 0 {
				fmt.Fprintln(out)
				fmt.Fprint(out, report.FormatSummaries(result.Summaries))
			}
			printErrorSamples(out, result.ErrorSamples)

			if opts.metricsJSON != "" {
				data, err := result.Metrics.ToJSON()
				if err != nil {
					return fmt.Errorf("failed to encode metrics: %w", err)
				}
				if err := os.WriteFile(opts.metricsJSON, data, 0o644); err != nil {
					return fmt.Errorf("failed to write metrics: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.output, "output", "", "path of the cleaned CSV (OUTPUT_PATH)")
	cmd.Flags().StringVar(&opts.charts, "charts", "", "directory for PNG charts (CHART_DIR)")
	cmd.Flags().BoolVar(&opts.postgres, "postgres", false, "also write the table and audit trail to PostgreSQL")
	cmd.Flags().StringVar(&opts.metricsJSON, "metrics-json", "", "write run metrics as JSON to this file")
	return cmd
}

func newInspectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Load and clean the input, then report detected columns without writing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			runner, err := pipeline.NewRunner(cfg, logger)
			if err != nil {
				return err
			}

			result, err := runner.Inspect()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Files:              %d\n", len(result.Files))
			for _, f := range result.Files {
				fmt.Fprintf(out, "  %s\n", f)
			}
			fmt.Fprintf(out, "Rows:               %d\n", result.Rows)
			fmt.Fprintf(out, "Percentage columns: %v\n", result.PercentageColumns)
			fmt.Fprintf(out, "Steps:              %v\n", result.Report.StepsApplied)
			fmt.Fprintln(out, "Missing values:")

			columns := append([]string(nil), result.Columns...)
			sort.Strings(columns)
			for _, col := range columns {
				fmt.Fprintf(out, "  %-12s %d\n", col, result.MissingByColumn[col])
			}
			return nil
		},
	}
}

func printErrorSamples(out io.Writer, samples map[pipeline.ErrorCategory][]pipeline.ErrorRecord) {
	if len(samples) == 0 {
		return
	}
	fmt.Fprintln(out, "\nSample errors:")
	for category := pipeline.ErrorCategoryNone; category <= pipeline.ErrorCategoryCritical; category++ {
		for _, record := range samples[category] {
			fmt.Fprintf(out, "  %s\n", record)
		}
	}
}

// setup loads configuration, applies flag overrides and builds the logger
func setup(cmd *cobra.Command, opts *options) (*config.Config, *zap.Logger, error) {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}

	cfg, err := config.LoadConfig(envFiles...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	changed := cmd.Flags().Changed
	if changed("pattern") {
		cfg.InputPattern = opts.pattern
	}
	if changed("output") {
		cfg.OutputPath = opts.output
	}
	if changed("charts") {
		cfg.ChartDir = opts.charts
	}
	if changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if opts.postgres && cfg.Postgres == nil {
		pgConfig, err := config.LoadPostgresConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load PostgreSQL configuration: %w", err)
		}
		cfg.Postgres = pgConfig
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
