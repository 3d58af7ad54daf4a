// pkg/loader/loader.go
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/David-Botos/census-ingress/pkg/model"
)

// ErrNoInputFound is returned when the file selector matches nothing
var ErrNoInputFound = errors.New("no input files found for pattern")

// DefaultNaNValues are the cell contents read as missing
var DefaultNaNValues = []string{"", "NA", "NaN", "nan", "<nil>", "null"}

// Loader reads tabular files matching a glob and concatenates them
type Loader struct {
	logger    *zap.Logger
	delimiter rune
	nanValues []string
}

// Option configures a Loader
type Option func(*Loader)

// WithDelimiter sets the CSV field delimiter
func WithDelimiter(r rune) Option {
	return func(l *Loader) {
		l.delimiter = r
	}
}

// WithNaNValues replaces the set of cell contents treated as missing
func WithNaNValues(values []string) Option {
	return func(l *Loader) {
		l.nanValues = values
	}
}

// LoadResult is the concatenated table plus its provenance
type LoadResult struct {
	Table       *model.Table
	Files       []string
	RowsPerFile map[string]int
	Duration    time.Duration
}

// NewLoader creates a Loader
func NewLoader(logger *zap.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{
		logger:    logger.Named("loader"),
		delimiter: ',',
		nanValues: DefaultNaNValues,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every file matching pattern, in lexical order, into one table.
// Columns are the union of all headers in first-seen order.
func (l *Loader) Load(pattern string) (*LoadResult, error) {
	start := time.Now()

	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid input pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInputFound, pattern)
	}

	result := &LoadResult{
		Table:       model.NewTable(),
		Files:       files,
		RowsPerFile: make(map[string]int, len(files)),
	}

	for _, file := range files {
		df, err := l.readFile(file)
		if err != nil {
			return nil, err
		}

		result.Table.AppendColumns(df.Names()...)
		rows := df.Maps()
		for _, row := range rows {
			result.Table.AppendRow(row)
		}
		result.RowsPerFile[file] = len(rows)

		l.logger.Debug("Loaded file",
			zap.String("file", file),
			zap.Int("rows", len(rows)),
			zap.Int("columns", df.Ncol()))
	}

	result.Duration = time.Since(start)
	l.logger.Info("Loaded input files",
		zap.String("pattern", pattern),
		zap.Int("files", len(files)),
		zap.Int("rows", result.Table.Len()),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func (l *Loader) readFile(path string) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return l.readExcel(path)
	default:
		return l.readCSV(path)
	}
}

func (l *Loader) readCSV(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.WithDelimiter(l.delimiter),
		dataframe.NaNValues(l.nanValues),
	)
	if df.Err != nil {
		return df, fmt.Errorf("failed to parse %s: %w", path, df.Err)
	}
	return df, nil
}

// readExcel loads the first sheet of a workbook
func (l *Loader) readExcel(path string) (dataframe.DataFrame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to read sheet %s of %s: %w", sheets[0], path, err)
	}
	if len(rows) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("sheet %s of %s is empty", sheets[0], path)
	}

	// excelize trims trailing empty cells, pad every row to the header width
	width := len(rows[0])
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row[:width]
	}

	df := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(l.nanValues),
	)
	if df.Err != nil {
		return df, fmt.Errorf("failed to parse sheet %s of %s: %w", sheets[0], path, df.Err)
	}
	return df, nil
}
