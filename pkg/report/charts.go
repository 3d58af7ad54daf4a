// pkg/report/charts.go
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"

	"github.com/David-Botos/census-ingress/pkg/model"
)

// ErrNotEnoughData is returned when a chart would have fewer than two points
var ErrNotEnoughData = errors.New("not enough data to render chart")

const (
	defaultWidth  = 1024
	defaultHeight = 512
	minPoints     = 2
)

// RendererConfig controls output location and chart dimensions
type RendererConfig struct {
	OutputDir   string
	LabelColumn string
	Width       int
	Height      int
}

// Renderer draws PNG charts from a cleaned census table
type Renderer struct {
	logger *zap.Logger
	config RendererConfig
}

// NewRenderer creates a Renderer writing into cfg.OutputDir
func NewRenderer(logger *zap.Logger, cfg RendererConfig) (*Renderer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("chart output directory must be set")
	}
	if cfg.LabelColumn == "" {
		cfg.LabelColumn = model.ColumnState
	}
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = defaultHeight
	}
	return &Renderer{logger: logger.Named("report"), config: cfg}, nil
}

// RenderAll writes one bar chart per percentage column plus the income and
// gender scatter. Charts lacking data are skipped. A chart that fails to
// render does not stop the others; the failures are joined into the
// returned error alongside the paths that were written.
func (r *Renderer) RenderAll(t *model.Table, percentageColumns []string) ([]string, error) {
	if err := os.MkdirAll(r.config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	var written []string
	var errs []error
	render := func(name string, draw func(io.Writer) error) {
		path := filepath.Join(r.config.OutputDir, name+".png")
		err := r.writeFile(path, draw)
		switch {
		case errors.Is(err, ErrNotEnoughData):
			r.logger.Debug("Skipping chart", zap.String("chart", name))
		case err != nil:
			r.logger.Warn("Failed to render chart", zap.String("chart", name), zap.Error(err))
			errs = append(errs, err)
		default:
			written = append(written, path)
		}
	}

	for _, col := range percentageColumns {
		if !t.HasColumn(col) {
			continue
		}
		col := col
		render(fileName(col), func(w io.Writer) error {
			return r.RenderColumnBars(w, t, col)
		})
	}

	if t.HasColumn(model.ColumnIncome) && t.HasColumn(model.ColumnFemale) {
		render("income_vs_female", func(w io.Writer) error {
			return r.RenderScatter(w, t, model.ColumnIncome, model.ColumnFemale)
		})
	}

	r.logger.Info("Rendered charts",
		zap.Int("count", len(written)),
		zap.Int("failed", len(errs)),
		zap.String("dir", r.config.OutputDir))
	return written, errors.Join(errs...)
}

// RenderColumnBars draws the per-label mean of column as a bar chart
func (r *Renderer) RenderColumnBars(w io.Writer, t *model.Table, column string) error {
	labelColumn := r.resolveLabelColumn(t)
	labels, means := GroupMeans(t, labelColumn, column)
	// a flat series has no value range to scale the axis to
	if len(labels) < minPoints || distinctValues(means) < minPoints {
		return ErrNotEnoughData
	}

	bars := make([]chart.Value, len(labels))
	for i, label := range labels {
		bars[i] = chart.Value{Label: label, Value: means[i]}
	}

	bw := barWidth(r.config.Width, len(bars))
	graph := chart.BarChart{
		Title:      fmt.Sprintf("%s (%%) by %s", column, labelColumn),
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      r.config.Width,
		Height:     r.config.Height,
		BarWidth:   bw,
		BarSpacing: bw,
		Bars:       bars,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render %s chart: %w", column, err)
	}
	return nil
}

// RenderScatter plots y against x for rows where both are present
func (r *Renderer) RenderScatter(w io.Writer, t *model.Table, xColumn, yColumn string) error {
	var xs, ys []float64
	for i := 0; i < t.Len(); i++ {
		x, okX := model.AsFloat(t.Value(i, xColumn))
		y, okY := model.AsFloat(t.Value(i, yColumn))
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < minPoints || distinctValues(xs) < minPoints || distinctValues(ys) < minPoints {
		return ErrNotEnoughData
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s vs %s", yColumn, xColumn),
		Width:  r.config.Width,
		Height: r.config.Height,
		XAxis:  chart.XAxis{Name: xColumn},
		YAxis:  chart.YAxis{Name: yColumn},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    yColumn,
				XValues: xs,
				YValues: ys,
				Style:   pointStyle(chart.ColorBlue),
			},
		},
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render scatter chart: %w", err)
	}
	return nil
}

func (r *Renderer) writeFile(path string, render func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return render(f)
}

// resolveLabelColumn matches the configured label column case-insensitively
func (r *Renderer) resolveLabelColumn(t *model.Table) string {
	meta := model.InferMetadata(t, "", "")
	if col := meta.GetColumnByName(r.config.LabelColumn); col != nil {
		return col.Name
	}
	return r.config.LabelColumn
}

func distinctValues(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// pointStyle renders points only, no connecting line
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

func barWidth(width, bars int) int {
	w := width / (bars * 2)
	if w < 4 {
		return 4
	}
	if w > 60 {
		return 60
	}
	return w
}

func fileName(column string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(column), " ", "_"))
}
