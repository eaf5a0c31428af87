package chart

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	gochart "github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/insightlab/datachat/internal/dataset"
)

var seriesColor = color.RGBA{R: 66, G: 133, B: 244, A: 255}

// Renderer rasterizes chart requests into uniquely named PNG files under a
// publicly servable directory.
type Renderer struct {
	dir       string
	urlPrefix string
}

// NewRenderer creates a renderer writing into dir, served at urlPrefix
// (e.g. "/static/charts").
func NewRenderer(dir, urlPrefix string) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create charts directory: %w", err)
	}
	return &Renderer{dir: dir, urlPrefix: urlPrefix}, nil
}

// Render runs the pipeline in raster mode: the shaped data is drawn with the
// chart-type-appropriate routine, persisted as a PNG, and returned as
// embeddable markdown.
func (r *Renderer) Render(req Request, reg *dataset.Registry) (string, error) {
	res, err := compute(req, reg)
	if err != nil {
		return "", err
	}

	// Bar without a y axis and count plots draw value frequencies.
	if (req.ChartType == TypeCount && res.YKey != "count") ||
		(req.ChartType == TypeBar && res.YKey == "") {
		countReq := req
		countReq.Aggregation = AggCount
		countReq.GroupBy = ""
		if res, err = compute(countReq, reg); err != nil {
			return "", err
		}
	}

	filename := uuid.NewString() + ".png"
	path := filepath.Join(r.dir, filename)

	if req.ChartType == TypePie {
		err = r.drawPie(req, res, path)
	} else {
		err = r.drawPlot(req, res, path)
	}
	if err != nil {
		return "", err
	}

	slog.Info("chart rendered", "chart_type", req.ChartType, "file", filename)
	return fmt.Sprintf("![Chart](%s/%s)", r.urlPrefix, filename), nil
}

// drawPlot renders every gonum-backed chart type. Unknown types produce an
// empty titled plot rather than an error.
func (r *Renderer) drawPlot(req Request, res *Result, path string) error {
	p := plot.New()
	p.Title.Text = req.titleWithFilter()
	p.X.Label.Text = res.XKey
	p.Y.Label.Text = res.YKey

	var err error
	switch req.ChartType {
	case TypeBar, TypeCount:
		err = addBars(p, res)
	case TypeLine:
		err = addLine(p, res, false)
	case TypeArea:
		err = addLine(p, res, true)
	case TypeScatter:
		err = addScatter(p, res)
	case TypeHist:
		err = addHistogram(p, res)
	case TypeBox, TypeViolin:
		// Violin is drawn with the box routine, the closest supported form.
		err = addBoxes(p, res)
	case TypeHeatmap:
		err = addHeatmap(p, res)
	default:
		// Soft failure: an empty plot, not a rejected request.
	}
	if err != nil {
		return err
	}

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

func (r *Renderer) drawPie(req Request, res *Result, path string) error {
	labels, values, err := labelsAndValues(res)
	if err != nil {
		return err
	}

	pie := gochart.PieChart{
		Title:  req.titleWithFilter(),
		Width:  800,
		Height: 600,
	}
	for i, label := range labels {
		if values[i] <= 0 {
			continue // go-chart rejects non-positive slices
		}
		pie.Values = append(pie.Values, gochart.Value{Value: values[i], Label: label})
	}
	if len(pie.Values) == 0 {
		return &ColumnError{Reason: "no positive values to plot"}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close chart file", "path", path, "error", closeErr)
		}
	}()

	if err := pie.Render(gochart.PNG, f); err != nil {
		return fmt.Errorf("render pie chart: %w", err)
	}
	return nil
}

// labelsAndValues extracts category labels from the x key and numeric values
// from the y key of the shaped rows.
func labelsAndValues(res *Result) ([]string, []float64, error) {
	if res.YKey == "" {
		return nil, nil, &ColumnError{Reason: "y values are required for this chart type"}
	}
	labels := make([]string, 0, len(res.Rows))
	values := make([]float64, 0, len(res.Rows))
	for _, row := range res.Rows {
		v, ok := dataset.AsFloat(row[res.YKey])
		if !ok {
			return nil, nil, &ColumnError{Column: res.YKey, Reason: fmt.Sprintf("non-numeric value %q", dataset.FormatCell(row[res.YKey]))}
		}
		labels = append(labels, dataset.FormatCell(row[res.XKey]))
		values = append(values, v)
	}
	return labels, values, nil
}

// xyPoints converts rows into plotter points. Non-numeric x values fall back
// to their ordinal position.
func xyPoints(res *Result) (plotter.XYs, error) {
	if res.YKey == "" {
		return nil, &ColumnError{Reason: "y values are required for this chart type"}
	}
	pts := make(plotter.XYs, 0, len(res.Rows))
	for i, row := range res.Rows {
		y, ok := dataset.AsFloat(row[res.YKey])
		if !ok {
			return nil, &ColumnError{Column: res.YKey, Reason: fmt.Sprintf("non-numeric value %q", dataset.FormatCell(row[res.YKey]))}
		}
		x, ok := dataset.AsFloat(row[res.XKey])
		if !ok {
			x = float64(i)
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	return pts, nil
}

func addBars(p *plot.Plot, res *Result) error {
	labels, values, err := labelsAndValues(res)
	if err != nil {
		return err
	}
	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(24))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = seriesColor
	p.Add(bars)
	p.NominalX(labels...)
	return nil
}

func addLine(p *plot.Plot, res *Result, filled bool) error {
	pts, err := xyPoints(res)
	if err != nil {
		return err
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("line chart: %w", err)
	}
	line.Color = seriesColor
	if filled {
		line.FillColor = color.RGBA{R: 66, G: 133, B: 244, A: 96}
	}
	p.Add(line)
	return nil
}

func addScatter(p *plot.Plot, res *Result) error {
	pts, err := xyPoints(res)
	if err != nil {
		return err
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("scatter chart: %w", err)
	}
	scatter.Color = seriesColor
	p.Add(scatter)
	return nil
}

func addHistogram(p *plot.Plot, res *Result) error {
	if res.XKey == "" {
		return &ColumnError{Reason: "x_column is required for histograms"}
	}
	var values plotter.Values
	for _, row := range res.Rows {
		if v, ok := dataset.AsFloat(row[res.XKey]); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return &ColumnError{Column: res.XKey, Reason: "no numeric values to bin"}
	}
	hist, err := plotter.NewHist(values, 20)
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}
	hist.FillColor = seriesColor
	p.Add(hist)
	return nil
}

// addBoxes draws one box per distinct x value, or a single box when no x
// column was given.
func addBoxes(p *plot.Plot, res *Result) error {
	valueKey := res.YKey
	if valueKey == "" {
		valueKey = res.XKey
	}
	if valueKey == "" {
		return &ColumnError{Reason: "a value column is required for box plots"}
	}

	var order []string
	groups := map[string]plotter.Values{}
	for _, row := range res.Rows {
		key := ""
		if res.XKey != "" && res.YKey != "" {
			key = dataset.FormatCell(row[res.XKey])
		}
		v, ok := dataset.AsFloat(row[valueKey])
		if !ok {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], v)
	}
	if len(order) == 0 {
		return &ColumnError{Column: valueKey, Reason: "no numeric values to plot"}
	}

	for i, key := range order {
		box, err := plotter.NewBoxPlot(vg.Points(24), float64(i), groups[key])
		if err != nil {
			return fmt.Errorf("box plot: %w", err)
		}
		p.Add(box)
	}
	p.NominalX(order...)
	return nil
}

// matrixGrid adapts a Matrix to the plotter heatmap interface. NaN cells
// render as zero.
type matrixGrid struct {
	m *Matrix
}

func (g matrixGrid) Dims() (c, r int) { return len(g.m.XLabels), len(g.m.YLabels) }
func (g matrixGrid) X(c int) float64  { return float64(c) }
func (g matrixGrid) Y(r int) float64  { return float64(r) }

func (g matrixGrid) Z(c, r int) float64 {
	v := g.m.Values[r][c]
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func addHeatmap(p *plot.Plot, res *Result) error {
	if res.Matrix == nil {
		return &ColumnError{Reason: "no matrix data for heatmap"}
	}
	pal := moreland.SmoothBlueRed().Palette(256)
	p.Add(plotter.NewHeatMap(matrixGrid{m: res.Matrix}, pal))
	return nil
}
