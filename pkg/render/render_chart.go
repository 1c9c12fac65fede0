package render

import (
	"image/color"
	"io"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/yumyai/biodiv/logger"
	"github.com/yumyai/biodiv/pkg/taxonomy"
)

// BarChartData is one labelled bar series.
type BarChartData struct {
	Title  string
	XLabel string
	YLabel string
	Labels []string
	Values []float64
}

// LevelBarChart builds the per-taxon percentage bars of one rank.
func LevelBarChart(fileName string, level taxonomy.Level, entries []taxonomy.LevelEntry) BarChartData {
	data := BarChartData{
		Title:  fileName + " - " + string(level) + " distribution",
		XLabel: string(level),
		YLabel: "Sequences (%)",
		Labels: make([]string, 0, len(entries)),
		Values: make([]float64, 0, len(entries)),
	}
	for _, e := range entries {
		data.Labels = append(data.Labels, e.Name)
		data.Values = append(data.Values, e.Percentage)
	}
	return data
}

// RenderBarChartSVG draws data as an SVG bar chart.
func RenderBarChartSVG(w io.Writer, data BarChartData) error {
	p := plot.New()
	p.Title.Text = data.Title
	p.X.Label.Text = data.XLabel
	p.Y.Label.Text = data.YLabel
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	if len(data.Values) > 0 {
		bars, err := plotter.NewBarChart(plotter.Values(data.Values), vg.Points(30))
		if err != nil {
			return err
		}
		bars.Color = color.RGBA{R: 50, G: 100, B: 200, A: 255}
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		p.NominalX(data.Labels...)
	}

	width := vg.Length(max(6, len(data.Values)+2)) * vg.Inch
	writer, err := p.WriterTo(width, 4*vg.Inch, "svg")
	if err != nil {
		return err
	}

	logger.Debug("Rendering bar chart", zap.String("title", data.Title), zap.Int("bars", len(data.Values)))
	_, err = writer.WriteTo(w)
	return err
}
