package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/i474232898/surfspots/internal/weather"
)

// Output size of every rendered image, in pixels.
const (
	Width  = 1000
	Height = 800
)

// MinHeightRange is the lowest upper bound of the wave-height axis, in meters.
const MinHeightRange = 4.0

// ErrNoRows is returned when there is nothing to draw.
var ErrNoRows = errors.New("chart: no observations")

var (
	swellColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	diffColor   = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
	markerColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

// Renderer adapts the package functions to weather.ChartRenderer.
type Renderer struct{}

func (Renderer) RenderForecast(title string, rows []weather.HourlyObservation, d weather.Derived) ([]byte, error) {
	return ForecastChart(title, d, rows)
}

// ForecastChart draws swell height with the wave differential stacked on
// top, one bar per hour, and marks the current hour when it is on the axis.
func ForecastChart(title string, d weather.Derived, rows []weather.HourlyObservation) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	if len(d.Differential) != len(rows) || len(d.Hours) != len(rows) {
		return nil, fmt.Errorf("chart: derived series cover %d/%d hours, want %d",
			len(d.Differential), len(d.Hours), len(rows))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Hour of day"
	p.Y.Label.Text = "Height (m)"
	p.Legend.Top = true

	swell := make(plotter.Values, len(rows))
	diff := make(plotter.Values, len(rows))
	names := make([]string, len(rows))
	top := MinHeightRange
	for i, r := range rows {
		swell[i] = r.SwellHeight
		diff[i] = d.Differential[i]
		names[i] = strconv.Itoa(d.Hours[i])
		top = math.Max(top, math.Max(r.SwellHeight, r.SwellHeight+d.Differential[i]))
	}

	barWidth := pixels(Width) * 0.6 / vg.Length(len(rows))
	swellBars, err := plotter.NewBarChart(swell, barWidth)
	if err != nil {
		return nil, fmt.Errorf("chart: swell bars: %w", err)
	}
	swellBars.Color = swellColor
	swellBars.LineStyle.Width = 0

	diffBars, err := plotter.NewBarChart(diff, barWidth)
	if err != nil {
		return nil, fmt.Errorf("chart: differential bars: %w", err)
	}
	diffBars.Color = diffColor
	diffBars.LineStyle.Width = 0
	diffBars.StackOn(swellBars)

	p.Add(plotter.NewGrid(), swellBars, diffBars)
	p.Legend.Add("Swell height", swellBars)
	p.Legend.Add("Wave height - swell height", diffBars)

	for i, h := range d.Hours {
		if h != d.CurrentHour {
			continue
		}
		marker, err := plotter.NewLine(plotter.XYs{{X: float64(i), Y: 0}, {X: float64(i), Y: top}})
		if err != nil {
			return nil, fmt.Errorf("chart: current hour marker: %w", err)
		}
		marker.Color = markerColor
		marker.Width = vg.Points(2)
		marker.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		p.Add(marker)
		p.Legend.Add("Current hour", marker)
		break
	}

	p.NominalX(names...)
	p.Y.Min = 0
	p.Y.Max = top

	return encodePNG(p)
}

func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / vgimg.DefaultDPI
}

func encodePNG(p *plot.Plot) ([]byte, error) {
	w, err := p.WriterTo(pixels(Width), pixels(Height), "png")
	if err != nil {
		return nil, fmt.Errorf("chart: canvas: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
