package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// MapPoint is one country marker on the world map.
type MapPoint struct {
	Label string
	Lat   float64
	Lon   float64
	Count int
}

// WorldMap renders spot counts per country as circles at the country
// centroids on an equirectangular grid, colored and sized by count.
func WorldMap(title string, points []MapPoint) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.X.Min, p.X.Max = -180, 180
	p.Y.Min, p.Y.Max = -90, 90
	p.Add(plotter.NewGrid())

	if len(points) == 0 {
		return encodePNG(p)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	xys := make(plotter.XYs, len(points))
	labels := make([]string, len(points))
	for i, pt := range points {
		if pt.Count < 1 {
			return nil, fmt.Errorf("chart: %s has count %d", pt.Label, pt.Count)
		}
		xys[i] = plotter.XY{X: pt.Lon, Y: pt.Lat}
		labels[i] = fmt.Sprintf("%s (%d)", pt.Label, pt.Count)
		lo = math.Min(lo, float64(pt.Count))
		hi = math.Max(hi, float64(pt.Count))
	}

	cmap := moreland.SmoothBlueRed()
	if hi == lo {
		hi = lo + 1
	}
	cmap.SetMin(lo)
	cmap.SetMax(hi)

	styles := make([]draw.GlyphStyle, len(points))
	for i, pt := range points {
		c, err := cmap.At(float64(pt.Count))
		if err != nil {
			return nil, fmt.Errorf("chart: color for %s: %w", pt.Label, err)
		}
		styles[i] = draw.GlyphStyle{
			Color:  withAlpha(c, 0xcc),
			Radius: vg.Points(4 + 10*math.Sqrt(float64(pt.Count)/hi)),
			Shape:  draw.CircleGlyph{},
		}
	}

	markers, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("chart: markers: %w", err)
	}
	markers.GlyphStyleFunc = func(i int) draw.GlyphStyle { return styles[i] }

	names, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("chart: labels: %w", err)
	}
	names.Offset = vg.Point{X: vg.Points(8), Y: vg.Points(-4)}

	p.Add(markers, names)
	return encodePNG(p)
}

func withAlpha(c color.Color, a uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: a}
}
