package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/KaramelBytes/tabreport/internal/table"
)

const (
	dpi          = 96
	maxTickLabel = 40
	histAlpha    = 128
)

// pixels converts a pixel count to a vg length at the canvas DPI.
func pixels(px int) vg.Length { return vg.Length(px) * vg.Inch / dpi }

func newPlot(s Spec) *plot.Plot {
	p := plot.New()
	p.Title.Text = s.Title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = s.X
	p.Y.Label.Text = "value"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

func encodePNG(p *plot.Plot, size Size) ([]byte, error) {
	c := vgimg.NewWith(vgimg.UseWH(pixels(size.Width), pixels(size.Height)), vgimg.UseDPI(dpi))
	p.Draw(draw.New(c))
	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// categoryLabels returns the x column rendered as tick labels, thinned to at
// most maxTickLabel visible labels.
func categoryLabels(t *table.Table, x string) []string {
	col, _ := t.Column(x)
	n := t.Rows()
	step := (n + maxTickLabel - 1) / maxTickLabel
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		if i%step == 0 {
			labels[i] = col.String(i)
		}
	}
	return labels
}

func rotateTicks(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

type barRenderer struct{}

// render draws one bar series per y column, grouped by category.
func (barRenderer) render(t *table.Table, s Spec) ([]byte, error) {
	p := newPlot(s)
	n, k := t.Rows(), len(s.Y)
	w := pixels(s.Size.Width) * 0.8 / vg.Length(n*(k+1))
	if w < vg.Points(1) {
		w = vg.Points(1)
	}
	if w > vg.Points(40) {
		w = vg.Points(40)
	}
	for i, name := range s.Y {
		col, _ := t.Column(name)
		vals := make(plotter.Values, n)
		for r := 0; r < n; r++ {
			if v, ok := col.Float(r); ok {
				vals[r] = v
			}
		}
		b, err := plotter.NewBarChart(vals, w)
		if err != nil {
			return nil, err
		}
		b.Color = plotutil.Color(i)
		b.LineStyle.Width = 0
		b.Offset = vg.Length(float64(i)-float64(k-1)/2) * w
		p.Add(b)
		p.Legend.Add(name, b)
	}
	p.NominalX(categoryLabels(t, s.X)...)
	rotateTicks(p)
	return encodePNG(p, s.Size)
}

type lineRenderer struct{}

// render draws one marked line per y column across the x categories.
// Null cells leave a gap in the point list.
func (lineRenderer) render(t *table.Table, s Spec) ([]byte, error) {
	p := newPlot(s)
	for i, name := range s.Y {
		col, _ := t.Column(name)
		var pts plotter.XYs
		for r := 0; r < t.Rows(); r++ {
			if v, ok := col.Float(r); ok {
				pts = append(pts, plotter.XY{X: float64(r), Y: v})
			}
		}
		if len(pts) == 0 {
			continue
		}
		l, sc, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, err
		}
		l.Color = plotutil.Color(i)
		l.Width = vg.Points(2)
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(l, sc)
		p.Legend.Add(name, l, sc)
	}
	p.NominalX(categoryLabels(t, s.X)...)
	rotateTicks(p)
	return encodePNG(p, s.Size)
}

type scatterRenderer struct{}

// render draws one point series per y column against x. Numeric x is used
// as is, datetimes become time ticks, anything else is plotted by position.
func (scatterRenderer) render(t *table.Table, s Spec) ([]byte, error) {
	p := newPlot(s)
	xcol, _ := t.Column(s.X)
	xs, ok := xPositions(xcol)
	switch {
	case !ok:
		p.NominalX(categoryLabels(t, s.X)...)
		rotateTicks(p)
	case xcol.Kind == table.KindTemporal:
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
		rotateTicks(p)
	}
	var series []*plotter.Scatter
	var names []string
	for i, name := range s.Y {
		col, _ := t.Column(name)
		var pts plotter.XYs
		for r := 0; r < t.Rows(); r++ {
			v, okY := col.Float(r)
			if !okY || math.IsNaN(xs[r]) {
				continue
			}
			pts = append(pts, plotter.XY{X: xs[r], Y: v})
		}
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Shape = plotutil.Shape(i)
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		series = append(series, sc)
		names = append(names, name)
	}
	if len(series) > 1 {
		for i, sc := range series {
			p.Legend.Add(names[i], sc)
		}
	}
	return encodePNG(p, s.Size)
}

// xPositions maps an x column onto plot coordinates. ok is false when the
// column has no natural coordinate and rows should be placed by index.
func xPositions(c *table.Column) ([]float64, bool) {
	xs := make([]float64, c.Len())
	switch c.Kind {
	case table.KindNumeric:
		for i := range xs {
			if v, ok := c.Float(i); ok {
				xs[i] = v
			} else {
				xs[i] = math.NaN()
			}
		}
		return xs, true
	case table.KindTemporal:
		for i := range xs {
			if tm, ok := c.Value(i).(time.Time); ok {
				xs[i] = float64(tm.Unix())
			} else {
				xs[i] = math.NaN()
			}
		}
		return xs, true
	default:
		for i := range xs {
			xs[i] = float64(i)
		}
		return xs, false
	}
}

type histogramRenderer struct{}

// render overlays one semi-transparent distribution per y column. Nulls are
// dropped before binning.
func (histogramRenderer) render(t *table.Table, s Spec) ([]byte, error) {
	p := newPlot(s)
	p.X.Label.Text = "value"
	p.Y.Label.Text = "frequency"
	plotted := 0
	for i, name := range s.Y {
		col, _ := t.Column(name)
		vals := col.Floats()
		if len(vals) == 0 {
			continue
		}
		h, err := plotter.NewHist(plotter.Values(vals), s.Bins)
		if err != nil {
			return nil, err
		}
		h.FillColor = withAlpha(plotutil.Color(i), histAlpha)
		h.LineStyle.Color = plotutil.Color(i)
		h.LineStyle.Width = vg.Points(0.5)
		p.Add(h)
		p.Legend.Add(name, h)
		plotted++
	}
	if plotted == 0 {
		return nil, fmt.Errorf("%w: histogram columns contain no values", ErrInvalidChartSpec)
	}
	return encodePNG(p, s.Size)
}

func withAlpha(c color.Color, a uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: a}
}
