// Package chart renders tabular data into PNG charts. Each chart kind has
// its own renderer; Render picks one by Spec.Kind after resolving the
// default axis columns.
package chart

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/tabreport/internal/table"
)

// Kind names a chart type.
type Kind string

const (
	Bar       Kind = "bar"
	Line      Kind = "line"
	Pie       Kind = "pie"
	Scatter   Kind = "scatter"
	Histogram Kind = "histogram"
)

const (
	// DefaultMaxY caps how many numeric columns are picked when Y is unset.
	DefaultMaxY = 3
	// DefaultBins is the histogram bin count.
	DefaultBins = 20
)

var (
	// ErrInvalidChartSpec indicates a column selection that cannot be drawn.
	ErrInvalidChartSpec = errors.New("invalid chart spec")
	// ErrUnsupportedChartType indicates an unknown chart kind.
	ErrUnsupportedChartType = errors.New("unsupported chart type")
)

// RenderError wraps a failure inside the plotting library.
type RenderError struct {
	Kind Kind
	Err  error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render %s chart: %v", e.Kind, e.Err) }

func (e *RenderError) Unwrap() error { return e.Err }

// Size is an image size in pixels.
type Size struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// DefaultSize is used when a Spec carries no size.
var DefaultSize = Size{Width: 1000, Height: 600}

// Spec describes one chart request. A nil Y selects defaults: up to MaxY
// numeric columns other than X. A non-nil empty Y selects nothing and is
// rejected.
type Spec struct {
	Kind  Kind
	Title string
	X     string
	Y     []string
	Size  Size
	MaxY  int
	Bins  int
}

// Rendered is a PNG image together with the spec it was drawn from.
type Rendered struct {
	Spec Spec
	PNG  []byte
}

type renderer interface {
	render(t *table.Table, s Spec) ([]byte, error)
}

var renderers = map[Kind]renderer{
	Bar:       barRenderer{},
	Line:      lineRenderer{},
	Pie:       pieRenderer{},
	Scatter:   scatterRenderer{},
	Histogram: histogramRenderer{},
}

// Render draws the chart described by spec.
func Render(t *table.Table, spec Spec) (*Rendered, error) {
	r, ok := renderers[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChartType, spec.Kind)
	}
	s, err := resolve(t, spec)
	if err != nil {
		return nil, err
	}
	png, err := r.render(t, s)
	if err != nil {
		if errors.Is(err, ErrInvalidChartSpec) {
			return nil, err
		}
		return nil, &RenderError{Kind: s.Kind, Err: err}
	}
	return &Rendered{Spec: s, PNG: png}, nil
}

// resolve fills in defaults and validates the column selection.
func resolve(t *table.Table, s Spec) (Spec, error) {
	if t == nil || t.NumCols() == 0 {
		return s, fmt.Errorf("%w: table has no columns", ErrInvalidChartSpec)
	}
	if t.Rows() == 0 {
		return s, fmt.Errorf("%w: table has no rows", ErrInvalidChartSpec)
	}
	if s.Size.Width <= 0 || s.Size.Height <= 0 {
		s.Size = DefaultSize
	}
	if s.MaxY <= 0 {
		s.MaxY = DefaultMaxY
	}
	if s.Bins <= 0 {
		s.Bins = DefaultBins
	}
	if s.Title == "" {
		s.Title = string(s.Kind) + " chart"
	}
	if s.X == "" {
		s.X = t.Columns()[0].Name
	} else if _, ok := t.Column(s.X); !ok {
		return s, fmt.Errorf("%w: x column %q not found", ErrInvalidChartSpec, s.X)
	}
	if s.Y == nil {
		s.Y = DefaultY(t, s.X, s.MaxY)
	}
	if len(s.Y) == 0 {
		return s, fmt.Errorf("%w: %s chart needs at least one numeric y column", ErrInvalidChartSpec, s.Kind)
	}
	if s.Kind == Pie && len(s.Y) > 1 {
		s.Y = s.Y[:1]
	}
	for _, name := range s.Y {
		c, ok := t.Column(name)
		if !ok {
			return s, fmt.Errorf("%w: y column %q not found", ErrInvalidChartSpec, name)
		}
		if c.Kind != table.KindNumeric {
			return s, fmt.Errorf("%w: y column %q is %s, not numeric", ErrInvalidChartSpec, name, c.Kind)
		}
	}
	return s, nil
}

// DefaultY picks up to maxY numeric columns other than x. When there are
// none and x itself is numeric, x is used alone.
func DefaultY(t *table.Table, x string, maxY int) []string {
	out := []string{}
	for _, c := range t.NumericColumns() {
		if c.Name == x {
			continue
		}
		if len(out) == maxY {
			break
		}
		out = append(out, c.Name)
	}
	if len(out) == 0 {
		if c, ok := t.Column(x); ok && c.Kind == table.KindNumeric {
			out = append(out, x)
		}
	}
	return out
}
