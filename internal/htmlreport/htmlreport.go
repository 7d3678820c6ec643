// Package htmlreport renders a single self-contained HTML page with the data
// preview, summary statistics and charts inlined as base64 data URIs.
package htmlreport

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"math"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/KaramelBytes/tabreport/internal/chart"
	"github.com/KaramelBytes/tabreport/internal/stats"
	"github.com/KaramelBytes/tabreport/internal/table"
	"github.com/KaramelBytes/tabreport/internal/utils"
)

const (
	// DefaultMaxRows is how many data rows the page shows.
	DefaultMaxRows = 10
	headlineSlots  = 4
)

// ErrNoDataSet is returned when rendering before SetData.
var ErrNoDataSet = errors.New("no data set")

// IOError reports a failure to persist the page.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("write html %s: %v", e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

//go:embed report.html.tmpl
var pageSource string

var page = template.Must(template.New("report").Parse(pageSource))

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Options control page content.
type Options struct {
	Title     string
	ChartSize chart.Size
	MaxRows   int
	MaxY      int
	Bins      int
	// Notes is Markdown rendered above the overview.
	Notes string
	RunID string
	// Now stamps the page; defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the built-in page settings.
func DefaultOptions() Options {
	return Options{
		Title:     "Data Report",
		ChartSize: chart.Size{Width: 1200, Height: 600},
		MaxRows:   DefaultMaxRows,
		MaxY:      chart.DefaultMaxY,
		Bins:      chart.DefaultBins,
	}
}

// Composer holds the table and summary for one page.
type Composer struct {
	opt     Options
	table   *table.Table
	summary *stats.Summary
}

// NewComposer returns a composer with unset options filled from DefaultOptions.
func NewComposer(opt Options) *Composer {
	def := DefaultOptions()
	if opt.Title == "" {
		opt.Title = def.Title
	}
	if opt.ChartSize.Width <= 0 || opt.ChartSize.Height <= 0 {
		opt.ChartSize = def.ChartSize
	}
	if opt.MaxRows <= 0 {
		opt.MaxRows = def.MaxRows
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &Composer{opt: opt}
}

// SetData supplies the table and its summary. A nil summary means the table
// has no numeric columns.
func (c *Composer) SetData(t *table.Table, s *stats.Summary) {
	c.table = t
	c.summary = s
}

type headline struct {
	Name  string
	Value string
}

type figure struct {
	Title string
	Src   template.URL
}

type summaryRow struct {
	Label string
	Cells []string
}

type summaryView struct {
	Columns []string
	Rows    []summaryRow
}

type view struct {
	Title     string
	Generated string
	Year      int
	RunID     string
	Notes     template.HTML
	RowCount  int
	ColCount  int
	Headline  []headline
	Charts    []figure
	Columns   []string
	Rows      [][]string
	Shown     int
	Summary   *summaryView
}

// Render writes the page to w.
func (c *Composer) Render(w io.Writer) error {
	if c.table == nil {
		return ErrNoDataSet
	}
	v, err := c.view()
	if err != nil {
		return err
	}
	return page.Execute(w, v)
}

// Save renders the page and writes it to path.
func (c *Composer) Save(path string) error {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return &IOError{Path: path, Err: err}
	}
	return nil
}

func (c *Composer) view() (*view, error) {
	t := c.table
	now := c.opt.Now()
	v := &view{
		Title:     c.opt.Title,
		Generated: now.Format("2006-01-02 15:04:05"),
		Year:      now.Year(),
		RunID:     c.opt.RunID,
		RowCount:  t.Rows(),
		ColCount:  t.NumCols(),
		Headline:  c.headlines(),
		Columns:   t.ColumnNames(),
	}
	if c.opt.Notes != "" {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(c.opt.Notes), &buf); err != nil {
			return nil, fmt.Errorf("render notes: %w", err)
		}
		v.Notes = template.HTML(buf.String())
	}
	charts, err := c.charts()
	if err != nil {
		return nil, err
	}
	v.Charts = charts
	v.Shown = t.Rows()
	if v.Shown > c.opt.MaxRows {
		v.Shown = c.opt.MaxRows
	}
	for r := 0; r < v.Shown; r++ {
		cells := make([]string, t.NumCols())
		for j, col := range t.Columns() {
			cells[j] = col.String(r)
		}
		v.Rows = append(v.Rows, cells)
	}
	if c.summary != nil {
		v.Summary = summaryTable(c.summary)
	}
	return v, nil
}

// headlines fills four slots with the means of the leading numeric columns,
// then row count, column count and total nulls.
func (c *Composer) headlines() []headline {
	var out []headline
	for _, col := range c.table.NumericColumns() {
		if len(out) == headlineSlots {
			break
		}
		if c.summary == nil {
			break
		}
		if mean, ok := c.summary.Value("mean", col.Name); ok {
			out = append(out, headline{Name: col.Name + " mean", Value: fmt.Sprintf("%.2f", mean)})
		}
	}
	fill := []headline{
		{Name: "Rows", Value: fmt.Sprint(c.table.Rows())},
		{Name: "Columns", Value: fmt.Sprint(c.table.NumCols())},
		{Name: "Missing values", Value: fmt.Sprint(c.table.NullCount())},
	}
	for _, h := range fill {
		if len(out) == headlineSlots {
			break
		}
		out = append(out, h)
	}
	return out
}

var gallery = []struct {
	kind  chart.Kind
	title string
}{
	{chart.Bar, "Bar chart"},
	{chart.Line, "Line chart"},
	{chart.Histogram, "Distribution histogram"},
}

func (c *Composer) charts() ([]figure, error) {
	t := c.table
	if t.Rows() == 0 || len(t.NumericColumns()) == 0 {
		return nil, nil
	}
	var out []figure
	for _, g := range gallery {
		r, err := chart.Render(t, chart.Spec{
			Kind:  g.kind,
			Title: g.title,
			Size:  c.opt.ChartSize,
			MaxY:  c.opt.MaxY,
			Bins:  c.opt.Bins,
		})
		if err != nil {
			return nil, fmt.Errorf("%s chart: %w", g.kind, err)
		}
		out = append(out, figure{Title: g.title, Src: dataURI(r.PNG)})
	}
	return out, nil
}

func dataURI(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

func summaryTable(s *stats.Summary) *summaryView {
	cols := s.Columns()
	sv := &summaryView{Columns: cols}
	for _, label := range s.Index {
		row := summaryRow{Label: label, Cells: make([]string, len(cols))}
		for j, name := range cols {
			v, ok := s.Value(label, name)
			row.Cells[j] = formatStat(v, ok)
		}
		sv.Rows = append(sv.Rows, row)
	}
	return sv
}

func formatStat(v float64, ok bool) string {
	if !ok || math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", v)
}
