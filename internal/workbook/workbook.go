// Package workbook builds the spreadsheet report: a data sheet with a styled
// header and fitted column widths, a statistics sheet, and chart images
// anchored beside the data.
package workbook

import (
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/width"

	"github.com/KaramelBytes/tabreport/internal/chart"
	"github.com/KaramelBytes/tabreport/internal/stats"
	"github.com/KaramelBytes/tabreport/internal/table"
	"github.com/KaramelBytes/tabreport/internal/utils"
)

const (
	maxColWidth = 50
	// Excel's default row height and column width in pixels.
	rowPixels = 20
	colPixels = 64
)

// ErrSheetNotFound indicates a chart placement on a sheet that does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// IOError reports a failure to persist the workbook.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("write workbook %s: %v", e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

// Options control sheet names and chart rendering.
type Options struct {
	DataSheet    string
	SummarySheet string
	Title        string
	ChartSize    chart.Size
	MaxY         int
	Bins         int
	NativeCharts bool
	RunID        string
}

// DefaultOptions returns the built-in sheet names and chart size.
func DefaultOptions() Options {
	return Options{
		DataSheet:    "Data",
		SummarySheet: "Summary",
		Title:        "Data Report",
		ChartSize:    chart.Size{Width: 800, Height: 480},
		MaxY:         chart.DefaultMaxY,
		Bins:         chart.DefaultBins,
	}
}

// Composer accumulates sheets and charts in an in-memory workbook. It is not
// safe for concurrent use and should be discarded after Save.
type Composer struct {
	f      *excelize.File
	opt    Options
	header int
}

// NewComposer creates an empty workbook whose first sheet is the data sheet.
func NewComposer(opt Options) (*Composer, error) {
	def := DefaultOptions()
	if opt.DataSheet == "" {
		opt.DataSheet = def.DataSheet
	}
	if opt.SummarySheet == "" {
		opt.SummarySheet = def.SummarySheet
	}
	if opt.DataSheet == opt.SummarySheet {
		return nil, fmt.Errorf("data and summary sheets share the name %q", opt.DataSheet)
	}
	if opt.ChartSize.Width <= 0 || opt.ChartSize.Height <= 0 {
		opt.ChartSize = def.ChartSize
	}
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), opt.DataSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("name data sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	return &Composer{f: f, opt: opt, header: header}, nil
}

// File exposes the underlying workbook.
func (c *Composer) File() *excelize.File { return c.f }

// AddDataSheet writes the header and every row of t to the data sheet and
// fits each column to its widest value.
func (c *Composer) AddDataSheet(t *table.Table) error {
	sheet := c.opt.DataSheet
	names := t.ColumnNames()
	header := make([]any, len(names))
	for i, n := range names {
		header[i] = n
	}
	if err := c.f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for r := 0; r < t.Rows(); r++ {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		row := t.Row(r)
		if err := c.f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if len(names) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(names), 1)
	if err != nil {
		return err
	}
	if err := c.f.SetCellStyle(sheet, "A1", last, c.header); err != nil {
		return err
	}
	for i, col := range t.Columns() {
		w := displayWidth(col.Name)
		for r := 0; r < col.Len(); r++ {
			if dw := displayWidth(col.String(r)); dw > w {
				w = dw
			}
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := c.f.SetColWidth(sheet, name, name, columnWidth(w)); err != nil {
			return err
		}
	}
	return nil
}

// AddSummarySheet writes the statistics table. A nil summary produces a sheet
// holding only a note, so the workbook layout stays the same.
func (c *Composer) AddSummarySheet(s *stats.Summary) error {
	sheet := c.opt.SummarySheet
	if _, err := c.f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if s == nil {
		return c.f.SetCellValue(sheet, "A1", "No numeric columns to summarize")
	}
	cols := s.Columns()
	header := make([]any, len(cols)+1)
	header[0] = "statistic"
	for i, n := range cols {
		header[i+1] = n
	}
	if err := c.f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for r, label := range s.Index {
		row := make([]any, len(cols)+1)
		row[0] = label
		for j, n := range cols {
			if v, ok := s.Value(label, n); ok {
				row[j+1] = v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := c.f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(cols)+1, 1)
	if err != nil {
		return err
	}
	if err := c.f.SetCellStyle(sheet, "A1", last, c.header); err != nil {
		return err
	}
	bottom, err := excelize.CoordinatesToCellName(1, len(s.Index)+1)
	if err != nil {
		return err
	}
	if err := c.f.SetCellStyle(sheet, "A2", bottom, c.header); err != nil {
		return err
	}
	return c.f.SetColWidth(sheet, "A", "A", 12)
}

// AddChart renders spec from t and anchors the image at cell on sheet.
func (c *Composer) AddChart(t *table.Table, spec chart.Spec, sheet, cell string) error {
	if err := c.checkSheet(sheet); err != nil {
		return err
	}
	r, err := chart.Render(t, spec)
	if err != nil {
		return err
	}
	return c.f.AddPictureFromBytes(sheet, cell, &excelize.Picture{
		Extension: ".png",
		File:      r.PNG,
		Format: &excelize.GraphicOptions{
			AltText:         r.Spec.Title,
			LockAspectRatio: true,
		},
	})
}

func (c *Composer) checkSheet(sheet string) error {
	idx, err := c.f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	return nil
}

// SetRunID records the report identifier in the document properties.
func (c *Composer) SetRunID(id string) error {
	c.opt.RunID = id
	return c.f.SetDocProps(&excelize.DocProperties{
		Title:      c.opt.Title,
		Creator:    "tabreport",
		Identifier: id,
		Created:    time.Now().UTC().Format(time.RFC3339),
	})
}

// Save writes the workbook to path, replacing any existing file.
func (c *Composer) Save(path string) error {
	buf, err := c.f.WriteToBuffer()
	if err != nil {
		return &IOError{Path: path, Err: err}
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return &IOError{Path: path, Err: err}
	}
	return nil
}

// Close releases the workbook's temporary resources.
func (c *Composer) Close() error { return c.f.Close() }

// displayWidth counts East Asian wide and fullwidth runes as two cells.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

func columnWidth(chars int) float64 {
	w := chars + 2
	if w > maxColWidth {
		w = maxColWidth
	}
	return float64(w)
}
