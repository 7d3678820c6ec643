package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/tabreport/internal/ingest"
	"github.com/KaramelBytes/tabreport/internal/logging"
)

func salesSource() ingest.Source {
	return ingest.ColumnMapSource{
		{Name: "月份", Values: []any{"1月", "2月"}},
		{Name: "销售额", Values: []any{100, 200}},
	}
}

func sheetRows(t *testing.T, path string) map[string][][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	out := map[string][][]string{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		require.NoError(t, err)
		out[name] = rows
	}
	return out
}

var tableSection = regexp.MustCompile(`(?s)<table class="data-table">.*?</table>.*?</table>`)

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	xlsx, html := filepath.Join(dir, "report.xlsx"), filepath.Join(dir, "index.html")
	p := New(DefaultConfig())
	assert.Equal(t, Idle, p.State())

	art, err := p.Run(context.Background(), salesSource(), xlsx, html)
	require.NoError(t, err)
	assert.Equal(t, Persisted, p.State())
	assert.Equal(t, 2, art.Rows)
	assert.Equal(t, 2, art.Cols)
	assert.NotEmpty(t, art.RunID)

	sheets := sheetRows(t, xlsx)
	assert.Len(t, sheets, 2)
	assert.Equal(t, []string{"mean", "150"}, sheets["Summary"][2])

	page, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<td>100</td>")
	assert.Contains(t, string(page), "<td>200</td>")
	assert.Contains(t, string(page), `<span id="row-count">2</span>`)
	assert.Contains(t, string(page), art.RunID)

	_, err = p.Run(context.Background(), salesSource(), xlsx, html)
	assert.True(t, errors.Is(err, ErrAlreadyRun))
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	var pages []string
	var books []map[string][][]string
	for i, name := range []string{"a", "b"} {
		cfg := DefaultConfig()
		cfg.Parallel = i == 1
		xlsx := filepath.Join(dir, name+".xlsx")
		html := filepath.Join(dir, name+".html")
		_, err := Generate(context.Background(), cfg, salesSource(), xlsx, html)
		require.NoError(t, err)
		books = append(books, sheetRows(t, xlsx))
		b, err := os.ReadFile(html)
		require.NoError(t, err)
		pages = append(pages, tableSection.FindString(string(b)))
	}
	assert.Equal(t, books[0], books[1])
	require.NotEmpty(t, pages[0])
	assert.Equal(t, pages[0], pages[1])
}

func TestRunWithoutNumericColumns(t *testing.T) {
	dir := t.TempDir()
	src := ingest.RowsSource{{"a", "x"}, {"b", "y"}}
	art, err := Generate(context.Background(), DefaultConfig(), src,
		filepath.Join(dir, "r.xlsx"), filepath.Join(dir, "r.html"))
	require.NoError(t, err)
	assert.Equal(t, 2, art.Rows)
	assert.Len(t, sheetRows(t, art.WorkbookPath), 2)
}

func TestRunFailsAtStage(t *testing.T) {
	dir := t.TempDir()
	p := New(DefaultConfig())
	_, err := p.Run(context.Background(), ingest.FileSource{Path: "data.parquet"},
		filepath.Join(dir, "r.xlsx"), filepath.Join(dir, "r.html"))
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, Ingesting, se.Stage)
	assert.True(t, errors.Is(err, ingest.ErrUnsupportedFormat))
	assert.Equal(t, Ingesting, p.State())

	// The workbook is persisted before the page fails; it stays on disk.
	xlsx := filepath.Join(dir, "kept.xlsx")
	_, err = Generate(context.Background(), DefaultConfig(), salesSource(), xlsx, dir)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, Composing, se.Stage)
	_, statErr := os.Stat(xlsx)
	assert.NoError(t, statErr)
}

func TestRunCancelledBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()
	_, err := Generate(ctx, DefaultConfig(), salesSource(), filepath.Join(dir, "r.xlsx"), filepath.Join(dir, "r.html"))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunReportsBudgetOverrun(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Budget = time.Nanosecond
	cfg.Logger = logging.New("info", "text", &buf)
	dir := t.TempDir()
	art, err := Generate(context.Background(), cfg, salesSource(), filepath.Join(dir, "r.xlsx"), filepath.Join(dir, "r.html"))
	require.NoError(t, err)
	assert.True(t, art.OverBudget)
	assert.Contains(t, buf.String(), "exceeded time budget")
}

func TestRunWarnsOnSharedPath(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Logger = logging.New("warn", "text", &buf)
	p := filepath.Join(t.TempDir(), "same.out")
	_, err := Generate(context.Background(), cfg, salesSource(), p, p)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "share an output path")
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("<!DOCTYPE html>")))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "composing", Composing.String())
	assert.Equal(t, "state(9)", State(9).String())
}
