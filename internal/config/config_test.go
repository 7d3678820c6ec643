package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "report.xlsx", c.ExcelOutput)
	assert.Equal(t, "index.html", c.HTMLOutput)
	assert.Equal(t, "Data", c.DataSheet)
	assert.Equal(t, 3, c.MaxYColumns)
	assert.Equal(t, 20, c.HistogramBins)
	assert.Equal(t, 3000, c.TimeBudgetMs)
	assert.Equal(t, rune(0), c.Delimiter())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TABREPORT_MAX_Y_COLUMNS", "5")
	t.Setenv("TABREPORT_LOG_FORMAT", "json")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, c.MaxYColumns)
	assert.Equal(t, "json", c.LogFormat)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	c, err := Load("")
	require.NoError(t, err)
	c.ReportTitle = "Quarterly"
	c.CSVDelimiter = ";"
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, Save(c, p))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly", got.ReportTitle)
	assert.Equal(t, ';', got.Delimiter())

	require.NoError(t, Save(c, ""))
	_, err = os.Stat(filepath.Join(dir, ".tabreport", "config.yaml"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	bad := *c
	bad.HistogramBins = 0
	assert.Error(t, bad.Validate())

	bad = *c
	bad.LogLevel = "verbose"
	assert.Error(t, bad.Validate())

	bad = *c
	bad.SummarySheet = bad.DataSheet
	assert.Error(t, bad.Validate())

	bad = *c
	bad.CSVDelimiter = `\t`
	assert.Equal(t, '\t', bad.Delimiter())
}

func TestDefaultsAreValid(t *testing.T) {
	c := Defaults()
	require.NoError(t, c.Validate())
	assert.Equal(t, 800, c.ChartWidth)
	assert.Equal(t, "Summary", c.SummarySheet)
}
