package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// isolate points HOME at a temp dir so config reads and writes stay local.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// resetFlags restores sticky flag values and Changed state between runs.
func resetFlags(cmds ...*cobra.Command) {
	for _, c := range cmds {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(fl *pflag.Flag) {
				_ = fl.Value.Set(fl.DefValue)
				fl.Changed = false
			})
		}
	}
}

// execute runs the root command with args and stdin, returning stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd, reportCmd, describeCmd, configShowCmd, configSetCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, "", args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func TestCLI_ReportDemo(t *testing.T) {
	home := isolate(t)
	xlsx := filepath.Join(home, "out", "demo.xlsx")
	html := filepath.Join(home, "out", "demo.html")

	out := runCmd(t, "report", "--demo", "-e", xlsx, "-t", html, "--native-charts")
	assert.Contains(t, out, "✓ Excel report: "+xlsx)
	assert.Contains(t, out, "Rows: 6 | Columns: 4")

	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Data", "Summary"}, f.GetSheetList())
	v, err := f.GetCellValue("Data", "B2")
	require.NoError(t, err)
	assert.Equal(t, "12000", v)

	page, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<td>22000</td>")
}

func TestCLI_ReportFromFileWithNotes(t *testing.T) {
	home := isolate(t)
	csvPath := filepath.Join(home, "sales.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("region;units\nnorth;5\nsouth;7\n"), 0o644))
	notes := filepath.Join(home, "notes.md")
	require.NoError(t, os.WriteFile(notes, []byte("Figures are **provisional**.\r\n"), 0o644))
	html := filepath.Join(home, "index.html")

	runCmd(t, "report", "-i", csvPath, "-e", filepath.Join(home, "r.xlsx"), "-t", html,
		"--notes", notes, "--title", "Units", "--parallel")
	page, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>Units</title>")
	assert.Contains(t, string(page), "<strong>provisional</strong>")
	assert.Contains(t, string(page), "<td>south</td>")
}

func TestCLI_ReportInteractive(t *testing.T) {
	home := isolate(t)
	html := filepath.Join(home, "i.html")
	out, err := execute(t, "2\n", "report", "-e", filepath.Join(home, "i.xlsx"), "-t", html)
	require.NoError(t, err)
	assert.Contains(t, out, "Option (1/2): ")
	_, err = os.Stat(html)
	assert.NoError(t, err)

	_, err = execute(t, "3\n", "report", "-e", filepath.Join(home, "j.xlsx"), "-t", filepath.Join(home, "j.html"))
	assert.Error(t, err)
}

func TestCLI_ReportUnsupportedInput(t *testing.T) {
	home := isolate(t)
	_, err := execute(t, "", "report", "-i", filepath.Join(home, "data.parquet"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestCLI_Describe(t *testing.T) {
	isolate(t)
	out := runCmd(t, "describe", "--demo")
	assert.Contains(t, out, "[STATISTICS]")
	assert.Contains(t, out, "| mean | 1.717e+04 | 5150 | 171.7 |")
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolate(t)
	runCmd(t, "config", "set", "max_y_columns", "5")
	out := runCmd(t, "config", "show")
	assert.Contains(t, out, "max_y_columns: 5")
	_, err := os.Stat(filepath.Join(home, ".tabreport", "config.yaml"))
	assert.NoError(t, err)

	_, err = execute(t, "", "config", "set", "histogram_bins", "0")
	assert.Error(t, err)
	_, err = execute(t, "", "config", "set", "nope", "1")
	assert.Error(t, err)
}

func TestNormalizeNewlines(t *testing.T) {
	assert.Equal(t, "a\n\nb\n", normalizeNewlines("a\r\n\r\n\r\n\r\nb\r"))
}
