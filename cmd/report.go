package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/KaramelBytes/tabreport/internal/chart"
	"github.com/KaramelBytes/tabreport/internal/htmlreport"
	"github.com/KaramelBytes/tabreport/internal/ingest"
	"github.com/KaramelBytes/tabreport/internal/pipeline"
	"github.com/KaramelBytes/tabreport/internal/workbook"
	"github.com/spf13/cobra"
)

var (
	repInput     string
	repExcel     string
	repHTML      string
	repDemo      bool
	repNotes     string
	repTitle     string
	repDelimiter string
	repParallel  bool
	repNative    bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate an Excel workbook and an HTML report from a data file",
	Long: `Generate report.xlsx and index.html from a CSV, TSV, Excel or JSON file.
With no input flags the command asks interactively.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		f := cmd.Flags()
		excel, html := cfg.ExcelOutput, cfg.HTMLOutput
		if f.Changed("excel") {
			excel = repExcel
		}
		if f.Changed("html") {
			html = repHTML
		}

		var src ingest.Source
		switch {
		case repDemo:
			fmt.Fprintln(out, "Using demo data...")
			src = demoSource()
		case repInput != "":
			src = ingest.FileSource{Path: repInput}
		default:
			s, err := promptSource(cmd.InOrStdin(), out)
			if err != nil {
				return err
			}
			src = s
		}

		pc, err := pipelineConfig(cmd)
		if err != nil {
			return err
		}
		art, err := pipeline.Generate(cmd.Context(), pc, src, excel, html)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Excel report: %s\n", art.WorkbookPath)
		fmt.Fprintf(out, "✓ HTML report: %s\n", art.HTMLPath)
		fmt.Fprintf(out, "Rows: %d | Columns: %d | Time: %.2fs\n", art.Rows, art.Cols, art.Elapsed.Seconds())
		if art.OverBudget {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: generation took longer than %s; consider a smaller dataset\n", pc.Budget)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&repInput, "input", "i", "", "input data file (CSV/TSV/Excel/JSON)")
	reportCmd.Flags().StringVarP(&repExcel, "excel", "e", "report.xlsx", "Excel output path")
	reportCmd.Flags().StringVarP(&repHTML, "html", "t", "index.html", "HTML output path")
	reportCmd.Flags().BoolVar(&repDemo, "demo", false, "generate the report from built-in demo data")
	reportCmd.Flags().StringVar(&repNotes, "notes", "", "Markdown file rendered as a notes section in the HTML report")
	reportCmd.Flags().StringVar(&repTitle, "title", "", "report title (overrides config)")
	reportCmd.Flags().StringVar(&repDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	reportCmd.Flags().BoolVar(&repParallel, "parallel", false, "compose the workbook and HTML concurrently")
	reportCmd.Flags().BoolVar(&repNative, "native-charts", false, "also add native Excel charts next to the images")
}

// pipelineConfig merges the loaded config with command flags.
func pipelineConfig(cmd *cobra.Command) (pipeline.Config, error) {
	f := cmd.Flags()
	pc := pipeline.DefaultConfig()
	pc.Logger = newLogger(cmd)
	pc.Budget = time.Duration(cfg.TimeBudgetMs) * time.Millisecond
	pc.Parallel = cfg.Parallel
	if f.Changed("parallel") {
		pc.Parallel = repParallel
	}

	pc.Ingest.Delimiter = cfg.Delimiter()
	if f.Changed("delimiter") {
		switch repDelimiter {
		case ",":
			pc.Ingest.Delimiter = ','
		case "\t", "tab":
			pc.Ingest.Delimiter = '\t'
		case ";":
			pc.Ingest.Delimiter = ';'
		case "|":
			pc.Ingest.Delimiter = '|'
		default:
			return pc, fmt.Errorf("unsupported --delimiter: %s", repDelimiter)
		}
	}

	title := cfg.ReportTitle
	if f.Changed("title") {
		title = repTitle
	}
	native := cfg.NativeCharts
	if f.Changed("native-charts") {
		native = repNative
	}
	pc.Workbook = workbook.Options{
		DataSheet:    cfg.DataSheet,
		SummarySheet: cfg.SummarySheet,
		Title:        title,
		ChartSize:    chart.Size{Width: cfg.ChartWidth, Height: cfg.ChartHeight},
		MaxY:         cfg.MaxYColumns,
		Bins:         cfg.HistogramBins,
		NativeCharts: native,
	}
	pc.HTML = htmlreport.Options{
		Title:     title,
		ChartSize: chart.Size{Width: cfg.HTMLChartWidth, Height: cfg.HTMLChartHeight},
		MaxRows:   cfg.HTMLMaxRows,
		MaxY:      cfg.MaxYColumns,
		Bins:      cfg.HistogramBins,
	}
	if repNotes != "" && f.Changed("notes") {
		b, err := os.ReadFile(repNotes)
		if err != nil {
			return pc, fmt.Errorf("read notes: %w", err)
		}
		pc.HTML.Notes = normalizeNewlines(string(b))
	}
	return pc, nil
}

// promptSource asks whether to load a file or use demo data.
func promptSource(in io.Reader, out io.Writer) (ingest.Source, error) {
	r := bufio.NewReader(in)
	fmt.Fprintln(out, "Welcome to tabreport!")
	fmt.Fprintln(out, "Choose an input:")
	fmt.Fprintln(out, "  1. Load data from a file (CSV/Excel/JSON)")
	fmt.Fprintln(out, "  2. Use demo data")
	fmt.Fprint(out, "Option (1/2): ")
	choice, err := readLine(r)
	if err != nil {
		return nil, err
	}
	switch choice {
	case "1":
		fmt.Fprint(out, "File path: ")
		path, err := readLine(r)
		if err != nil {
			return nil, err
		}
		if path == "" {
			return nil, errors.New("no file path given")
		}
		return ingest.FileSource{Path: path}, nil
	case "2":
		return demoSource(), nil
	default:
		return nil, fmt.Errorf("invalid option: %q", choice)
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// normalizeNewlines converts CRLF and CR line endings to LF and collapses
// runs of blank lines.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
