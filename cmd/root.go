package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/tabreport/internal/config"
	"github.com/KaramelBytes/tabreport/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "tabreport",
	Short: "tabreport: turn a table into an Excel workbook and an HTML report",
	Long: `tabreport reads tabular data (CSV, TSV, Excel, JSON), computes descriptive
statistics and renders a styled Excel workbook plus a self-contained HTML page
with embedded charts.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tabreport/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text | json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if debug {
		cfg.LogLevel = "debug"
	}
	if f.Changed("log-format") && logFormat != "" {
		cfg.LogFormat = logFormat
	}
}

// newLogger builds the structured logger for a command from the loaded config.
func newLogger(cmd *cobra.Command) *slog.Logger {
	if cfg == nil {
		cfg = cfgpkg.Defaults()
	}
	return logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
}
