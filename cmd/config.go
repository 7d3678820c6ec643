package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/tabreport/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set tabreport configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		next := *cfg
		if err := setKey(&next, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		*cfg = next
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func setKey(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	atob := func() (bool, error) {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		return b, nil
	}
	var err error
	switch key {
	case "excel_output":
		c.ExcelOutput = val
	case "html_output":
		c.HTMLOutput = val
	case "data_sheet":
		c.DataSheet = val
	case "summary_sheet":
		c.SummarySheet = val
	case "report_title":
		c.ReportTitle = val
	case "chart_width":
		c.ChartWidth, err = atoi()
	case "chart_height":
		c.ChartHeight, err = atoi()
	case "html_chart_width":
		c.HTMLChartWidth, err = atoi()
	case "html_chart_height":
		c.HTMLChartHeight, err = atoi()
	case "html_max_rows":
		c.HTMLMaxRows, err = atoi()
	case "max_y_columns":
		c.MaxYColumns, err = atoi()
	case "histogram_bins":
		c.HistogramBins, err = atoi()
	case "time_budget_ms":
		c.TimeBudgetMs, err = atoi()
	case "parallel":
		c.Parallel, err = atob()
	case "native_charts":
		c.NativeCharts, err = atob()
	case "csv_delimiter":
		c.CSVDelimiter = val
	case "log_level":
		c.LogLevel = val
	case "log_format":
		c.LogFormat = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}
