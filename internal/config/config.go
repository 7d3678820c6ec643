package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	ExcelOutput  string `mapstructure:"excel_output" yaml:"excel_output" validate:"required"`
	HTMLOutput   string `mapstructure:"html_output" yaml:"html_output" validate:"required"`
	DataSheet    string `mapstructure:"data_sheet" yaml:"data_sheet" validate:"required,max=31,nefield=SummarySheet"`
	SummarySheet string `mapstructure:"summary_sheet" yaml:"summary_sheet" validate:"required,max=31"`
	ReportTitle  string `mapstructure:"report_title" yaml:"report_title"`

	// Chart sizes in pixels
	ChartWidth      int `mapstructure:"chart_width" yaml:"chart_width" validate:"min=100,max=4000"`
	ChartHeight     int `mapstructure:"chart_height" yaml:"chart_height" validate:"min=100,max=4000"`
	HTMLChartWidth  int `mapstructure:"html_chart_width" yaml:"html_chart_width" validate:"min=100,max=4000"`
	HTMLChartHeight int `mapstructure:"html_chart_height" yaml:"html_chart_height" validate:"min=100,max=4000"`

	HTMLMaxRows   int  `mapstructure:"html_max_rows" yaml:"html_max_rows" validate:"min=1"`
	MaxYColumns   int  `mapstructure:"max_y_columns" yaml:"max_y_columns" validate:"min=1"`
	HistogramBins int  `mapstructure:"histogram_bins" yaml:"histogram_bins" validate:"min=1,max=500"`
	TimeBudgetMs  int  `mapstructure:"time_budget_ms" yaml:"time_budget_ms" validate:"min=1"`
	Parallel      bool `mapstructure:"parallel" yaml:"parallel"`
	NativeCharts  bool `mapstructure:"native_charts" yaml:"native_charts"`

	// CSV delimiter; empty means sniff from the header line
	CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter" validate:"max=2"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`
}

var validate = validator.New()

// Validate checks field ranges and enumerations.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Delimiter returns the configured CSV delimiter, or 0 to sniff.
func (c *Global) Delimiter() rune {
	if c.CSVDelimiter == "" {
		return 0
	}
	if c.CSVDelimiter == `\t` {
		return '\t'
	}
	return []rune(c.CSVDelimiter)[0]
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tabreport"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabreport/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SetDefaults registers the built-in value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("excel_output", "report.xlsx")
	v.SetDefault("html_output", "index.html")
	v.SetDefault("data_sheet", "Data")
	v.SetDefault("summary_sheet", "Summary")
	v.SetDefault("report_title", "Data Report")
	v.SetDefault("chart_width", 800)
	v.SetDefault("chart_height", 480)
	v.SetDefault("html_chart_width", 1200)
	v.SetDefault("html_chart_height", 600)
	v.SetDefault("html_max_rows", 10)
	v.SetDefault("max_y_columns", 3)
	v.SetDefault("histogram_bins", 20)
	v.SetDefault("time_budget_ms", 3000)
	v.SetDefault("parallel", false)
	v.SetDefault("native_charts", false)
	v.SetDefault("csv_delimiter", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABREPORT")
	v.AutomaticEnv()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Defaults returns the built-in configuration without reading files or env.
func Defaults() *Global {
	v := viper.New()
	SetDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}
