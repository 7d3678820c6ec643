package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/tabreport/internal/ingest"
	"github.com/KaramelBytes/tabreport/internal/stats"
	"github.com/spf13/cobra"
)

var (
	descOutput string
	descDemo   bool
)

var describeCmd = &cobra.Command{
	Use:   "describe [file]",
	Short: "Print the schema and summary statistics of a data file as Markdown",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var src ingest.Source
		name := "demo"
		switch {
		case descDemo:
			src = demoSource()
		case len(args) == 1:
			src = ingest.FileSource{Path: args[0]}
			name = filepath.Base(args[0])
		default:
			return errors.New("describe needs a file or --demo")
		}
		t, err := ingest.Ingest(src, ingest.Options{Delimiter: cfg.Delimiter()})
		if err != nil {
			return err
		}
		s, err := stats.Summarize(t)
		if err != nil && !errors.Is(err, stats.ErrNoData) {
			return err
		}
		md := stats.Markdown(name, t, s)
		if descOutput != "" {
			if err := os.WriteFile(descOutput, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", descOutput)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVarP(&descOutput, "output", "o", "", "optional path to write the summary (Markdown)")
	describeCmd.Flags().BoolVar(&descDemo, "demo", false, "describe the built-in demo data")
}
