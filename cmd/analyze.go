package cmd

import (
	"fmt"

	"github.com/KaramelBytes/surveyboard/internal/dataset"
	"github.com/KaramelBytes/surveyboard/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaOutputPath string
	anaDelimiter  string
	anaJSON       bool
	anaTopK       int
	anaSheet      string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dataset> <file>",
	Short: "Aggregate one survey export using its dataset descriptor",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		cat, err := loadCatalog(c)
		if err != nil {
			return err
		}
		d, ok := cat.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown dataset %q (see 'surveyboard datasets')", args[0])
		}
		opt, err := readOptions(c, anaDelimiter)
		if err != nil {
			return err
		}
		opt.Sheet = anaSheet
		t, err := loadTable(args[1], opt)
		if err != nil {
			return err
		}
		rep, err := dataset.Analyze(d, t)
		if err != nil {
			return err
		}
		for _, w := range rep.Warnings {
			warnf("%s", w)
		}

		var body []byte
		if anaJSON {
			if body, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
		} else {
			top := c.DisplayTopK
			if anaTopK > 0 {
				top = anaTopK
			}
			body = []byte(rep.Markdown(top))
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, body); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			progressf("✓ Wrote %s report to %s\n", d.Title, anaOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "delimiter: comma | tab | semicolon | pipe (default from config, then by extension)")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "emit the report as JSON instead of Markdown")
	analyzeCmd.Flags().StringVar(&anaSheet, "sheet", "", "XLSX: sheet name to analyze (default first sheet)")
	analyzeCmd.Flags().IntVar(&anaTopK, "top", 0, "categories shown per table (default display_top_k)")
}
