package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/surveyboard/internal/dataset"
	"github.com/KaramelBytes/surveyboard/internal/utils"
	"github.com/spf13/cobra"
)

var (
	ovInputs     []string
	ovOutputPath string
	ovDelimiter  string
	ovJSON       bool
)

var overallCmd = &cobra.Command{
	Use:   "overall --input <dataset>=<file> [--input ...]",
	Short: "Compare demographics across several survey datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(ovInputs) == 0 {
			return fmt.Errorf("at least one --input <dataset>=<file> is required")
		}
		c, err := settings()
		if err != nil {
			return err
		}
		cat, err := loadCatalog(c)
		if err != nil {
			return err
		}
		opt, err := readOptions(c, ovDelimiter)
		if err != nil {
			return err
		}

		var loaded []dataset.Loaded
		for i, in := range ovInputs {
			id, path, ok := strings.Cut(in, "=")
			if !ok || strings.TrimSpace(id) == "" || strings.TrimSpace(path) == "" {
				return fmt.Errorf("invalid --input %q (want <dataset>=<file>)", in)
			}
			d, ok := cat.Get(id)
			if !ok {
				return fmt.Errorf("unknown dataset %q (see 'surveyboard datasets')", id)
			}
			progressf("[%d/%d] Reading %s for %s...\n", i+1, len(ovInputs), path, d.Title)
			t, err := loadTable(strings.TrimSpace(path), opt)
			if err != nil {
				warnf("skipping %s: %v", d.Title, err)
				continue
			}
			loaded = append(loaded, dataset.Loaded{ID: d.ID, Table: t})
		}

		rep := dataset.Overall(cat, loaded, nil)
		for _, w := range rep.Warnings {
			warnf("%s", w)
		}

		var body []byte
		if ovJSON {
			if body, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
		} else {
			body = []byte(rep.Markdown(c.DisplayTopK, c.MetricTopK))
		}
		if ovOutputPath != "" {
			if err := utils.SafeWriteFile(ovOutputPath, body); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			progressf("✓ Wrote overall report to %s\n", ovOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(overallCmd)
	overallCmd.Flags().StringArrayVarP(&ovInputs, "input", "i", nil, "dataset upload as <dataset>=<file> (repeatable)")
	overallCmd.Flags().StringVarP(&ovOutputPath, "output", "o", "", "optional path to write the report")
	overallCmd.Flags().StringVar(&ovDelimiter, "delimiter", "", "delimiter: comma | tab | semicolon | pipe (default from config, then by extension)")
	overallCmd.Flags().BoolVar(&ovJSON, "json", false, "emit the report as JSON instead of Markdown")
}
