package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/surveyboard/internal/pattern"
	"github.com/spf13/cobra"
)

var (
	schemaDelimiter string
	schemaSheet     string
)

var schemaCmd = &cobra.Command{
	Use:   "schema <dataset> <file>",
	Short: "Show normalized headers and which column groups a file provides",
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
		opt, err := readOptions(c, schemaDelimiter)
		if err != nil {
			return err
		}
		opt.Sheet = schemaSheet
		t, err := loadTable(args[1], opt)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d rows, %d columns\n", args[1], t.Len(), t.Width())
		for _, col := range t.Columns() {
			fmt.Fprintf(out, "  %s\n", col)
		}
		fmt.Fprintf(out, "\nColumn groups for %s:\n", d.Title)
		for _, g := range pattern.Match(t, d.Specs()) {
			if g.Empty() {
				fmt.Fprintf(out, "  %s: (none)\n", g.ID)
				continue
			}
			fmt.Fprintf(out, "  %s: %s\n", g.ID, strings.Join(g.Columns, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringVar(&schemaSheet, "sheet", "", "XLSX: sheet name to inspect (default first sheet)")
	schemaCmd.Flags().StringVar(&schemaDelimiter, "delimiter", "", "delimiter: comma | tab | semicolon | pipe (default from config, then by extension)")
}
