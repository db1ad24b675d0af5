package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var datasetsVerbose bool

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets the catalog knows how to analyze",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		cat, err := loadCatalog(c)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, d := range cat.Datasets {
			fmt.Fprintf(out, "- %s: %s (%d views, key insight: %s)\n", d.ID, d.Title, len(d.Views), d.Representative)
			if !datasetsVerbose {
				continue
			}
			for _, v := range d.Views {
				fmt.Fprintf(out, "    %s [%s] %s\n", v.ID, v.Mode, v.Title)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
	datasetsCmd.Flags().BoolVarP(&datasetsVerbose, "verbose", "v", false, "also list each dataset's views")
}
