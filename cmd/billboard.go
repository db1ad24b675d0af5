package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/surveyboard/internal/billboard"
	"github.com/KaramelBytes/surveyboard/internal/export"
	"github.com/KaramelBytes/surveyboard/internal/utils"
	"github.com/spf13/cobra"
)

var (
	bbOutputPath  string
	bbSQLitePath  string
	bbSQLiteTable string
	bbMapPath     string
	bbChart       string
	bbColumn      string
	bbBins        int
	bbMaxFiles    int
	bbDelimiter   string
	bbJSON        bool
)

var billboardCmd = &cobra.Command{
	Use:   "billboard <files...>",
	Short: "Merge billboard inventories, derive reach % and summarize them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := utils.ExpandPaths(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		c, err := settings()
		if err != nil {
			return err
		}
		opt, err := readOptions(c, bbDelimiter)
		if err != nil {
			return err
		}
		maxFiles := c.MaxBillboardFiles
		if bbMaxFiles > 0 {
			maxFiles = bbMaxFiles
		}

		dropped := 0
		if len(files) > maxFiles {
			dropped = len(files) - maxFiles
			files = files[:maxFiles]
		}
		var inputs []billboard.Input
		var unread []*billboard.FileError
		for i, path := range files {
			progressf("[%d/%d] Reading %s...\n", i+1, len(files), filepath.Base(path))
			b, err := os.ReadFile(path)
			if err != nil {
				unread = append(unread, &billboard.FileError{Name: filepath.Base(path), Err: err})
				continue
			}
			inputs = append(inputs, billboard.Input{Name: filepath.Base(path), Data: b})
		}

		res := billboard.Merge(inputs, billboard.Options{MaxFiles: maxFiles, Read: opt})
		res.Dropped += dropped
		res.Failures = append(unread, res.Failures...)
		if res.Dropped > 0 {
			warnf("only the first %d files are processed; %d dropped", maxFiles, res.Dropped)
		}
		for _, fe := range res.Failures {
			warnf("skipped %v", fe)
		}
		if res.Merged.IsEmpty() {
			return fmt.Errorf("no billboard data could be read from %d file(s)", len(files))
		}
		progressf("✓ Merged %d rows from %d files\n", res.Merged.Len(), len(res.Processed))
		if !res.HasMetrics {
			warnf("potential_views and reach columns not found; reach_pct is empty")
		}

		out := cmd.OutOrStdout()
		if bbJSON {
			b, err := utils.PrettyJSON(struct {
				*billboard.Result
				Summary billboard.Summary `json:"summary"`
				Gauge   billboard.Gauge   `json:"gauge"`
			}{res, res.Summarize(), res.Gauge()})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		} else {
			fmt.Fprintln(out, summaryTable(res.Summarize()))
		}
		if bbChart != "" {
			if err := writeChart(out, res, bbChart, bbColumn, c.DisplayTopK, c.PieTopK); err != nil {
				return err
			}
		}

		if bbOutputPath != "" {
			delim := opt.Delimiter
			if delim == 0 {
				delim = ','
			}
			if err := export.WriteCSVFile(bbOutputPath, res.Merged, delim); err != nil {
				return err
			}
			progressf("✓ Wrote merged data to %s\n", bbOutputPath)
		}
		if bbSQLitePath != "" {
			if err := export.WriteSQLite(cmd.Context(), bbSQLitePath, bbSQLiteTable, res.Merged, billboard.NumericColumns...); err != nil {
				return err
			}
			progressf("✓ Wrote table %q to %s\n", bbSQLiteTable, bbSQLitePath)
		}
		if bbMapPath != "" {
			mv := res.Map()
			if !mv.Available {
				warnf("map: %s", mv.Message)
			}
			b, err := utils.PrettyJSON(mv)
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(bbMapPath, b); err != nil {
				return fmt.Errorf("write map: %w", err)
			}
			progressf("✓ Wrote %d markers to %s\n", len(mv.Markers), bbMapPath)
		}
		return nil
	},
}

func summaryTable(s billboard.Summary) string {
	rows := [][]string{
		{"Total billboards", fmt.Sprint(s.Total)},
		{"Avg potential views", billboard.FormatOptional(s.AvgViews, "%.0f")},
		{"Avg reach", billboard.FormatOptional(s.AvgReach, "%.0f")},
		{"Avg reach %", billboard.FormatOptional(s.AvgReachPct, "%.1f%%")},
		{"Geolocated rows", fmt.Sprint(s.GeoValid)},
		{"Files processed", fmt.Sprint(s.ProcessedFiles)},
		{"Files failed", fmt.Sprint(s.FailedFiles)},
		{"Files dropped", fmt.Sprint(s.DroppedFiles)},
	}
	return utils.MarkdownTable([]string{"Metric", "Value"}, rows)
}

func writeChart(w io.Writer, res *billboard.Result, kind, column string, displayTop, pieTop int) error {
	switch kind {
	case "bar", "pie":
		if column == "" {
			avail := res.AvailableCategories()
			if len(avail) == 0 {
				fmt.Fprintln(w, "ℹ No categorical columns available")
				return nil
			}
			column = avail[0]
		}
		top := displayTop
		if kind == "pie" {
			top = pieTop
		}
		cr := res.CategoryCounts(column)
		if !cr.OK() {
			fmt.Fprintf(w, "ℹ %s\n", cr.Message)
			return nil
		}
		d := cr.Distribution.Top(top)
		rows := make([][]string, 0, d.Len())
		for _, e := range d.Entries {
			rows = append(rows, []string{e.Label, fmt.Sprint(e.Count), utils.Percent(e.Count, d.Total)})
		}
		fmt.Fprintf(w, "\n%s (%s, top %d)\n", column, kind, top)
		fmt.Fprintln(w, utils.MarkdownTable([]string{column, "Count", "Share"}, rows))
	case "histogram":
		if column == "" {
			column = billboard.ColReachPct
		}
		h := res.Histogram(column, bbBins)
		if h.Message != "" {
			fmt.Fprintf(w, "ℹ %s\n", h.Message)
			return nil
		}
		rows := make([][]string, 0, len(h.Bins))
		for _, b := range h.Bins {
			rows = append(rows, []string{fmt.Sprintf("%.2f - %.2f", b.Lo, b.Hi), fmt.Sprint(b.Count)})
		}
		fmt.Fprintf(w, "\n%s histogram\n", column)
		fmt.Fprintln(w, utils.MarkdownTable([]string{"Range", "Count"}, rows))
	case "gauge":
		g := res.Gauge()
		fmt.Fprintf(w, "\nAverage reach %%: %s\n", billboard.FormatOptional(g.Value, "%.1f"))
	default:
		return fmt.Errorf("unknown --chart %q (use bar, pie, histogram or gauge)", kind)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(billboardCmd)
	f := billboardCmd.Flags()
	f.StringVarP(&bbOutputPath, "output", "o", "", "write the merged table as delimited text (e.g. "+export.DefaultCSVName+")")
	f.StringVar(&bbSQLitePath, "sqlite", "", "also write the merged table into this SQLite database")
	f.StringVar(&bbSQLiteTable, "sqlite-table", export.DefaultSQLiteTable, "table name for --sqlite")
	f.StringVar(&bbMapPath, "map", "", "write map markers (JSON) to this path")
	f.StringVar(&bbChart, "chart", "", "print chart data: bar | pie | histogram | gauge")
	f.StringVar(&bbColumn, "column", "", "column for --chart (default: first category, or reach_pct for histogram)")
	f.IntVar(&bbBins, "bins", billboard.DefaultBins, "histogram bins")
	f.IntVar(&bbMaxFiles, "max-files", 0, "maximum files to process (default max_billboard_files)")
	f.StringVar(&bbDelimiter, "delimiter", "", "delimiter: comma | tab | semicolon | pipe (default from config, then by extension)")
	f.BoolVar(&bbJSON, "json", false, "print the summary as JSON")
}
