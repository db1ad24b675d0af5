package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/surveyboard/internal/config"
	"github.com/KaramelBytes/surveyboard/internal/dataset"
	"github.com/KaramelBytes/surveyboard/internal/table"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	quiet   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "surveyboard",
	Short: "Survey and billboard analytics: normalize uploads, aggregate responses, merge inventories",
	Long: `surveyboard turns raw survey exports and billboard inventories into
aggregated distributions, cross-dataset demographic comparisons and
geolocated, reach-enriched billboard data.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.surveyboard/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to loading on demand and report the error there
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// settings returns the loaded configuration, loading it if needed.
func settings() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// loadCatalog returns the configured dataset catalog.
func loadCatalog(c *cfgpkg.Global) (*dataset.Catalog, error) {
	if c.DescriptorsFile != "" {
		if debug {
			fmt.Fprintf(os.Stderr, "debug: loading descriptors from %s\n", c.DescriptorsFile)
		}
		return dataset.LoadCatalog(c.DescriptorsFile)
	}
	return dataset.Builtin()
}

// readOptions builds reader options from config, with an optional
// per-command delimiter override.
func readOptions(c *cfgpkg.Global, delimiter string) (table.ReadOptions, error) {
	name := c.Delimiter
	if delimiter != "" {
		name = delimiter
	}
	d, err := cfgpkg.ParseDelimiter(name)
	if err != nil {
		return table.ReadOptions{}, err
	}
	return table.ReadOptions{Delimiter: d, NullTokens: c.NullTokens}, nil
}

// loadTable reads and normalizes one file.
func loadTable(path string, opt table.ReadOptions) (*table.Table, error) {
	raw, err := table.ReadFile(path, opt)
	if err != nil {
		return nil, err
	}
	t := table.Normalize(raw)
	if debug {
		fmt.Fprintf(os.Stderr, "debug: %s: %d rows, %d columns after normalization\n", path, t.Len(), t.Width())
	}
	return t, nil
}

func progressf(format string, args ...any) {
	if !quiet {
		fmt.Printf(format, args...)
	}
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "⚠ Warning: "+format+"\n", args...)
}
