package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/surveyboard/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set surveyboard configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "max_billboard_files: %d\n", c.MaxBillboardFiles)
		fmt.Fprintf(out, "display_top_k: %d\n", c.DisplayTopK)
		fmt.Fprintf(out, "metric_top_k: %d\n", c.MetricTopK)
		fmt.Fprintf(out, "pie_top_k: %d\n", c.PieTopK)
		delim := c.Delimiter
		if delim == "" {
			delim = "auto"
		}
		fmt.Fprintf(out, "delimiter: %s\n", delim)
		fmt.Fprintf(out, "null_tokens: %s\n", strings.Join(quoteAll(c.NullTokens), ", "))
		if c.DescriptorsFile != "" {
			fmt.Fprintf(out, "descriptors_file: %s\n", c.DescriptorsFile)
		}
		fmt.Fprintf(out, "cache_entries: %d\n", c.CacheEntries)
		fmt.Fprintf(out, "session_limit: %d\n", c.SessionLimit)
		fmt.Fprintf(out, "listen_addr: %s\n", c.ListenAddr)
		fmt.Fprintf(out, "metrics_enabled: %t\n", c.MetricsEnabled)
		fmt.Fprintf(out, "max_upload_mb: %d\n", c.MaxUploadMB)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := settings()
		if err != nil {
			return err
		}
		next := *c
		positive := func() (int, error) {
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return 0, fmt.Errorf("invalid positive int for %s: %v", key, val)
			}
			return i, nil
		}
		switch key {
		case "max_billboard_files":
			if next.MaxBillboardFiles, err = positive(); err != nil {
				return err
			}
		case "display_top_k":
			if next.DisplayTopK, err = positive(); err != nil {
				return err
			}
		case "metric_top_k":
			if next.MetricTopK, err = positive(); err != nil {
				return err
			}
		case "pie_top_k":
			if next.PieTopK, err = positive(); err != nil {
				return err
			}
		case "cache_entries":
			if next.CacheEntries, err = positive(); err != nil {
				return err
			}
		case "session_limit":
			if next.SessionLimit, err = positive(); err != nil {
				return err
			}
		case "max_upload_mb":
			if next.MaxUploadMB, err = positive(); err != nil {
				return err
			}
		case "delimiter":
			if val == "auto" {
				val = ""
			}
			if _, err := cfgpkg.ParseDelimiter(val); err != nil {
				return err
			}
			next.Delimiter = val
		case "null_tokens":
			var toks []string
			for _, s := range strings.Split(val, ",") {
				toks = append(toks, strings.TrimSpace(s))
			}
			next.NullTokens = toks
		case "descriptors_file":
			next.DescriptorsFile = val
		case "listen_addr":
			next.ListenAddr = val
		case "metrics_enabled":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for metrics_enabled: %w", err)
			}
			next.MetricsEnabled = b
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		cfg = &next
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strconv.Quote(s)
	}
	return out
}
