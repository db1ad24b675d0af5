package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Billboard merge
	MaxBillboardFiles int `mapstructure:"max_billboard_files" yaml:"max_billboard_files"`

	// Display truncation
	DisplayTopK int `mapstructure:"display_top_k" yaml:"display_top_k"`
	MetricTopK  int `mapstructure:"metric_top_k" yaml:"metric_top_k"`
	PieTopK     int `mapstructure:"pie_top_k" yaml:"pie_top_k"`

	// Input parsing
	Delimiter  string   `mapstructure:"delimiter" yaml:"delimiter"`
	NullTokens []string `mapstructure:"null_tokens" yaml:"null_tokens"`

	// Dataset catalog override (YAML); empty uses the built-in catalog
	DescriptorsFile string `mapstructure:"descriptors_file" yaml:"descriptors_file"`

	// Memoization and sessions
	CacheEntries int `mapstructure:"cache_entries" yaml:"cache_entries"`
	SessionLimit int `mapstructure:"session_limit" yaml:"session_limit"`

	// HTTP server
	ListenAddr     string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`
	MaxUploadMB    int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// Dir is the default configuration directory under the user's home.
const Dir = ".surveyboard"

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.surveyboard/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, Dir)
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

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SURVEYBOARD")
	v.AutomaticEnv()

	v.SetDefault("max_billboard_files", 20)
	v.SetDefault("display_top_k", 20)
	v.SetDefault("metric_top_k", 15)
	v.SetDefault("pie_top_k", 15)
	v.SetDefault("delimiter", "")
	v.SetDefault("null_tokens", []string{"", "NA", "N/A", "n/a", "NaN", "nan", "NULL", "null", "None", "#N/A", "<NA>"})
	v.SetDefault("descriptors_file", "")
	v.SetDefault("cache_entries", 256)
	v.SetDefault("session_limit", 64)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("max_upload_mb", 32)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, Dir)
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values the pipelines cannot work with.
func (c *Global) Validate() error {
	if c.MaxBillboardFiles <= 0 {
		return fmt.Errorf("max_billboard_files must be positive, got %d", c.MaxBillboardFiles)
	}
	if c.CacheEntries <= 0 {
		return fmt.Errorf("cache_entries must be positive, got %d", c.CacheEntries)
	}
	if c.SessionLimit <= 0 {
		return fmt.Errorf("session_limit must be positive, got %d", c.SessionLimit)
	}
	if _, err := ParseDelimiter(c.Delimiter); err != nil {
		return err
	}
	return nil
}

// ParseDelimiter maps a configured delimiter name to a rune; "" means auto.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case "\t", "tab", "\\t":
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter %q (use comma, tab, semicolon or pipe)", s)
	}
}
