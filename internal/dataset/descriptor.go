// Package dataset describes survey datasets declaratively and turns an
// uploaded table into a report by interpreting those descriptors.
package dataset

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/surveyboard/internal/aggregate"
	"github.com/KaramelBytes/surveyboard/internal/pattern"
)

//go:embed catalog.yaml
var builtinCatalog []byte

const demographicsID = "demographics"

// Mode selects how a view aggregates its matched columns.
type Mode string

const (
	// ModeColumns computes one distribution per matched column, missing
	// values reported as "No Response / N/A".
	ModeColumns Mode = "columns"
	// ModeMelt sums values across all matched columns after dropping null-like values.
	ModeMelt Mode = "melt"
	// ModeAffirmative counts, per derived column label, the responses equal to Target.
	ModeAffirmative Mode = "affirmative"
	// ModeCrossTab counts (derived label, response) pairs.
	ModeCrossTab Mode = "crosstab"
)

// View is one chart-worthy question block of a dataset.
type View struct {
	ID    string              `yaml:"id"`
	Title string              `yaml:"title"`
	Mode  Mode                `yaml:"mode"`
	Match pattern.Rule        `yaml:"match"`
	Label aggregate.LabelRule `yaml:"label,omitempty"`
	// Target is the affirmative token; defaults to "yes".
	Target string `yaml:"target,omitempty"`
	// Scale fixes the cross-tab response order; empty means auto-detect.
	Scale aggregate.Scale `yaml:"scale,omitempty"`
	// Chart is a hint for renderers: bar or pie.
	Chart string `yaml:"chart,omitempty"`
}

// Descriptor is the full description of one dataset.
type Descriptor struct {
	ID             string       `yaml:"id"`
	Title          string       `yaml:"title"`
	Demographics   pattern.Rule `yaml:"demographics"`
	Views          []View       `yaml:"views"`
	Representative string       `yaml:"representative"`
}

// Catalog is the set of known datasets, in display order.
type Catalog struct {
	Datasets []Descriptor `yaml:"datasets"`
}

// Builtin returns the catalog shipped with the binary.
func Builtin() (*Catalog, error) {
	return ParseCatalog(builtinCatalog)
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(b)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks ids, rules and label patterns.
func (c *Catalog) Validate() error {
	if len(c.Datasets) == 0 {
		return fmt.Errorf("catalog has no datasets")
	}
	seen := map[string]bool{}
	for _, d := range c.Datasets {
		if d.ID == "" {
			return fmt.Errorf("dataset %q has no id", d.Title)
		}
		key := strings.ToLower(d.ID)
		if seen[key] {
			return fmt.Errorf("duplicate dataset id %q", d.ID)
		}
		seen[key] = true
		if err := d.Demographics.Validate(); err != nil {
			return fmt.Errorf("dataset %s demographics: %w", d.ID, err)
		}
		views := map[string]bool{}
		for _, v := range d.Views {
			if v.ID == "" || v.ID == demographicsID || views[v.ID] {
				return fmt.Errorf("dataset %s: missing or duplicate view id %q", d.ID, v.ID)
			}
			views[v.ID] = true
			switch v.Mode {
			case ModeColumns, ModeMelt, ModeAffirmative, ModeCrossTab:
			default:
				return fmt.Errorf("dataset %s view %s: unknown mode %q", d.ID, v.ID, v.Mode)
			}
			if err := v.Match.Validate(); err != nil {
				return fmt.Errorf("dataset %s view %s: %w", d.ID, v.ID, err)
			}
			if _, err := v.Label.Compile(); err != nil {
				return fmt.Errorf("dataset %s view %s: %w", d.ID, v.ID, err)
			}
		}
	}
	return nil
}

// Get finds a dataset by id or title, ignoring case.
func (c *Catalog) Get(name string) (*Descriptor, bool) {
	name = strings.TrimSpace(name)
	for i := range c.Datasets {
		d := &c.Datasets[i]
		if strings.EqualFold(d.ID, name) || strings.EqualFold(d.Title, name) {
			return d, true
		}
	}
	return nil, false
}

// IDs lists dataset ids in catalog order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.Datasets))
	for i, d := range c.Datasets {
		out[i] = d.ID
	}
	return out
}

// Specs returns the descriptor's column-group specs, demographics first.
func (d *Descriptor) Specs() []pattern.Spec {
	specs := []pattern.Spec{{ID: demographicsID, Rule: d.Demographics}}
	for _, v := range d.Views {
		specs = append(specs, pattern.Spec{ID: v.ID, Rule: v.Match})
	}
	return specs
}
