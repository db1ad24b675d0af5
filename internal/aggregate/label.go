package aggregate

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LabelRule derives a display label from a column name: strip a prefix, a
// suffix, a regular expression, or everything up to a separator, then turn
// underscores into spaces and title-case the rest.
type LabelRule struct {
	StripPrefix  string `yaml:"strip_prefix,omitempty" json:"strip_prefix,omitempty"`
	StripSuffix  string `yaml:"strip_suffix,omitempty" json:"strip_suffix,omitempty"`
	StripPattern string `yaml:"strip_pattern,omitempty" json:"strip_pattern,omitempty"`
	AfterLast    string `yaml:"after_last,omitempty" json:"after_last,omitempty"`
	// Keep disables title-casing; the stripped name is used as is.
	Keep bool `yaml:"keep,omitempty" json:"keep,omitempty"`
}

// Labeler applies a compiled LabelRule. A nil Labeler returns column names unchanged.
type Labeler struct {
	rule LabelRule
	re   *regexp.Regexp
}

// Compile validates the rule.
func (r LabelRule) Compile() (*Labeler, error) {
	l := &Labeler{rule: r}
	if r.StripPattern != "" {
		re, err := regexp.Compile(r.StripPattern)
		if err != nil {
			return nil, fmt.Errorf("compile strip_pattern %q: %w", r.StripPattern, err)
		}
		l.re = re
	}
	return l, nil
}

// Label derives the display label for col. If stripping leaves nothing the
// whole column name is used instead.
func (l *Labeler) Label(col string) string {
	if l == nil {
		return col
	}
	s := strings.TrimPrefix(col, l.rule.StripPrefix)
	s = strings.TrimSuffix(s, l.rule.StripSuffix)
	if l.re != nil {
		s = l.re.ReplaceAllString(s, "")
	}
	if sep := l.rule.AfterLast; sep != "" {
		if i := strings.LastIndex(s, sep); i >= 0 {
			s = s[i+len(sep):]
		}
	}
	if strings.Trim(s, "_ ") == "" {
		s = col
	}
	if l.rule.Keep {
		return s
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
	return cases.Title(language.Und).String(s)
}
