// Package pattern discovers semantic column groups in a normalized table by
// naming convention.
package pattern

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/surveyboard/internal/table"
)

// Kind is how a rule compares patterns against a column name.
type Kind string

const (
	Prefix   Kind = "prefix"
	Suffix   Kind = "suffix"
	Contains Kind = "contains"
	Exact    Kind = "exact"
)

// Rule matches a column when any pattern matches under Kind. Require, when
// set, additionally demands one of its substrings. Exclude drops columns
// containing any of its substrings; ExcludeColumns drops exact names.
type Rule struct {
	Kind           Kind     `yaml:"kind" json:"kind"`
	Patterns       []string `yaml:"patterns" json:"patterns"`
	Require        []string `yaml:"require,omitempty" json:"require,omitempty"`
	Exclude        []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	ExcludeColumns []string `yaml:"exclude_columns,omitempty" json:"exclude_columns,omitempty"`
}

// Validate checks that the rule is usable.
func (r Rule) Validate() error {
	switch r.Kind {
	case Prefix, Suffix, Contains, Exact:
	default:
		return fmt.Errorf("unknown match kind %q", r.Kind)
	}
	if len(r.Patterns) == 0 {
		return fmt.Errorf("%s rule has no patterns", r.Kind)
	}
	for _, p := range r.Patterns {
		if p == "" {
			return fmt.Errorf("%s rule has an empty pattern", r.Kind)
		}
	}
	return nil
}

// Matches reports whether a normalized column name satisfies the rule.
func (r Rule) Matches(col string) bool {
	hit := false
	for _, p := range r.Patterns {
		if r.match(col, p) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	if len(r.Require) > 0 && !containsAny(col, r.Require) {
		return false
	}
	if containsAny(col, r.Exclude) {
		return false
	}
	for _, x := range r.ExcludeColumns {
		if col == x {
			return false
		}
	}
	return true
}

func (r Rule) match(col, p string) bool {
	switch r.Kind {
	case Prefix:
		return strings.HasPrefix(col, p)
	case Suffix:
		return strings.HasSuffix(col, p)
	case Contains:
		return strings.Contains(col, p)
	case Exact:
		return col == p
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Spec names a rule.
type Spec struct {
	ID   string `yaml:"id" json:"id"`
	Rule Rule   `yaml:",inline" json:"rule"`
}

// Group is the ordered set of columns a spec matched. It may be empty.
type Group struct {
	ID      string   `json:"id"`
	Columns []string `json:"columns"`
}

// Empty reports whether nothing matched.
func (g Group) Empty() bool { return len(g.Columns) == 0 }

// Select returns the matching columns of cols, preserving order.
func Select(cols []string, r Rule) []string {
	out := []string{}
	for _, c := range cols {
		if r.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// Match evaluates each spec against the table's columns. The result has one
// group per spec, in spec order, each listing columns in table order.
func Match(t *table.Table, specs []Spec) []Group {
	cols := t.Columns()
	groups := make([]Group, len(specs))
	for i, s := range specs {
		groups[i] = Group{ID: s.ID, Columns: Select(cols, s.Rule)}
	}
	return groups
}

// Index is the result of evaluating a spec set once against one table.
type Index struct {
	groups map[string]Group
	order  []string
}

// NewIndex matches every spec against t. Spec ids must be unique.
func NewIndex(t *table.Table, specs []Spec) (*Index, error) {
	ix := &Index{groups: make(map[string]Group, len(specs))}
	for _, g := range Match(t, specs) {
		if _, dup := ix.groups[g.ID]; dup {
			return nil, fmt.Errorf("duplicate group id %q", g.ID)
		}
		ix.groups[g.ID] = g
		ix.order = append(ix.order, g.ID)
	}
	return ix, nil
}

// Group returns the group for id; unknown ids yield an empty group.
func (ix *Index) Group(id string) Group {
	if g, ok := ix.groups[id]; ok {
		return g
	}
	return Group{ID: id, Columns: []string{}}
}

// Groups returns all groups in spec order.
func (ix *Index) Groups() []Group {
	out := make([]Group, 0, len(ix.order))
	for _, id := range ix.order {
		out = append(out, ix.groups[id])
	}
	return out
}
