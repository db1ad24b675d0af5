package table

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a count-like value, tolerating ',' thousands separators
// and embedded spaces ("1,250 000"). Anything else yields ok=false.
func ParseNumber(s string) (float64, bool) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '\u00a0', '\t':
			return -1
		}
		return r
	}, s)
	return ParseFloat(s)
}

// ParseFloat parses a plain decimal number, such as a coordinate.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Number wraps a float as a Cell.
func Number(f float64) Cell {
	return Value(strconv.FormatFloat(f, 'f', -1, 64))
}

// Numbers converts optional floats to cells; nil entries are missing.
func Numbers(vals []*float64) []Cell {
	out := make([]Cell, len(vals))
	for i, v := range vals {
		if v != nil {
			out[i] = Number(*v)
		}
	}
	return out
}
