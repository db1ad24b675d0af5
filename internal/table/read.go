package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultNullTokens are the cell texts read as missing values.
var DefaultNullTokens = []string{"", "NA", "N/A", "n/a", "NaN", "nan", "NULL", "null", "None", "#N/A", "<NA>"}

// ReadOptions controls delimited-text parsing.
type ReadOptions struct {
	// Delimiter for fields. If 0, picked from the file extension.
	Delimiter rune
	// NullTokens are cell texts treated as missing. Nil means DefaultNullTokens.
	NullTokens []string
	// Sheet selects a worksheet by name for .xlsx uploads; empty means the first.
	Sheet string
}

func (opt ReadOptions) nullSet() map[string]struct{} {
	nulls := opt.NullTokens
	if nulls == nil {
		nulls = DefaultNullTokens
	}
	set := make(map[string]struct{}, len(nulls))
	for _, n := range nulls {
		set[n] = struct{}{}
	}
	return set
}

// ParseError reports a file that could not be read as a table.
type ParseError struct {
	Name string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Name, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SniffDelimiter picks the field delimiter for a file name.
func SniffDelimiter(name string) rune {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tsv", ".tab":
		return '\t'
	default:
		return ','
	}
}

// ReadFile reads a delimited text or .xlsx file from disk.
func ReadFile(path string, opt ReadOptions) (*Raw, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Name: filepath.Base(path), Err: err}
	}
	return Parse(filepath.Base(path), b, opt)
}

// Parse reads an upload held in memory, dispatching on its extension.
func Parse(name string, b []byte, opt ReadOptions) (*Raw, error) {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return ParseXLSX(name, b, opt)
	}
	return Read(name, bytes.NewReader(b), opt)
}

// Read parses delimited text with a header row. Rows shorter than the header
// are padded with missing values; rows longer than the header are an error.
func Read(name string, r io.Reader, opt ReadOptions) (*Raw, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = SniffDelimiter(name)
	}
	isNull := opt.nullSet()

	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	raw := &Raw{Name: name}
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return raw, nil
		}
		return nil, &ParseError{Name: name, Err: fmt.Errorf("read header: %w", err)}
	}
	raw.Header = make([]string, len(header))
	copy(raw.Header, header)
	if len(raw.Header) > 0 {
		raw.Header[0] = strings.TrimPrefix(raw.Header[0], "\ufeff")
	}
	ncol := len(raw.Header)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Name: name, Err: err}
		}
		if len(rec) > ncol {
			line, _ := cr.FieldPos(0)
			return nil, &ParseError{Name: name, Line: line, Err: fmt.Errorf("expected %d fields, saw %d", ncol, len(rec))}
		}
		row := make([]Cell, ncol)
		for i, v := range rec {
			if _, ok := isNull[strings.TrimSpace(v)]; ok {
				continue
			}
			row[i] = Value(v)
		}
		raw.Rows = append(raw.Rows, row)
	}
	return raw, nil
}
