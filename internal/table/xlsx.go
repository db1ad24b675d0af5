package table

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ParseXLSX reads one worksheet of an .xlsx workbook: opt.Sheet when set,
// otherwise the first sheet. The first row is the header. Only cell text is
// read; formulas contribute their cached values.
func ParseXLSX(name string, b []byte, opt ReadOptions) (*Raw, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, &ParseError{Name: name, Err: fmt.Errorf("open workbook: %w", err)}
	}
	wb := workbook{files: map[string]*zip.File{}}
	for _, f := range zr.File {
		wb.files[f.Name] = f
	}

	target, err := wb.sheetPath(opt.Sheet)
	if err != nil {
		return nil, &ParseError{Name: name, Err: err}
	}
	sheet := wb.read(target)
	if sheet == nil {
		return nil, &ParseError{Name: name, Err: fmt.Errorf("worksheet %s missing", target)}
	}
	rows, err := sheetRows(sheet, sharedStrings(wb.read("xl/sharedStrings.xml")))
	if err != nil {
		return nil, &ParseError{Name: name, Err: err}
	}

	raw := &Raw{Name: name}
	if len(rows) == 0 {
		return raw, nil
	}
	raw.Header = rows[0]
	ncol := len(raw.Header)
	isNull := opt.nullSet()
	for i, rec := range rows[1:] {
		row := make([]Cell, ncol)
		for j, v := range rec {
			if _, ok := isNull[strings.TrimSpace(v)]; ok {
				continue
			}
			if j >= ncol {
				return nil, &ParseError{Name: name, Line: i + 2, Err: fmt.Errorf("value in column %d beyond the %d header columns", j+1, ncol)}
			}
			row[j] = Value(v)
		}
		raw.Rows = append(raw.Rows, row)
	}
	return raw, nil
}

type workbook struct {
	files map[string]*zip.File
}

func (wb workbook) read(name string) []byte {
	f, ok := wb.files[name]
	if !ok {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	return b
}

type sheetEntry struct {
	name string
	rid  string
}

// sheetPath resolves a sheet name to its part inside the archive.
func (wb workbook) sheetPath(want string) (string, error) {
	var sheets []sheetEntry
	rels := map[string]string{}
	walkXML(wb.read("xl/workbook.xml"), func(se xml.StartElement, _ *xml.Decoder) {
		if se.Name.Local == "sheet" {
			sheets = append(sheets, sheetEntry{name: attr(se, "name"), rid: attr(se, "id")})
		}
	})
	walkXML(wb.read("xl/_rels/workbook.xml.rels"), func(se xml.StartElement, _ *xml.Decoder) {
		if se.Name.Local == "Relationship" {
			rels[attr(se, "Id")] = attr(se, "Target")
		}
	})

	if want == "" {
		if len(sheets) > 0 {
			if t, ok := rels[sheets[0].rid]; ok {
				return partPath(t), nil
			}
		}
		return "xl/worksheets/sheet1.xml", nil
	}
	names := make([]string, 0, len(sheets))
	for _, s := range sheets {
		if strings.EqualFold(s.name, want) {
			if t, ok := rels[s.rid]; ok {
				return partPath(t), nil
			}
			return "", fmt.Errorf("sheet %q has no worksheet part", s.name)
		}
		names = append(names, s.name)
	}
	return "", fmt.Errorf("sheet %q not found (available: %s)", want, strings.Join(names, ", "))
}

// partPath turns a workbook relationship target into an archive path.
// Targets are relative to xl/ unless they start with a slash.
func partPath(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	if strings.HasPrefix(target, "xl/") {
		return target
	}
	return path.Join("xl", target)
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// walkXML calls fn for every start element. Decoding stops at the first error.
func walkXML(data []byte, fn func(xml.StartElement, *xml.Decoder)) {
	if len(data) == 0 {
		return
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		if se, ok := tok.(xml.StartElement); ok {
			fn(se, dec)
		}
	}
}

// text collects character data up to the end of the current element.
func text(dec *xml.Decoder) string {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			b.Write(t)
		}
	}
	return b.String()
}

func sharedStrings(data []byte) []string {
	var out []string
	walkXML(data, func(se xml.StartElement, dec *xml.Decoder) {
		if se.Name.Local == "si" {
			// Rich text splits one string over several <t> runs.
			out = append(out, runs(dec, "si"))
		}
	})
	return out
}

// runs joins the <t> runs of a string item up to the end element named end.
func runs(dec *xml.Decoder, end string) string {
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return b.String()
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				b.WriteString(text(dec))
			}
		case xml.EndElement:
			if t.Name.Local == end {
				return b.String()
			}
		}
	}
}

type sheetCell struct {
	ref  string
	typ  string
	text string
}

// sheetRows returns the worksheet as rows of cell text, placing cells by
// their A1 reference so gaps stay empty.
func sheetRows(data []byte, shared []string) ([][]string, error) {
	var rows [][]string
	var cur []string
	var inRow bool
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read worksheet: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "row":
				inRow, cur = true, nil
			case "c":
				if !inRow {
					continue
				}
				c := readCell(dec, t)
				col := columnIndex(c.ref)
				if col < 0 {
					col = len(cur)
				}
				if col >= maxColumns {
					return nil, fmt.Errorf("cell %q beyond the %d-column sheet limit", c.ref, maxColumns)
				}
				for len(cur) <= col {
					cur = append(cur, "")
				}
				cur[col] = cellText(c, shared)
			}
		case xml.EndElement:
			if t.Name.Local == "row" {
				rows = append(rows, cur)
				inRow = false
			}
		}
	}
}

func readCell(dec *xml.Decoder, se xml.StartElement) sheetCell {
	c := sheetCell{ref: attr(se, "r"), typ: attr(se, "t")}
	for {
		tok, err := dec.Token()
		if err != nil {
			return c
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "v":
				c.text = text(dec)
			case "is":
				c.text = runs(dec, "is")
			}
		case xml.EndElement:
			if t.Name.Local == "c" {
				return c
			}
		}
	}
}

func cellText(c sheetCell, shared []string) string {
	switch c.typ {
	case "s":
		var i int
		if _, err := fmt.Sscanf(c.text, "%d", &i); err != nil || i < 0 || i >= len(shared) {
			return ""
		}
		return shared[i]
	case "b":
		if c.text == "1" {
			return "TRUE"
		}
		return "FALSE"
	default:
		return c.text
	}
}

// maxColumns is the widest sheet Excel can write (column XFD).
const maxColumns = 16384

// columnIndex maps an A1 reference to a 0-based column; -1 when absent.
// References past maxColumns return maxColumns.
func columnIndex(ref string) int {
	idx := 0
	n := 0
	for _, r := range ref {
		switch {
		case r >= 'A' && r <= 'Z':
			idx = idx*26 + int(r-'A'+1)
		case r >= 'a' && r <= 'z':
			idx = idx*26 + int(r-'a'+1)
		default:
			return finishColumn(idx, n)
		}
		n++
		if idx > maxColumns {
			return maxColumns
		}
	}
	return finishColumn(idx, n)
}

func finishColumn(idx, letters int) int {
	if letters == 0 {
		return -1
	}
	return idx - 1
}
