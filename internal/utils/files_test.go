package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandPaths_OrderAndDedupe(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.csv", "a.csv", "c.tsv"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	got := ExpandPaths([]string{
		filepath.Join(dir, "c.tsv"),
		filepath.Join(dir, "*.csv"),
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "missing.csv"),
	})
	var names []string
	for _, p := range got {
		names = append(names, filepath.Base(p))
	}
	if strings.Join(names, ",") != "c.tsv,a.csv,b.csv" {
		t.Fatalf("got %v", names)
	}
}

func TestSafeWriteFile_CreatesDir(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out", "merged.csv")
	if err := SafeWriteFile(p, []byte("a\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "a\n" {
		t.Fatalf("read back %q, %v", b, err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestMarkdownTable(t *testing.T) {
	md := MarkdownTable([]string{"Label", "Count"}, [][]string{{"Yes", "3"}, {"No", "1"}})
	lines := strings.Split(strings.TrimSpace(md), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and two rows:\n%s", md)
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "|") || !strings.HasSuffix(l, "|") {
			t.Errorf("line not a markdown row: %q", l)
		}
	}
	if !strings.Contains(lines[1], "---") || !strings.Contains(lines[2], "Yes") {
		t.Errorf("unexpected table:\n%s", md)
	}
	if Percent(1, 4) != "25.0%" || Percent(1, 0) != "0.0%" {
		t.Errorf("percent formatting")
	}
}
