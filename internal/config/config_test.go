package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsAndFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if c.MaxBillboardFiles != 20 || c.DisplayTopK != 20 || c.MetricTopK != 15 || c.ListenAddr != ":8080" {
		t.Fatalf("defaults = %+v", c)
	}

	c.MaxBillboardFiles = 5
	c.Delimiter = "tab"
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := Save(c, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if got.MaxBillboardFiles != 5 || got.Delimiter != "tab" {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SURVEYBOARD_SESSION_LIMIT", "3")
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.SessionLimit != 3 {
		t.Fatalf("session_limit = %d", c.SessionLimit)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("max_billboard_files: 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{"": 0, "comma": ',', "tab": '\t', ";": ';', "pipe": '|'} {
		got, err := ParseDelimiter(in)
		if err != nil || got != want {
			t.Errorf("ParseDelimiter(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDelimiter("x"); err == nil {
		t.Errorf("expected error")
	}
}
