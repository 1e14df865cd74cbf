package deps

import (
	"os"
	"path/filepath"
	"testing"

	"hardsub/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Errorf("expected first requirement available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Errorf("expected missing binary unavailable with detail, got %#v", results[1])
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Errorf("expected unset command flagged, got %#v", results[2])
	}
}

func TestCheckTessdata(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "eng.traineddata"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write trained data: %v", err)
	}

	cfg := config.Default()
	cfg.OCR.TessdataDir = dir
	cfg.OCR.Languages = []string{"eng"}
	if status := CheckTessdata(&cfg); !status.Available {
		t.Errorf("expected available with trained data present, got %#v", status)
	}

	cfg.OCR.Languages = []string{"eng", "jpn"}
	status := CheckTessdata(&cfg)
	if status.Available {
		t.Errorf("expected unavailable with missing language, got %#v", status)
	}
	if status.Detail == "" {
		t.Error("expected detail naming missing language")
	}

	cfg.OCR.TessdataDir = ""
	if status := CheckTessdata(&cfg); !status.Available {
		t.Errorf("expected default lookup to pass, got %#v", status)
	}
}

func TestMissing(t *testing.T) {
	statuses := []Status{
		{Name: "A", Available: true},
		{Name: "B", Available: false},
		{Name: "C", Available: false, Optional: true},
	}
	missing := Missing(statuses)
	if len(missing) != 1 || missing[0].Name != "B" {
		t.Errorf("unexpected missing set: %#v", missing)
	}
}
