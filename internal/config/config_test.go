package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != missing {
		t.Errorf("resolved = %q, want %q", resolved, missing)
	}
	if cfg.Sampling.SampleFPS != defaultSampleFPS {
		t.Errorf("sample_fps = %v, want default %v", cfg.Sampling.SampleFPS, defaultSampleFPS)
	}
	if cfg.ROI.Mode != "auto" {
		t.Errorf("roi mode = %q, want auto", cfg.ROI.Mode)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
[sampling]
sample_fps = 1.5

[roi]
mode = "Fixed_Bottom"
bottom_ratio = 0.25

[grouping]
similarity_threshold = 0.85
`)
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Sampling.SampleFPS != 1.5 {
		t.Errorf("sample_fps = %v, want 1.5", cfg.Sampling.SampleFPS)
	}
	if cfg.ROI.Mode != "fixed_bottom" {
		t.Errorf("roi mode = %q, want fixed_bottom (normalized)", cfg.ROI.Mode)
	}
	if cfg.ROI.BottomRatio != 0.25 {
		t.Errorf("bottom_ratio = %v, want 0.25", cfg.ROI.BottomRatio)
	}
	if cfg.Grouping.SimilarityThreshold != 0.85 {
		t.Errorf("similarity_threshold = %v, want 0.85", cfg.Grouping.SimilarityThreshold)
	}
}

func TestLoadRejectsUnknownROIMode(t *testing.T) {
	path := writeConfig(t, `
[roi]
mode = "sideways"
`)
	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown roi mode")
	}
	if !strings.Contains(err.Error(), "roi.mode") {
		t.Errorf("error should name roi.mode, got %v", err)
	}
}

func TestLoadRejectsManualWithoutRect(t *testing.T) {
	path := writeConfig(t, `
[roi]
mode = "manual"
`)
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for manual mode without rect")
	}
}

func TestLoadRejectsBadThresholds(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"negative fps", "[sampling]\nsample_fps = -1.0\n"},
		{"confidence above one", "[ocr]\nconfidence_threshold = 1.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.contents)
			if _, _, _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	got, err := ExpandPath("~/videos")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "videos") {
		t.Errorf("ExpandPath = %q", got)
	}
}
