// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"hardsub/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.ROI.Mode = "fixed_bottom"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithROIMode overrides the region policy mode on the test config.
func WithROIMode(mode string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.ROI.Mode = mode
	}
}

// WithLanguages overrides the recognition languages on the test config.
func WithLanguages(languages ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.OCR.Languages = languages
	}
}
