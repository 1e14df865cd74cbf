package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Sampling contains frame sampling configuration.
type Sampling struct {
	SampleFPS float64 `toml:"sample_fps"`
}

// ROI contains subtitle region detection configuration.
type ROI struct {
	// Mode is one of "auto", "fixed_bottom", or "manual".
	Mode string `toml:"mode"`
	// Rect is the manual rectangle as [x, y, width, height]. Required when
	// Mode is "manual".
	Rect []int `toml:"rect"`
	// BottomRatio is the fraction of frame height used by the fixed-bottom
	// policy and the auto fallback.
	BottomRatio float64 `toml:"bottom_ratio"`
	// SampleFrames is how many frames the auto policy inspects.
	SampleFrames int `toml:"sample_frames"`
}

// OCR contains recognition engine configuration.
type OCR struct {
	Languages           []string `toml:"languages"`
	ConfidenceThreshold float64  `toml:"confidence_threshold"`
	// MaxPixels and MaxSide cap image size before recognition; larger images
	// are downscaled preserving aspect ratio.
	MaxPixels int `toml:"max_pixels"`
	MaxSide   int `toml:"max_side"`
	// BatchSize bounds how many images are dispatched to the engine per
	// sub-batch.
	BatchSize int `toml:"batch_size"`
	// TimeoutSeconds is the wall-clock limit for a single isolated
	// recognition call.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// IsolateProcess runs each recognition in a killable child process.
	// Defaults to on where the engine is known to hang.
	IsolateProcess *bool `toml:"isolate_process"`
	// TessdataDir overrides the tesseract data directory.
	TessdataDir string `toml:"tessdata_dir"`
}

// Grouping contains similarity and cue post-processing configuration.
type Grouping struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	MinDurationSec      float64 `toml:"min_duration_sec"`
	MaxGapSec           float64 `toml:"max_gap_sec"`
	DedupWindowSec      float64 `toml:"dedup_window_sec"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Runs contains run-history store configuration.
type Runs struct {
	Enabled bool `toml:"enabled"`
}

// Config encapsulates all configuration values for hardsub.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Sampling Sampling `toml:"sampling"`
	ROI      ROI      `toml:"roi"`
	OCR      OCR      `toml:"ocr"`
	Grouping Grouping `toml:"grouping"`
	Logging  Logging  `toml:"logging"`
	Runs     Runs     `toml:"runs"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hardsub/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hardsub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for frame decoding.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for video metadata.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// IsolateOCR reports whether single-image recognition should run in a
// killable child process.
func (c *Config) IsolateOCR() bool {
	if c.OCR.IsolateProcess != nil {
		return *c.OCR.IsolateProcess
	}
	return defaultOCRIsolateProcess
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
