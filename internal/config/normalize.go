package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeROI()
	c.normalizeOCR()
	c.normalizeGrouping()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeROI() {
	c.ROI.Mode = strings.ToLower(strings.TrimSpace(c.ROI.Mode))
	if c.ROI.Mode == "" {
		c.ROI.Mode = defaultROIMode
	}
	if c.ROI.BottomRatio <= 0 || c.ROI.BottomRatio > 1 {
		c.ROI.BottomRatio = defaultBottomRatio
	}
	if c.ROI.SampleFrames <= 0 {
		c.ROI.SampleFrames = defaultSampleFrames
	}
}

func (c *Config) normalizeOCR() {
	if len(c.OCR.Languages) == 0 {
		c.OCR.Languages = []string{"eng"}
	}
	for i, lang := range c.OCR.Languages {
		c.OCR.Languages[i] = strings.ToLower(strings.TrimSpace(lang))
	}
	if c.OCR.MaxPixels <= 0 {
		c.OCR.MaxPixels = defaultOCRMaxPixels
	}
	if c.OCR.MaxSide <= 0 {
		c.OCR.MaxSide = defaultOCRMaxSide
	}
	if c.OCR.BatchSize <= 0 {
		c.OCR.BatchSize = defaultOCRBatchSize
	}
	if c.OCR.TimeoutSeconds <= 0 {
		c.OCR.TimeoutSeconds = defaultOCRTimeoutSeconds
	}
}

func (c *Config) normalizeGrouping() {
	if c.Grouping.SimilarityThreshold <= 0 {
		c.Grouping.SimilarityThreshold = defaultSimilarityThreshold
	}
	if c.Grouping.MinDurationSec <= 0 {
		c.Grouping.MinDurationSec = defaultMinDurationSec
	}
	if c.Grouping.MaxGapSec <= 0 {
		c.Grouping.MaxGapSec = defaultMaxGapSec
	}
	if c.Grouping.DedupWindowSec <= 0 {
		c.Grouping.DedupWindowSec = defaultDedupWindowSec
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
