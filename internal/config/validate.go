package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSampling(); err != nil {
		return err
	}
	if err := c.validateROI(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validateGrouping(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSampling() error {
	if c.Sampling.SampleFPS <= 0 {
		return errors.New("sampling.sample_fps must be positive")
	}
	return nil
}

func (c *Config) validateROI() error {
	switch c.ROI.Mode {
	case "auto", "fixed_bottom":
	case "manual":
		if len(c.ROI.Rect) != 4 {
			return errors.New("roi.rect must be [x, y, width, height] when roi.mode is manual")
		}
		if c.ROI.Rect[2] <= 0 || c.ROI.Rect[3] <= 0 {
			return errors.New("roi.rect width and height must be positive")
		}
		if c.ROI.Rect[0] < 0 || c.ROI.Rect[1] < 0 {
			return errors.New("roi.rect origin must not be negative")
		}
	default:
		return fmt.Errorf("roi.mode: unknown value %q (expected auto, fixed_bottom, or manual)", c.ROI.Mode)
	}
	return nil
}

func (c *Config) validateOCR() error {
	if c.OCR.ConfidenceThreshold < 0 || c.OCR.ConfidenceThreshold > 1 {
		return errors.New("ocr.confidence_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateGrouping() error {
	if c.Grouping.SimilarityThreshold < 0 || c.Grouping.SimilarityThreshold > 1 {
		return errors.New("grouping.similarity_threshold must be between 0 and 1")
	}
	return nil
}
