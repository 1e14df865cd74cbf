package cues

import (
	"strings"

	"hardsub/internal/ocr"
)

// Cue is one subtitle entry: a contiguous time range and its text.
type Cue struct {
	Index   int     `json:"index"`
	StartMS int64   `json:"start_ms"`
	EndMS   int64   `json:"end_ms"`
	Text    string  `json:"text"`
	Box     ocr.Box `json:"box"`
}

// DurationMS returns the cue's display duration.
func (c Cue) DurationMS() int64 {
	return c.EndMS - c.StartMS
}

// Overlaps reports whether two cues share any display time.
func (c Cue) Overlaps(other Cue) bool {
	return c.StartMS < other.EndMS && c.EndMS > other.StartMS
}

// FrameResult holds all recognized spans of one sampled frame.
type FrameResult struct {
	FrameNumber int64
	TimestampMS int64
	Results     []ocr.Result
}

// BestText returns the highest-confidence span's text, or "" when the
// frame produced nothing.
func (f FrameResult) BestText() string {
	best := ""
	bestConfidence := -1.0
	for _, r := range f.Results {
		if r.Confidence > bestConfidence {
			best = r.Text
			bestConfidence = r.Confidence
		}
	}
	return best
}

// AverageConfidence returns the mean confidence over the frame's spans.
func (f FrameResult) AverageConfidence() float64 {
	if len(f.Results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range f.Results {
		sum += r.Confidence
	}
	return sum / float64(len(f.Results))
}

// boundingBox returns the union of all span boxes in the frame.
func (f FrameResult) boundingBox() ocr.Box {
	var box ocr.Box
	for _, r := range f.Results {
		box = box.Union(r.Box)
	}
	return box
}

func (f FrameResult) empty() bool {
	return strings.TrimSpace(f.BestText()) == ""
}
