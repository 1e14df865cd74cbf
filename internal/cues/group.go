package cues

import (
	"regexp"
	"sort"
	"strings"

	"hardsub/internal/ocr"
)

// Grouper collapses per-frame recognition results into subtitle cues.
type Grouper struct {
	// SimilarityThreshold joins adjacent frames into one cue at or above
	// this score.
	SimilarityThreshold float64
	// MinDurationMS stretches or merges cues displayed shorter than this.
	MinDurationMS int64
	// MaxGapMS bounds the silence bridged when merging short cues. Frame
	// grouping tolerates up to three times this gap, since consecutive
	// samples of one subtitle sit further apart at low sampling rates.
	MaxGapMS int64
}

// Group converts frame results into renumbered subtitle cues. Frames with
// no usable text are dropped; the rest are grouped run-by-run on text
// similarity and time adjacency.
func (g Grouper) Group(frames []FrameResult) []Cue {
	if len(frames) == 0 {
		return nil
	}

	ordered := make([]FrameResult, len(frames))
	copy(ordered, frames)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TimestampMS < ordered[j].TimestampMS
	})

	valid := ordered[:0]
	for _, f := range ordered {
		if !f.empty() {
			valid = append(valid, f)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	var out []Cue
	for _, run := range g.groupRuns(valid) {
		if cue, ok := g.buildCue(run); ok {
			out = append(out, cue)
		}
	}

	out = g.mergeShortCues(out)
	Renumber(out)
	return out
}

// groupRuns splits the frames into maximal runs of similar, time-adjacent
// text.
func (g Grouper) groupRuns(frames []FrameResult) [][]FrameResult {
	var runs [][]FrameResult
	current := []FrameResult{frames[0]}

	for i := 1; i < len(frames); i++ {
		prev := frames[i-1]
		next := frames[i]

		similarity := Similarity(next.BestText(), prev.BestText())
		gap := next.TimestampMS - prev.TimestampMS

		if similarity >= g.SimilarityThreshold && gap <= g.MaxGapMS*3 {
			current = append(current, next)
			continue
		}
		runs = append(runs, current)
		current = []FrameResult{next}
	}
	return append(runs, current)
}

func (g Grouper) buildCue(run []FrameResult) (Cue, bool) {
	if len(run) == 0 {
		return Cue{}, false
	}

	start := run[0].TimestampMS
	end := run[len(run)-1].TimestampMS
	if end-start < g.MinDurationMS {
		end = start + g.MinDurationMS
	}

	text := CleanText(bestRunText(run))
	if strings.TrimSpace(text) == "" {
		return Cue{}, false
	}

	return Cue{
		StartMS: start,
		EndMS:   end,
		Text:    text,
		Box:     run[0].boundingBox(),
	}, true
}

// bestRunText picks the text for a run: the frame with the highest mean
// confidence is reconstructed into lines; if that yields nothing the
// highest-confidence single text in the run wins.
func bestRunText(run []FrameResult) string {
	best := run[0]
	for _, f := range run[1:] {
		if f.AverageConfidence() > best.AverageConfidence() {
			best = f
		}
	}

	if text := reconstructLines(best); text != "" {
		return text
	}

	text := ""
	confidence := -1.0
	for _, f := range run {
		if t := f.BestText(); strings.TrimSpace(t) != "" && f.AverageConfidence() > confidence {
			text = t
			confidence = f.AverageConfidence()
		}
	}
	return text
}

// reconstructLines rebuilds a two-line subtitle from the frame's span
// positions. Spans are clustered by vertical center; the top two clusters
// become lines, each read left to right.
func reconstructLines(frame FrameResult) string {
	if len(frame.Results) <= 1 {
		return frame.BestText()
	}

	spans := make([]ocr.Result, len(frame.Results))
	copy(spans, frame.Results)
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Box.Y < spans[j].Box.Y
	})

	lines := clusterByLine(spans)
	if len(lines) < 2 {
		return frame.BestText()
	}

	top := joinLine(lines[0])
	bottom := joinLine(lines[1])
	if top == "" || bottom == "" {
		return frame.BestText()
	}
	return top + "\n" + bottom
}

// clusterByLine groups vertically sorted spans into lines. A span joins the
// current line when its center sits within half its own height of the
// line's anchor.
func clusterByLine(spans []ocr.Result) [][]ocr.Result {
	var lines [][]ocr.Result
	current := []ocr.Result{spans[0]}
	anchorY := spans[0].Box.CenterY()

	for _, span := range spans[1:] {
		centerY := span.Box.CenterY()
		threshold := span.Box.Height / 2

		if abs(centerY-anchorY) <= threshold {
			current = append(current, span)
			continue
		}
		lines = append(lines, current)
		current = []ocr.Result{span}
		anchorY = centerY
	}
	return append(lines, current)
}

func joinLine(spans []ocr.Result) string {
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Box.X < spans[j].Box.X
	})
	parts := make([]string, 0, len(spans))
	for _, span := range spans {
		if t := strings.TrimSpace(span.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Newlines separate reconstructed subtitle lines and survive the strip.
var controlRunes = regexp.MustCompile(`[\x00-\x09\x0b-\x1f\x7f-\x9f]`)

// CleanText strips control characters and collapses runs of four or more
// identical characters, which recognition produces on textured backgrounds.
func CleanText(text string) string {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return ""
	}
	cleaned = controlRunes.ReplaceAllString(cleaned, "")
	return collapseRepeats(cleaned, 4)
}

// collapseRepeats shrinks any run of limit or more identical runes to one.
func collapseRepeats(text string, limit int) string {
	runes := []rune(text)
	var out []rune
	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		if j-i >= limit {
			out = append(out, runes[i])
		} else {
			out = append(out, runes[i:j]...)
		}
		i = j
	}
	return string(out)
}

// Renumber assigns contiguous 1-based indices in slice order.
func Renumber(cues []Cue) {
	for i := range cues {
		cues[i].Index = i + 1
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
