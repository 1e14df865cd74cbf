package cues

import (
	"testing"

	"hardsub/internal/ocr"
)

func testGrouper() Grouper {
	return Grouper{
		SimilarityThreshold: 0.90,
		MinDurationMS:       1200,
		MaxGapMS:            500,
	}
}

func frameAt(ts int64, text string, confidence float64) FrameResult {
	return FrameResult{
		TimestampMS: ts,
		Results: []ocr.Result{
			{Text: text, Confidence: confidence, Box: ocr.Box{X: 100, Y: 700, Width: 400, Height: 40}},
		},
	}
}

func TestGroupJoinsAdjacentSimilarFrames(t *testing.T) {
	g := testGrouper()
	cues := g.Group([]FrameResult{
		frameAt(0, "hello world", 0.9),
		frameAt(1000, "hello world", 0.95),
		frameAt(2000, "hello worlc", 0.85), // one recognition slip
	})
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d: %+v", len(cues), cues)
	}
	cue := cues[0]
	if cue.StartMS != 0 || cue.EndMS != 2000 {
		t.Errorf("cue spans [%d, %d], want [0, 2000]", cue.StartMS, cue.EndMS)
	}
	if cue.Text != "hello world" {
		t.Errorf("cue text %q, want highest-confidence frame's text", cue.Text)
	}
	if cue.Index != 1 {
		t.Errorf("cue index %d, want 1", cue.Index)
	}
}

func TestGroupSplitsOnLargeTimeGap(t *testing.T) {
	g := testGrouper()
	// Same text, but the gap exceeds three times the merge gap.
	cues := g.Group([]FrameResult{
		frameAt(0, "hello world", 0.9),
		frameAt(5000, "hello world", 0.9),
	})
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d: %+v", len(cues), cues)
	}
	if cues[0].StartMS != 0 || cues[1].StartMS != 5000 {
		t.Errorf("unexpected cue starts: %+v", cues)
	}
}

func TestGroupSplitsOnDifferentText(t *testing.T) {
	g := testGrouper()
	cues := g.Group([]FrameResult{
		frameAt(0, "first subtitle line", 0.9),
		frameAt(1000, "totally other words", 0.9),
	})
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d: %+v", len(cues), cues)
	}
}

func TestGroupEnforcesMinimumDuration(t *testing.T) {
	g := testGrouper()
	cues := g.Group([]FrameResult{frameAt(10000, "blink and miss it", 0.9)})
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if got := cues[0].DurationMS(); got != g.MinDurationMS {
		t.Errorf("short cue duration %d, want stretched to %d", got, g.MinDurationMS)
	}
}

func TestGroupDropsEmptyFrames(t *testing.T) {
	g := testGrouper()
	cues := g.Group([]FrameResult{
		{TimestampMS: 0},
		frameAt(1000, "   ", 0.9),
	})
	if len(cues) != 0 {
		t.Errorf("expected no cues from empty frames, got %+v", cues)
	}
	if got := g.Group(nil); got != nil {
		t.Errorf("expected nil for no input, got %+v", got)
	}
}

func TestGroupSortsUnorderedFrames(t *testing.T) {
	g := testGrouper()
	cues := g.Group([]FrameResult{
		frameAt(1000, "hello world", 0.9),
		frameAt(0, "hello world", 0.9),
	})
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].StartMS != 0 {
		t.Errorf("cue starts at %d, want 0", cues[0].StartMS)
	}
}

func TestGroupIndicesAreContiguous(t *testing.T) {
	g := testGrouper()
	cues := g.Group([]FrameResult{
		frameAt(0, "first subtitle line", 0.9),
		frameAt(5000, "second subtitle line", 0.9),
		frameAt(10000, "third subtitle line", 0.9),
	})
	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(cues))
	}
	for i, cue := range cues {
		if cue.Index != i+1 {
			t.Errorf("cue %d has index %d, want %d", i, cue.Index, i+1)
		}
	}
}

func TestReconstructLinesBuildsTwoLines(t *testing.T) {
	frame := FrameResult{
		TimestampMS: 0,
		Results: []ocr.Result{
			{Text: "world", Confidence: 0.9, Box: ocr.Box{X: 200, Y: 100, Width: 120, Height: 30}},
			{Text: "hello", Confidence: 0.9, Box: ocr.Box{X: 10, Y: 103, Width: 120, Height: 30}},
			{Text: "second line", Confidence: 0.9, Box: ocr.Box{X: 50, Y: 200, Width: 260, Height: 30}},
		},
	}
	if got := reconstructLines(frame); got != "hello world\nsecond line" {
		t.Errorf("reconstructLines = %q", got)
	}
}

func TestReconstructLinesSingleSpanPassesThrough(t *testing.T) {
	frame := frameAt(0, "only line", 0.9)
	if got := reconstructLines(frame); got != "only line" {
		t.Errorf("reconstructLines = %q, want %q", got, "only line")
	}
}

func TestReconstructLinesSameLineStaysSingle(t *testing.T) {
	frame := FrameResult{
		Results: []ocr.Result{
			{Text: "hello", Confidence: 0.9, Box: ocr.Box{X: 10, Y: 100, Width: 120, Height: 30}},
			{Text: "world", Confidence: 0.8, Box: ocr.Box{X: 200, Y: 102, Width: 120, Height: 30}},
		},
	}
	// One vertical cluster: falls back to the best single span.
	if got := reconstructLines(frame); got != "hello" {
		t.Errorf("reconstructLines = %q, want %q", got, "hello")
	}
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"trims", "  hello  ", "hello"},
		{"strips control characters", "hel\x00lo\x1f", "hello"},
		{"keeps line break", "hello\nworld", "hello\nworld"},
		{"collapses long repeats", "noooooo way", "no way"},
		{"keeps short repeats", "sooo", "sooo"},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanText(tc.in); got != tc.want {
				t.Errorf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
