package cues

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Recognition engines routinely swap visually close glyphs. The replacements
// run in order on both inputs, which collapses each confusable pair onto one
// canonical form before comparison.
var confusablePairs = []struct{ from, to string }{
	{"シヤ", "シャ"},
	{"シユ", "シュ"},
	{"シヨ", "ショ"},
	{"チヤ", "チャ"},
	{"チユ", "チュ"},
	{"チヨ", "チョ"},
	{"ロ", "口"},
	{"口", "ロ"},
	{"ニ", "コ"},
	{"コ", "ニ"},
	{"0", "O"},
	{"O", "0"},
	{"1", "l"},
	{"l", "1"},
	{"I", "1"},
}

const (
	// Below this length ratio two strings are never the same subtitle.
	lengthRatioGate = 0.7
	// Strings within two edits and comparable length score at least this,
	// keeping near-identical recognitions above the grouping threshold.
	nearMatchFloor    = 0.92
	nearMatchMaxEdits = 2
	nearMatchMinRatio = 0.9
)

// Similarity scores two raw texts in [0, 1]. The comparison is symmetric
// and tolerant of recognition noise: width and case are folded, punctuation
// and whitespace are dropped, and confusable glyphs are canonicalized
// before an edit-distance comparison.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	na := normalizeText(a)
	nb := normalizeText(b)
	if na == nb {
		return 1
	}
	return editSimilarity(na, nb)
}

// normalizeText folds the representation differences that recognition
// output shuffles freely: fullwidth versus halfwidth forms, letter case,
// sentence punctuation, and whitespace placement.
func normalizeText(text string) string {
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case '。', '、', '．', '，':
			return -1
		}
		return r
	}, text)
	folded := width.Fold.String(stripped)
	lowered := strings.ToLower(folded)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, lowered)
}

func editSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	runesA := []rune(a)
	runesB := []rune(b)

	shorter, longer := len(runesA), len(runesB)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	lengthRatio := float64(shorter) / float64(longer)
	if lengthRatio < lengthRatioGate {
		return 0
	}

	ca := canonicalize(a)
	cb := canonicalize(b)
	if ca == cb {
		return 1
	}

	distance := levenshtein([]rune(ca), []rune(cb))
	maxLen := max(len([]rune(ca)), len([]rune(cb)))
	if maxLen == 0 {
		return 1
	}
	similarity := 1 - float64(distance)/float64(maxLen)

	if distance <= nearMatchMaxEdits && lengthRatio >= nearMatchMinRatio {
		similarity = max(similarity, nearMatchFloor)
	}
	return similarity
}

func canonicalize(text string) string {
	for _, pair := range confusablePairs {
		text = strings.ReplaceAll(text, pair.from, pair.to)
	}
	return text
}

// levenshtein computes the edit distance between two rune slices with a
// single rolling row.
func levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	previous := make([]int, len(b)+1)
	current := make([]int, len(b)+1)
	for j := range previous {
		previous[j] = j
	}
	for i, ra := range a {
		current[0] = i + 1
		for j, rb := range b {
			cost := 0
			if ra != rb {
				cost = 1
			}
			current[j+1] = min(previous[j+1]+1, current[j]+1, previous[j]+cost)
		}
		previous, current = current, previous
	}
	return previous[len(b)]
}
