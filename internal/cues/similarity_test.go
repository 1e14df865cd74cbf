package cues

import "testing"

func TestSimilarityIdentityAndEmpty(t *testing.T) {
	if got := Similarity("hello world", "hello world"); got != 1 {
		t.Errorf("identical texts scored %v, want 1", got)
	}
	if got := Similarity("", "hello"); got != 0 {
		t.Errorf("empty operand scored %v, want 0", got)
	}
	if got := Similarity("hello", ""); got != 0 {
		t.Errorf("empty operand scored %v, want 0", got)
	}
	if got := Similarity("", ""); got != 0 {
		t.Errorf("two empty texts scored %v, want 0", got)
	}
}

func TestSimilarityIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"hello world", "hello worlc"},
		{"短い字幕です", "短い字幕だよ"},
		{"abc", "abcdefghij"},
		{"ロボット", "口ボット"},
	}
	for _, pair := range pairs {
		ab := Similarity(pair[0], pair[1])
		ba := Similarity(pair[1], pair[0])
		if ab != ba {
			t.Errorf("Similarity(%q, %q) = %v but reversed = %v", pair[0], pair[1], ab, ba)
		}
	}
}

func TestSimilarityNormalization(t *testing.T) {
	cases := []struct {
		name string
		a, b string
	}{
		{"case folds", "HELLO WORLD", "hello world"},
		{"fullwidth folds", "ＨＥＬＬＯ１２３", "hello123"},
		{"whitespace ignored", "hello   world", "helloworld"},
		{"sentence punctuation ignored", "こんにちは。世界、", "こんにちは世界"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Similarity(tc.a, tc.b); got != 1 {
				t.Errorf("Similarity(%q, %q) = %v, want 1", tc.a, tc.b, got)
			}
		})
	}
}

func TestSimilarityConfusablesCanonicalize(t *testing.T) {
	exact := [][2]string{
		{"ロボット", "口ボット"},
		{"シヤワー", "シャワー"},
		{"コンビニ", "ニンビコ"},
	}
	for _, pair := range exact {
		if got := Similarity(pair[0], pair[1]); got != 1 {
			t.Errorf("Similarity(%q, %q) = %v, want 1", pair[0], pair[1], got)
		}
	}

	// Digit and letter confusions survive as near matches.
	near := [][2]string{
		{"room 100", "room 1OO"},
		{"hell0 there", "hello there"},
	}
	for _, pair := range near {
		if got := Similarity(pair[0], pair[1]); got < 0.92 {
			t.Errorf("Similarity(%q, %q) = %v, want >= 0.92", pair[0], pair[1], got)
		}
	}
}

func TestSimilarityLengthRatioGate(t *testing.T) {
	if got := Similarity("abc", "abcdefghij"); got != 0 {
		t.Errorf("very different lengths scored %v, want 0", got)
	}
}

func TestSimilarityNearMatchFloor(t *testing.T) {
	// One substitution in ten characters scores 0.9 by edit distance alone;
	// the near-match floor lifts it above the grouping threshold.
	got := Similarity("hello world", "hello worsd")
	if got < 0.92 {
		t.Errorf("near-identical texts scored %v, want >= 0.92", got)
	}
}

func TestSimilarityDistantTextsScoreLow(t *testing.T) {
	got := Similarity("completely different", "nothing in common ok")
	if got >= 0.9 {
		t.Errorf("unrelated texts scored %v, want < 0.9", got)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"abc", "abc", 0},
		{"字幕テスト", "字幕テヌト", 1},
	}
	for _, tc := range cases {
		if got := levenshtein([]rune(tc.a), []rune(tc.b)); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
