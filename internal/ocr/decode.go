package ocr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// columnarDocument is the dict-of-parallel-arrays result shape: one entry
// per detected span at the same index in each array.
type columnarDocument struct {
	Texts  []string    `json:"texts"`
	Scores []float64   `json:"scores"`
	Boxes  [][]float64 `json:"boxes"`
}

// DecodeResults parses a recognition result document. Two shapes are
// accepted: a columnar object with parallel texts/scores/boxes arrays, and a
// list of [box, [text, score]] pairs. Both normalize to the same []Result.
func DecodeResults(data []byte) ([]Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '{':
		return decodeColumnar(trimmed)
	case '[':
		return decodePairs(trimmed)
	default:
		return nil, fmt.Errorf("unrecognized result document (leading byte %q)", trimmed[0])
	}
}

func decodeColumnar(data []byte) ([]Result, error) {
	var doc columnarDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse columnar results: %w", err)
	}
	if len(doc.Scores) != len(doc.Texts) || len(doc.Boxes) != len(doc.Texts) {
		return nil, fmt.Errorf("columnar results misaligned: %d texts, %d scores, %d boxes",
			len(doc.Texts), len(doc.Scores), len(doc.Boxes))
	}
	results := make([]Result, 0, len(doc.Texts))
	for i, text := range doc.Texts {
		box, err := decodeBox(doc.Boxes[i])
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		results = append(results, Result{Text: text, Confidence: doc.Scores[i], Box: box})
	}
	return results, nil
}

func decodePairs(data []byte) ([]Result, error) {
	var pairs []json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parse paired results: %w", err)
	}
	results := make([]Result, 0, len(pairs))
	for i, raw := range pairs {
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			return nil, fmt.Errorf("result %d: expected [box, [text, score]] pair", i)
		}
		var coords []float64
		if err := json.Unmarshal(pair[0], &coords); err != nil {
			return nil, fmt.Errorf("result %d: parse box: %w", i, err)
		}
		box, err := decodeBox(coords)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		var span []json.RawMessage
		if err := json.Unmarshal(pair[1], &span); err != nil || len(span) != 2 {
			return nil, fmt.Errorf("result %d: expected [text, score]", i)
		}
		var text string
		if err := json.Unmarshal(span[0], &text); err != nil {
			return nil, fmt.Errorf("result %d: parse text: %w", i, err)
		}
		var score float64
		if err := json.Unmarshal(span[1], &score); err != nil {
			return nil, fmt.Errorf("result %d: parse score: %w", i, err)
		}
		results = append(results, Result{Text: text, Confidence: score, Box: box})
	}
	return results, nil
}

func decodeBox(coords []float64) (Box, error) {
	if len(coords) != 4 {
		return Box{}, fmt.Errorf("box has %d coordinates, want 4", len(coords))
	}
	return Box{
		X:      int(math.Round(coords[0])),
		Y:      int(math.Round(coords[1])),
		Width:  int(math.Round(coords[2])),
		Height: int(math.Round(coords[3])),
	}, nil
}

// EncodeResults renders results as the columnar document shape.
func EncodeResults(results []Result) ([]byte, error) {
	doc := columnarDocument{
		Texts:  make([]string, 0, len(results)),
		Scores: make([]float64, 0, len(results)),
		Boxes:  make([][]float64, 0, len(results)),
	}
	for _, r := range results {
		doc.Texts = append(doc.Texts, r.Text)
		doc.Scores = append(doc.Scores, r.Confidence)
		doc.Boxes = append(doc.Boxes, []float64{
			float64(r.Box.X), float64(r.Box.Y),
			float64(r.Box.Width), float64(r.Box.Height),
		})
	}
	return json.Marshal(doc)
}
