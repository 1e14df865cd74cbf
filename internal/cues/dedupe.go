package cues

import "sort"

// mergeShortCues joins cues shorter than the minimum duration with a close
// neighbor, preferring the following cue, and stretches cues that have no
// neighbor within the allowed gap.
func (g Grouper) mergeShortCues(cues []Cue) []Cue {
	if len(cues) == 0 {
		return nil
	}

	var merged []Cue
	for i := 0; i < len(cues); i++ {
		current := cues[i]
		if current.DurationMS() >= g.MinDurationMS {
			merged = append(merged, current)
			continue
		}

		if i+1 < len(cues) && cues[i+1].StartMS-current.EndMS <= g.MaxGapMS {
			next := cues[i+1]
			merged = append(merged, Cue{
				Index:   current.Index,
				StartMS: current.StartMS,
				EndMS:   next.EndMS,
				Text:    current.Text + " " + next.Text,
				Box:     current.Box,
			})
			i++
			continue
		}

		if len(merged) > 0 && current.StartMS-merged[len(merged)-1].EndMS <= g.MaxGapMS {
			prev := merged[len(merged)-1]
			merged[len(merged)-1] = Cue{
				Index:   prev.Index,
				StartMS: prev.StartMS,
				EndMS:   current.EndMS,
				Text:    prev.Text + " " + current.Text,
				Box:     prev.Box,
			}
			continue
		}

		current.EndMS = current.StartMS + g.MinDurationMS
		merged = append(merged, current)
	}
	return merged
}

// Deduper removes repeated cues the grouping pass could not see: the same
// subtitle re-recognized after an interruption, and cues that overlap in
// time with near-identical text.
type Deduper struct {
	// SimilarityThreshold joins chained duplicates above this score.
	SimilarityThreshold float64
	// WindowMS bounds how far ahead chained duplicates are absorbed.
	WindowMS int64
}

// Cues that overlap in time merge at this lower bar; the time overlap
// itself is strong evidence they show the same subtitle.
const overlapSimilarity = 0.80

// Dedup merges duplicates, sorts by start time, and renumbers. The input
// slice is not modified.
func (d Deduper) Dedup(cues []Cue) []Cue {
	if len(cues) == 0 {
		return nil
	}

	ordered := make([]Cue, len(cues))
	copy(ordered, cues)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartMS < ordered[j].StartMS
	})

	out := d.mergeOverlapping(d.mergeChains(ordered))
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartMS < out[j].StartMS
	})
	Renumber(out)
	return out
}

// mergeChains absorbs later cues that match any member of the growing
// group within the window. Matching against every member, not just the
// seed, catches chains where each cue resembles its neighbor but drift
// accumulates across the run.
func (d Deduper) mergeChains(cues []Cue) []Cue {
	absorbed := make([]bool, len(cues))
	var merged []Cue

	for i := range cues {
		if absorbed[i] {
			continue
		}
		group := []Cue{cues[i]}

		for j := i + 1; j < len(cues); j++ {
			if absorbed[j] {
				continue
			}
			if cues[j].StartMS-cues[i].EndMS > d.WindowMS {
				break
			}
			for _, member := range group {
				if Similarity(member.Text, cues[j].Text) > d.SimilarityThreshold {
					group = append(group, cues[j])
					absorbed[j] = true
					break
				}
			}
		}

		merged = append(merged, mergeGroup(group))
	}
	return merged
}

// mergeGroup spans the earliest start to the latest end, keeping the first
// cue's text and box.
func mergeGroup(group []Cue) Cue {
	out := group[0]
	for _, c := range group[1:] {
		out.StartMS = min(out.StartMS, c.StartMS)
		out.EndMS = max(out.EndMS, c.EndMS)
	}
	return out
}

// mergeOverlapping folds time-overlapping near-duplicates into one cue
// covering the combined range, keeping the longer text.
func (d Deduper) mergeOverlapping(cues []Cue) []Cue {
	var merged []Cue
	for _, cue := range cues {
		folded := false
		for i, existing := range merged {
			if !cue.Overlaps(existing) {
				continue
			}
			if Similarity(cue.Text, existing.Text) <= overlapSimilarity {
				continue
			}
			combined := existing
			combined.StartMS = min(existing.StartMS, cue.StartMS)
			combined.EndMS = max(existing.EndMS, cue.EndMS)
			if len(cue.Text) > len(existing.Text) {
				combined.Text = cue.Text
			}
			merged[i] = combined
			folded = true
			break
		}
		if !folded {
			merged = append(merged, cue)
		}
	}
	return merged
}
