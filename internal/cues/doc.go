// Package cues turns per-frame recognition results into subtitle cues. It
// scores text similarity with recognition-error tolerance, groups adjacent
// frames showing the same text, reconstructs two-line subtitles from box
// positions, and cleans the cue list with merge and dedup passes.
package cues
