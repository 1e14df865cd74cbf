// Package extract orchestrates a full extraction run: probing and sampling
// the video, locating the subtitle region, dispatching frames to the
// recognition adapter on a bounded worker pool, and grouping the results
// into cues. Progress is reported through a callback with weighted phases.
package extract
