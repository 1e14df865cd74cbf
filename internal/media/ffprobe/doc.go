// Package ffprobe shells out to ffprobe for video metadata: frame rate,
// frame count, dimensions, and duration. The pipeline uses it for ETA
// estimation and ROI scaling before any frame is decoded.
package ffprobe
