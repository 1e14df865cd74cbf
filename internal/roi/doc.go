// Package roi determines the subtitle bounding region for an extraction run.
// Three policies exist: a deterministic bottom band, a caller-supplied
// rectangle, and automatic detection that inspects a handful of frames for
// text-like blobs and clusters them by vertical position.
package roi
