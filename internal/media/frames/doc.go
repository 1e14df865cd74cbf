// Package frames decodes video into a lazy sequence of sampled frames via
// ffmpeg. Frames are spaced at a fixed native-frame interval derived from the
// target sampling rate, and timestamps are computed from native frame indices
// so timing stays accurate regardless of sampling density. An optional crop
// restricts every emitted frame to a subtitle band before it leaves the
// decoder.
package frames
