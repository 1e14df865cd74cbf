// Package ocr wraps a native text-recognition engine behind a crash and
// leak resistant boundary. The adapter normalizes arbitrary caller images to
// a fixed pixel format, rejects degenerate input, downscales oversized
// frames before they can trigger unbounded allocations inside the engine,
// splits large batches, and (where the engine is known to hang) escalates
// single-image calls to a killable child process with a hard wall-clock
// timeout.
package ocr
