package ocr

import (
	"context"
	"image"
)

// Engine is the opaque recognition backend contract: text, confidence, and
// a bounding box per detected span. Implementations are not assumed safe
// for concurrent use; the adapter serializes access.
type Engine interface {
	// Recognize runs text recognition on a normalized RGBA image.
	Recognize(ctx context.Context, img *image.RGBA) ([]Result, error)
	// Identity describes the engine and its configuration for diagnostics.
	Identity() string
	// Invalidate marks the engine handle unusable, forcing reinitialization
	// on the next Recognize. Called after a collaborating process was
	// forcibly killed, since internal engine state cannot be trusted then.
	Invalidate()
	// Close releases engine resources.
	Close() error
}
