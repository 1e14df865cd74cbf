package ocr

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"math"
	"time"

	"golang.org/x/image/draw"

	"hardsub/internal/logging"
	"hardsub/internal/services"
)

// minDimension rejects images the engine is known to mishandle.
const minDimension = 10

// Options configure the adapter's safety limits.
type Options struct {
	// ConfidenceThreshold drops recognitions below this value.
	ConfidenceThreshold float64
	// MaxPixels and MaxSide trigger aspect-preserving downscales.
	MaxPixels int
	MaxSide   int
	// BatchSize splits large inputs into sequential sub-batches so peak
	// memory stays bounded regardless of caller-supplied volume.
	BatchSize int
	// Timeout bounds one isolated recognition call.
	Timeout time.Duration
	// Isolate escalates single-image calls to a killable child process.
	Isolate bool
	// WorkerArgs is the self-exec command line for the isolated worker.
	WorkerArgs []string
}

// Adapter is the memory-safe dispatch layer between arbitrary caller images
// and the recognition engine.
type Adapter struct {
	engine Engine
	opts   Options
	logger *slog.Logger
}

// NewAdapter wraps an engine with the configured safety limits.
func NewAdapter(engine Engine, opts Options, logger *slog.Logger) *Adapter {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}
	return &Adapter{
		engine: engine,
		opts:   opts,
		logger: logging.WithComponent(logger, "ocr"),
	}
}

// Identity returns the wrapped engine's description.
func (a *Adapter) Identity() string {
	return a.engine.Identity()
}

// Extract recognizes text in a single image. Degenerate or unusable images
// yield an empty result, never an error; the only errors surfaced are
// timeouts (so the caller can decide whether to retry with smaller input)
// and cancellation.
func (a *Adapter) Extract(ctx context.Context, img image.Image) ([]Result, error) {
	normalized, ok := a.sanitize(img)
	if !ok {
		return nil, nil
	}

	results, err := a.recognize(ctx, normalized)
	switch {
	case err == nil:
		return a.filter(results), nil
	case errors.Is(err, services.ErrTimeout), services.Cancelled(err):
		return nil, err
	default:
		// A single bad frame must never abort the batch.
		a.logger.Warn("recognition failed for frame", logging.Error(err))
		return nil, nil
	}
}

// ExtractBatch recognizes text in a slice of images, preserving order. The
// input is split into sequential sub-batches of the configured size. A
// failed image produces an empty slot; only timeout and cancellation abort.
func (a *Adapter) ExtractBatch(ctx context.Context, images []image.Image) ([][]Result, error) {
	out := make([][]Result, 0, len(images))
	for start := 0; start < len(images); start += a.opts.BatchSize {
		end := min(start+a.opts.BatchSize, len(images))
		for _, img := range images[start:end] {
			results, err := a.Extract(ctx, img)
			if err != nil {
				return nil, err
			}
			out = append(out, results)
		}
	}
	return out, nil
}

// ExtractSeq recognizes text from a lazy image source, invoking emit per
// image. next returns nil when the sequence ends. This is the uniform batch
// path the other input shapes normalize to.
func (a *Adapter) ExtractSeq(ctx context.Context, next func() image.Image, emit func([]Result) error) error {
	for {
		img := next()
		if img == nil {
			return nil
		}
		results, err := a.Extract(ctx, img)
		if err != nil {
			return err
		}
		if err := emit(results); err != nil {
			return err
		}
	}
}

func (a *Adapter) recognize(ctx context.Context, img *image.RGBA) ([]Result, error) {
	if !a.opts.Isolate {
		if a.opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
			defer cancel()
		}
		return a.engine.Recognize(ctx, img)
	}

	results, err := recognizeIsolated(ctx, a.opts.WorkerArgs, img, a.opts.Timeout)
	if errors.Is(err, services.ErrTimeout) {
		// The child was killed mid-call; the shared engine state cannot be
		// trusted, so the handle is invalidated and rebuilt on next use.
		// The call is not retried in-process: that risks re-triggering the
		// same hang.
		a.engine.Invalidate()
		return nil, err
	}
	return results, err
}

// sanitize normalizes any caller image to a contiguous RGBA raster and
// rejects input the engine is known to crash on: nil, zero area, degenerate
// dimensions. Oversized images are downscaled preserving aspect ratio.
func (a *Adapter) sanitize(img image.Image) (*image.RGBA, bool) {
	if img == nil {
		return nil, false
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < minDimension || height < minDimension {
		return nil, false
	}

	scale := a.downscaleFactor(width, height)
	if scale < 1 {
		width = int(math.Floor(float64(width) * scale))
		height = int(math.Floor(float64(height) * scale))
		if width < minDimension || height < minDimension {
			return nil, false
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		a.logger.Debug("downscaled oversized frame",
			slog.Int("width", width), slog.Int("height", height))
		return dst, true
	}

	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*width {
		return rgba, true
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst, true
}

// downscaleFactor returns the scale (<1) needed to satisfy both the pixel
// count and longest-side ceilings, or 1 when the image already fits.
func (a *Adapter) downscaleFactor(width, height int) float64 {
	scale := 1.0
	if a.opts.MaxPixels > 0 {
		if pixels := width * height; pixels > a.opts.MaxPixels {
			scale = math.Sqrt(float64(a.opts.MaxPixels) / float64(pixels))
		}
	}
	if a.opts.MaxSide > 0 {
		longest := max(width, height)
		if longest > a.opts.MaxSide {
			scale = math.Min(scale, float64(a.opts.MaxSide)/float64(longest))
		}
	}
	return scale
}

func (a *Adapter) filter(results []Result) []Result {
	out := results[:0]
	for _, r := range results {
		if r.Confidence < 0 || r.Confidence < a.opts.ConfidenceThreshold {
			continue
		}
		out = append(out, r)
	}
	return out
}
