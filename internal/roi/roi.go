package roi

import (
	"fmt"
	"image"
	"log/slog"

	"hardsub/internal/logging"
	"hardsub/internal/media/frames"
	"hardsub/internal/services"
)

// Mode selects the region policy.
type Mode int

const (
	ModeAuto Mode = iota
	ModeFixedBottom
	ModeManual
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeFixedBottom:
		return "fixed_bottom"
	case ModeManual:
		return "manual"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a configuration string to a Mode. Unknown names are a
// configuration error, never silently defaulted.
func ParseMode(value string) (Mode, error) {
	switch value {
	case "auto":
		return ModeAuto, nil
	case "fixed_bottom":
		return ModeFixedBottom, nil
	case "manual":
		return ModeManual, nil
	default:
		return 0, services.Wrap(services.ErrConfiguration, "roi", "parse mode", fmt.Sprintf("unknown value %q", value), nil)
	}
}

// Policy is the tagged region-selection variant. BottomRatio applies to
// ModeFixedBottom (and the auto fallback); Rect applies to ModeManual.
type Policy struct {
	Mode        Mode
	BottomRatio float64
	Rect        image.Rectangle
	// SampleFrames bounds how many frames the auto policy inspects.
	SampleFrames int
}

// Region is the resolved subtitle bounding rectangle. Immutable once
// computed for a run; one instance is shared read-only across all
// sampling and recognition calls.
type Region struct {
	X          int
	Y          int
	Width      int
	Height     int
	Confidence float64
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Locate resolves the region for a run. sample provides frames for the auto
// policy and may be empty for the deterministic policies.
func Locate(policy Policy, width, height int, sample []frames.Frame, logger *slog.Logger) (Region, error) {
	log := logging.WithComponent(logger, "roi")
	switch policy.Mode {
	case ModeFixedBottom:
		return fixedBottom(width, height, policy.BottomRatio), nil
	case ModeManual:
		rect := policy.Rect.Intersect(image.Rect(0, 0, width, height))
		if rect.Empty() {
			return Region{}, services.Wrap(services.ErrConfiguration, "roi", "manual", fmt.Sprintf("rectangle %v outside %dx%d frame", policy.Rect, width, height), nil)
		}
		return Region{X: rect.Min.X, Y: rect.Min.Y, Width: rect.Dx(), Height: rect.Dy(), Confidence: 1.0}, nil
	case ModeAuto:
		region, ok := detectAuto(width, height, sample)
		if !ok {
			log.Info("no text-like regions found, falling back to bottom band")
			return fixedBottom(width, height, policy.BottomRatio), nil
		}
		log.Info("detected subtitle region",
			slog.Int("x", region.X), slog.Int("y", region.Y),
			slog.Int("width", region.Width), slog.Int("height", region.Height),
			slog.Float64("confidence", region.Confidence))
		return region, nil
	default:
		return Region{}, services.Wrap(services.ErrConfiguration, "roi", "locate", fmt.Sprintf("unknown mode %v", policy.Mode), nil)
	}
}

func fixedBottom(width, height int, ratio float64) Region {
	if ratio <= 0 || ratio > 1 {
		ratio = 0.3
	}
	bandHeight := int(float64(height) * ratio)
	return Region{
		X:          0,
		Y:          height - bandHeight,
		Width:      width,
		Height:     bandHeight,
		Confidence: 1.0,
	}
}
