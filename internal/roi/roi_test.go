package roi

import (
	"errors"
	"image"
	"testing"

	"hardsub/internal/logging"
	"hardsub/internal/services"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		value string
		want  Mode
	}{
		{"auto", ModeAuto},
		{"fixed_bottom", ModeFixedBottom},
		{"manual", ModeManual},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.value)
		if err != nil {
			t.Errorf("ParseMode(%q): %v", tt.value, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestParseModeUnknownIsConfigError(t *testing.T) {
	_, err := ParseMode("sideways")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestFixedBottom1080p(t *testing.T) {
	region, err := Locate(Policy{Mode: ModeFixedBottom, BottomRatio: 0.3}, 1920, 1080, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	want := Region{X: 0, Y: 756, Width: 1920, Height: 324, Confidence: 1.0}
	if region != want {
		t.Errorf("region = %+v, want %+v", region, want)
	}
}

func TestManualRegion(t *testing.T) {
	policy := Policy{Mode: ModeManual, Rect: image.Rect(100, 800, 1820, 1000)}
	region, err := Locate(policy, 1920, 1080, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if region.X != 100 || region.Y != 800 || region.Width != 1720 || region.Height != 200 {
		t.Errorf("region = %+v", region)
	}
	if region.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", region.Confidence)
	}
}

func TestManualRegionOutsideFrameFails(t *testing.T) {
	policy := Policy{Mode: ModeManual, Rect: image.Rect(5000, 5000, 6000, 6000)}
	_, err := Locate(policy, 1920, 1080, nil, logging.NewNop())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestAutoFallsBackToBottomBand(t *testing.T) {
	// No sample frames means no candidates; auto must fall back.
	region, err := Locate(Policy{Mode: ModeAuto, BottomRatio: 0.3}, 1920, 1080, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if region.Y != 756 || region.Height != 324 {
		t.Errorf("fallback region = %+v, want bottom 30%% band", region)
	}
}

func TestRegionRect(t *testing.T) {
	region := Region{X: 10, Y: 20, Width: 30, Height: 40}
	want := image.Rect(10, 20, 40, 60)
	if got := region.Rect(); got != want {
		t.Errorf("Rect() = %v, want %v", got, want)
	}
}
