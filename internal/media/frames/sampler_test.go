package frames

import (
	"image"
	"testing"
)

func testSampler(width, height int, fps float64, frameCount int64, interval int64) *Sampler {
	return &Sampler{
		ffmpegBinary: "ffmpeg",
		meta:         Metadata{Path: "test.mp4", Width: width, Height: height, FPS: fps, FrameCount: frameCount},
		interval:     interval,
	}
}

func TestCropBottomBand(t *testing.T) {
	s := testSampler(1920, 1080, 30, 900, 10)
	if err := s.CropBottom(0.3); err != nil {
		t.Fatalf("CropBottom: %v", err)
	}
	rect, ok := s.Crop()
	if !ok {
		t.Fatal("expected crop to be set")
	}
	want := image.Rect(0, 756, 1920, 1080)
	if rect != want {
		t.Errorf("crop = %v, want %v", rect, want)
	}
	if rect.Dy() != 324 {
		t.Errorf("band height = %d, want 324", rect.Dy())
	}
}

func TestCropBottomRejectsBadRatio(t *testing.T) {
	s := testSampler(1920, 1080, 30, 900, 10)
	for _, ratio := range []float64{0, -0.5, 1.5} {
		if err := s.CropBottom(ratio); err == nil {
			t.Errorf("CropBottom(%v) should fail", ratio)
		}
	}
}

func TestCropRectClampsToFrame(t *testing.T) {
	s := testSampler(1280, 720, 24, 240, 8)
	if err := s.CropRect(image.Rect(-50, 600, 2000, 900)); err != nil {
		t.Fatalf("CropRect: %v", err)
	}
	rect, _ := s.Crop()
	want := image.Rect(0, 600, 1280, 720)
	if rect != want {
		t.Errorf("crop = %v, want %v", rect, want)
	}
}

func TestCropRectOutsideBoundsFails(t *testing.T) {
	s := testSampler(1280, 720, 24, 240, 8)
	if err := s.CropRect(image.Rect(2000, 2000, 3000, 3000)); err == nil {
		t.Fatal("expected error for rectangle outside frame")
	}
}

func TestSampleCount(t *testing.T) {
	tests := []struct {
		name       string
		frameCount int64
		interval   int64
		want       int64
	}{
		{"even", 900, 10, 90},
		{"remainder", 905, 10, 91},
		{"unknown", 0, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSampler(1920, 1080, 30, tt.frameCount, tt.interval)
			if got := s.SampleCount(); got != tt.want {
				t.Errorf("SampleCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFrameDimsFollowCrop(t *testing.T) {
	s := testSampler(1920, 1080, 30, 900, 10)
	w, h := s.frameDims()
	if w != 1920 || h != 1080 {
		t.Errorf("uncropped dims = %dx%d", w, h)
	}
	if err := s.CropBottom(0.3); err != nil {
		t.Fatalf("CropBottom: %v", err)
	}
	w, h = s.frameDims()
	if w != 1920 || h != 324 {
		t.Errorf("cropped dims = %dx%d, want 1920x324", w, h)
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := testSampler(1920, 1080, 30, 900, 10)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
