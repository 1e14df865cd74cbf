package services

import (
	"context"
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(ErrFileOpen, "sampler", "open", "cannot read video", base)
	if !errors.Is(err, ErrFileOpen) {
		t.Fatalf("expected ErrFileOpen marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := Wrap(nil, "ocr", "recognize", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestCancelledFoldsContextCanceled(t *testing.T) {
	if !Cancelled(context.Canceled) {
		t.Fatal("context.Canceled should count as cancelled")
	}
	if !Cancelled(Wrap(ErrCancelled, "pipeline", "run", "", nil)) {
		t.Fatal("ErrCancelled should count as cancelled")
	}
	if Cancelled(Wrap(ErrTimeout, "ocr", "recognize", "", nil)) {
		t.Fatal("timeout must not count as cancelled")
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"config", Wrap(ErrConfiguration, "roi", "locate", "unknown mode", nil), "config"},
		{"file open", Wrap(ErrFileOpen, "sampler", "open", "", nil), "file_open"},
		{"engine init", Wrap(ErrEngineInit, "ocr", "init", "", nil), "engine_init"},
		{"timeout", Wrap(ErrTimeout, "ocr", "recognize", "", nil), "timeout"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"cancelled", context.Canceled, "cancelled"},
		{"other", errors.New("boom"), "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}
