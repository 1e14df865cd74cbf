package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"hardsub/internal/services"
)

// TesseractEngine drives Tesseract through gosseract. The client handle is
// guarded by a validity flag: after a forced kill of a collaborating worker
// process the handle is invalidated and rebuilt lazily on the next call.
type TesseractEngine struct {
	languages   []string
	tessdataDir string

	mu     sync.Mutex
	client *gosseract.Client
	valid  bool
}

// NewTesseractEngine prepares an engine for the given language codes. The
// underlying client is created lazily on first use.
func NewTesseractEngine(languages []string, tessdataDir string) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractEngine{languages: languages, tessdataDir: tessdataDir}
}

// Identity returns the engine description used in detection info records.
func (e *TesseractEngine) Identity() string {
	return fmt.Sprintf("tesseract(%s)", strings.Join(e.languages, "+"))
}

func (e *TesseractEngine) ensureLocked() error {
	if e.valid && e.client != nil {
		return nil
	}
	if e.client != nil {
		_ = e.client.Close()
		e.client = nil
	}
	client := gosseract.NewClient()
	if e.tessdataDir != "" {
		if err := client.SetTessdataPrefix(e.tessdataDir); err != nil {
			_ = client.Close()
			return services.Wrap(services.ErrEngineInit, "ocr", "tessdata", e.tessdataDir, err)
		}
	}
	if err := client.SetLanguage(e.languages...); err != nil {
		_ = client.Close()
		return services.Wrap(services.ErrEngineInit, "ocr", "set language", strings.Join(e.languages, "+"), err)
	}
	e.client = client
	e.valid = true
	return nil
}

// Recognize runs Tesseract on the image and returns per-line results.
func (e *TesseractEngine) Recognize(ctx context.Context, img *image.RGBA) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureLocked(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	results := make([]Result, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		results = append(results, Result{
			Text:       text,
			Confidence: box.Confidence / 100,
			Box: Box{
				X:      box.Box.Min.X,
				Y:      box.Box.Min.Y,
				Width:  box.Box.Dx(),
				Height: box.Box.Dy(),
			},
		})
	}
	return results, nil
}

// Invalidate forces client reinitialization on the next Recognize.
func (e *TesseractEngine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.valid = false
}

// Close releases the Tesseract client.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.valid = false
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}
