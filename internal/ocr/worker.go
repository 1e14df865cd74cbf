package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
)

// RunWorker is the body of the isolated recognition worker process. It reads
// one PNG frame from r, recognizes it with the engine, and writes the
// columnar result document to w. The engine is closed before returning so
// the process exits with native resources released.
func RunWorker(ctx context.Context, engine Engine, r io.Reader, w io.Writer) error {
	defer engine.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}

	results, err := engine.Recognize(ctx, rgba)
	if err != nil {
		return err
	}

	doc, err := EncodeResults(results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if _, err := w.Write(doc); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
