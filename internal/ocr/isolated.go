package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os/exec"
	"time"

	"hardsub/internal/services"
)

// recognizeIsolated runs one recognition call in a separate worker process.
// The worker reads a PNG frame on stdin and writes a JSON result document on
// stdout. A hang in the native recognition library is unrecoverable
// in-process; running it in a child makes the call killable, so a timeout
// here means the child was terminated, not that the parent is wedged.
func recognizeIsolated(ctx context.Context, workerArgs []string, img *image.RGBA, timeout time.Duration) ([]Result, error) {
	if len(workerArgs) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "ocr", "isolated call", "no worker command configured", nil)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var frame bytes.Buffer
	if err := png.Encode(&frame, img); err != nil {
		return nil, services.Wrap(services.ErrTransient, "ocr", "isolated call", "encode frame", err)
	}

	cmd := exec.CommandContext(ctx, workerArgs[0], workerArgs[1:]...)
	cmd.Stdin = &frame
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "ocr", "isolated call", "worker killed after timeout", ctx.Err())
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		detail := bytes.TrimSpace(stderr.Bytes())
		if len(detail) > 0 {
			return nil, services.Wrap(services.ErrTransient, "ocr", "isolated call", string(detail), err)
		}
		return nil, services.Wrap(services.ErrTransient, "ocr", "isolated call", "worker failed", err)
	}

	results, err := DecodeResults(stdout.Bytes())
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "ocr", "isolated call", "decode worker output", err)
	}
	return results, nil
}
