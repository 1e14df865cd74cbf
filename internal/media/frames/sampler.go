package frames

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"os/exec"
	"strings"

	"hardsub/internal/media/ffprobe"
	"hardsub/internal/services"
)

// Frame is one sampled video frame. Number is the native frame index, not
// the sample index.
type Frame struct {
	Number      int64
	TimestampMS int64
	Image       *image.RGBA
}

// Metadata summarizes the probed video for ETA estimation and ROI scaling.
type Metadata struct {
	Path        string
	Width       int
	Height      int
	FPS         float64
	FrameCount  int64
	DurationSec float64
	Codec       string
}

// Sampler produces frames from a video at a target sampling rate. The
// sequence is lazy and finite; Reset reopens it from the beginning. The
// underlying decoder handle is not safe for concurrent use and must be
// released exactly once via Close.
type Sampler struct {
	ffmpegBinary string
	meta         Metadata
	interval     int64
	crop         image.Rectangle
	cropped      bool

	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stderr  bytes.Buffer
	cancel  context.CancelFunc
	sample  int64
	buf     []byte
	done    bool
	started bool
	closed  bool
}

// Open probes the video and prepares a sampler emitting frames at
// approximately sampleFPS. The ffmpeg process itself starts lazily on the
// first Next call. A missing or unreadable file fails here, not mid-stream.
func Open(ctx context.Context, ffmpegBinary, ffprobeBinary, path string, sampleFPS float64) (*Sampler, error) {
	if sampleFPS <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "sampler", "open", fmt.Sprintf("invalid sample rate %v", sampleFPS), nil)
	}

	result, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
	if err != nil {
		return nil, services.Wrap(services.ErrFileOpen, "sampler", "probe", path, err)
	}
	stream, ok := result.VideoStream()
	if !ok {
		return nil, services.Wrap(services.ErrFileOpen, "sampler", "probe", "no video stream in "+path, nil)
	}
	fps := stream.FrameRate()
	if fps <= 0 || stream.Width <= 0 || stream.Height <= 0 {
		return nil, services.Wrap(services.ErrFileOpen, "sampler", "probe", "video stream reports no usable geometry", nil)
	}

	interval := int64(math.Round(fps / sampleFPS))
	if interval < 1 {
		interval = 1
	}

	meta := Metadata{
		Path:        path,
		Width:       stream.Width,
		Height:      stream.Height,
		FPS:         fps,
		FrameCount:  stream.FrameCount(result.DurationSeconds()),
		DurationSec: result.DurationSeconds(),
		Codec:       stream.CodecName,
	}

	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Sampler{ffmpegBinary: ffmpegBinary, meta: meta, interval: interval}, nil
}

// Metadata returns the probed video summary.
func (s *Sampler) Metadata() Metadata {
	return s.meta
}

// Interval returns the native-frame spacing between emitted samples.
func (s *Sampler) Interval() int64 {
	return s.interval
}

// SampleCount estimates how many frames the full sequence will emit.
func (s *Sampler) SampleCount() int64 {
	if s.meta.FrameCount <= 0 {
		return 0
	}
	return (s.meta.FrameCount + s.interval - 1) / s.interval
}

// CropBottom restricts emitted frames to the bottom band of the given height
// ratio. Must be called before the first Next.
func (s *Sampler) CropBottom(ratio float64) error {
	if ratio <= 0 || ratio > 1 {
		return fmt.Errorf("crop bottom: invalid ratio %v", ratio)
	}
	bandHeight := int(float64(s.meta.Height) * ratio)
	return s.CropRect(image.Rect(0, s.meta.Height-bandHeight, s.meta.Width, s.meta.Height))
}

// CropRect restricts emitted frames to the given rectangle, clamped to the
// frame bounds. Must be called before the first Next.
func (s *Sampler) CropRect(rect image.Rectangle) error {
	if s.started {
		return fmt.Errorf("crop: sampler already streaming")
	}
	rect = rect.Intersect(image.Rect(0, 0, s.meta.Width, s.meta.Height))
	if rect.Empty() {
		return fmt.Errorf("crop: rectangle %v outside frame bounds", rect)
	}
	s.crop = rect
	s.cropped = true
	return nil
}

// Crop returns the active crop rectangle and whether one is set.
func (s *Sampler) Crop() (image.Rectangle, bool) {
	return s.crop, s.cropped
}

func (s *Sampler) frameDims() (int, int) {
	if s.cropped {
		return s.crop.Dx(), s.crop.Dy()
	}
	return s.meta.Width, s.meta.Height
}

func (s *Sampler) start(ctx context.Context) error {
	filter := fmt.Sprintf(`select=not(mod(n\,%d))`, s.interval)
	if s.cropped {
		filter += fmt.Sprintf(",crop=%d:%d:%d:%d", s.crop.Dx(), s.crop.Dy(), s.crop.Min.X, s.crop.Min.Y)
	}
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", s.meta.Path,
		"-vf", filter,
		"-fps_mode", "vfr",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	}

	streamCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(streamCtx, s.ffmpegBinary, args...) //nolint:gosec
	cmd.Stderr = &s.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return services.Wrap(services.ErrFileOpen, "sampler", "decode", s.meta.Path, err)
	}

	width, height := s.frameDims()
	s.cmd = cmd
	s.stdout = stdout
	s.cancel = cancel
	s.buf = make([]byte, width*height*4)
	s.started = true
	return nil
}

// Next returns the next sampled frame. It returns io.EOF when the sequence
// ends; a mid-stream decode failure also ends the sequence, since no
// partial-frame corruption can reach the caller.
func (s *Sampler) Next(ctx context.Context) (Frame, error) {
	if s.closed {
		return Frame{}, fmt.Errorf("sampler: closed")
	}
	if s.done {
		return Frame{}, io.EOF
	}
	if !s.started {
		if err := s.start(ctx); err != nil {
			s.done = true
			return Frame{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	if _, err := io.ReadFull(s.stdout, s.buf); err != nil {
		// Short reads and decoder exits both terminate the sequence.
		s.done = true
		s.stopStream()
		return Frame{}, io.EOF
	}

	width, height := s.frameDims()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, s.buf)

	native := s.sample * s.interval
	s.sample++
	return Frame{
		Number:      native,
		TimestampMS: int64(math.Round(float64(native) / s.meta.FPS * 1000)),
		Image:       img,
	}, nil
}

// Reset stops any in-flight decode and rewinds the sequence to the start.
// The sequence is re-openable, not resumable: the next Next call starts a
// fresh decode from frame zero.
func (s *Sampler) Reset() {
	if s.closed {
		return
	}
	s.stopStream()
	s.started = false
	s.done = false
	s.sample = 0
	s.stderr.Reset()
}

// Close releases the decoder. Safe to call multiple times; only the first
// call has effect.
func (s *Sampler) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stopStream()
	return nil
}

func (s *Sampler) stopStream() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.stdout != nil {
		_ = s.stdout.Close()
		s.stdout = nil
	}
	if s.cmd != nil {
		_ = s.cmd.Wait()
		s.cmd = nil
	}
}
