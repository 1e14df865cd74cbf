package extract

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"hardsub/internal/config"
	"hardsub/internal/cues"
	"hardsub/internal/logging"
	"hardsub/internal/media/frames"
	"hardsub/internal/ocr"
	"hardsub/internal/roi"
	"hardsub/internal/services"
)

// frameSource is the sampler contract the pipeline consumes. Satisfied by
// *frames.Sampler; tests substitute an in-memory source.
type frameSource interface {
	Metadata() frames.Metadata
	SampleCount() int64
	Next(ctx context.Context) (frames.Frame, error)
	Reset()
	CropRect(rect image.Rectangle) error
	Close() error
}

// DetectionInfo records how a run saw the video, kept for diagnostics
// after the cues are produced.
type DetectionInfo struct {
	Video         frames.Metadata `json:"video"`
	Region        roi.Region      `json:"region"`
	ROIMode       string          `json:"roi_mode"`
	Engine        string          `json:"engine"`
	SampleFPS     float64         `json:"sample_fps"`
	FramesSampled int64           `json:"frames_sampled"`
}

// Result is a completed extraction.
type Result struct {
	Cues      []cues.Cue
	Detection DetectionInfo
	Elapsed   time.Duration
}

// Pipeline runs extractions with a shared configuration and engine adapter.
type Pipeline struct {
	cfg      *config.Config
	adapter  *ocr.Adapter
	logger   *slog.Logger
	progress func(Progress)
}

// New builds a pipeline. The progress callback may be nil; when set it is
// called from pipeline goroutines and must be fast.
func New(cfg *config.Config, adapter *ocr.Adapter, logger *slog.Logger, progress func(Progress)) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		adapter:  adapter,
		logger:   logging.WithComponent(logger, "extract"),
		progress: progress,
	}
}

// Run extracts subtitle cues from the video at path. The sampler is always
// released, whichever way the run ends.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	source, err := frames.Open(ctx, p.cfg.FFmpegBinary(), p.cfg.FFprobeBinary(), path, p.cfg.Sampling.SampleFPS)
	if err != nil {
		p.report(Progress{Phase: PhaseFailed})
		return nil, err
	}
	return p.run(ctx, source)
}

func (p *Pipeline) run(ctx context.Context, source frameSource) (result *Result, err error) {
	defer source.Close()

	started := time.Now()
	tracker := &progressTracker{pipeline: p, started: started}

	defer func() {
		switch {
		case err == nil:
			tracker.finish(PhaseDone)
		case services.Cancelled(err):
			tracker.finish(PhaseCancelled)
		default:
			tracker.finish(PhaseFailed)
		}
	}()

	meta := source.Metadata()
	p.logger.Info("starting extraction",
		slog.String("path", meta.Path),
		slog.Int("width", meta.Width), slog.Int("height", meta.Height),
		slog.Float64("fps", meta.FPS),
		slog.Int64("frames", meta.FrameCount))

	tracker.phaseDone(PhaseInit, weightInit)

	region, mode, err := p.locateRegion(ctx, source)
	if err != nil {
		return nil, err
	}
	if err := source.CropRect(region.Rect()); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "extract", "crop", "apply detected region", err)
	}
	tracker.phaseDone(PhaseLocatingROI, weightROI)

	frameResults, sampled, err := p.recognizeFrames(ctx, source, tracker)
	if err != nil {
		return nil, err
	}

	tracker.enterPhase(PhaseGrouping)
	cueList := p.groupResults(frameResults)

	p.logger.Info("extraction complete",
		slog.Int64("frames_sampled", sampled),
		slog.Int("cues", len(cueList)),
		slog.Duration("elapsed", time.Since(started)))

	return &Result{
		Cues: cueList,
		Detection: DetectionInfo{
			Video:         meta,
			Region:        region,
			ROIMode:       mode.String(),
			Engine:        p.adapter.Identity(),
			SampleFPS:     p.cfg.Sampling.SampleFPS,
			FramesSampled: sampled,
		},
		Elapsed: time.Since(started),
	}, nil
}

// locateRegion resolves the subtitle region per the configured policy. The
// auto policy inspects a handful of full frames first; the source is rewound
// before cropping so the stream restarts from frame zero.
func (p *Pipeline) locateRegion(ctx context.Context, source frameSource) (roi.Region, roi.Mode, error) {
	mode, err := roi.ParseMode(p.cfg.ROI.Mode)
	if err != nil {
		return roi.Region{}, 0, err
	}

	policy := roi.Policy{
		Mode:         mode,
		BottomRatio:  p.cfg.ROI.BottomRatio,
		SampleFrames: p.cfg.ROI.SampleFrames,
	}
	if mode == roi.ModeManual {
		r := p.cfg.ROI.Rect
		if len(r) != 4 {
			return roi.Region{}, 0, services.Wrap(services.ErrConfiguration, "extract", "roi", "manual mode requires rect [x, y, width, height]", nil)
		}
		policy.Rect = image.Rect(r[0], r[1], r[0]+r[2], r[1]+r[3])
	}

	var sample []frames.Frame
	if mode == roi.ModeAuto {
		limit := policy.SampleFrames
		if limit <= 0 {
			limit = 10
		}
		for len(sample) < limit {
			frame, err := source.Next(ctx)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return roi.Region{}, 0, err
			}
			sample = append(sample, frame)
		}
		source.Reset()
	}

	meta := source.Metadata()
	region, err := roi.Locate(policy, meta.Width, meta.Height, sample, p.logger)
	if err != nil {
		return roi.Region{}, 0, err
	}
	return region, mode, nil
}

// recognizeFrames streams frames into a bounded worker pool and collects
// per-frame recognition results, re-sorted by timestamp since completions
// arrive out of order.
func (p *Pipeline) recognizeFrames(ctx context.Context, source frameSource, tracker *progressTracker) ([]cues.FrameResult, int64, error) {
	total := source.SampleCount()
	tracker.setTotal(total)
	tracker.enterPhase(PhaseSampling)

	workers := int64(4)
	if total > 0 && total < workers {
		workers = total
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan frames.Frame)
	collected := make(chan cues.FrameResult)

	var (
		firstErr error
		errOnce  sync.Once
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	var workerGroup sync.WaitGroup
	for range workers {
		workerGroup.Add(1)
		go func() {
			defer workerGroup.Done()
			for frame := range jobs {
				results, err := p.adapter.Extract(runCtx, frame.Image)
				if err != nil {
					fail(err)
					return
				}
				select {
				case collected <- cues.FrameResult{
					FrameNumber: frame.Number,
					TimestampMS: frame.TimestampMS,
					Results:     results,
				}:
				case <-runCtx.Done():
					return
				}
			}
		}()
	}

	// Producer: the sampler is not safe for concurrent reads, so a single
	// goroutine feeds the pool.
	var sampled int64
	producerDone := make(chan struct{})
	go func() {
		defer close(producerDone)
		defer close(jobs)
		for {
			frame, err := source.Next(runCtx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				fail(err)
				return
			}
			sampled++
			tracker.frameRead()
			select {
			case jobs <- frame:
			case <-runCtx.Done():
				return
			}
		}
	}()

	done := make(chan struct{})
	var frameResults []cues.FrameResult
	go func() {
		defer close(done)
		for result := range collected {
			frameResults = append(frameResults, result)
			tracker.frameRecognized()
		}
	}()

	workerGroup.Wait()
	<-producerDone
	close(collected)
	<-done

	if firstErr != nil {
		return nil, sampled, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, sampled, err
	}

	sort.SliceStable(frameResults, func(i, j int) bool {
		return frameResults[i].TimestampMS < frameResults[j].TimestampMS
	})
	return frameResults, sampled, nil
}

func (p *Pipeline) groupResults(frameResults []cues.FrameResult) []cues.Cue {
	grouper := cues.Grouper{
		SimilarityThreshold: p.cfg.Grouping.SimilarityThreshold,
		MinDurationMS:       int64(p.cfg.Grouping.MinDurationSec * 1000),
		MaxGapMS:            int64(p.cfg.Grouping.MaxGapSec * 1000),
	}
	deduper := cues.Deduper{
		SimilarityThreshold: p.cfg.Grouping.SimilarityThreshold,
		WindowMS:            int64(p.cfg.Grouping.DedupWindowSec * 1000),
	}
	return deduper.Dedup(grouper.Group(frameResults))
}

func (p *Pipeline) report(progress Progress) {
	if p.progress != nil {
		p.progress(progress)
	}
}

// progressTracker folds phase completions and per-frame counters into one
// monotone percentage. Reading a frame and recognizing it advance separate
// weights, so streamed work shows smooth progress even when the pool runs
// ahead of the collector.
type progressTracker struct {
	pipeline *Pipeline
	started  time.Time

	mu         sync.Mutex
	phase      Phase
	base       float64
	total      int64
	read       int64
	recognized int64
}

func (t *progressTracker) setTotal(total int64) {
	t.mu.Lock()
	t.total = total
	t.mu.Unlock()
}

func (t *progressTracker) phaseDone(phase Phase, weight float64) {
	t.mu.Lock()
	t.base += weight
	t.phase = phase
	progress := t.snapshotLocked()
	t.mu.Unlock()
	t.pipeline.report(progress)
}

func (t *progressTracker) enterPhase(phase Phase) {
	t.mu.Lock()
	t.phase = phase
	progress := t.snapshotLocked()
	t.mu.Unlock()
	t.pipeline.report(progress)
}

func (t *progressTracker) frameRead() {
	t.mu.Lock()
	t.read++
	progress := t.snapshotLocked()
	t.mu.Unlock()
	t.pipeline.report(progress)
}

func (t *progressTracker) frameRecognized() {
	t.mu.Lock()
	t.recognized++
	if t.phase == PhaseSampling {
		t.phase = PhaseRecognizing
	}
	progress := t.snapshotLocked()
	t.mu.Unlock()
	t.pipeline.report(progress)
}

func (t *progressTracker) finish(phase Phase) {
	t.mu.Lock()
	t.phase = phase
	percent := 100.0
	if phase != PhaseDone {
		percent = t.percentLocked()
	}
	t.mu.Unlock()
	t.pipeline.report(Progress{Phase: phase, Percent: percent})
}

func (t *progressTracker) percentLocked() float64 {
	percent := t.base
	if t.total > 0 {
		percent += weightSampling * float64(t.read) / float64(t.total)
		percent += weightRecognition * float64(t.recognized) / float64(t.total)
	}
	if percent > 100 {
		percent = 100
	}
	return percent
}

func (t *progressTracker) snapshotLocked() Progress {
	percent := t.percentLocked()
	progress := Progress{
		Phase:       t.phase,
		Percent:     percent,
		FramesDone:  t.recognized,
		FramesTotal: t.total,
	}
	if percent >= etaFloorPercent && percent < 100 {
		elapsed := time.Since(t.started)
		estimatedTotal := time.Duration(float64(elapsed) / (percent / 100))
		progress.ETA = estimatedTotal - elapsed
	}
	return progress
}
