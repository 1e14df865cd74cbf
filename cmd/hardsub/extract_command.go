package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"hardsub/internal/config"
	"hardsub/internal/cues"
	"hardsub/internal/deps"
	"hardsub/internal/extract"
	"hardsub/internal/logging"
	"hardsub/internal/ocr"
	"hardsub/internal/runs"
	"hardsub/internal/services"
)

type extractOutput struct {
	RunID     string                `json:"run_id,omitempty"`
	Detection extract.DetectionInfo `json:"detection"`
	Cues      []cues.Cue            `json:"cues"`
	ElapsedMS int64                 `json:"elapsed_ms"`
}

func newExtractCommand(cmdCtx *commandContext) *cobra.Command {
	var jsonOut bool
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "extract <video>",
		Short: "Extract subtitle cues from a video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			if missing := deps.Missing(deps.CheckBinaries(deps.Required(cfg))); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, status := range missing {
					names = append(names, status.Name)
				}
				return fmt.Errorf("missing required tools: %s (see `hardsub deps`)", strings.Join(names, ", "))
			}

			lock := flock.New(filepath.Join(cfg.Paths.StateDir, "hardsub.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another hardsub extraction is already running")
			}
			defer func() {
				_ = lock.Unlock()
			}()

			engine := ocr.NewTesseractEngine(cfg.OCR.Languages, cfg.OCR.TessdataDir)
			defer engine.Close()

			workerArgs, err := workerCommand(cfg)
			if err != nil {
				return err
			}
			adapter := ocr.NewAdapter(engine, ocr.Options{
				ConfidenceThreshold: cfg.OCR.ConfidenceThreshold,
				MaxPixels:           cfg.OCR.MaxPixels,
				MaxSide:             cfg.OCR.MaxSide,
				BatchSize:           cfg.OCR.BatchSize,
				Timeout:             time.Duration(cfg.OCR.TimeoutSeconds) * time.Second,
				Isolate:             cfg.IsolateOCR(),
				WorkerArgs:          workerArgs,
			}, logger)

			runCtx := cmd.Context()
			var store *runs.Store
			var run *runs.Run
			if cfg.Runs.Enabled {
				store, err = runs.Open(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
				run, err = store.Begin(runCtx, args[0])
				if err != nil {
					return err
				}
				runCtx = services.WithRunID(runCtx, run.ID)
				logger = logging.WithContext(runCtx, logger)
			}

			reporter := newProgressReporter(cmd, jsonOut || noProgress)
			pipeline := extract.New(cfg, adapter, logger, reporter.update)

			result, runErr := pipeline.Run(runCtx, args[0])
			reporter.close()

			if store != nil && run != nil {
				recordRun(cmd, store, run, result, runErr, reporter.lastPhase())
			}
			if runErr != nil {
				return runErr
			}

			if jsonOut {
				output := extractOutput{
					Detection: result.Detection,
					Cues:      result.Cues,
					ElapsedMS: result.Elapsed.Milliseconds(),
				}
				if run != nil {
					output.RunID = run.ID
				}
				return writeJSON(cmd, output)
			}

			printCues(cmd, result.Cues)
			fmt.Fprintf(cmd.OutOrStdout(), "%d cues from %d frames in %s\n",
				len(result.Cues),
				result.Detection.FramesSampled,
				result.Elapsed.Round(100*time.Millisecond))
			if run != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Run recorded as %s\n", run.ID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit cues as JSON")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func recordRun(cmd *cobra.Command, store *runs.Store, run *runs.Run, result *extract.Result, runErr error, phase extract.Phase) {
	ctx := cmd.Context()
	switch {
	case runErr == nil:
		if err := store.Complete(ctx, run.ID, result.Detection, result.Detection.FramesSampled, result.Cues); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: record run: %v\n", err)
		}
	case services.Cancelled(runErr):
		if err := store.Finish(ctx, run.ID, runs.StatusCancelled, phase.String(), ""); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: record run: %v\n", err)
		}
	default:
		if err := store.Finish(ctx, run.ID, runs.StatusFailed, phase.String(), runErr.Error()); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: record run: %v\n", err)
		}
	}
}

func printCues(cmd *cobra.Command, cueList []cues.Cue) {
	out := cmd.OutOrStdout()
	if len(cueList) == 0 {
		fmt.Fprintln(out, "No subtitles found")
		return
	}
	rows := make([][]string, 0, len(cueList))
	for _, cue := range cueList {
		rows = append(rows, []string{
			fmt.Sprintf("%d", cue.Index),
			formatTimestamp(cue.StartMS),
			formatTimestamp(cue.EndMS),
			cue.Text,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Start", "End", "Text"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
	))
}

// workerCommand builds the self-exec command line for isolated recognition.
func workerCommand(cfg *config.Config) ([]string, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	args := []string{exe, "ocr-worker"}
	for _, lang := range cfg.OCR.Languages {
		args = append(args, "--language", lang)
	}
	if cfg.OCR.TessdataDir != "" {
		args = append(args, "--tessdata", cfg.OCR.TessdataDir)
	}
	return args, nil
}

// progressReporter bridges pipeline progress to a terminal progress bar.
type progressReporter struct {
	bar *progressbar.ProgressBar

	mu    sync.Mutex
	phase extract.Phase
}

func newProgressReporter(cmd *cobra.Command, disabled bool) *progressReporter {
	r := &progressReporter{}
	if disabled {
		return r
	}
	r.bar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("starting"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
	return r
}

func (r *progressReporter) update(p extract.Progress) {
	r.mu.Lock()
	if !p.Phase.Terminal() {
		r.phase = p.Phase
	}
	bar := r.bar
	r.mu.Unlock()

	if bar == nil {
		return
	}
	description := p.Phase.String()
	if p.ETA > 0 {
		description += " " + humanize.RelTime(time.Now(), time.Now().Add(p.ETA), "left", "")
	}
	bar.Describe(description)
	_ = bar.Set(int(p.Percent))
}

func (r *progressReporter) lastPhase() extract.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func (r *progressReporter) close() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}
