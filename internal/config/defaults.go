package config

import "runtime"

const (
	defaultStateDir     = "~/.local/share/hardsub"
	defaultLogDir       = "~/.local/share/hardsub/logs"
	defaultSampleFPS    = 3.0
	defaultROIMode      = "auto"
	defaultBottomRatio  = 0.3
	defaultSampleFrames = 10

	defaultOCRConfidenceThreshold = 0.7
	defaultOCRMaxPixels           = 3840 * 2160
	defaultOCRMaxSide             = 4096
	defaultOCRBatchSize           = 16
	defaultOCRTimeoutSeconds      = 30

	defaultSimilarityThreshold = 0.90
	defaultMinDurationSec      = 1.2
	defaultMaxGapSec           = 0.5
	defaultDedupWindowSec      = 30.0

	defaultLogFormat = "auto"
	defaultLogLevel  = "info"
)

// defaultOCRIsolateProcess enables process isolation on platforms where the
// engine is known to hang indefinitely on some inputs. In-process threads
// cannot be forcibly terminated without corrupting shared engine state, so a
// killable child is the only safe escape hatch there.
var defaultOCRIsolateProcess = runtime.GOOS == "darwin"

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Sampling: Sampling{
			SampleFPS: defaultSampleFPS,
		},
		ROI: ROI{
			Mode:         defaultROIMode,
			BottomRatio:  defaultBottomRatio,
			SampleFrames: defaultSampleFrames,
		},
		OCR: OCR{
			Languages:           []string{"jpn", "eng"},
			ConfidenceThreshold: defaultOCRConfidenceThreshold,
			MaxPixels:           defaultOCRMaxPixels,
			MaxSide:             defaultOCRMaxSide,
			BatchSize:           defaultOCRBatchSize,
			TimeoutSeconds:      defaultOCRTimeoutSeconds,
		},
		Grouping: Grouping{
			SimilarityThreshold: defaultSimilarityThreshold,
			MinDurationSec:      defaultMinDurationSec,
			MaxGapSec:           defaultMaxGapSec,
			DedupWindowSec:      defaultDedupWindowSec,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Runs: Runs{
			Enabled: true,
		},
	}
}
