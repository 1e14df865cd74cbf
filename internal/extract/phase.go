package extract

import "time"

// Phase is the pipeline's externally visible state.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseLocatingROI
	PhaseSampling
	PhaseRecognizing
	PhaseGrouping
	PhaseDone
	PhaseCancelled
	PhaseFailed
)

// String returns the phase name used in logs and run records.
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseLocatingROI:
		return "locating_roi"
	case PhaseSampling:
		return "sampling"
	case PhaseRecognizing:
		return "recognizing"
	case PhaseGrouping:
		return "grouping"
	case PhaseDone:
		return "done"
	case PhaseCancelled:
		return "cancelled"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase ends the run.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseCancelled || p == PhaseFailed
}

// Phase weights sum to 100; each phase's completion advances overall
// progress by its weight.
const (
	weightInit        = 5.0
	weightROI         = 10.0
	weightSampling    = 15.0
	weightRecognition = 60.0
	weightGrouping    = 10.0
)

// etaFloorPercent suppresses wild early estimates: no ETA is reported until
// this much of the run has completed.
const etaFloorPercent = 5.0

// Progress is one pipeline status update.
type Progress struct {
	Phase       Phase
	Percent     float64
	ETA         time.Duration
	FramesDone  int64
	FramesTotal int64
}
