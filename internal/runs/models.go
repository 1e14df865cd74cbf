package runs

import "time"

// Status describes the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Run is one recorded extraction.
type Run struct {
	ID            string
	VideoPath     string
	Status        Status
	Phase         string
	ErrorMessage  string
	DetectionJSON string
	CueCount      int
	FramesSampled int64
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// Duration returns the run's wall-clock time, using now for running runs.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}

// Terminal reports whether the run has ended.
func (r *Run) Terminal() bool {
	return r.Status != StatusRunning
}
