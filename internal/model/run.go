package model

import "time"

// RunStatus represents the current state of an appraisal run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is a persisted appraisal: the subject it valued, its lifecycle state,
// and the full result once complete. A run that timed out or produced a
// degraded estimate still completes; Failed is reserved for batch-level
// errors such as missing credentials.
type Run struct {
	ID        string           `json:"id"`
	Subject   Subject          `json:"subject"`
	Sources   []string         `json:"sources"`
	Status    RunStatus        `json:"status"`
	Result    *AppraisalResult `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
