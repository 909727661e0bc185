package store

import (
	"context"

	"github.com/dmryasin/compval/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for appraisal runs. The full
// result is stored as a JSON document; the comparable rows are additionally
// broken out into their own table for auditing across runs.
type Store interface {
	CreateRun(ctx context.Context, subject model.Subject, sources []string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, result *model.AppraisalResult) error
	FailRun(ctx context.Context, runID string, cause string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	RunComparables(ctx context.Context, runID string) ([]model.Comparable, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
