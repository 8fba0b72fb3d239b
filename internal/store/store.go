// Package store persists run history for the enrichment pipeline.
package store

import (
	"context"

	"github.com/sells-group/enrich-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// RunCompletion carries the final figures recorded when a run finishes.
type RunCompletion struct {
	Status       string
	RowsEnriched int
	Completion   float64
}

// Store defines the persistence interface for run history.
type Store interface {
	CreateRun(ctx context.Context, source string, rowsTotal int) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status string) error
	CompleteRun(ctx context.Context, runID string, final RunCompletion) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
