// Package store persists aggregation runs and their area totals so
// results can be queried without re-parsing the output CSVs.
package store

import (
	"context"
	"time"

	"github.com/geomatics-io/landstat/internal/aggregate"
)

// Run is one dataset aggregation run.
type Run struct {
	ID         string
	Dataset    string
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// Total is one persisted matrix cell.
type Total struct {
	RunID  string
	Region string
	Key    string
	Km2    float64
}

// Store persists runs and totals.
type Store interface {
	Migrate(ctx context.Context) error
	CreateRun(ctx context.Context, dataset string) (*Run, error)
	FinishRun(ctx context.Context, runID, status string) error
	SaveTotals(ctx context.Context, runID string, m *aggregate.Matrix) error
	Totals(ctx context.Context, runID string) ([]Total, error)
	LatestRun(ctx context.Context, dataset string) (*Run, error)
	Close() error
}
