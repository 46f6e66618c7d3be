// Package state records program executions in a SQLite history database.
// Only runs are stored; compiled models are never persisted.
package state

import (
	"context"
	"time"
)

// RunStatus represents the outcome of a recorded run.
type RunStatus string

// Run status values.
const (
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// Run is one execution of a rule program.
type Run struct {
	ID          string
	Program     string
	ProgramHash string
	Facts       map[string]float64
	Result      float64
	StartedAt   time.Time
	Duration    time.Duration
	Status      RunStatus
	Error       string
}

// Store persists run history.
type Store interface {
	// RecordRun stores run. An empty ID is replaced with a new UUID.
	RecordRun(ctx context.Context, run *Run) error
	// ListRuns returns the most recent runs first. A limit of zero or less
	// returns every run.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	Close() error
}
