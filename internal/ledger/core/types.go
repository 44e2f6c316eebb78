// Package core defines the run ledger abstractions shared by the ledger
// backends.
package core

import (
	"context"
	"fmt"
	"time"
)

// RunStatus tracks a conversion run through its lifecycle.
type RunStatus string

const (
	// RunPending marks a run accepted but not yet started.
	RunPending RunStatus = "pending"
	// RunRunning marks a run currently converting.
	RunRunning RunStatus = "running"
	// RunCompleted marks a run whose artifacts are all stored.
	RunCompleted RunStatus = "completed"
	// RunFailed marks a run aborted by a conversion or storage error.
	RunFailed RunStatus = "failed"
)

// ArtifactRef points at one stored report artifact.
type ArtifactRef struct {
	Format string `json:"format"`
	Key    string `json:"key"`
	Size   int64  `json:"size_bytes"`
}

// RunRecord is the durable trace of one conversion run.
type RunRecord struct {
	ID          string        `json:"id"`
	Source      string        `json:"source"`
	Status      RunStatus     `json:"status"`
	Formats     []string      `json:"formats"`
	Rows        int           `json:"rows"`
	Error       string        `json:"error,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Artifacts   []ArtifactRef `json:"artifacts,omitempty"`
}

// ErrRunNotFound reports a lookup for an unknown run id.
type ErrRunNotFound struct {
	ID string
}

func (e ErrRunNotFound) Error() string {
	return fmt.Sprintf("run %s not found", e.ID)
}

// Ledger records conversion runs. SaveRun upserts by id; implementations
// must persist the record as given, including status transitions.
type Ledger interface {
	SaveRun(ctx context.Context, record RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, error)
	ListRuns(ctx context.Context) ([]RunRecord, error)
	Close() error
}
