// Package ledger re-exports the run ledger abstractions for stable imports
// and hosts the driver factory.
package ledger

import (
	"context"
	"fmt"
	"os"

	"chemstock/internal/infra/ledger/memory"
	"chemstock/internal/infra/ledger/postgres"
	"chemstock/internal/infra/ledger/sqlite"
	"chemstock/internal/ledger/core"
)

type (
	// RunStatus tracks a conversion run through its lifecycle.
	RunStatus = core.RunStatus
	// ArtifactRef points at one stored report artifact.
	ArtifactRef = core.ArtifactRef
	// RunRecord is the durable trace of one conversion run.
	RunRecord = core.RunRecord
	// ErrRunNotFound reports a lookup for an unknown run id.
	ErrRunNotFound = core.ErrRunNotFound
	// Ledger records conversion runs.
	Ledger = core.Ledger
)

const (
	// RunPending marks a run accepted but not yet started.
	RunPending = core.RunPending
	// RunRunning marks a run currently converting.
	RunRunning = core.RunRunning
	// RunCompleted marks a run whose artifacts are all stored.
	RunCompleted = core.RunCompleted
	// RunFailed marks a run aborted by a conversion or storage error.
	RunFailed = core.RunFailed
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open selects a Ledger implementation using environment variables.
//
//	CHEMSTOCK_LEDGER_DRIVER: memory|sqlite|postgres (default sqlite)
//	CHEMSTOCK_SQLITE_PATH: database file when driver=sqlite (default chemstock.db)
//	CHEMSTOCK_POSTGRES_DSN: connection string when driver=postgres
func Open(ctx context.Context) (Ledger, error) {
	driver := os.Getenv("CHEMSTOCK_LEDGER_DRIVER")
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(os.Getenv("CHEMSTOCK_SQLITE_PATH"))
	case DriverPostgres:
		return NewPostgres(ctx, os.Getenv("CHEMSTOCK_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown ledger driver %s", driver)
	}
}

// NewMemory returns an in-memory ledger suitable for tests.
func NewMemory() Ledger { return memory.New() }

// NewSQLite returns a SQLite-backed ledger at path (empty for default).
func NewSQLite(path string) (Ledger, error) { return sqlite.New(path) }

// NewPostgres returns a Postgres-backed ledger for the DSN (empty for default).
func NewPostgres(ctx context.Context, dsn string) (Ledger, error) { return postgres.New(ctx, dsn) }
