// Package memory implements the run ledger in process memory. It is the
// default for tests and the base store the snapshotting backends wrap.
package memory

import (
	"context"
	"sort"
	"sync"

	"chemstock/internal/ledger/core"
)

// Store implements core.Ledger backed by a map.
type Store struct {
	mu   sync.RWMutex
	runs map[string]core.RunRecord
}

// New returns an empty in-memory ledger.
func New() *Store { return &Store{runs: make(map[string]core.RunRecord)} }

// SaveRun upserts the record by id.
func (s *Store) SaveRun(_ context.Context, record core.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[record.ID] = cloneRecord(record)
	return nil
}

// GetRun returns the record for id.
func (s *Store) GetRun(_ context.Context, id string) (core.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.runs[id]
	if !ok {
		return core.RunRecord{}, core.ErrRunNotFound{ID: id}
	}
	return cloneRecord(record), nil
}

// ListRuns returns all records newest first (SubmittedAt descending, id
// breaking ties).
func (s *Store) ListRuns(_ context.Context) ([]core.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.RunRecord, 0, len(s.runs))
	for _, record := range s.runs {
		out = append(out, cloneRecord(record))
	}
	sortRuns(out)
	return out, nil
}

// Close is a no-op for the memory ledger.
func (s *Store) Close() error { return nil }

// Snapshot is the serialized ledger state used by the persistent backends.
type Snapshot struct {
	Runs []core.RunRecord `json:"runs"`
}

// ExportState returns a snapshot of all records, newest first.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]core.RunRecord, 0, len(s.runs))
	for _, record := range s.runs {
		runs = append(runs, cloneRecord(record))
	}
	sortRuns(runs)
	return Snapshot{Runs: runs}
}

// ImportState replaces the ledger contents with the snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = make(map[string]core.RunRecord, len(snapshot.Runs))
	for _, record := range snapshot.Runs {
		s.runs[record.ID] = cloneRecord(record)
	}
}

func sortRuns(runs []core.RunRecord) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].SubmittedAt.Equal(runs[j].SubmittedAt) {
			return runs[i].SubmittedAt.After(runs[j].SubmittedAt)
		}
		return runs[i].ID < runs[j].ID
	})
}

func cloneRecord(record core.RunRecord) core.RunRecord {
	out := record
	if record.Formats != nil {
		out.Formats = append([]string(nil), record.Formats...)
	}
	if record.Artifacts != nil {
		out.Artifacts = append([]core.ArtifactRef(nil), record.Artifacts...)
	}
	if record.StartedAt != nil {
		started := *record.StartedAt
		out.StartedAt = &started
	}
	if record.CompletedAt != nil {
		completed := *record.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}
