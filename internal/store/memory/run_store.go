// Package memory implements an in-memory run store used in tests and
// single-process runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"shopmigrate/internal/migrate"
)

// ErrNotFound is returned when a run ID has no record.
var ErrNotFound = fmt.Errorf("run not found")

// RunStore keeps run and page metadata in memory.
type RunStore struct {
	mu    sync.RWMutex
	runs  map[string]migrate.Run
	pages map[string][]migrate.PageRecord
}

// New creates an empty in-memory run store.
func New() *RunStore {
	return &RunStore{
		runs:  make(map[string]migrate.Run),
		pages: make(map[string][]migrate.PageRecord),
	}
}

// CreateRun records a new run. The run ID must be unique.
func (s *RunStore) CreateRun(_ context.Context, run migrate.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	s.runs[run.ID] = run
	return nil
}

// UpdateRunStatus transitions a run's status and records its counters and
// artifact URIs.
func (s *RunStore) UpdateRunStatus(
	_ context.Context,
	runID string,
	status migrate.RunStatus,
	errText string,
	counters migrate.RunCounters,
	artifacts migrate.RunArtifacts,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return ErrNotFound
	}
	run.Status = status
	run.ErrorText = errText
	run.Counters = counters
	run.Artifacts = artifacts
	s.runs[runID] = run
	return nil
}

// RecordPage appends a page record to its run.
func (s *RunStore) RecordPage(_ context.Context, page migrate.PageRecord) error {
	if page.RunID == "" {
		return fmt.Errorf("run id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[page.RunID] = append(s.pages[page.RunID], page)
	return nil
}

// GetRun returns the run with the given ID.
func (s *RunStore) GetRun(_ context.Context, runID string) (migrate.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return migrate.Run{}, ErrNotFound
	}
	return run, nil
}

// ListPages returns the page records for a run in insertion order.
func (s *RunStore) ListPages(_ context.Context, runID string) ([]migrate.PageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pages := s.pages[runID]
	out := make([]migrate.PageRecord, len(pages))
	copy(out, pages)
	return out, nil
}
