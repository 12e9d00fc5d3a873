package interview

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemStore is an in-memory [Store] for tests and single-node development.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	now     func() time.Time
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

// Put inserts or replaces a record. Timestamps are filled in when zero.
func (s *MemStore) Put(rec *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.now()
	}
	cp.UpdatedAt = s.now()
	s.records[cp.ID] = &cp
}

// Get implements [Store].
func (s *MemStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// MarkStarted implements [Store].
func (s *MemStore) MarkStarted(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[id]; ok {
		rec.Started = true
		rec.UpdatedAt = s.now()
	}
	return nil
}

// SaveResults implements [Store].
func (s *MemStore) SaveResults(_ context.Context, id string, res Results) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("interview: save results: no record with id %q", id)
	}
	rec.Transcript = res.Transcript
	rec.Feedback = res.Feedback
	rec.Completed = res.Completed
	rec.UpdatedAt = s.now()
	return nil
}
