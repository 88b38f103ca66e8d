package jobstore

import (
	"context"
	"sync"

	"videoforge/internal/job"
)

// MemoryStore is the volatile fallback: an in-process map guarded by a
// RWMutex. Records are cloned on the way in and out so callers never share
// memory with the store. Nothing survives a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*job.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*job.Record)}
}

func (s *MemoryStore) Put(ctx context.Context, rec *job.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[rec.ID] = rec.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*job.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.jobs[id]
	return ok, nil
}

func (s *MemoryStore) Mode() Mode {
	return ModeMemory
}

var _ Store = (*MemoryStore)(nil)
