package store

import (
	"context"
	"sort"
	"sync"

	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/model"
)

// MemoryStatusStore is a mutex-guarded in-memory StatusStore. Used by tests
// and by deployments that opt out of MongoDB.
type MemoryStatusStore struct {
	mu      sync.RWMutex
	records map[string]model.StatusRecord
}

func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{records: make(map[string]model.StatusRecord)}
}

func (s *MemoryStatusStore) Get(_ context.Context, id string) (model.StatusRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok, nil
}

func (s *MemoryStatusStore) Upsert(_ context.Context, rec model.StatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryStatusStore) List(_ context.Context) ([]model.StatusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.StatusRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MemoryLogStore keeps the newest entries first and trims past capacity
// on every append.
type MemoryLogStore struct {
	mu       sync.RWMutex
	entries  []model.LogEntry // newest first
	capacity int
}

func NewMemoryLogStore(capacity int) *MemoryLogStore {
	return &MemoryLogStore{capacity: capacity}
}

func (s *MemoryLogStore) Append(_ context.Context, entry model.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Prepend, then restore timestamp order. The stable sort keeps the new
	// entry ahead of older ones that share its timestamp.
	s.entries = append([]model.LogEntry{entry}, s.entries...)
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].Timestamp > s.entries[j].Timestamp
	})
	if len(s.entries) > s.capacity {
		s.entries = s.entries[:s.capacity]
	}
	return nil
}

func (s *MemoryLogStore) Recent(_ context.Context, limit int) ([]model.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]model.LogEntry, limit)
	copy(out, s.entries[:limit])
	return out, nil
}

func (s *MemoryLogStore) Acknowledge(_ context.Context, id string) (model.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID != id {
			continue
		}
		if !s.entries[i].Ackable() {
			return model.LogEntry{}, ErrNotAckable
		}
		s.entries[i].Acknowledged = true
		return s.entries[i], nil
	}
	return model.LogEntry{}, ErrNotAckable
}
