package automation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ignite/adpilot/internal/domain"
)

// RecordStore persists automation records. The Postgres implementation
// lives in internal/repository/postgres; MemoryStore backs tests and
// single-process deployments.
type RecordStore interface {
	Save(ctx context.Context, rec *domain.AutomationRecord) error
	Update(ctx context.Context, rec *domain.AutomationRecord) error
	List(ctx context.Context, period domain.DateRange) ([]domain.AutomationRecord, error)
}

// MemoryStore is an in-memory RecordStore safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.AutomationRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.AutomationRecord)}
}

// Save inserts a new record.
func (s *MemoryStore) Save(ctx context.Context, rec *domain.AutomationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("record %s already exists", rec.ID)
	}
	s.records[rec.ID] = *rec
	return nil
}

// Update replaces an existing record.
func (s *MemoryStore) Update(ctx context.Context, rec *domain.AutomationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; !exists {
		return fmt.Errorf("record %s not found", rec.ID)
	}
	s.records[rec.ID] = *rec
	return nil
}

// List returns records started within the period, oldest first.
func (s *MemoryStore) List(ctx context.Context, period domain.DateRange) ([]domain.AutomationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.AutomationRecord
	for _, rec := range s.records {
		if rec.StartedAt.Before(period.Start) || !rec.StartedAt.Before(period.End) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}
