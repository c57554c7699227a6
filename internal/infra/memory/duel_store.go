package memory

import (
	"context"
	"sync"

	"quiz-duel-service/internal/domain"
)

// DuelStore keeps duel records in process memory. Save overwrites, so the
// latest snapshot of a session always wins.
type DuelStore struct {
	mu    sync.RWMutex
	duels map[string]domain.DuelRecord
}

func NewDuelStore() *DuelStore {
	return &DuelStore{duels: make(map[string]domain.DuelRecord)}
}

func (s *DuelStore) Save(_ context.Context, record domain.DuelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duels[record.ID] = record
	return nil
}

// Duel returns a stored record by id.
func (s *DuelStore) Duel(_ context.Context, id string) (domain.DuelRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.duels[id]
	return record, ok
}
