package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-duel-service/internal/domain"
)

// DuelStore persists duel records as JSON blobs:
// SET duel:record:{id} <json> EX ttl
// Completed duels keep the same key; the TTL bounds storage for abandoned ones.
type DuelStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDuelStore(client *redis.Client, ttl time.Duration) *DuelStore {
	return &DuelStore{client: client, ttl: ttl}
}

func (s *DuelStore) Save(ctx context.Context, record domain.DuelRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal duel record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(record.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save duel record: %w", err)
	}
	return nil
}

// Duel loads a stored record by id.
func (s *DuelStore) Duel(ctx context.Context, id string) (domain.DuelRecord, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return domain.DuelRecord{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.DuelRecord{}, fmt.Errorf("load duel record: %w", err)
	}
	var record domain.DuelRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.DuelRecord{}, fmt.Errorf("unmarshal duel record: %w", err)
	}
	return record, nil
}

func (s *DuelStore) key(id string) string {
	return "duel:record:" + id
}
