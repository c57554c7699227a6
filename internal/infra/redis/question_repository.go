package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-duel-service/internal/domain"
	"quiz-duel-service/internal/infra/memory"
)

// QuestionRepository caches question sets in Redis as JSON blobs and falls
// back to a loader (and its static fallback) on cache miss:
// SET duel:questions:{subject}:{difficulty} <json> EX ttl
type QuestionRepository struct {
	client   *redis.Client
	loader   memory.QuestionLoader
	fallback memory.QuestionLoader
	ttl      time.Duration
	sf       singleflight.Group
	rnd      *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader, fallback memory.QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client:   client,
		loader:   loader,
		fallback: fallback,
		ttl:      ttl,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) Questions(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	key := r.key(subject, difficulty)

	if questions, ok := r.fromCache(ctx, key); ok {
		return clip(questions, count), nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if questions, ok := r.fromCache(ctx, key); ok {
			return questions, nil
		}

		questions, err := memory.LoadWithFallback(ctx, r.loader, r.fallback, subject, difficulty)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("marshal questions: %w", err)
		}
		// best-effort cache fill
		_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return clip(result.([]domain.Question), count), nil
}

func (r *QuestionRepository) fromCache(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil || len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func (r *QuestionRepository) key(subject domain.Subject, difficulty domain.Difficulty) string {
	return "duel:questions:" + string(subject) + ":" + string(difficulty)
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func clip(questions []domain.Question, count int) []domain.Question {
	if count <= 0 || count >= len(questions) {
		return questions
	}
	return questions[:count]
}
