package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-duel-service/internal/domain"
)

// QuestionLoader fetches a full question set from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty) ([]domain.Question, error)
}

// QuestionRepository caches question sets with TTL to avoid repeated supplier
// hits, and falls back to a static bank when the primary loader fails.
type QuestionRepository struct {
	loader   QuestionLoader
	fallback QuestionLoader
	ttl      time.Duration
	clock    func() time.Time
	sf       singleflight.Group
	rnd      *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader, fallback QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader:   loader,
		fallback: fallback,
		ttl:      ttl,
		clock:    time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:    make(map[string]cachedSet),
	}
}

// Questions returns up to count questions for a subject and difficulty.
func (r *QuestionRepository) Questions(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	key := setKey(subject, difficulty)
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return clip(entry.questions, count), nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.questions, nil
		}
		r.mu.RUnlock()

		questions, err := LoadWithFallback(ctx, r.loader, r.fallback, subject, difficulty)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[key] = cachedSet{questions: questions, expiresAt: now.Add(ttlWithJitter(r.ttl, r.rnd))}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return clip(result.([]domain.Question), count), nil
}

// LoadWithFallback tries the primary loader, then the static fallback.
func LoadWithFallback(ctx context.Context, loader, fallback QuestionLoader, subject domain.Subject, difficulty domain.Difficulty) ([]domain.Question, error) {
	questions, err := loader.LoadQuestions(ctx, subject, difficulty)
	if err == nil && len(questions) > 0 {
		return questions, nil
	}
	if fallback == nil {
		if err != nil {
			return nil, fmt.Errorf("load questions: %w", err)
		}
		return nil, domain.ErrQuestionsNotFound
	}
	questions, fbErr := fallback.LoadQuestions(ctx, subject, difficulty)
	if fbErr != nil {
		return nil, fmt.Errorf("load questions (fallback): %w", fbErr)
	}
	return questions, nil
}

func setKey(subject domain.Subject, difficulty domain.Difficulty) string {
	return string(subject) + ":" + string(difficulty)
}

func clip(questions []domain.Question, count int) []domain.Question {
	if count <= 0 || count >= len(questions) {
		return questions
	}
	return questions[:count]
}

func ttlWithJitter(ttl time.Duration, rnd *rand.Rand) time.Duration {
	if ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(ttl) / 10
	return ttl + time.Duration(rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader serves question sets from an in-memory bank.
type StaticQuestionLoader struct {
	bank map[domain.Subject]map[domain.Difficulty][]domain.Question
}

func NewStaticQuestionLoader(bank map[domain.Subject]map[domain.Difficulty][]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{bank: bank}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, subject domain.Subject, difficulty domain.Difficulty) ([]domain.Question, error) {
	if byDifficulty, ok := l.bank[subject]; ok {
		if questions, ok := byDifficulty[difficulty]; ok && len(questions) > 0 {
			return questions, nil
		}
	}
	return nil, domain.ErrQuestionsNotFound
}
