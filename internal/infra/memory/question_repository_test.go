package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-duel-service/internal/domain"
)

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticQuestionLoader(DefaultQuestionBank())}
	repo := NewQuestionRepository(loader, nil, time.Minute)

	questions, err := repo.Questions(context.Background(), domain.SubjectMath, domain.DifficultyIntermediate, 5)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(questions))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.Questions(context.Background(), domain.SubjectMath, domain.DifficultyIntermediate, 5); err != nil {
		t.Fatalf("questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	// A different subject misses the cache.
	if _, err := repo.Questions(context.Background(), domain.SubjectEnglish, domain.DifficultyIntermediate, 5); err != nil {
		t.Fatalf("questions english: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected second load, got %d", loader.calls)
	}
}

func TestQuestionRepositoryFallsBack(t *testing.T) {
	repo := NewQuestionRepository(&failingLoader{}, NewStaticQuestionLoader(DefaultQuestionBank()), time.Minute)

	questions, err := repo.Questions(context.Background(), domain.SubjectMath, domain.DifficultyBeginner, 3)
	if err != nil {
		t.Fatalf("expected fallback to serve, got %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
}

func TestQuestionRepositoryErrorWhenBothFail(t *testing.T) {
	repo := NewQuestionRepository(&failingLoader{}, NewStaticQuestionLoader(nil), time.Minute)

	if _, err := repo.Questions(context.Background(), domain.SubjectMath, domain.DifficultyBeginner, 5); err == nil {
		t.Fatalf("expected error when loader and fallback both fail")
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx, subject, difficulty)
}

type failingLoader struct{}

func (l *failingLoader) LoadQuestions(context.Context, domain.Subject, domain.Difficulty) ([]domain.Question, error) {
	return nil, errors.New("supplier unreachable")
}
