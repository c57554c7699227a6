package app

import (
	"context"

	"quiz-duel-service/internal/domain"
)

// Conn is a live client connection the server can push events to.
// Send must never block the caller; slow consumers drop messages.
type Conn interface {
	ID() string
	Send(evt Event)
}

// QuestionRepository supplies ordered question sets for a duel.
type QuestionRepository interface {
	Questions(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty, count int) ([]domain.Question, error)
}

// UserStore holds durable user records. ApplyRatings must serialize the
// read-modify-write per user so back-to-back completions cannot lose updates.
type UserStore interface {
	Ensure(ctx context.Context, id, username string) (domain.User, error)
	User(ctx context.Context, id string) (domain.User, error)
	ApplyRatings(ctx context.Context, subject domain.Subject, id1 string, rating1 int, id2 string, rating2 int) error
	SpendLife(ctx context.Context, id string) (int, error)
}

// DuelStore persists duel session records. Failures are recoverable from the
// core's perspective; callers log and carry on.
type DuelStore interface {
	Save(ctx context.Context, record domain.DuelRecord) error
}
