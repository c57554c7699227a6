package memory

import (
	"context"
	"sync"

	"quiz-duel-service/internal/domain"
)

// UserStore is an in-memory implementation of app.UserStore. The single mutex
// serializes every read-modify-write, so back-to-back duel completions for
// the same user cannot lose updates.
type UserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*domain.User)}
}

// Ensure creates the user on first sight and refreshes the username.
func (s *UserStore) Ensure(_ context.Context, id, username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		user = &domain.User{
			ID:       id,
			Username: username,
			Ratings:  make(map[domain.Subject]int),
			Lives:    domain.MaxLives,
		}
		s.users[id] = user
	} else if username != "" {
		user.Username = username
	}
	return copyUser(user), nil
}

func (s *UserStore) User(_ context.Context, id string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return copyUser(user), nil
}

// ApplyRatings writes both players' new ratings for a subject atomically.
func (s *UserStore) ApplyRatings(_ context.Context, subject domain.Subject, id1 string, rating1 int, id2 string, rating2 int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, update := range []struct {
		id     string
		rating int
	}{{id1, rating1}, {id2, rating2}} {
		user, ok := s.users[update.id]
		if !ok {
			return domain.ErrUserNotFound
		}
		user.Ratings[subject] = update.rating
	}
	return nil
}

// SpendLife decrements the user's training lives, floored at zero, and
// returns the remaining count.
func (s *UserStore) SpendLife(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	if user.Lives > 0 {
		user.Lives--
	}
	return user.Lives, nil
}

// SetRating seeds a subject rating directly; used by tests and backfills.
func (s *UserStore) SetRating(_ context.Context, id string, subject domain.Subject, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Ratings[subject] = rating
	return nil
}

// SetLives seeds the lives counter directly.
func (s *UserStore) SetLives(_ context.Context, id string, lives int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Lives = lives
	return nil
}

func copyUser(u *domain.User) domain.User {
	out := *u
	out.Ratings = make(map[domain.Subject]int, len(u.Ratings))
	for k, v := range u.Ratings {
		out.Ratings[k] = v
	}
	return out
}
