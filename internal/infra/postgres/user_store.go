package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-duel-service/internal/domain"
)

// UserStore persists user records in the users table. Rating updates are
// single UPDATE statements inside one transaction, so the database serializes
// concurrent read-modify-writes on the same row.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) Ensure(ctx context.Context, id, username string) (domain.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, ratings, lives)
		VALUES ($1, $2, '{}'::jsonb, $3)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, username, ratings, lives`,
		id, username, domain.MaxLives)
	return scanUser(row)
}

func (s *UserStore) User(ctx context.Context, id string) (domain.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, username, ratings, lives FROM users WHERE id=$1`, id)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, err
}

func (s *UserStore) ApplyRatings(ctx context.Context, subject domain.Subject, id1 string, rating1 int, id2 string, rating2 int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rating update: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, update := range []struct {
		id     string
		rating int
	}{{id1, rating1}, {id2, rating2}} {
		tag, err := tx.Exec(ctx, `
			UPDATE users
			SET ratings = jsonb_set(COALESCE(ratings, '{}'::jsonb), ARRAY[$2::text], to_jsonb($3::int))
			WHERE id = $1`,
			update.id, string(subject), update.rating)
		if err != nil {
			return fmt.Errorf("update rating for %s: %w", update.id, err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
	}
	return tx.Commit(ctx)
}

func (s *UserStore) SpendLife(ctx context.Context, id string) (int, error) {
	var lives int
	err := s.pool.QueryRow(ctx,
		`UPDATE users SET lives = GREATEST(lives - 1, 0) WHERE id=$1 RETURNING lives`, id).Scan(&lives)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("spend life for %s: %w", id, err)
	}
	return lives, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		user domain.User
		raw  []byte
	)
	if err := row.Scan(&user.ID, &user.Username, &raw, &user.Lives); err != nil {
		return domain.User{}, err
	}
	user.Ratings = make(map[domain.Subject]int)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &user.Ratings); err != nil {
			return domain.User{}, fmt.Errorf("unmarshal ratings: %w", err)
		}
	}
	return user, nil
}
