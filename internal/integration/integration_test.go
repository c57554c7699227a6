package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"quiz-duel-service/internal/app"
	"quiz-duel-service/internal/domain"
	pginfra "quiz-duel-service/internal/infra/postgres"
	pgmigrations "quiz-duel-service/internal/infra/postgres/migrations"
	redisinfra "quiz-duel-service/internal/infra/redis"
)

// recordingConn implements app.Conn for driving the server without a socket.
type recordingConn struct {
	id string

	mu     sync.Mutex
	events []app.Event
}

func (c *recordingConn) ID() string { return c.id }

func (c *recordingConn) Send(evt app.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

func (c *recordingConn) last(eventType string) (app.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Type == eventType {
			return c.events[i], true
		}
	}
	return app.Event{}, false
}

func TestRankedDuelEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestionSet(t, ctx, pgURL, domain.SubjectMath, domain.DifficultyIntermediate, sampleQuestions())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	questions := redisinfra.NewQuestionRepository(redisClient, pginfra.NewQuestionLoader(pool), nil, 5*time.Minute)
	users := pginfra.NewUserStore(pool)
	duels := redisinfra.NewDuelStore(redisClient, 5*time.Minute)

	cfg := app.DefaultGameConfig()
	cfg.AdvanceDelay = 10 * time.Millisecond
	server := app.NewGameServer(cfg, questions, users, duels, zap.NewNop())

	c1 := &recordingConn{id: "c1"}
	c2 := &recordingConn{id: "c2"}
	server.Register(c1)
	server.Register(c2)

	join := func(conn *recordingConn, userID string) {
		err := server.JoinQueue(ctx, conn.id, app.JoinQueuePayload{
			UserID: userID, Username: userID, Subject: domain.SubjectMath, Rating: 1000,
		})
		if err != nil {
			t.Fatalf("join queue %s: %v", userID, err)
		}
	}
	join(c1, "alice")
	join(c2, "bob")

	evt, ok := c1.last(app.EventMatchFound)
	if !ok {
		t.Fatalf("expected match-found")
	}
	sessionID := evt.Payload.(app.MatchFoundPayload).SessionID

	for _, conn := range []*recordingConn{c1, c2} {
		userID := "alice"
		if conn == c2 {
			userID = "bob"
		}
		if err := server.JoinGame(ctx, conn.id, app.JoinGamePayload{SessionID: sessionID, UserID: userID}); err != nil {
			t.Fatalf("join game %s: %v", userID, err)
		}
	}

	// Alice answers everything correctly, Bob always picks option 0 which is
	// wrong for every seeded question.
	for i, q := range sampleQuestions() {
		submit := func(conn *recordingConn, raw string) {
			if err := server.SubmitAnswer(ctx, conn.id, app.PlayerAnswerPayload{Answer: raw, ElapsedMs: 900}); err != nil {
				t.Fatalf("submit q%d: %v", i, err)
			}
		}
		submit(c1, strconv.Itoa(q.CorrectOption))
		submit(c2, "0")
	}

	end, ok := c1.last(app.EventGameEnd)
	if !ok {
		t.Fatalf("expected game-end")
	}
	payload := end.Payload.(app.GameEndPayload)
	if payload.WinnerID == nil || *payload.WinnerID != "alice" {
		t.Fatalf("expected alice to win, got %v", payload.WinnerID)
	}

	// The rating update landed in postgres.
	alice, err := users.User(ctx, "alice")
	if err != nil {
		t.Fatalf("load alice: %v", err)
	}
	bob, err := users.User(ctx, "bob")
	if err != nil {
		t.Fatalf("load bob: %v", err)
	}
	if got := alice.RatingFor(domain.SubjectMath); got != 1016 {
		t.Fatalf("alice rating = %d, want 1016", got)
	}
	if got := bob.RatingFor(domain.SubjectMath); got != 984 {
		t.Fatalf("bob rating = %d, want 984", got)
	}

	// The completed duel record landed in redis.
	record, err := duels.Duel(ctx, sessionID)
	if err != nil {
		t.Fatalf("load duel: %v", err)
	}
	if record.Status != domain.DuelCompleted || record.WinnerID != "alice" {
		t.Fatalf("unexpected duel record status=%s winner=%s", record.Status, record.WinnerID)
	}
	if record.Player1.Score != 5 || record.Player2.Score != 0 {
		t.Fatalf("unexpected persisted scores %d-%d", record.Player1.Score, record.Player2.Score)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "duel", "POSTGRES_PASSWORD": "duelpass", "POSTGRES_DB": "dueldb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://duel:duelpass@%s:%s/dueldb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuestionSet(t *testing.T, ctx context.Context, dsn string, subject domain.Subject, difficulty domain.Difficulty, questions []domain.Question) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(questions)
	if err != nil {
		t.Fatalf("marshal questions: %v", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO question_sets (subject, difficulty, data) VALUES (?, ?, ?::jsonb)
		 ON CONFLICT (subject, difficulty) DO UPDATE SET data=EXCLUDED.data`,
		string(subject), string(difficulty), string(data))
	if err != nil {
		t.Fatalf("insert question set: %v", err)
	}
}

func sampleQuestions() []domain.Question {
	questions := make([]domain.Question, 5)
	for i := range questions {
		questions[i] = domain.Question{
			Prompt:        fmt.Sprintf("sample question %d", i+1),
			Options:       []string{"wrong", "right", "wrong", "wrong"},
			CorrectOption: 1,
			Explanation:   "the second option is right",
		}
	}
	return questions
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
