package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-duel-service/internal/app"
	"quiz-duel-service/internal/config"
	"quiz-duel-service/internal/infra/memory"
	pginfra "quiz-duel-service/internal/infra/postgres"
	redisinfra "quiz-duel-service/internal/infra/redis"
	transport "quiz-duel-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the duel server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// The static bank is always the fallback, so duels keep working when the
	// question database is down.
	fallback := memory.NewStaticQuestionLoader(memory.DefaultQuestionBank())
	var loader memory.QuestionLoader = fallback
	if pool != nil {
		loader = pginfra.NewQuestionLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = redisinfra.NewQuestionRepository(redisClient, loader, fallback, questionTTL)
	} else {
		questionRepo = memory.NewQuestionRepository(loader, fallback, questionTTL)
	}

	var users app.UserStore
	if pool != nil {
		users = pginfra.NewUserStore(pool)
	} else {
		users = memory.NewUserStore()
	}

	var duels app.DuelStore
	if redisClient != nil {
		duels = redisinfra.NewDuelStore(redisClient, redisTTL)
	} else {
		duels = memory.NewDuelStore()
	}

	gameCfg := gameConfig(cfg)
	gameServer := app.NewGameServer(gameCfg, questionRepo, users, duels, logger)

	reaperCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go gameServer.RunReaper(reaperCtx)

	wsHandler := transport.NewWSHandler(gameServer, logger)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting duel service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func gameConfig(cfg config.Config) app.GameConfig {
	gameCfg := app.DefaultGameConfig()
	if cfg.Game.QuestionsPerDuel > 0 {
		gameCfg.QuestionsPerDuel = cfg.Game.QuestionsPerDuel
	}
	gameCfg.AdvanceDelay = config.TTLDuration(cfg.Game.AdvanceDelay, gameCfg.AdvanceDelay)
	gameCfg.SessionGrace = config.TTLDuration(cfg.Game.SessionGrace, gameCfg.SessionGrace)
	gameCfg.QuestionTimeout = config.TTLDuration(cfg.Game.QuestionTimeout, gameCfg.QuestionTimeout)
	gameCfg.ReapInterval = config.TTLDuration(cfg.Game.ReapInterval, gameCfg.ReapInterval)
	return gameCfg
}
