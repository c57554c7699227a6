package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-duel-service/internal/bot"
	"quiz-duel-service/internal/domain"
)

// GameConfig carries the duel tunables.
type GameConfig struct {
	// QuestionsPerDuel is the fixed question count fetched for every duel.
	QuestionsPerDuel int
	// AdvanceDelay is the feedback display pause before the next question.
	AdvanceDelay time.Duration
	// SessionGrace is how long an abandoned session survives for reconnects.
	SessionGrace time.Duration
	// QuestionTimeout, when positive, lets the reaper expire questions with
	// a synthesized no-answer for silent players. Zero disables it.
	QuestionTimeout time.Duration
	// ReapInterval is the sweep cadence of the background reaper.
	ReapInterval time.Duration
}

// DefaultGameConfig mirrors the product defaults: 5 questions, 3s feedback
// pause, 2 minute reconnect grace.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		QuestionsPerDuel: 5,
		AdvanceDelay:     3 * time.Second,
		SessionGrace:     2 * time.Minute,
		ReapInterval:     15 * time.Second,
	}
}

// GameServer owns all process-local real-time state: the matchmaking queues,
// the session directory, and the connection registry. It is the single entry
// point the transport dispatches client events into.
type GameServer struct {
	cfg       GameConfig
	logger    *zap.Logger
	questions QuestionRepository
	users     UserStore
	duels     DuelStore

	queue *QueueManager

	mu           sync.RWMutex
	sessions     map[string]*Session // sessionID -> live state machine
	conns        map[string]Conn     // connID -> connection
	connSessions map[string]string   // connID -> sessionID

	clock    func() time.Time
	schedule func(d time.Duration, f func())
	rnd      *rand.Rand
}

// ServerOption tweaks a GameServer, mainly for deterministic tests.
type ServerOption func(*GameServer)

// WithClock replaces the wall clock.
func WithClock(clock func() time.Time) ServerOption {
	return func(s *GameServer) { s.clock = clock }
}

// WithScheduler replaces the delayed-continuation scheduler.
func WithScheduler(schedule func(d time.Duration, f func())) ServerOption {
	return func(s *GameServer) { s.schedule = schedule }
}

// WithRand replaces the bot answer randomness source.
func WithRand(rnd *rand.Rand) ServerOption {
	return func(s *GameServer) { s.rnd = rnd }
}

func NewGameServer(cfg GameConfig, questions QuestionRepository, users UserStore, duels DuelStore, logger *zap.Logger, opts ...ServerOption) *GameServer {
	s := &GameServer{
		cfg:          cfg,
		logger:       logger,
		questions:    questions,
		users:        users,
		duels:        duels,
		queue:        NewQueueManager(),
		sessions:     make(map[string]*Session),
		conns:        make(map[string]Conn),
		connSessions: make(map[string]string),
		clock:        time.Now,
		schedule:     func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register makes a connection addressable for outbound events.
func (s *GameServer) Register(conn Conn) {
	s.mu.Lock()
	s.conns[conn.ID()] = conn
	s.mu.Unlock()
}

// Unregister handles a dropped connection: it leaves any queue, unbinds the
// session slot so the player can resume, and forgets the connection.
func (s *GameServer) Unregister(connID string) {
	s.queue.Remove(connID)

	s.mu.Lock()
	sessionID, inSession := s.connSessions[connID]
	session := s.sessions[sessionID]
	delete(s.connSessions, connID)
	delete(s.conns, connID)
	s.mu.Unlock()

	if inSession && session != nil {
		session.Disconnect(connID)
	}
}

func (s *GameServer) sendTo(connID string, evt Event) {
	s.mu.RLock()
	conn, ok := s.conns[connID]
	s.mu.RUnlock()
	if ok {
		conn.Send(evt)
	}
}

// JoinQueue enqueues a player for matchmaking and immediately attempts to pair.
func (s *GameServer) JoinQueue(ctx context.Context, connID string, p JoinQueuePayload) error {
	if p.UserID == "" || p.Subject == "" || p.Username == "" {
		s.sendTo(connID, errorEvent("join-queue requires userId, subject and username"))
		return domain.ErrInvalidPayload
	}

	if _, err := s.users.Ensure(ctx, p.UserID, p.Username); err != nil {
		s.logger.Warn("user ensure failed", zap.String("user_id", p.UserID), zap.Error(err))
	}

	length := s.queue.Enqueue(QueuedPlayer{
		LogicalID:  uuid.NewString(),
		ConnID:     connID,
		UserID:     p.UserID,
		Username:   p.Username,
		Subject:    p.Subject,
		Rating:     p.Rating,
		EnqueuedAt: s.clock(),
	})

	s.sendTo(connID, Event{Type: EventQueueStatus, Payload: QueueStatusPayload{
		Position:       length,
		PlayersInQueue: length,
	}})
	s.logger.Info("player queued",
		zap.String("user_id", p.UserID),
		zap.String("subject", string(p.Subject)),
		zap.Int("queue_len", length))

	s.tryMatch(ctx, p.Subject)
	return nil
}

// LeaveQueue removes the connection from matchmaking. No-op if not queued.
func (s *GameServer) LeaveQueue(connID string) {
	s.queue.Remove(connID)
}

// tryMatch pairs the two closest-rated waiting players and creates their
// session. On question supplier failure both players get an error event and
// nothing is registered; the clients retry matchmaking from scratch.
func (s *GameServer) tryMatch(ctx context.Context, subject domain.Subject) {
	p1, p2, ok := s.queue.DequeueBestPair(subject)
	if !ok {
		return
	}

	questions, err := s.questions.Questions(ctx, subject, domain.DifficultyIntermediate, s.cfg.QuestionsPerDuel)
	if err != nil {
		s.logger.Error("question supply failed",
			zap.String("subject", string(subject)),
			zap.Error(err))
		s.sendTo(p1.ConnID, errorEvent("failed to prepare duel questions, please retry"))
		s.sendTo(p2.ConnID, errorEvent("failed to prepare duel questions, please retry"))
		return
	}

	session := newPvPSession(uuid.NewString(), subject, questions, p1, p2, s.sessionDeps())
	s.registerSession(session, p1.ConnID, p2.ConnID)

	s.sendTo(p1.ConnID, Event{Type: EventMatchFound, Payload: MatchFoundPayload{
		SessionID:     session.ID(),
		Opponent:      OpponentInfo{Username: p2.Username, Rating: p2.Rating},
		IsFirstPlayer: true,
	}})
	s.sendTo(p2.ConnID, Event{Type: EventMatchFound, Payload: MatchFoundPayload{
		SessionID:     session.ID(),
		Opponent:      OpponentInfo{Username: p1.Username, Rating: p1.Rating},
		IsFirstPlayer: false,
	}})

	s.logger.Info("match found",
		zap.String("session_id", session.ID()),
		zap.String("subject", string(subject)),
		zap.String("player1", p1.UserID),
		zap.String("player2", p2.UserID),
		zap.Int("rating_diff", absInt(p1.Rating-p2.Rating)))
}

// StartTraining creates a bot duel for the requesting player, skipping
// matchmaking entirely. The client joins it like any other session.
func (s *GameServer) StartTraining(ctx context.Context, connID string, p StartTrainingPayload) error {
	if p.UserID == "" || p.Subject == "" || p.Username == "" {
		s.sendTo(connID, errorEvent("start-training requires userId, subject and username"))
		return domain.ErrInvalidPayload
	}
	difficulty := p.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyIntermediate
	}

	if _, err := s.users.Ensure(ctx, p.UserID, p.Username); err != nil {
		s.logger.Warn("user ensure failed", zap.String("user_id", p.UserID), zap.Error(err))
	}

	questions, err := s.questions.Questions(ctx, p.Subject, difficulty, s.cfg.QuestionsPerDuel)
	if err != nil {
		s.logger.Error("question supply failed",
			zap.String("subject", string(p.Subject)),
			zap.Error(err))
		s.sendTo(connID, errorEvent("failed to prepare training questions, please retry"))
		return err
	}

	opponent := bot.OpponentFor(difficulty)
	session := newTrainingSession(uuid.NewString(), p.Subject, difficulty, questions, p.UserID, p.Username, opponent, s.sessionDeps())
	s.registerSession(session, connID)

	s.sendTo(connID, Event{Type: EventMatchFound, Payload: MatchFoundPayload{
		SessionID:     session.ID(),
		Opponent:      OpponentInfo{Username: opponent.Username, Rating: opponent.Rating},
		IsFirstPlayer: true,
	}})
	s.logger.Info("training session created",
		zap.String("session_id", session.ID()),
		zap.String("user_id", p.UserID),
		zap.String("difficulty", string(difficulty)))
	return nil
}

// JoinGame binds the connection to its slot in the session, starting or
// resuming the duel as appropriate.
func (s *GameServer) JoinGame(ctx context.Context, connID string, p JoinGamePayload) error {
	if p.SessionID == "" || p.UserID == "" {
		s.sendTo(connID, errorEvent("join-game requires sessionId and userId"))
		return domain.ErrInvalidPayload
	}

	s.mu.RLock()
	session, ok := s.sessions[p.SessionID]
	s.mu.RUnlock()
	if !ok {
		s.sendTo(connID, errorEvent("game session not found"))
		return domain.ErrSessionNotFound
	}

	if err := session.Join(ctx, connID, p.UserID); err != nil {
		s.sendTo(connID, errorEvent("you are not part of this game session"))
		return err
	}

	s.mu.Lock()
	// Join may have delivered the last missed result and released the
	// session; only map the connection while the session is still live.
	if _, live := s.sessions[p.SessionID]; live {
		s.connSessions[connID] = p.SessionID
	}
	s.mu.Unlock()
	return nil
}

// SubmitAnswer routes a player-answer event to the connection's session.
func (s *GameServer) SubmitAnswer(ctx context.Context, connID string, p PlayerAnswerPayload) error {
	if p.Answer == "" {
		s.sendTo(connID, errorEvent("player-answer requires an answer"))
		return domain.ErrInvalidPayload
	}

	s.mu.RLock()
	sessionID, ok := s.connSessions[connID]
	session := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok || session == nil {
		s.sendTo(connID, errorEvent("no active game session"))
		return domain.ErrNoActiveSession
	}
	return session.SubmitAnswer(ctx, connID, p)
}

// Session returns the live session by id, for the reaper and tests.
func (s *GameServer) Session(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

// RunReaper sweeps sessions until ctx is done: completed and abandoned
// sessions are disposed, and with a question timeout configured, questions
// stuck past their deadline resolve with synthesized no-answers.
func (s *GameServer) RunReaper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Sweep runs one reaper pass.
func (s *GameServer) Sweep(ctx context.Context) {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	for _, session := range sessions {
		if session.MaybeExpire(ctx, s.cfg.QuestionTimeout) {
			s.logger.Info("question expired", zap.String("session_id", session.ID()))
		}
		if session.Reapable(s.cfg.SessionGrace) {
			s.dispose(session.ID())
		}
	}
}

func (s *GameServer) registerSession(session *Session, connIDs ...string) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	for _, connID := range connIDs {
		s.connSessions[connID] = session.ID()
	}
	s.mu.Unlock()
}

// dispose removes a session from the directory along with the connection
// bindings that point at it.
func (s *GameServer) dispose(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return
	}
	delete(s.sessions, sessionID)
	for connID, id := range s.connSessions {
		if id == sessionID {
			delete(s.connSessions, connID)
		}
	}
	s.logger.Info("session disposed", zap.String("session_id", sessionID))
}

func (s *GameServer) sessionDeps() sessionDeps {
	return sessionDeps{
		sender:       s.sendTo,
		users:        s.users,
		duels:        s.duels,
		logger:       s.logger,
		clock:        s.clock,
		schedule:     s.schedule,
		rnd:          s.rnd,
		advanceDelay: s.cfg.AdvanceDelay,
		onComplete:   s.dispose,
	}
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
