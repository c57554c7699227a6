package app

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"quiz-duel-service/internal/bot"
	"quiz-duel-service/internal/domain"
	"quiz-duel-service/internal/elo"
)

// noAnswer is the normalized form of a missing, malformed, or negative raw
// answer. It never matches a valid option index, so it always scores wrong.
const noAnswer = -1

type playerSlot struct {
	userID    string
	username  string
	connID    string // empty while unbound
	isBot     bool
	accuracy  float64
	answers   map[int]string
	timesMs   map[int]int64
	score     int
	sawResult bool // game-end delivered to this slot
}

func newSlot(userID, username string) *playerSlot {
	return &playerSlot{
		userID:   userID,
		username: username,
		answers:  make(map[int]string),
		timesMs:  make(map[int]int64),
	}
}

// sessionDeps are the collaborators a session drives at its edges. The clock
// and scheduler are injectable so tests run without wall-clock waits.
type sessionDeps struct {
	sender   func(connID string, evt Event)
	users    UserStore
	duels    DuelStore
	logger   *zap.Logger
	clock    func() time.Time
	schedule func(d time.Duration, f func())
	rnd      *rand.Rand

	advanceDelay time.Duration
	onComplete   func(sessionID string)
}

// Session is the state machine for one duel. All mutations happen under one
// mutex, which gives the single-writer-per-session model: events for the same
// session never interleave, while distinct sessions proceed concurrently.
type Session struct {
	mu sync.Mutex

	id         string
	subject    domain.Subject
	difficulty domain.Difficulty
	questions  []domain.Question
	current    int
	status     domain.DuelStatus
	isTraining bool
	slots      [2]*playerSlot
	winnerID   string
	changes    [2]*RatingChange

	createdAt         time.Time
	startedAt         time.Time
	completedAt       time.Time
	questionStartedAt time.Time
	lastActivity      time.Time

	deps sessionDeps
}

func newSession(id string, subject domain.Subject, difficulty domain.Difficulty, questions []domain.Question, deps sessionDeps) *Session {
	now := deps.clock()
	return &Session{
		id:           id,
		subject:      subject,
		difficulty:   difficulty,
		questions:    questions,
		status:       domain.DuelWaiting,
		createdAt:    now,
		lastActivity: now,
		deps:         deps,
	}
}

// newPvPSession creates a ranked duel between two queued players.
func newPvPSession(id string, subject domain.Subject, questions []domain.Question, p1, p2 QueuedPlayer, deps sessionDeps) *Session {
	s := newSession(id, subject, domain.DifficultyIntermediate, questions, deps)
	s.slots[0] = newSlot(p1.UserID, p1.Username)
	s.slots[1] = newSlot(p2.UserID, p2.Username)
	return s
}

// newTrainingSession creates a duel against a bot. The bot slot counts as
// always present, so the session starts as soon as the human joins.
func newTrainingSession(id string, subject domain.Subject, difficulty domain.Difficulty, questions []domain.Question, userID, username string, opponent bot.Opponent, deps sessionDeps) *Session {
	s := newSession(id, subject, difficulty, questions, deps)
	s.isTraining = true
	s.slots[0] = newSlot(userID, username)
	botSlot := newSlot(opponent.ID, opponent.Username)
	botSlot.isBot = true
	botSlot.accuracy = opponent.Accuracy
	s.slots[1] = botSlot
	return s
}

// ID returns the durable session identifier.
func (s *Session) ID() string { return s.id }

// Join binds a connection to the slot owned by userID. The first time all
// human slots are bound the duel starts; joining an already running or
// finished duel is a resume that rebinds the connection without touching
// game state.
func (s *Session) Join(ctx context.Context, connID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.slotByUser(userID)
	if slot == nil {
		return domain.ErrNotInSession
	}
	slot.connID = connID
	s.lastActivity = s.deps.clock()

	switch s.status {
	case domain.DuelWaiting:
		if s.humansBound() {
			s.startLocked(ctx)
		}
	case domain.DuelInProgress:
		// Resume: replay the current question state, both players'
		// answered flags included, to the rejoining client only, so a
		// page reload cannot disturb the opponent.
		_, selfAnswered := slot.answers[s.current]
		s.deps.sender(connID, Event{Type: EventGameStart, Payload: GameStartPayload{
			Questions:            s.questions,
			CurrentQuestionIndex: s.current,
			Subject:              s.subject,
			HasAnswered:          selfAnswered,
		}})
		if other := s.otherSlot(slot); other != nil {
			if _, answered := other.answers[s.current]; answered {
				s.deps.sender(connID, Event{Type: EventOpponentAnswered})
			}
		}
	case domain.DuelCompleted:
		// The duel ended while this player was away; deliver the missed
		// result on rebind, then release the session once nobody is owed one.
		if !slot.sawResult {
			slot.sawResult = true
			s.deps.sender(connID, s.gameEndEventLocked(slot))
			if s.deps.onComplete != nil && s.resultsDeliveredLocked() {
				s.deps.onComplete(s.id)
			}
		}
	}
	return nil
}

func (s *Session) startLocked(ctx context.Context) {
	now := s.deps.clock()
	s.status = domain.DuelInProgress
	s.startedAt = now
	s.questionStartedAt = now

	s.persistLocked(ctx)

	payload := GameStartPayload{
		Questions:            s.questions,
		CurrentQuestionIndex: 0,
		Subject:              s.subject,
	}
	s.broadcastLocked(Event{Type: EventGameStart, Payload: payload})
	s.deps.logger.Info("duel started",
		zap.String("session_id", s.id),
		zap.String("subject", string(s.subject)),
		zap.Bool("training", s.isTraining))
}

// SubmitAnswer records a raw answer for the submitting connection against the
// server's current question index. Duplicate submissions for an
// already-answered index are idempotent no-ops, and submissions echoing a
// question index other than the current one are dropped as stale.
func (s *Session) SubmitAnswer(ctx context.Context, connID string, payload PlayerAnswerPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.DuelInProgress {
		s.deps.sender(connID, errorEvent("duel is not in progress"))
		return nil
	}
	slot := s.slotByConn(connID)
	if slot == nil {
		s.deps.sender(connID, errorEvent("you are not part of this duel"))
		return domain.ErrNotInSession
	}

	idx := s.current
	if payload.QuestionIndex != nil && *payload.QuestionIndex != idx {
		return nil // stale submission from before an advance
	}
	if _, answered := slot.answers[idx]; answered {
		return nil
	}

	slot.answers[idx] = payload.Answer
	slot.timesMs[idx] = payload.ElapsedMs
	s.lastActivity = s.deps.clock()

	if other := s.otherSlot(slot); other != nil {
		if other.isBot {
			s.recordBotAnswerLocked(other, idx)
		} else if other.connID != "" {
			s.deps.sender(other.connID, Event{Type: EventOpponentAnswered})
		}
	}

	if s.bothAnsweredLocked(idx) {
		s.resolveQuestionLocked(ctx)
	}
	return nil
}

func (s *Session) recordBotAnswerLocked(botSlot *playerSlot, idx int) {
	if _, answered := botSlot.answers[idx]; answered {
		return
	}
	answer := bot.Answer(s.questions[idx].CorrectOption, botSlot.accuracy, s.deps.rnd)
	botSlot.answers[idx] = strconv.Itoa(answer)
	botSlot.timesMs[idx] = 0
}

// ExpireQuestion synthesizes a no-answer for every slot that has not answered
// question idx and resolves it. Returns false when idx is no longer the
// current question or the duel is not running, making duplicate expiry
// triggers harmless.
func (s *Session) ExpireQuestion(ctx context.Context, idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.DuelInProgress || idx != s.current {
		return false
	}
	for _, slot := range s.slots {
		if _, answered := slot.answers[idx]; !answered {
			slot.answers[idx] = strconv.Itoa(noAnswer)
			slot.timesMs[idx] = 0
		}
	}
	s.resolveQuestionLocked(ctx)
	return true
}

// MaybeExpire expires the current question if it has been open longer than
// timeout. A non-positive timeout disables server-side question deadlines.
func (s *Session) MaybeExpire(ctx context.Context, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	s.mu.Lock()
	if s.status != domain.DuelInProgress || s.deps.clock().Sub(s.questionStartedAt) < timeout {
		s.mu.Unlock()
		return false
	}
	idx := s.current
	s.mu.Unlock()
	return s.ExpireQuestion(ctx, idx)
}

func (s *Session) bothAnsweredLocked(idx int) bool {
	for _, slot := range s.slots {
		if _, ok := slot.answers[idx]; !ok {
			return false
		}
	}
	return true
}

// resolveQuestionLocked scores the current question for both slots, sends
// per-player feedback, and either schedules the advance to the next question
// or finishes the duel.
func (s *Session) resolveQuestionLocked(ctx context.Context) {
	idx := s.current
	question := s.questions[idx]

	correct := [2]bool{}
	for i, slot := range s.slots {
		if normalizeAnswer(slot.answers[idx]) == question.CorrectOption {
			correct[i] = true
			slot.score++
		}
	}

	for i, slot := range s.slots {
		if slot.connID == "" {
			continue
		}
		s.deps.sender(slot.connID, Event{Type: EventQuestionResult, Payload: QuestionResultPayload{
			Correct:     correct[i],
			Explanation: question.Explanation,
			Scores:      Scores{Mine: slot.score, Opponent: s.slots[1-i].score},
		}})
	}

	if idx+1 < len(s.questions) {
		s.current = idx + 1
		s.questionStartedAt = s.deps.clock()
		s.persistLocked(ctx)
		next := s.current
		s.deps.schedule(s.deps.advanceDelay, func() {
			s.announceQuestion(next)
		})
		return
	}
	s.finishLocked(ctx)
}

// announceQuestion broadcasts next-question after the feedback display delay.
// The index advanced when the previous question resolved, so a completion or
// disposal in between makes this a no-op.
func (s *Session) announceQuestion(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.DuelInProgress || s.current != idx {
		return
	}
	s.broadcastLocked(Event{Type: EventNextQuestion, Payload: NextQuestionPayload{QuestionIndex: idx}})
}

// finishLocked runs the terminal transition exactly once: status flips to
// completed before any side effect, so a duplicate trigger short-circuits at
// the top and can never double-apply a rating or life update. The session is
// released right away only when every human slot saw the result; otherwise it
// stays registered so a disconnected player can rebind for the missed
// game-end, and the reaper disposes it after the grace period.
func (s *Session) finishLocked(ctx context.Context) {
	if s.status == domain.DuelCompleted {
		return
	}
	s.status = domain.DuelCompleted
	s.completedAt = s.deps.clock()

	p1, p2 := s.slots[0], s.slots[1]

	if s.isTraining {
		// Ties favor the human: matching the bot passes training.
		if p1.score >= p2.score {
			s.winnerID = p1.userID
		} else {
			s.winnerID = p2.userID
			if _, err := s.deps.users.SpendLife(ctx, p1.userID); err != nil {
				s.deps.logger.Error("life decrement failed",
					zap.String("session_id", s.id),
					zap.String("user_id", p1.userID),
					zap.Error(err))
			}
		}
	} else {
		switch {
		case p1.score > p2.score:
			s.winnerID = p1.userID
		case p2.score > p1.score:
			s.winnerID = p2.userID
		}
		s.changes = s.applyRatingsLocked(ctx)
	}

	s.persistLocked(ctx)

	for _, slot := range s.slots {
		if slot.connID == "" {
			continue
		}
		slot.sawResult = true
		s.deps.sender(slot.connID, s.gameEndEventLocked(slot))
	}

	s.deps.logger.Info("duel completed",
		zap.String("session_id", s.id),
		zap.String("winner_id", s.winnerID),
		zap.Int("score1", p1.score),
		zap.Int("score2", p2.score))

	if s.deps.onComplete != nil && s.resultsDeliveredLocked() {
		s.deps.onComplete(s.id)
	}
}

// gameEndEventLocked builds the per-recipient game-end event for a slot.
func (s *Session) gameEndEventLocked(slot *playerSlot) Event {
	i := 0
	if s.slots[1] == slot {
		i = 1
	}
	var winner *string
	if s.winnerID != "" {
		w := s.winnerID
		winner = &w
	}
	payload := GameEndPayload{
		WinnerID:    winner,
		FinalScores: Scores{Mine: slot.score, Opponent: s.slots[1-i].score},
	}
	if s.changes[i] != nil && s.changes[1-i] != nil {
		payload.RatingChanges = &RatingChanges{Mine: *s.changes[i], Opponent: *s.changes[1-i]}
	}
	return Event{Type: EventGameEnd, Payload: payload}
}

func (s *Session) resultsDeliveredLocked() bool {
	for _, slot := range s.slots {
		if !slot.isBot && !slot.sawResult {
			return false
		}
	}
	return true
}

// applyRatingsLocked performs the single rating update for a completed PvP
// duel. The store serializes the read-modify-write; a failure is logged and
// the in-memory result still reaches the clients.
func (s *Session) applyRatingsLocked(ctx context.Context) [2]*RatingChange {
	var changes [2]*RatingChange

	u1, err1 := s.deps.users.User(ctx, s.slots[0].userID)
	u2, err2 := s.deps.users.User(ctx, s.slots[1].userID)
	if err1 != nil || err2 != nil {
		s.deps.logger.Error("rating update skipped, user lookup failed",
			zap.String("session_id", s.id),
			zap.NamedError("player1", err1),
			zap.NamedError("player2", err2))
		return changes
	}

	score1, score2 := elo.Draw, elo.Draw
	switch s.winnerID {
	case s.slots[0].userID:
		score1, score2 = elo.Win, elo.Loss
	case s.slots[1].userID:
		score1, score2 = elo.Loss, elo.Win
	}

	old1, old2 := u1.RatingFor(s.subject), u2.RatingFor(s.subject)
	new1 := elo.Rate(old1, old2, score1, elo.DefaultK)
	new2 := elo.Rate(old2, old1, score2, elo.DefaultK)

	if err := s.deps.users.ApplyRatings(ctx, s.subject, u1.ID, new1, u2.ID, new2); err != nil {
		s.deps.logger.Error("rating persist failed",
			zap.String("session_id", s.id),
			zap.Error(err))
	}

	changes[0] = &RatingChange{Old: old1, New: new1, Change: new1 - old1}
	changes[1] = &RatingChange{Old: old2, New: new2, Change: new2 - old2}
	return changes
}

// Disconnect unbinds a connection from its slot. The slot survives so the
// player can rejoin; the remaining opponent is told, not aborted.
func (s *Session) Disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.slotByConn(connID)
	if slot == nil {
		return
	}
	slot.connID = ""
	s.lastActivity = s.deps.clock()

	if other := s.otherSlot(slot); other != nil && other.connID != "" {
		s.deps.sender(other.connID, errorEvent("opponent disconnected"))
	}
}

// Reapable reports whether the reaper should dispose of this session: it is
// finished with every result delivered, or nobody has been connected for
// longer than the grace period. A completed session with an unnotified slot
// lingers for the grace period so the player can rebind for the result.
func (s *Session) Reapable(grace time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.DuelCompleted {
		if s.resultsDeliveredLocked() {
			return true
		}
		return s.deps.clock().Sub(s.lastActivity) > grace
	}
	for _, slot := range s.slots {
		if slot.connID != "" {
			return false
		}
	}
	return s.deps.clock().Sub(s.lastActivity) > grace
}

// Snapshot returns the durable record projection of the current state.
func (s *Session) Snapshot() domain.DuelRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.DuelRecord {
	return domain.DuelRecord{
		ID:            s.id,
		Player1ID:     s.slots[0].userID,
		Player2ID:     s.slots[1].userID,
		Subject:       s.subject,
		Difficulty:    s.difficulty,
		Questions:     s.questions,
		QuestionIndex: s.current,
		Player1:       progressOf(s.slots[0]),
		Player2:       progressOf(s.slots[1]),
		Status:        s.status,
		WinnerID:      s.winnerID,
		IsTraining:    s.isTraining,
		CreatedAt:     s.createdAt,
		StartedAt:     s.startedAt,
		CompletedAt:   s.completedAt,
	}
}

func progressOf(slot *playerSlot) domain.PlayerProgress {
	answers := make(map[int]string, len(slot.answers))
	for k, v := range slot.answers {
		answers[k] = v
	}
	times := make(map[int]int64, len(slot.timesMs))
	for k, v := range slot.timesMs {
		times[k] = v
	}
	return domain.PlayerProgress{Answers: answers, TimesMs: times, Score: slot.score}
}

func (s *Session) persistLocked(ctx context.Context) {
	if err := s.deps.duels.Save(ctx, s.snapshotLocked()); err != nil {
		s.deps.logger.Warn("duel persist failed",
			zap.String("session_id", s.id),
			zap.Error(err))
	}
}

func (s *Session) broadcastLocked(evt Event) {
	for _, slot := range s.slots {
		if slot.connID != "" {
			s.deps.sender(slot.connID, evt)
		}
	}
}

func (s *Session) slotByUser(userID string) *playerSlot {
	for _, slot := range s.slots {
		if slot.userID == userID {
			return slot
		}
	}
	return nil
}

func (s *Session) slotByConn(connID string) *playerSlot {
	if connID == "" {
		return nil
	}
	for _, slot := range s.slots {
		if slot.connID == connID {
			return slot
		}
	}
	return nil
}

func (s *Session) otherSlot(slot *playerSlot) *playerSlot {
	if s.slots[0] == slot {
		return s.slots[1]
	}
	return s.slots[0]
}

func (s *Session) humansBound() bool {
	for _, slot := range s.slots {
		if !slot.isBot && slot.connID == "" {
			return false
		}
	}
	return true
}

// normalizeAnswer maps a raw client answer to an option index. Anything that
// is not a non-negative integer becomes noAnswer, so malformed input scores
// wrong instead of failing.
func normalizeAnswer(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return noAnswer
	}
	return n
}
