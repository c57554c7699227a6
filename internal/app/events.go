package app

import "quiz-duel-service/internal/domain"

// Event is the wire envelope for server→client messages.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Server→client event types.
const (
	EventQueueStatus      = "queue-status"
	EventMatchFound       = "match-found"
	EventGameStart        = "game-start"
	EventOpponentAnswered = "opponent-answered"
	EventQuestionResult   = "question-result"
	EventNextQuestion     = "next-question"
	EventGameEnd          = "game-end"
	EventError            = "error"
)

// Client→server event types.
const (
	EventJoinQueue     = "join-queue"
	EventLeaveQueue    = "leave-queue"
	EventJoinGame      = "join-game"
	EventPlayerAnswer  = "player-answer"
	EventStartTraining = "start-training"
)

// JoinQueuePayload asks to enter matchmaking for a subject.
type JoinQueuePayload struct {
	UserID   string         `json:"userId"`
	Subject  domain.Subject `json:"subject"`
	Rating   int            `json:"rating"`
	Username string         `json:"username"`
}

// JoinGamePayload binds a connection to a session slot.
type JoinGamePayload struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

// PlayerAnswerPayload carries a raw answer for the current question.
// QuestionIndex is optional; clients that echo it let the server drop
// submissions that raced past a question advance.
type PlayerAnswerPayload struct {
	Answer        string `json:"answer"`
	ElapsedMs     int64  `json:"elapsedMs"`
	QuestionIndex *int   `json:"questionIndex,omitempty"`
}

// StartTrainingPayload creates a training duel against a bot opponent.
type StartTrainingPayload struct {
	UserID     string            `json:"userId"`
	Username   string            `json:"username"`
	Subject    domain.Subject    `json:"subject"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

// QueueStatusPayload reports the caller's position after enqueueing.
type QueueStatusPayload struct {
	Position       int `json:"position"`
	PlayersInQueue int `json:"playersInQueue"`
}

// OpponentInfo is the opponent summary sent with match-found.
type OpponentInfo struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}

// MatchFoundPayload announces a created session to a matched player.
type MatchFoundPayload struct {
	SessionID     string       `json:"sessionId"`
	Opponent      OpponentInfo `json:"opponent"`
	IsFirstPlayer bool         `json:"isFirstPlayer"`
}

// GameStartPayload carries the full question set when a duel begins or
// resumes. HasAnswered is the recipient's own flag for the current question,
// set on resume so a rejoiner knows whether they already answered it.
type GameStartPayload struct {
	Questions            []domain.Question `json:"questions"`
	CurrentQuestionIndex int               `json:"currentQuestionIndex"`
	Subject              domain.Subject    `json:"subject"`
	HasAnswered          bool              `json:"hasAnswered,omitempty"`
}

// Scores is a per-recipient view of the running score.
type Scores struct {
	Mine     int `json:"mine"`
	Opponent int `json:"opponent"`
}

// QuestionResultPayload is the per-recipient feedback after a question resolves.
type QuestionResultPayload struct {
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation"`
	Scores      Scores `json:"scores"`
}

// NextQuestionPayload advances clients to the next question index.
type NextQuestionPayload struct {
	QuestionIndex int `json:"questionIndex"`
}

// RatingChange describes one player's rating movement.
type RatingChange struct {
	Old    int `json:"old"`
	New    int `json:"new"`
	Change int `json:"change"`
}

// RatingChanges pairs both players' movements, oriented per recipient.
type RatingChanges struct {
	Mine     RatingChange `json:"mine"`
	Opponent RatingChange `json:"opponent"`
}

// GameEndPayload closes a duel with final scores and any rating movement.
type GameEndPayload struct {
	WinnerID      *string        `json:"winnerId"`
	FinalScores   Scores         `json:"finalScores"`
	RatingChanges *RatingChanges `json:"ratingChanges"`
}

// ErrorPayload surfaces a scoped failure to one client.
type ErrorPayload struct {
	Message string `json:"message"`
}

func errorEvent(message string) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: message}}
}
