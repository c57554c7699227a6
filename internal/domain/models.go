package domain

import "time"

// Subject identifies a quiz subject; ratings are only comparable within one subject.
type Subject string

const (
	SubjectMath    Subject = "math"
	SubjectEnglish Subject = "english"
	SubjectBahasa  Subject = "bahasa"
)

// Difficulty selects the question pool and the training bot's accuracy.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Question models a four-option MCQ with exactly one correct option.
type Question struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	Explanation   string   `json:"explanation"`
}

// DuelStatus is the one-directional lifecycle of a duel session.
type DuelStatus string

const (
	DuelWaiting    DuelStatus = "waiting_for_players"
	DuelInProgress DuelStatus = "in_progress"
	DuelCompleted  DuelStatus = "completed"
)

// DuelRecord is the durable projection of a duel session for the external store.
type DuelRecord struct {
	ID            string         `json:"id"`
	Player1ID     string         `json:"player1Id"`
	Player2ID     string         `json:"player2Id"`
	Subject       Subject        `json:"subject"`
	Difficulty    Difficulty     `json:"difficulty"`
	Questions     []Question     `json:"questions"`
	QuestionIndex int            `json:"currentQuestionIndex"`
	Player1       PlayerProgress `json:"player1"`
	Player2       PlayerProgress `json:"player2"`
	Status        DuelStatus     `json:"status"`
	WinnerID      string         `json:"winnerId,omitempty"`
	IsTraining    bool           `json:"isTraining"`
	CreatedAt     time.Time      `json:"createdAt"`
	StartedAt     time.Time      `json:"startedAt,omitempty"`
	CompletedAt   time.Time      `json:"completedAt,omitempty"`
}

// PlayerProgress is one player's answers, per-question times and score.
type PlayerProgress struct {
	Answers map[int]string `json:"answers"`
	TimesMs map[int]int64  `json:"timesMs"`
	Score   int            `json:"score"`
}

// User is the durable per-user record touched by duel completion.
type User struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Ratings  map[Subject]int `json:"ratings"`
	Lives    int             `json:"lives"`
}

// DefaultRating is the seed rating for a subject the user never played.
const DefaultRating = 1000

// MaxLives caps the training lives a user can hold.
const MaxLives = 3

// RatingFor returns the user's rating for a subject, seeding unknowns.
func (u User) RatingFor(subject Subject) int {
	if r, ok := u.Ratings[subject]; ok {
		return r
	}
	return DefaultRating
}
