// Package bot supplies the training opponent: a plausible answer generator
// plus the fixed roster of bot profiles keyed by difficulty.
package bot

import (
	"math/rand"

	"quiz-duel-service/internal/domain"
)

// OptionCount is the number of options every duel question carries.
const OptionCount = 4

// Opponent describes the simulated player used in training duels.
type Opponent struct {
	ID       string
	Username string
	Rating   int
	Accuracy float64
}

// OpponentFor returns the bot profile for a difficulty. Unknown difficulties
// fall back to the intermediate profile.
func OpponentFor(difficulty domain.Difficulty) Opponent {
	switch difficulty {
	case domain.DifficultyBeginner:
		return Opponent{ID: "bot_beginner", Username: "ROOKIE_BOT", Rating: 450, Accuracy: 0.6}
	case domain.DifficultyAdvanced:
		return Opponent{ID: "bot_advanced", Username: "MASTER_BOT", Rating: 850, Accuracy: 0.9}
	default:
		return Opponent{ID: "bot_intermediate", Username: "WARRIOR_BOT", Rating: 650, Accuracy: 0.75}
	}
}

// Answer produces the bot's option index for a question. With probability
// accuracy it returns correct; otherwise a uniformly random wrong index.
func Answer(correct int, accuracy float64, rnd *rand.Rand) int {
	if rnd.Float64() < accuracy {
		return correct
	}
	wrong := make([]int, 0, OptionCount-1)
	for i := 0; i < OptionCount; i++ {
		if i != correct {
			wrong = append(wrong, i)
		}
	}
	return wrong[rnd.Intn(len(wrong))]
}
