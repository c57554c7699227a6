// Package elo implements the logistic rating update used for ranked duels.
package elo

import "math"

// DefaultK is the K-factor applied to ranked duels.
const DefaultK = 32

// Score values accepted by Rate.
const (
	Loss = 0.0
	Draw = 0.5
	Win  = 1.0
)

// Rate returns the player's new rating after a result against the opponent.
// score must be 0 (loss), 0.5 (draw) or 1 (win).
func Rate(playerRating, opponentRating int, score float64, kFactor int) int {
	expected := 1 / (1 + math.Pow(10, float64(opponentRating-playerRating)/400))
	return int(math.Round(float64(playerRating) + float64(kFactor)*(score-expected)))
}

// Delta returns the rating change Rate would apply.
func Delta(playerRating, opponentRating int, score float64, kFactor int) int {
	return Rate(playerRating, opponentRating, score, kFactor) - playerRating
}
