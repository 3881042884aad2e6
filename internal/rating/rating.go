// Package rating implements the pure Elo-style rating update applied
// when a match ends, whichever way it ends (win, loss, draw, or
// resignation).
package rating

import (
	"math"

	"github.com/udisondev/tttserver/internal/player"
)

// Outcome names which side of a (first, second) pairing won.
type Outcome int

const (
	Draw Outcome = iota
	FirstWins
	SecondWins
)

const (
	kFactor    = 32.0
	denominator = 400.0
)

// Update applies the Elo rating update to first and second given
// outcome. Both ratings are read before either is mutated, so the
// update is computed from a consistent pre-match snapshot; the two
// locks taken internally (one per Player, via AdjustRating) are never
// held simultaneously, so lock ordering between the two Players never
// matters.
func Update(first, second *player.Player, outcome Outcome) {
	r1 := first.Rating()
	r2 := second.Rating()

	var score1, score2 float64
	switch outcome {
	case FirstWins:
		score1, score2 = 1, 0
	case SecondWins:
		score1, score2 = 0, 1
	default:
		score1, score2 = 0.5, 0.5
	}

	expected1 := 1 / (1 + math.Pow(10, (r2-r1)/denominator))
	expected2 := 1 / (1 + math.Pow(10, (r1-r2)/denominator))

	first.AdjustRating(kFactor * (score1 - expected1))
	second.AdjustRating(kFactor * (score2 - expected2))
}
