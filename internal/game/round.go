package game

import (
	"math/rand/v2"

	"github.com/playperu/flagquiz/internal/flagquiz"
)

// Feedback marks a candidate after it was tapped.
type Feedback string

const (
	FeedbackNone      Feedback = ""
	FeedbackCorrect   Feedback = "correct"
	FeedbackIncorrect Feedback = "incorrect"
)

// Round is one question: three distinct candidates, one of them correct.
type Round struct {
	Candidates   [flagquiz.CandidateCount]string
	CorrectIndex int
	TapLocked    bool
	Feedback     [flagquiz.CandidateCount]Feedback
}

// newRound draws the candidates and, separately, the correct index.
// The round starts locked; the controller unlocks it once it is live.
func newRound(catalog *flagquiz.Catalog, rng *rand.Rand) Round {
	return Round{
		Candidates:   catalog.Draw(rng),
		CorrectIndex: rng.IntN(flagquiz.CandidateCount),
		TapLocked:    true,
	}
}

// Target is the country the player has to find.
func (r Round) Target() string {
	return r.Candidates[r.CorrectIndex]
}

func validIndex(i int) bool {
	return i >= 0 && i < flagquiz.CandidateCount
}
