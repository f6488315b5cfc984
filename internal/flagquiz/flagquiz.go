// Package flagquiz defines the core domain types of the flag quiz.
// It imports nothing outside the standard library.
package flagquiz

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Session is one playthrough's durable record. A zero ID means the
// session has not been stored yet.
type Session struct {
	ID        int64
	StartedAt time.Time
	Score     int
	Completed bool
}

// Bound reports whether the store has assigned the session an id.
func (s Session) Bound() bool { return s.ID > 0 }

// Guess is one round's tap outcome. Country is the tapped candidate.
type Guess struct {
	Country    string
	WasCorrect bool
	SessionID  int64
}

// CandidateCount is the number of flags offered per round.
const CandidateCount = 3

// DefaultCountries is the catalog the game ships with.
var DefaultCountries = []string{
	"Estonia", "France", "Germany", "Ireland", "Italy", "Nigeria",
	"Poland", "Spain", "UK", "Ukraine", "US",
}
