package game

import (
	"context"

	"github.com/playperu/flagquiz/internal/flagquiz"
)

// SessionStore is the durable side of a game. Every method may be called
// from any goroutine and is independently fallible.
type SessionStore interface {
	// CreateSession inserts s and returns it with its assigned id.
	CreateSession(ctx context.Context, s flagquiz.Session) (flagquiz.Session, error)
	UpdateSession(ctx context.Context, s flagquiz.Session) error
	// SaveGuesses stores the whole batch or nothing.
	SaveGuesses(ctx context.Context, guesses []flagquiz.Guess) error
	// PreviousCompletedSession returns the completed session with the
	// greatest id below beforeID, or flagquiz.ErrNotFound.
	PreviousCompletedSession(ctx context.Context, beforeID int64) (flagquiz.Session, error)
}
