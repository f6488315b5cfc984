package game

import "errors"

var (
	// ErrSessionCreationFailed is fatal to starting a round.
	ErrSessionCreationFailed = errors.New("unable to start game")
	// ErrSessionPersistenceFailed is reported as a warning; the finished
	// game is still shown from memory.
	ErrSessionPersistenceFailed = errors.New("unable to save game")
	// ErrPreviousSessionLookupFailed degrades the comparison to
	// NoPriorSession.
	ErrPreviousSessionLookupFailed = errors.New("unable to load previous session")
	// ErrClosed is returned for commands sent to a stopped controller.
	ErrClosed = errors.New("game controller closed")
)
