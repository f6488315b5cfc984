// Package store persists sessions and guesses in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/playperu/flagquiz/internal/flagquiz"
)

// ErrNotFound aliases the domain sentinel so callers of either package
// can match it.
var ErrNotFound = flagquiz.ErrNotFound

var ErrUnboundSession = errors.New("session has no id")

const timeLayout = time.RFC3339Nano

// SQLiteStore implements game.SessionStore on the schema in
// internal/migrations.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// SessionDetail is a stored session with its guesses.
type SessionDetail struct {
	flagquiz.Session
	Guesses []flagquiz.Guess
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess flagquiz.Session) (flagquiz.Session, error) {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sessions (started_at, score, completed)
		VALUES (?, ?, ?)
		RETURNING id
	`, sess.StartedAt.UTC().Format(timeLayout), sess.Score, boolInt(sess.Completed)).Scan(&sess.ID)
	if err != nil {
		return flagquiz.Session{}, fmt.Errorf("inserting session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, sess flagquiz.Session) error {
	if !sess.Bound() {
		return ErrUnboundSession
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET score = ?, completed = ?
		WHERE id = ?
	`, sess.Score, boolInt(sess.Completed), sess.ID)
	if err != nil {
		return fmt.Errorf("updating session %d: %w", sess.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating session %d: %w", sess.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveGuesses inserts the batch in one transaction.
func (s *SQLiteStore) SaveGuesses(ctx context.Context, guesses []flagquiz.Guess) error {
	if len(guesses) == 0 {
		return nil
	}
	for _, g := range guesses {
		if g.SessionID <= 0 {
			return fmt.Errorf("guess for %q: %w", g.Country, ErrUnboundSession)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, g := range guesses {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO guesses (country, was_correct, session_id)
			VALUES (?, ?, ?)
		`, g.Country, boolInt(g.WasCorrect), g.SessionID)
		if err != nil {
			return fmt.Errorf("inserting guess: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing guesses: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PreviousCompletedSession(ctx context.Context, beforeID int64) (flagquiz.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, score, completed
		FROM sessions
		WHERE id < ? AND completed = 1
		ORDER BY id DESC
		LIMIT 1
	`, beforeID)
	return scanSession(row)
}

func (s *SQLiteStore) GetSession(ctx context.Context, id int64) (SessionDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, score, completed
		FROM sessions WHERE id = ?
	`, id)
	sess, err := scanSession(row)
	if err != nil {
		return SessionDetail{}, err
	}
	guesses, err := s.ListGuesses(ctx, id)
	if err != nil {
		return SessionDetail{}, err
	}
	return SessionDetail{Session: sess, Guesses: guesses}, nil
}

// ListSessions returns up to limit sessions, newest first. When
// completedOnly is set, abandoned sessions are skipped.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int, completedOnly bool) ([]flagquiz.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, score, completed
		FROM sessions
		WHERE completed = 1 OR ? = 0
		ORDER BY id DESC
		LIMIT ?
	`, boolInt(completedOnly), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []flagquiz.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) ListGuesses(ctx context.Context, sessionID int64) ([]flagquiz.Guess, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT country, was_correct, session_id
		FROM guesses
		WHERE session_id = ?
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guesses []flagquiz.Guess
	for rows.Next() {
		var g flagquiz.Guess
		var correct int
		if err := rows.Scan(&g.Country, &correct, &g.SessionID); err != nil {
			return nil, err
		}
		g.WasCorrect = correct != 0
		guesses = append(guesses, g)
	}
	return guesses, rows.Err()
}

// DeleteAllSessions removes every session; guesses go with them through
// the cascading foreign key.
func (s *SQLiteStore) DeleteAllSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("deleting sessions: %w", err)
	}
	return res.RowsAffected()
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (flagquiz.Session, error) {
	var sess flagquiz.Session
	var startedAt string
	var completed int
	err := row.Scan(&sess.ID, &startedAt, &sess.Score, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return flagquiz.Session{}, ErrNotFound
	}
	if err != nil {
		return flagquiz.Session{}, err
	}
	sess.Completed = completed != 0
	sess.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return flagquiz.Session{}, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
	}
	return sess, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
