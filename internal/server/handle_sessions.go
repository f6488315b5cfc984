package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/flagquiz/internal/flagquiz"
	"github.com/playperu/flagquiz/internal/store"
)

const (
	defaultSessionLimit = 20
	maxSessionLimit     = 200
)

// HistoryStore is the read and admin side of the session store.
type HistoryStore interface {
	ListSessions(ctx context.Context, limit int, completedOnly bool) ([]flagquiz.Session, error)
	GetSession(ctx context.Context, id int64) (store.SessionDetail, error)
	DeleteAllSessions(ctx context.Context) (int64, error)
}

type SessionItem struct {
	ID        int64  `json:"id"`
	StartedAt string `json:"startedAt"`
	Score     int    `json:"score"`
	Completed bool   `json:"completed"`
}

type GuessItem struct {
	Country    string `json:"country"`
	WasCorrect bool   `json:"wasCorrect"`
}

type SessionDetailResponse struct {
	SessionItem
	Guesses []GuessItem `json:"guesses"`
}

type DeleteSessionsResponse struct {
	Deleted int64 `json:"deleted"`
}

func toSessionItem(s flagquiz.Session) SessionItem {
	return SessionItem{
		ID:        s.ID,
		StartedAt: s.StartedAt.UTC().Format(time.RFC3339),
		Score:     s.Score,
		Completed: s.Completed,
	}
}

func handleListSessions(history HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultSessionLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxSessionLimit)
		}
		completedOnly := r.URL.Query().Get("all") != "true"

		sessions, err := history.ListSessions(r.Context(), limit, completedOnly)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]SessionItem, 0, len(sessions))
		for _, s := range sessions {
			items = append(items, toSessionItem(s))
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleGetSession(history HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id < 1 {
			writeError(w, http.StatusBadRequest, "invalid session id")
			return
		}

		d, err := history.GetSession(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := SessionDetailResponse{
			SessionItem: toSessionItem(d.Session),
			Guesses:     make([]GuessItem, 0, len(d.Guesses)),
		}
		for _, g := range d.Guesses {
			resp.Guesses = append(resp.Guesses, GuessItem{Country: g.Country, WasCorrect: g.WasCorrect})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleDeleteSessions(logger *slog.Logger, history HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := history.DeleteAllSessions(r.Context())
		if err != nil {
			logger.Error("deleting sessions failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		logger.Info("session history deleted", "sessions", n)
		writeJSON(w, http.StatusOK, DeleteSessionsResponse{Deleted: n})
	}
}
