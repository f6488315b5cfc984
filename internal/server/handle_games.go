package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/flagquiz/internal/game"
)

// CreateGameResponse is returned by POST /api/games.
type CreateGameResponse struct {
	PlayerID string     `json:"playerId"`
	State    game.State `json:"state"`
}

// GuessRequest is the request body for POST /api/games/{playerID}/guess.
type GuessRequest struct {
	Index *int `json:"index"`
}

// GuessResponse reports whether the tap counted and the resulting state.
type GuessResponse struct {
	Accepted bool       `json:"accepted"`
	Correct  bool       `json:"correct"`
	State    game.State `json:"state"`
}

func handleCreateGame(logger *slog.Logger, games *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, c, err := games.Create(r.Context())
		if errors.Is(err, ErrRegistryClosed) {
			writeError(w, http.StatusServiceUnavailable, "server shutting down")
			return
		}
		if err != nil {
			logger.Error("creating game failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		logger.Info("game created", "player_id", id)
		writeJSON(w, http.StatusCreated, CreateGameResponse{PlayerID: id, State: c.State()})
	}
}

func handleGetGame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controllerFrom(r).State())
	}
}

func handleGuess() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GuessRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Index == nil {
			writeError(w, http.StatusBadRequest, "index is required")
			return
		}

		c := controllerFrom(r)
		out, err := c.SubmitGuess(r.Context(), *req.Index)
		if err != nil {
			writeControllerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, GuessResponse{
			Accepted: out.Accepted,
			Correct:  out.Correct,
			State:    c.State(),
		})
	}
}

func handleRestart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := controllerFrom(r)
		if err := c.Restart(r.Context()); err != nil {
			writeControllerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c.State())
	}
}

func handleDeleteGame(logger *slog.Logger, games *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := playerIDFrom(r)
		if err := games.Remove(id); err != nil {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		logger.Info("game removed", "player_id", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeControllerError(w http.ResponseWriter, err error) {
	if errors.Is(err, game.ErrClosed) {
		writeError(w, http.StatusGone, "game has been closed")
		return
	}
	writeError(w, http.StatusServiceUnavailable, "request cancelled")
}
