package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/flagquiz/internal/game"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse maps a dependency name to its status.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

type playerPath struct {
	PlayerID string `path:"playerID"`
}

type sessionPath struct {
	ID int64 `path:"id"`
}

type listSessionsQuery struct {
	Limit int  `query:"limit" description:"Maximum sessions to return (default 20, max 200)."`
	All   bool `query:"all" description:"Include abandoned sessions."`
}

type guessOperation struct {
	playerPath
	GuessRequest
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Flag Quiz API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the flag guessing quiz.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/games
	postGame, _ := r.NewOperationContext(http.MethodPost, "/api/games")
	postGame.SetSummary("Start a game")
	postGame.SetDescription("Creates a player handle and starts its first session. The state is initializing until the session is stored.")
	postGame.AddRespStructure(CreateGameResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(postGame)

	// GET /api/games/{playerID}
	getGame, _ := r.NewOperationContext(http.MethodGet, "/api/games/{playerID}")
	getGame.SetSummary("Get game state")
	getGame.SetDescription("Returns the latest state snapshot for the player.")
	getGame.AddReqStructure(playerPath{})
	getGame.AddRespStructure(game.State{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getGame)

	// POST /api/games/{playerID}/guess
	postGuess, _ := r.NewOperationContext(http.MethodPost, "/api/games/{playerID}/guess")
	postGuess.SetSummary("Tap a flag")
	postGuess.SetDescription("Submits the tapped candidate index. Taps while input is locked are ignored and reported with accepted=false.")
	postGuess.AddReqStructure(guessOperation{})
	postGuess.AddRespStructure(GuessResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postGuess)

	// POST /api/games/{playerID}/restart
	postRestart, _ := r.NewOperationContext(http.MethodPost, "/api/games/{playerID}/restart")
	postRestart.SetSummary("Restart game")
	postRestart.SetDescription("Discards the current game and starts a new session.")
	postRestart.AddReqStructure(playerPath{})
	postRestart.AddRespStructure(game.State{}, openapi.WithHTTPStatus(http.StatusOK))
	postRestart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postRestart)

	// DELETE /api/games/{playerID}
	deleteGame, _ := r.NewOperationContext(http.MethodDelete, "/api/games/{playerID}")
	deleteGame.SetSummary("Leave game")
	deleteGame.SetDescription("Stops the player's controller. A finished session still being saved is saved.")
	deleteGame.AddReqStructure(playerPath{})
	deleteGame.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteGame)

	// GET /api/games/{playerID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/games/{playerID}/events")
	getEvents.SetSummary("SSE state stream")
	getEvents.SetDescription("Server-Sent Events stream of state snapshots, starting with the current one.")
	getEvents.AddReqStructure(playerPath{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/games/{playerID}/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/games/{playerID}/ws")
	getWS.SetSummary("WebSocket game channel")
	getWS.SetDescription(`Pushes state snapshots. Accepts {"type":"guess","index":n} and {"type":"restart"}.`)
	getWS.AddReqStructure(playerPath{})
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// GET /api/sessions
	listSessions, _ := r.NewOperationContext(http.MethodGet, "/api/sessions")
	listSessions.SetSummary("List sessions")
	listSessions.SetDescription("Returns stored sessions, newest first.")
	listSessions.AddReqStructure(listSessionsQuery{})
	listSessions.AddRespStructure([]SessionItem{}, openapi.WithHTTPStatus(http.StatusOK))
	listSessions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(listSessions)

	// GET /api/sessions/{id}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{id}")
	getSession.SetSummary("Get session")
	getSession.SetDescription("Returns one session with its guesses.")
	getSession.AddReqStructure(sessionPath{})
	getSession.AddRespStructure(SessionDetailResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// DELETE /api/sessions
	deleteSessions, _ := r.NewOperationContext(http.MethodDelete, "/api/sessions")
	deleteSessions.SetSummary("Delete history")
	deleteSessions.SetDescription("Deletes every session and its guesses. Requires admin Bearer token.")
	deleteSessions.AddRespStructure(DeleteSessionsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	deleteSessions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	deleteSessions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(deleteSessions)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
