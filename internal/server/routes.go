package server

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Games          *Registry
	Broker         *Broker
	History        HistoryStore
	Health         http.Handler
	AdminTokenHash string
	SPADir         string
}

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Flag Quiz API", "/openapi.json", "/docs"))
	if d.Health != nil {
		r.Mount("/healthz", d.Health)
	}

	r.Post("/api/games", handleCreateGame(logger, d.Games))
	r.Route("/api/games/{playerID}", func(r chi.Router) {
		r.Use(playerMiddleware(d.Games))
		r.Get("/", handleGetGame())
		r.Delete("/", handleDeleteGame(logger, d.Games))
		r.Post("/guess", handleGuess())
		r.Post("/restart", handleRestart())
		r.Get("/events", handleEvents(d.Broker))
		r.Get("/ws", handleGameWS(logger, d.Broker))
	})

	r.Get("/api/sessions", handleListSessions(d.History))
	r.Get("/api/sessions/{id}", handleGetSession(d.History))
	r.With(adminAuthMiddleware(d.AdminTokenHash)).
		Delete("/api/sessions", handleDeleteSessions(logger, d.History))

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(d.SPADir))
		}
	}
}
