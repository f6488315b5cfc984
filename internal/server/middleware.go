package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/flagquiz/internal/game"
)

type ctxKey int

const (
	ctxKeyController ctxKey = iota
	ctxKeyPlayerID
)

func playerMiddleware(games *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "playerID")
			c, err := games.Get(id)
			if err != nil {
				writeError(w, http.StatusNotFound, "game not found")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyController, c)
			ctx = context.WithValue(ctx, ctxKeyPlayerID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// adminAuthMiddleware checks the bearer token against a bcrypt hash. An
// empty hash disables the protected routes.
func adminAuthMiddleware(tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				writeError(w, http.StatusForbidden, "admin access disabled")
				return
			}
			token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !found || token == "" {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func controllerFrom(r *http.Request) *game.Controller {
	return r.Context().Value(ctxKeyController).(*game.Controller)
}

func playerIDFrom(r *http.Request) string {
	return r.Context().Value(ctxKeyPlayerID).(string)
}
