package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/playperu/flagquiz/internal/database"
	"github.com/playperu/flagquiz/internal/flagquiz"
	"github.com/playperu/flagquiz/internal/game"
	"github.com/playperu/flagquiz/internal/migrations"
	"github.com/playperu/flagquiz/internal/store"
)

type testEnv struct {
	handler http.Handler
	games   *Registry
	store   *store.SQLiteStore
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupServer(t *testing.T, questions int, delay time.Duration, adminHash string) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	st := store.NewSQLiteStore(db)

	catalog, err := flagquiz.NewCatalog(flagquiz.DefaultCountries)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	logger := discardLogger()
	broker := NewBroker()
	var seed uint64
	games := NewRegistry(func(onChange func(game.State)) (*game.Controller, error) {
		seed++
		return game.New(game.Options{
			Store:         st,
			Catalog:       catalog,
			Logger:        logger,
			QuestionCount: questions,
			FeedbackDelay: delay,
			Rand:          rand.New(rand.NewPCG(seed, 99)),
			OnChange:      onChange,
		})
	}, broker)
	t.Cleanup(func() { games.Close() })

	h := NewHandler(logger, Deps{
		Games:          games,
		Broker:         broker,
		History:        st,
		AdminTokenHash: adminHash,
	})
	return &testEnv{handler: h, games: games, store: st}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createGame(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/games", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create game: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp CreateGameResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.PlayerID == "" {
		t.Fatal("empty player id")
	}
	return resp.PlayerID
}

// awaitRound waits until the player's round n accepts input and returns
// the controller-side state, which carries the correct index.
func (e *testEnv) awaitRound(t *testing.T, playerID string, n int) game.State {
	t.Helper()
	c, err := e.games.Get(playerID)
	if err != nil {
		t.Fatalf("get controller: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		s := c.State()
		if s.Phase == game.PhaseAwaitingInput && s.QuestionsAsked == n && s.TapEnabled {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for round %d: %+v", n, s)
		}
		time.Sleep(time.Millisecond)
	}
}

func (e *testEnv) awaitPhase(t *testing.T, playerID string, phase game.Phase) game.State {
	t.Helper()
	c, err := e.games.Get(playerID)
	if err != nil {
		t.Fatalf("get controller: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		s := c.State()
		if s.Phase == phase {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s: %+v", phase, s)
		}
		time.Sleep(time.Millisecond)
	}
}

func intPtr(n int) *int { return &n }

func (e *testEnv) doRaw(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}
