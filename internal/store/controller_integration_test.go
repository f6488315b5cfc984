package store_test

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/playperu/flagquiz/internal/flagquiz"
	"github.com/playperu/flagquiz/internal/game"
)

// TestControllerAgainstSQLite plays two games end to end on a real
// database and checks what ends up on disk.
func TestControllerAgainstSQLite(t *testing.T) {
	s := setupStore(t)
	catalog, _ := flagquiz.NewCatalog(flagquiz.DefaultCountries)
	c, err := game.New(game.Options{
		Store:         s,
		Catalog:       catalog,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		QuestionCount: 3,
		FeedbackDelay: time.Millisecond,
		Rand:          rand.New(rand.NewPCG(3, 4)),
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	playGame := func(correct int) game.State {
		for i := 0; i < 3; i++ {
			st := waitState(t, c, func(st game.State) bool {
				return st.Phase == game.PhaseAwaitingInput && st.QuestionsAsked == i
			})
			idx := (st.CorrectIndex + 1) % 3
			if i < correct {
				idx = st.CorrectIndex
			}
			if _, err := c.SubmitGuess(ctx, idx); err != nil {
				t.Fatalf("submit: %v", err)
			}
		}
		st := waitState(t, c, func(st game.State) bool { return st.Phase == game.PhaseSummarized })
		c.Wait()
		return st
	}

	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	first := playGame(3)

	if err := c.Restart(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	second := playGame(1)

	if second.PreviousScore == nil || *second.PreviousScore != 3 {
		t.Fatalf("previous score = %v, want 3", second.PreviousScore)
	}
	if second.Comparison.Trend != flagquiz.Declined || second.Comparison.Delta != -2 {
		t.Errorf("comparison = %+v, want declined by 2", second.Comparison)
	}

	for _, st := range []game.State{first, second} {
		d, err := s.GetSession(ctx, st.SessionID)
		if err != nil {
			t.Fatalf("get session %d: %v", st.SessionID, err)
		}
		if !d.Completed || d.Score != st.Score || len(d.Guesses) != 3 {
			t.Errorf("session %d on disk = %+v with %d guesses", st.SessionID, d.Session, len(d.Guesses))
		}
	}
}

func waitState(t *testing.T, c *game.Controller, cond func(game.State) bool) game.State {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		st := c.State()
		if cond(st) {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out; last state %+v", st)
		}
		time.Sleep(time.Millisecond)
	}
}
