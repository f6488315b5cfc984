package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/playperu/flagquiz/internal/game"
)

func TestEventsStream(t *testing.T) {
	env := setupServer(t, 6, time.Hour, "")
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	id := env.createGame(t)
	round := env.awaitRound(t, id, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/games/"+id+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	nextState := func() game.State {
		t.Helper()
		for lines.Scan() {
			data, ok := strings.CutPrefix(lines.Text(), "data: ")
			if !ok {
				continue
			}
			var s game.State
			if err := json.Unmarshal([]byte(data), &s); err != nil {
				t.Fatalf("decode: %v", err)
			}
			return s
		}
		t.Fatalf("stream ended: %v", lines.Err())
		return game.State{}
	}

	if s := nextState(); s.Phase != game.PhaseAwaitingInput {
		t.Fatalf("initial phase = %s", s.Phase)
	}

	c, _ := env.games.Get(id)
	if _, err := c.SubmitGuess(ctx, round.CorrectIndex); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if s := nextState(); s.Phase != game.PhaseResolving || s.Score != 1 {
		t.Errorf("pushed state = %+v", s)
	}
}
