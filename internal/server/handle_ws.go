package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// WSCommand is a message sent by the client over the game websocket.
type WSCommand struct {
	Type  string `json:"type"`
	Index *int   `json:"index,omitempty"`
}

// handleGameWS pushes every state snapshot to the client and accepts
// guess and restart commands.
func handleGameWS(logger *slog.Logger, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
		defer cancel()

		id := playerIDFrom(r)
		c := controllerFrom(r)
		ch := broker.Subscribe(id)
		defer broker.Unsubscribe(id, ch)

		initial, _ := json.Marshal(c.State())
		if err := conn.Write(ctx, websocket.MessageText, initial); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}

		go func() {
			defer cancel()
			for {
				_, msg, err := conn.Read(ctx)
				if err != nil {
					logger.Debug("websocket read ended", "error", err)
					return
				}
				var cmd WSCommand
				if err := json.Unmarshal(msg, &cmd); err != nil {
					logger.Debug("websocket bad command", "error", err)
					continue
				}
				switch cmd.Type {
				case "guess":
					if cmd.Index == nil {
						logger.Debug("websocket guess without index")
						continue
					}
					_, err = c.SubmitGuess(ctx, *cmd.Index)
				case "restart":
					err = c.Restart(ctx)
				default:
					logger.Debug("websocket unknown command", "type", cmd.Type)
				}
				if err != nil {
					logger.Debug("websocket command failed", "type", cmd.Type, "error", err)
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case data := <-ch:
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}
	}
}
