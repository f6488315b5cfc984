package server

import (
	"encoding/json"
	"sync"

	"github.com/playperu/flagquiz/internal/game"
)

// Broker is an in-process pub/sub of state snapshots, keyed by player ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded states for the given player.
func (b *Broker) Subscribe(playerID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[playerID] == nil {
		b.subs[playerID] = make(map[chan []byte]struct{})
	}
	b.subs[playerID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the player's subscribers.
func (b *Broker) Unsubscribe(playerID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[playerID], ch)
	if len(b.subs[playerID]) == 0 {
		delete(b.subs, playerID)
	}
	b.mu.Unlock()
}

// Publish sends a state to all subscribers of the given player. It never
// blocks: it runs on the controller goroutine.
func (b *Broker) Publish(playerID string, state game.State) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.subs[playerID]) == 0 {
		return
	}
	data, _ := json.Marshal(state)
	for ch := range b.subs[playerID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
}
