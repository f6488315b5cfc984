package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/playperu/flagquiz/internal/game"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrRegistryClosed = errors.New("registry closed")
)

// NewController builds a controller whose snapshots go to onChange.
type NewController func(onChange func(game.State)) (*game.Controller, error)

// Registry owns one game controller per player handle.
type Registry struct {
	newController NewController
	broker        *Broker

	mu    sync.RWMutex
	games map[string]*game.Controller
	// removed counts controllers dropped by Remove whose persistence
	// writes are still running. Add happens under mu.
	removed sync.WaitGroup
	closed  bool
}

func NewRegistry(newController NewController, broker *Broker) *Registry {
	return &Registry{
		newController: newController,
		broker:        broker,
		games:         make(map[string]*game.Controller),
	}
}

func (r *Registry) Get(playerID string) (*game.Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.games[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// Create registers a new player and starts its first game.
func (r *Registry) Create(ctx context.Context) (string, *game.Controller, error) {
	id := uuid.NewString()
	c, err := r.newController(func(s game.State) { r.broker.Publish(id, s) })
	if err != nil {
		return "", nil, fmt.Errorf("creating controller: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		c.Close()
		return "", nil, fmt.Errorf("starting game: %w", err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		c.Close()
		return "", nil, ErrRegistryClosed
	}
	r.games[id] = c
	r.mu.Unlock()
	return id, c, nil
}

// Remove stops the player's controller. Pending persistence still runs
// and Close waits for it.
func (r *Registry) Remove(playerID string) error {
	r.mu.Lock()
	c, ok := r.games[playerID]
	if ok {
		delete(r.games, playerID)
		r.removed.Add(1)
	}
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	c.Close()
	go func() {
		defer r.removed.Done()
		c.Wait()
	}()
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// Close stops every controller and waits for their persistence writes,
// including those of removed players.
func (r *Registry) Close() error {
	r.mu.Lock()
	games := r.games
	r.games = make(map[string]*game.Controller)
	r.closed = true
	r.mu.Unlock()

	for _, c := range games {
		c.Close()
	}
	for _, c := range games {
		c.Wait()
	}
	r.removed.Wait()
	return nil
}
