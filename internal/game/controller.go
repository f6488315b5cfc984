// Package game runs the round state machine of one player and hands
// finished sessions to a SessionStore.
//
// All controller state is owned by a single goroutine. Public methods and
// store completions are delivered to it as closures over one inbox, so no
// field below the inbox is ever touched from anywhere else.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playperu/flagquiz/internal/flagquiz"
)

const (
	// DefaultQuestionCount is the number of rounds in a session.
	DefaultQuestionCount = 6
	// DefaultFeedbackDelay is how long a tapped round stays on screen.
	DefaultFeedbackDelay = 1500 * time.Millisecond
	// DefaultStoreTimeout bounds each store call.
	DefaultStoreTimeout = 5 * time.Second

	inboxSize = 64
)

// Options configures a Controller. Store and Catalog are required.
type Options struct {
	Store         SessionStore
	Catalog       *flagquiz.Catalog
	Logger        *slog.Logger
	QuestionCount int
	FeedbackDelay time.Duration
	StoreTimeout  time.Duration
	Rand          *rand.Rand
	Now           func() time.Time
	// OnChange receives every published snapshot on the controller
	// goroutine. It must not block.
	OnChange func(State)
}

// Outcome reports what a SubmitGuess did.
type Outcome struct {
	Accepted bool `json:"accepted"`
	Correct  bool `json:"correct"`
}

// Controller is the game state machine of one player.
type Controller struct {
	store         SessionStore
	catalog       *flagquiz.Catalog
	logger        *slog.Logger
	questionCount int
	feedbackDelay time.Duration
	storeTimeout  time.Duration
	rng           *rand.Rand
	now           func() time.Time
	onChange      func(State)

	inbox     chan func()
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	writes    sync.WaitGroup
	state     atomic.Pointer[State]

	// Owned by the run goroutine.
	cur *playthrough
	gen uint64
}

// playthrough is the aggregate of one game. It is replaced, never reset,
// on restart; completions carry the pointer they were started for.
type playthrough struct {
	gen        uint64
	phase      Phase
	session    flagquiz.Session
	round      Round
	hasRound   bool
	guesses    []flagquiz.Guess
	asked      int
	score      int
	gameOver   bool
	timer      *time.Timer
	previous   *int
	comparison *flagquiz.Comparison
	err        error
	warning    error
}

// New creates a controller and starts its goroutine. Call Start to begin
// the first game and Close to stop it.
func New(opts Options) (*Controller, error) {
	if opts.Store == nil {
		return nil, errors.New("game: store is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("game: catalog is required")
	}
	if opts.QuestionCount < 0 {
		return nil, fmt.Errorf("game: invalid question count %d", opts.QuestionCount)
	}

	c := &Controller{
		store:         opts.Store,
		catalog:       opts.Catalog,
		logger:        opts.Logger,
		questionCount: opts.QuestionCount,
		feedbackDelay: opts.FeedbackDelay,
		storeTimeout:  opts.StoreTimeout,
		rng:           opts.Rand,
		now:           opts.Now,
		onChange:      opts.OnChange,
		inbox:         make(chan func(), inboxSize),
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.questionCount == 0 {
		c.questionCount = DefaultQuestionCount
	}
	if c.feedbackDelay <= 0 {
		c.feedbackDelay = DefaultFeedbackDelay
	}
	if c.storeTimeout <= 0 {
		c.storeTimeout = DefaultStoreTimeout
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if c.now == nil {
		c.now = time.Now
	}

	idle := idleState(c.questionCount)
	c.state.Store(&idle)

	go c.run()
	return c, nil
}

func (c *Controller) run() {
	defer close(c.stopped)
	for {
		select {
		case <-c.done:
			if c.cur != nil {
				c.cur.stopTimer()
			}
			return
		case f := <-c.inbox:
			// Close wins over work that was queued alongside it.
			select {
			case <-c.done:
				if c.cur != nil {
					c.cur.stopTimer()
				}
				return
			default:
			}
			f()
		}
	}
}

// Close stops the controller goroutine and returns once it has exited, so
// no command runs and no write is dispatched afterwards. Detached
// persistence writes keep running; use Wait to block on them. Close must
// not be called from OnChange.
func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.done) })
	<-c.stopped
}

// Wait blocks until every persistence write dispatched so far has been
// attempted.
func (c *Controller) Wait() {
	c.writes.Wait()
}

// State returns the latest published snapshot.
func (c *Controller) State() State {
	return *c.state.Load()
}

// Start begins the first game. It is a no-op once a game exists.
func (c *Controller) Start(ctx context.Context) error {
	return c.do(ctx, func() {
		if c.cur == nil {
			c.createSession()
		}
	})
}

// Restart discards the current game, including any guesses not yet
// persisted, and begins a new one.
func (c *Controller) Restart(ctx context.Context) error {
	return c.do(ctx, c.createSession)
}

// SubmitGuess taps candidate index. Taps that arrive in the wrong phase,
// while input is locked or with an out-of-range index are ignored and
// reported as not accepted.
func (c *Controller) SubmitGuess(ctx context.Context, index int) (Outcome, error) {
	var out Outcome
	err := c.do(ctx, func() { out = c.submitGuess(index) })
	return out, err
}

// do runs f on the controller goroutine and waits for it. It returns
// ErrClosed only when f never ran.
func (c *Controller) do(ctx context.Context, f func()) error {
	finished := make(chan struct{})
	select {
	case c.inbox <- func() { f(); close(finished) }:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-c.stopped:
		// f may have been the last closure run before the loop exited.
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// post delivers a completion to the controller goroutine. Completions
// arriving after Close are dropped.
func (c *Controller) post(f func()) {
	select {
	case c.inbox <- f:
	case <-c.done:
	}
}

func (c *Controller) publish() {
	var s State
	if c.cur == nil {
		s = idleState(c.questionCount)
	} else {
		s = c.cur.snapshot(c.questionCount)
	}
	c.state.Store(&s)
	if c.onChange != nil {
		c.onChange(s)
	}
}

// stale reports whether p is no longer the live aggregate.
func (c *Controller) stale(p *playthrough, what string) bool {
	if p == c.cur {
		return false
	}
	c.logger.Debug("dropping stale result", "what", what, "generation", p.gen, "current_generation", c.gen)
	return true
}

func (c *Controller) storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.storeTimeout)
}

func (c *Controller) createSession() {
	if c.cur != nil {
		c.cur.stopTimer()
	}
	c.gen++
	p := &playthrough{
		gen:     c.gen,
		phase:   PhaseInitializing,
		session: flagquiz.Session{StartedAt: c.now().UTC()},
	}
	c.cur = p
	c.publish()

	pending := p.session
	go func() {
		ctx, cancel := c.storeContext()
		defer cancel()
		s, err := c.store.CreateSession(ctx, pending)
		c.post(func() { c.sessionCreated(p, s, err) })
	}()
}

func (c *Controller) sessionCreated(p *playthrough, s flagquiz.Session, err error) {
	if c.stale(p, "create session") {
		return
	}
	if err == nil && !s.Bound() {
		err = errors.New("store returned a session without id")
	}
	if err != nil {
		p.phase = PhaseFailed
		p.err = fmt.Errorf("%w: %w", ErrSessionCreationFailed, err)
		c.logger.Error("session creation failed", "generation", p.gen, "error", err)
		c.publish()
		return
	}

	p.session = s
	c.logger.Info("session created", "generation", p.gen, "session_id", s.ID)
	c.askQuestion(p)
	c.publish()
}

// askQuestion makes a fresh round live. It is only legal while a session
// is being bound or a round is resolving.
func (c *Controller) askQuestion(p *playthrough) {
	if p.phase != PhaseInitializing && p.phase != PhaseResolving {
		panic(fmt.Sprintf("game: askQuestion called in phase %s", p.phase))
	}
	p.round = newRound(c.catalog, c.rng)
	p.hasRound = true
	p.phase = PhaseAwaitingInput
	p.round.TapLocked = false
}

func (c *Controller) submitGuess(index int) Outcome {
	p := c.cur
	if p == nil || p.phase != PhaseAwaitingInput || p.gameOver || p.round.TapLocked || !validIndex(index) {
		return Outcome{}
	}

	p.round.TapLocked = true
	correct := index == p.round.CorrectIndex
	if correct {
		p.score++
	}
	p.guesses = append(p.guesses, flagquiz.Guess{
		Country:    p.round.Candidates[index],
		WasCorrect: correct,
		SessionID:  p.session.ID,
	})
	if correct {
		p.round.Feedback[index] = FeedbackCorrect
	} else {
		p.round.Feedback[index] = FeedbackIncorrect
	}
	p.phase = PhaseResolving
	c.publish()

	p.timer = time.AfterFunc(c.feedbackDelay, func() {
		c.post(func() { c.advance(p) })
	})
	return Outcome{Accepted: true, Correct: correct}
}

func (c *Controller) advance(p *playthrough) {
	if c.stale(p, "round transition") || p.phase != PhaseResolving {
		return
	}
	p.timer = nil
	p.asked++
	if p.asked >= c.questionCount {
		c.handleGameOver(p)
	} else {
		c.askQuestion(p)
	}
	c.publish()
}

func (c *Controller) handleGameOver(p *playthrough) {
	p.gameOver = true
	p.phase = PhaseFinished
	p.session.Score = p.score
	p.session.Completed = true

	session := p.session
	guesses := slices.Clone(p.guesses)

	c.writes.Add(1)
	go func() {
		defer c.writes.Done()
		if err := c.persist(session, guesses); err != nil {
			c.post(func() {
				if c.stale(p, "persist session") {
					return
				}
				p.warning = err
				c.publish()
			})
		}
	}()

	go func() {
		ctx, cancel := c.storeContext()
		defer cancel()
		prev, err := c.store.PreviousCompletedSession(ctx, session.ID)
		c.post(func() { c.previousResolved(p, prev, err) })
	}()
}

// persist writes a finished session and its guesses. It runs detached
// from the controller and logs its own failures.
func (c *Controller) persist(session flagquiz.Session, guesses []flagquiz.Guess) error {
	ctx, cancel := c.storeContext()
	defer cancel()

	logger := c.logger.With("session_id", session.ID)
	if err := c.store.UpdateSession(ctx, session); err != nil {
		logger.Error("session persistence failed", "step", "update session", "error", err)
		return fmt.Errorf("%w: updating session: %w", ErrSessionPersistenceFailed, err)
	}
	if err := c.store.SaveGuesses(ctx, guesses); err != nil {
		logger.Error("session persistence failed", "step", "save guesses", "error", err)
		return fmt.Errorf("%w: saving guesses: %w", ErrSessionPersistenceFailed, err)
	}
	logger.Info("session persisted", "score", session.Score, "guesses", len(guesses))
	return nil
}

func (c *Controller) previousResolved(p *playthrough, prev flagquiz.Session, err error) {
	if c.stale(p, "previous session") {
		return
	}
	switch {
	case err == nil:
		score := prev.Score
		p.previous = &score
	case errors.Is(err, flagquiz.ErrNotFound):
	default:
		c.logger.Warn("previous session lookup failed",
			"generation", p.gen,
			"session_id", p.session.ID,
			"error", fmt.Errorf("%w: %w", ErrPreviousSessionLookupFailed, err),
		)
	}
	cmp := flagquiz.Compare(p.score, p.previous)
	p.comparison = &cmp
	p.phase = PhaseSummarized
	c.publish()
}

func (p *playthrough) stopTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
