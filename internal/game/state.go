package game

import (
	"slices"

	"github.com/playperu/flagquiz/internal/flagquiz"
)

// Phase is the controller's position in the round state machine.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseInitializing  Phase = "initializing"
	PhaseAwaitingInput Phase = "awaiting_input"
	PhaseResolving     Phase = "resolving"
	// PhaseFinished means persistence and the previous-session lookup have
	// been dispatched; the summary is visible without a comparison yet.
	PhaseFinished   Phase = "finished"
	PhaseSummarized Phase = "summarized"
	PhaseFailed     Phase = "failed"
)

// State is an immutable snapshot of the controller, published after every
// change. CorrectIndex is kept server side to validate taps.
type State struct {
	Phase          Phase                `json:"phase"`
	Generation     uint64               `json:"generation"`
	SessionID      int64                `json:"sessionId,omitempty"`
	Target         string               `json:"target,omitempty"`
	Candidates     []string             `json:"candidates"`
	Feedback       []Feedback           `json:"feedback"`
	CorrectIndex   int                  `json:"-"`
	Score          int                  `json:"score"`
	QuestionsAsked int                  `json:"questionsAsked"`
	QuestionCount  int                  `json:"questionCount"`
	GameOver       bool                 `json:"gameOver"`
	TapEnabled     bool                 `json:"tapEnabled"`
	SummaryVisible bool                 `json:"summaryVisible"`
	PreviousScore  *int                 `json:"previousScore"`
	Comparison     *flagquiz.Comparison `json:"comparison,omitempty"`
	Summary        string               `json:"summary,omitempty"`
	GuessCount     int                  `json:"guessCount"`
	Error          string               `json:"error,omitempty"`
	Warning        string               `json:"warning,omitempty"`
}

func (p *playthrough) snapshot(questionCount int) State {
	s := State{
		Phase:          p.phase,
		Generation:     p.gen,
		SessionID:      p.session.ID,
		Candidates:     []string{},
		Feedback:       []Feedback{},
		Score:          p.score,
		QuestionsAsked: p.asked,
		QuestionCount:  questionCount,
		GameOver:       p.gameOver,
		TapEnabled:     p.phase == PhaseAwaitingInput && !p.round.TapLocked && !p.gameOver,
		SummaryVisible: p.gameOver,
		GuessCount:     len(p.guesses),
	}
	if p.hasRound {
		s.Target = p.round.Target()
		s.Candidates = slices.Clone(p.round.Candidates[:])
		s.Feedback = slices.Clone(p.round.Feedback[:])
		s.CorrectIndex = p.round.CorrectIndex
	}
	if p.previous != nil {
		prev := *p.previous
		s.PreviousScore = &prev
	}
	if p.comparison != nil {
		cmp := *p.comparison
		s.Comparison = &cmp
		s.Summary = cmp.Message()
	}
	if p.err != nil {
		s.Error = ErrSessionCreationFailed.Error()
	}
	if p.warning != nil {
		s.Warning = ErrSessionPersistenceFailed.Error()
	}
	return s
}

// idleState is published before Start.
func idleState(questionCount int) State {
	return State{
		Phase:         PhaseIdle,
		Candidates:    []string{},
		Feedback:      []Feedback{},
		QuestionCount: questionCount,
	}
}
