package flagquiz

import "fmt"

// Trend classifies a score against the previous completed session.
type Trend int

const (
	NoPriorSession Trend = iota
	Improved
	Declined
	Equal
)

// String returns the lower-case trend name used on the wire.
func (t Trend) String() string {
	switch t {
	case Improved:
		return "improved"
	case Declined:
		return "declined"
	case Equal:
		return "equal"
	default:
		return "no_prior_session"
	}
}

// MarshalText encodes the trend as its String form.
func (t Trend) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Comparison is the result of Compare. Delta is current minus previous
// and is zero for Equal and NoPriorSession.
type Comparison struct {
	Trend Trend `json:"trend"`
	Delta int   `json:"delta"`
}

// Compare returns how current relates to previous. A nil previous means
// there is no earlier completed session.
func Compare(current int, previous *int) Comparison {
	if previous == nil {
		return Comparison{Trend: NoPriorSession}
	}
	delta := current - *previous
	switch {
	case delta > 0:
		return Comparison{Trend: Improved, Delta: delta}
	case delta < 0:
		return Comparison{Trend: Declined, Delta: delta}
	default:
		return Comparison{Trend: Equal}
	}
}

// Message renders the end-of-game summary line.
func (c Comparison) Message() string {
	switch c.Trend {
	case Improved:
		return fmt.Sprintf("That's %d more than your previous session!", c.Delta)
	case Declined:
		return fmt.Sprintf("That's %d less than last time, but keep going!", -c.Delta)
	case Equal:
		return "Same score as your last session."
	default:
		return "This is your first recorded session. Keep guessing!"
	}
}
