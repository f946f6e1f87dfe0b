package engine

import "time"

// State is an item's lifecycle classification. It is derived from signals
// and the current time on every evaluation, never stored.
type State string

const (
	StateNew      State = "new"
	StateActive   State = "active"
	StateQuieted  State = "quieted"
	StateDecaying State = "decaying"
	StateArchived State = "archived"
)

// Lifecycle thresholds.
const (
	// NoveltyWindow is how long a freshly created item counts as new.
	NoveltyWindow = 24 * time.Hour

	// decayingStreak is the ignored streak at which an item starts decaying.
	decayingStreak = 5

	// staleAfter is how long without being seen before an item decays.
	staleAfter = 7 * 24 * time.Hour
)

// Classify derives the lifecycle state of an item at the given instant.
// Precedence is fixed: removal dominates everything, then an active quiet
// window, then novelty, then decay, else active.
func Classify(item Item, now time.Time) State {
	if item.Removed {
		return StateArchived
	}
	s := item.Signals
	if s.QuietUntil != nil && s.QuietUntil.After(now) {
		return StateQuieted
	}
	if now.Sub(item.CreatedAt) < NoveltyWindow {
		return StateNew
	}
	if nonNegative(s.IgnoredStreak) >= decayingStreak {
		return StateDecaying
	}
	if s.LastSeenAt != nil && now.Sub(*s.LastSeenAt) > staleAfter {
		return StateDecaying
	}
	return StateActive
}

// Multiplier is the score factor applied by the scorer for each state.
// Archived items are filtered out before scoring; the zero here is a
// backstop, not the exclusion mechanism.
func (s State) Multiplier() float64 {
	switch s {
	case StateNew:
		return 1.2
	case StateActive:
		return 1.0
	case StateQuieted:
		return 0.1
	case StateDecaying:
		return 0.5
	case StateArchived:
		return 0.0
	}
	return 1.0
}

// transitions documents the intended lifecycle edges. The classifier does
// not consult this table; it exists for validators and tests.
var transitions = map[State][]State{
	StateNew:      {StateActive, StateQuieted, StateArchived},
	StateActive:   {StateQuieted, StateDecaying, StateArchived},
	StateQuieted:  {StateActive, StateDecaying, StateArchived},
	StateDecaying: {StateActive, StateArchived},
	StateArchived: {},
}

// ValidTransition reports whether moving from one state to another follows
// a documented edge. Staying in the same state is always valid.
func ValidTransition(from, to State) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
