// Package engine is the relevance ranking core: a pure transform from an
// item's accumulated behavioral signals and the current situational context
// to a bounded score, a lifecycle state, and a ranked visible set.
//
// Pipeline: interaction -> histogram update -> lifecycle state -> score -> rank
//
// Design rules:
//   - No function reads a clock. Time arrives via Context.Now or an explicit
//     now argument, which keeps every call deterministic and replayable.
//   - No function mutates its arguments. Every update returns a new value.
//   - All scoring functions are total: any well-typed input produces a valid
//     score in [0, 1], including items with no history and items with
//     pathological counters.
package engine

import (
	"time"
)

// Item is one backlog entry. ID, Title and CreatedAt are immutable after
// creation; Signals is replaced wholesale by the recorder functions.
type Item struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Removed   bool      `json:"removed"`
	Signals   Signals   `json:"signals"`

	// Computed is the most recent scoring output. Derived and transient:
	// recomputed on every ranking pass, never a source of truth.
	Computed *Computed `json:"computed,omitempty"`
}

// Signals is the persisted memory of an item.
type Signals struct {
	SeenCount      int        `json:"seenCount"`
	OpenedCount    int        `json:"openedCount"`
	DismissedCount int        `json:"dismissedCount"`
	LastSeenAt     *time.Time `json:"lastSeenAt,omitempty"`

	// IgnoredStreak counts consecutive dismiss-without-engage events.
	// Reset to zero by any seen or opened event.
	IgnoredStreak int `json:"ignoredStreak"`

	Pinned     bool       `json:"isPinned"`
	PinUntil   *time.Time `json:"pinUntil,omitempty"`
	QuietUntil *time.Time `json:"quietUntil,omitempty"`

	HourHistogram   Histogram `json:"hourHistogram"`
	DayHistogram    Histogram `json:"dayHistogram"`
	PlaceHistogram  Histogram `json:"placeHistogram"`
	DeviceHistogram Histogram `json:"deviceHistogram"`
}

// Computed is the output of one scoring pass.
type Computed struct {
	Score     float64   `json:"score"`
	Distance  float64   `json:"distance"`
	Reasons   []string  `json:"reasons"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Context is the situational snapshot used for scoring. Callers supply a
// fresh Context on every call; the engine never caches or mutates one.
type Context struct {
	Now       time.Time
	Hour      int // 0-23
	Day       int // weekday, 0=Sunday
	Place     string
	Device    string
	SessionID string
}

// NewContext builds a Context for the given instant, deriving Hour and Day
// from now. Place and Device may be empty when unknown.
func NewContext(now time.Time, place, device string) Context {
	return Context{
		Now:    now,
		Hour:   now.Hour(),
		Day:    int(now.Weekday()),
		Place:  place,
		Device: device,
	}
}

// clone returns a deep copy of the signals so updates never alias the
// original item's histogram maps.
func (s Signals) clone() Signals {
	out := s
	out.HourHistogram = s.HourHistogram.clone()
	out.DayHistogram = s.DayHistogram.clone()
	out.PlaceHistogram = s.PlaceHistogram.clone()
	out.DeviceHistogram = s.DeviceHistogram.clone()
	if s.LastSeenAt != nil {
		t := *s.LastSeenAt
		out.LastSeenAt = &t
	}
	if s.PinUntil != nil {
		t := *s.PinUntil
		out.PinUntil = &t
	}
	if s.QuietUntil != nil {
		t := *s.QuietUntil
		out.QuietUntil = &t
	}
	return out
}

// nonNegative guards against malformed persisted counters. Missing or
// corrupted values read as zero rather than poisoning a score.
func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
