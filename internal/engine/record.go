package engine

import (
	"strconv"
	"time"
)

// Action is a behavioral event recorded against an item.
type Action string

const (
	ActionSeen      Action = "seen"
	ActionOpened    Action = "opened"
	ActionDismissed Action = "dismissed"
)

// ValidAction reports whether a is one of the recordable actions.
func ValidAction(a Action) bool {
	switch a {
	case ActionSeen, ActionOpened, ActionDismissed:
		return true
	}
	return false
}

// RecordInteraction returns a new item whose signals reflect one behavioral
// event. The input item is never modified.
//
// All three actions fold the current hour, weekday, place and device into
// the item's histograms by exactly +1. Time-based decay is applied
// separately by rolling-window maintenance, so per-event updates stay exact.
func RecordInteraction(item Item, action Action, ctx Context) Item {
	out := item
	s := item.Signals.clone()

	switch action {
	case ActionSeen:
		s.SeenCount = nonNegative(s.SeenCount) + 1
		now := ctx.Now
		s.LastSeenAt = &now
		s.IgnoredStreak = 0
	case ActionOpened:
		s.OpenedCount = nonNegative(s.OpenedCount) + 1
		now := ctx.Now
		s.LastSeenAt = &now
		s.IgnoredStreak = 0
	case ActionDismissed:
		// Dismissing does not touch lastSeenAt: the item was pushed away,
		// not attended to.
		s.DismissedCount = nonNegative(s.DismissedCount) + 1
		s.IgnoredStreak = nonNegative(s.IgnoredStreak) + 1
	default:
		return out
	}

	s.HourHistogram = s.HourHistogram.Add(strconv.Itoa(ctx.Hour), 1)
	s.DayHistogram = s.DayHistogram.Add(strconv.Itoa(ctx.Day), 1)
	if ctx.Place != "" {
		s.PlaceHistogram = s.PlaceHistogram.Add(ctx.Place, 1)
	}
	if ctx.Device != "" {
		s.DeviceHistogram = s.DeviceHistogram.Add(ctx.Device, 1)
	}

	out.Signals = s
	return out
}

// Pin returns a new item pinned until the given expiry, or permanently when
// until is nil.
func Pin(item Item, until *time.Time) Item {
	out := item
	s := item.Signals.clone()
	s.Pinned = true
	s.PinUntil = nil
	if until != nil {
		t := *until
		s.PinUntil = &t
	}
	out.Signals = s
	return out
}

// Unpin returns a new item with the pin cleared.
func Unpin(item Item) Item {
	out := item
	s := item.Signals.clone()
	s.Pinned = false
	s.PinUntil = nil
	out.Signals = s
	return out
}

// Quiet returns a new item suppressed for the given number of hours from
// ctx.Now. Quieting counts as a dismissal for decay purposes.
func Quiet(item Item, hours float64, ctx Context) Item {
	out := item
	s := item.Signals.clone()
	until := ctx.Now.Add(time.Duration(hours * float64(time.Hour)))
	s.QuietUntil = &until
	s.DismissedCount = nonNegative(s.DismissedCount) + 1
	out.Signals = s
	return out
}
