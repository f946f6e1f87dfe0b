package engine

import (
	"math"
	"strconv"
)

// Scoring weights. The score starts at a neutral baseline, accumulates
// additive boosts, takes the streak penalty, and only then applies the two
// multiplicative layers (quiet suppression, lifecycle multiplier) so that a
// quieted item lands below unsuppressed items no matter how boosted it was.
const (
	baseScore    = 0.5
	noveltyBoost = 0.15
	pinBoost     = 0.3

	// quietFactor dampens the whole accumulated score of a quieted item.
	quietFactor = 0.1

	// affinityScale converts a histogram affinity (0-1) into a boost, per
	// dimension. salienceThreshold gates the human-readable reason.
	affinityScale     = 0.1
	salienceThreshold = 0.5

	// recencyScale decays with a 24h half-life since lastSeenAt.
	recencyScale    = 0.2
	recencyHalfLife = 24.0 // hours

	// frequencyScale saturates over the weighted interaction count so very
	// large histories cannot diverge.
	frequencyScale      = 0.2
	frequencyMidpoint   = 10.0
	frequencyReasonsMin = 0.1

	// streakStep and streakCap bound the ignored-streak penalty; the fading
	// reason fires once the penalty crosses fadingThreshold.
	streakStep      = 0.1
	streakCap       = 0.5
	fadingThreshold = 0.3

	// reasonEpsilon: a boost that moves the score less than this emits no
	// reason tag.
	reasonEpsilon = 0.01

	recencyReasonMin = 0.05
)

// Reason tags, emitted in evaluation order.
const (
	ReasonNew      = "newly added"
	ReasonPinned   = "pinned"
	ReasonQuieted  = "quieted"
	ReasonRecent   = "recently on your mind"
	ReasonFrequent = "frequently engaged"
	ReasonFading   = "fading from focus"
)

// Score maps an item and a context to a bounded relevance score with
// human-readable reasons. Deterministic: same inputs, same output.
func Score(item Item, ctx Context) Computed {
	s := item.Signals
	score := baseScore
	var reasons []string

	// Novelty
	age := ctx.Now.Sub(item.CreatedAt)
	isNew := age >= 0 && age < NoveltyWindow
	if isNew {
		score += noveltyBoost
		reasons = append(reasons, ReasonNew)
	}

	// Pin. An expired pin contributes nothing.
	if s.Pinned && (s.PinUntil == nil || s.PinUntil.After(ctx.Now)) {
		score += pinBoost
		reasons = append(reasons, ReasonPinned)
	}

	// Quiet reason is recorded here in evaluation order; the suppression
	// itself applies multiplicatively after all additive terms.
	quieted := s.QuietUntil != nil && s.QuietUntil.After(ctx.Now)
	if quieted {
		reasons = append(reasons, ReasonQuieted)
	}

	// Context affinities across the four histogram dimensions.
	type dimension struct {
		hist   Histogram
		key    string
		reason string
	}
	dims := []dimension{
		{s.HourHistogram, strconv.Itoa(ctx.Hour), "often at this hour"},
		{s.DayHistogram, strconv.Itoa(ctx.Day), "often on this day"},
		{s.PlaceHistogram, ctx.Place, "often seen at " + ctx.Place},
		{s.DeviceHistogram, ctx.Device, "often used on " + ctx.Device},
	}
	for _, d := range dims {
		if d.key == "" {
			continue
		}
		aff := d.hist.Affinity(d.key)
		boost := aff * affinityScale
		if boost < reasonEpsilon {
			continue
		}
		score += boost
		if aff > salienceThreshold {
			reasons = append(reasons, d.reason)
		}
	}

	// Recency: never-seen items get no boost and no reason.
	if s.LastSeenAt != nil {
		elapsed := ctx.Now.Sub(*s.LastSeenAt).Hours()
		if elapsed < 0 {
			elapsed = 0
		}
		boost := recencyScale * math.Pow(0.5, elapsed/recencyHalfLife)
		if boost >= reasonEpsilon {
			score += boost
			if boost >= recencyReasonMin {
				reasons = append(reasons, ReasonRecent)
			}
		}
	}

	// Frequency: opens weigh double views; growth saturates.
	weighted := float64(nonNegative(s.SeenCount) + 2*nonNegative(s.OpenedCount))
	if weighted > 0 {
		boost := frequencyScale * weighted / (weighted + frequencyMidpoint)
		if boost >= reasonEpsilon {
			score += boost
			if boost >= frequencyReasonsMin {
				reasons = append(reasons, ReasonFrequent)
			}
		}
	}

	// Ignored-streak penalty. Items still in their novelty window take the
	// penalty but never read as fading.
	penalty := math.Min(float64(nonNegative(s.IgnoredStreak))*streakStep, streakCap)
	if penalty > 0 {
		score -= penalty
		if penalty > fadingThreshold && !isNew {
			reasons = append(reasons, ReasonFading)
		}
	}

	// Multiplicative layers: quiet suppression, then the lifecycle
	// multiplier. Both quiet-related layers are intentional and compound.
	if quieted {
		score *= quietFactor
	}
	score *= Classify(item, ctx.Now).Multiplier()

	score = clamp01(score)
	return Computed{
		Score:     score,
		Distance:  ScoreToDistance(score),
		Reasons:   reasons,
		UpdatedAt: ctx.Now,
	}
}

// ScoreToDistance is the exact linear inverse of a score, used by
// presentation layers to place higher-relevance items nearer a focal point.
func ScoreToDistance(score float64) float64 {
	return 1 - clamp01(score)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
