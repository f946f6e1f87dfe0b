package engine

import (
	"math"
	"sort"
	"time"
)

// Histogram decay tuning. Weights lose ~5% per whole elapsed day and are
// dropped once they fall below the epsilon, so a histogram stays bounded no
// matter how long the interaction history grows.
const (
	DecayFactor   = 0.95
	WeightEpsilon = 0.01
)

// legacyBaseline is the assumed interaction count when renormalizing
// histograms that grew unbounded under the pre-decay scheme.
const legacyBaseline = 100

// Histogram is a bounded, decaying frequency counter over categorical keys
// (hour-of-day, weekday, place, device). Keys appear only once observed;
// absence means weight zero. All operations return a new Histogram and
// tolerate empty or malformed input.
type Histogram struct {
	Counts      map[string]float64 `json:"counts"`
	LastUpdated time.Time          `json:"lastUpdated"`
}

// NewHistogram returns an empty histogram stamped at now.
func NewHistogram(now time.Time) Histogram {
	return Histogram{Counts: map[string]float64{}, LastUpdated: now}
}

func (h Histogram) clone() Histogram {
	out := Histogram{Counts: make(map[string]float64, len(h.Counts)), LastUpdated: h.LastUpdated}
	for k, v := range h.Counts {
		out.Counts[k] = v
	}
	return out
}

// Add returns a new histogram with key's weight incremented by amount.
func (h Histogram) Add(key string, amount float64) Histogram {
	if !isFiniteNonNeg(amount) {
		return h.clone()
	}
	out := h.clone()
	out.Counts[key] += amount
	return out
}

// Decay multiplies every weight by factor and drops entries that fall below
// WeightEpsilon. Factor 1 is a no-op; factors below 1 monotonically reduce
// total mass.
func (h Histogram) Decay(factor float64) Histogram {
	if !isFiniteNonNeg(factor) {
		factor = DecayFactor
	}
	out := Histogram{Counts: make(map[string]float64, len(h.Counts)), LastUpdated: h.LastUpdated}
	for k, v := range h.Counts {
		if !isFiniteNonNeg(v) {
			continue
		}
		w := v * factor
		if w < WeightEpsilon {
			continue
		}
		out.Counts[k] = w
	}
	return out
}

// Compress applies one decay step, optionally folds in one new observation,
// and rounds every weight to two decimal places. This keeps per-event
// histogram churn bounded in both size and precision.
func (h Histogram) Compress(newKey ...string) Histogram {
	out := h.Decay(DecayFactor)
	for _, k := range newKey {
		out.Counts[k] += 1
	}
	for k, v := range out.Counts {
		w := math.Round(v*100) / 100
		if w < WeightEpsilon {
			delete(out.Counts, k)
			continue
		}
		out.Counts[k] = w
	}
	return out
}

// RollingWindow applies floor(whole days since LastUpdated) decay steps and
// refreshes LastUpdated. Decay therefore tracks elapsed wall-clock time, not
// interaction count. A zero LastUpdated just stamps the histogram.
func (h Histogram) RollingWindow(now time.Time) Histogram {
	out := h.clone()
	if out.LastUpdated.IsZero() || !now.After(out.LastUpdated) {
		out.LastUpdated = now
		return out
	}
	days := int(now.Sub(out.LastUpdated).Hours() / 24)
	for i := 0; i < days; i++ {
		out = out.Decay(DecayFactor)
	}
	out.LastUpdated = now
	return out
}

// Total returns the sum of all finite non-negative weights.
func (h Histogram) Total() float64 {
	var total float64
	for _, v := range h.Counts {
		if isFiniteNonNeg(v) {
			total += v
		}
	}
	return total
}

// Affinity returns key's share of the total weight, in [0, 1].
// An empty histogram has affinity zero for every key.
func (h Histogram) Affinity(key string) float64 {
	total := h.Total()
	if total <= 0 {
		return 0
	}
	w := h.Counts[key]
	if !isFiniteNonNeg(w) {
		return 0
	}
	return w / total
}

// Peak returns the highest-weight key, or "" for an empty histogram.
func (h Histogram) Peak() string {
	keys := h.TopKeys(1)
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

// TopKeys returns up to n keys in descending weight order. Ties break by
// lexical key order so results are stable across runs.
func (h Histogram) TopKeys(n int) []string {
	keys := make([]string, 0, len(h.Counts))
	for k, v := range h.Counts {
		if isFiniteNonNeg(v) && v > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		wi, wj := h.Counts[keys[i]], h.Counts[keys[j]]
		if wi != wj {
			return wi > wj
		}
		return keys[i] < keys[j]
	})
	if n >= 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// MigrateLegacy normalizes a raw histogram that grew unbounded under the
// pre-decay scheme: caps each count at the legacy baseline, normalizes to a
// probability distribution, rescales to an assumed 100-interaction history,
// and rounds to integers. It never fails; malformed weights are treated as
// zero and unknown keys pass through unchanged.
func MigrateLegacy(raw map[string]float64, now time.Time) Histogram {
	out := NewHistogram(now)
	if len(raw) == 0 {
		return out
	}

	capped := make(map[string]float64, len(raw))
	var total float64
	for k, v := range raw {
		if !isFiniteNonNeg(v) {
			v = 0
		}
		if v > legacyBaseline {
			v = legacyBaseline
		}
		capped[k] = v
		total += v
	}
	if total <= 0 {
		// Nothing to rescale; keep the keys at zero-adjacent weights dropped.
		return out
	}

	for k, v := range capped {
		w := math.Round(v / total * legacyBaseline)
		if w < WeightEpsilon {
			continue
		}
		out.Counts[k] = w
	}
	return out
}

func isFiniteNonNeg(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
