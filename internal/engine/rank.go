package engine

import "sort"

// DefaultMaxVisible is the size of the visible set when the caller does not
// supply one. The surface shows a handful of things, not a backlog.
const DefaultMaxVisible = 4

// RankResult is one complete ranking pass: every non-archived item scored
// and sorted, plus the bounded visible subset.
type RankResult struct {
	All     []Item `json:"all"`
	Visible []Item `json:"visible"`
}

// Rank scores the whole collection against one context, orders it by score
// descending, and truncates to the visible set. Archived items are excluded
// before scoring, never merely scored to zero. The input slice and its items
// are left untouched; returned items carry fresh Computed values.
func Rank(items []Item, ctx Context, maxVisible int) RankResult {
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisible
	}

	all := make([]Item, 0, len(items))
	for _, item := range items {
		if Classify(item, ctx.Now) == StateArchived {
			continue
		}
		scored := item
		c := Score(item, ctx)
		scored.Computed = &c
		all = append(all, scored)
	}

	// Stable sort: ties keep original collection order, so selection is
	// deterministic across passes.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Computed.Score > all[j].Computed.Score
	})

	n := maxVisible
	if n > len(all) {
		n = len(all)
	}
	visible := make([]Item, n)
	copy(visible, all[:n])

	return RankResult{All: all, Visible: visible}
}
