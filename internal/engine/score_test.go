package engine

import (
	"math"
	"testing"
	"time"
)

// Tuesday afternoon at the office.
var (
	scoreNow = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	scoreCtx = NewContext(scoreNow, "work", "laptop")
)

// baseItem returns a plain active item with no interaction history.
func baseItem() Item {
	return Item{
		ID:        "item-1",
		Title:     "renew passport",
		CreatedAt: scoreNow.Add(-72 * time.Hour),
	}
}

func hasReason(c Computed, reason string) bool {
	for _, r := range c.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}

func TestScoreBounds(t *testing.T) {
	longAgo := scoreNow.Add(-400 * 24 * time.Hour)
	items := []Item{
		baseItem(),
		{CreatedAt: scoreNow}, // brand new, zero history
		{ // extreme history
			CreatedAt: longAgo,
			Signals: Signals{
				SeenCount:   1 << 30,
				OpenedCount: 1 << 30,
				LastSeenAt:  &scoreNow,
			},
		},
		{ // malformed counters
			CreatedAt: longAgo,
			Signals: Signals{
				SeenCount:     -50,
				IgnoredStreak: -3,
				HourHistogram: Histogram{Counts: map[string]float64{"14": math.Inf(1), "3": math.NaN()}},
			},
		},
	}

	for i, item := range items {
		c := Score(item, scoreCtx)
		if c.Score < 0 || c.Score > 1 {
			t.Errorf("item %d: score %v out of [0,1]", i, c.Score)
		}
		if c.Distance != 1-c.Score {
			t.Errorf("item %d: distance %v != 1 - score %v", i, c.Distance, c.Score)
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	item := baseItem()
	item.Signals.SeenCount = 7
	item.Signals.LastSeenAt = &scoreNow

	a := Score(item, scoreCtx)
	b := Score(item, scoreCtx)
	if a.Score != b.Score || len(a.Reasons) != len(b.Reasons) {
		t.Errorf("same inputs produced different outputs: %v vs %v", a, b)
	}
}

func TestPinBoost(t *testing.T) {
	plain := baseItem()
	pinned := Pin(plain, nil)

	cPlain := Score(plain, scoreCtx)
	cPinned := Score(pinned, scoreCtx)

	if cPinned.Score <= cPlain.Score {
		t.Errorf("pinned %v should outrank unpinned %v", cPinned.Score, cPlain.Score)
	}
	if !hasReason(cPinned, ReasonPinned) {
		t.Errorf("reasons %v missing %q", cPinned.Reasons, ReasonPinned)
	}
}

func TestExpiredPinIsInert(t *testing.T) {
	expired := scoreNow.Add(-time.Second)
	item := Pin(baseItem(), &expired)

	c := Score(item, scoreCtx)
	plain := Score(baseItem(), scoreCtx)

	if c.Score != plain.Score {
		t.Errorf("expired pin changed score: %v vs %v", c.Score, plain.Score)
	}
	if hasReason(c, ReasonPinned) {
		t.Errorf("expired pin should not emit %q", ReasonPinned)
	}
}

func TestQuietSuppression(t *testing.T) {
	item := Quiet(baseItem(), 1, scoreCtx)

	c := Score(item, scoreCtx)
	plain := Score(baseItem(), scoreCtx)

	if c.Score >= plain.Score/2 {
		t.Errorf("quieted score %v should be under half of %v", c.Score, plain.Score)
	}
	if !hasReason(c, ReasonQuieted) {
		t.Errorf("reasons %v missing %q", c.Reasons, ReasonQuieted)
	}
}

func TestExpiredQuietIsInert(t *testing.T) {
	past := scoreNow.Add(-time.Hour)
	item := baseItem()
	item.Signals.QuietUntil = &past

	c := Score(item, scoreCtx)
	plain := Score(baseItem(), scoreCtx)

	if c.Score != plain.Score {
		t.Errorf("expired quiet changed score: %v vs %v", c.Score, plain.Score)
	}
	if hasReason(c, ReasonQuieted) {
		t.Errorf("expired quiet should not emit %q", ReasonQuieted)
	}
}

// A quieted item stays below ordinary items even with a full pin boost on
// top. The quiet dampener and the lifecycle multiplier compound.
func TestPinnedAndQuietedStaysSuppressed(t *testing.T) {
	item := Quiet(Pin(baseItem(), nil), 4, scoreCtx)

	c := Score(item, scoreCtx)
	plain := Score(baseItem(), scoreCtx)

	if c.Score >= plain.Score/2 {
		t.Errorf("pinned+quieted %v should stay well below plain %v", c.Score, plain.Score)
	}
	if !hasReason(c, ReasonPinned) || !hasReason(c, ReasonQuieted) {
		t.Errorf("reasons %v should carry both pin and quiet tags", c.Reasons)
	}
}

func TestNoveltyBoost(t *testing.T) {
	fresh := baseItem()
	fresh.CreatedAt = scoreNow.Add(-time.Hour)

	c := Score(fresh, scoreCtx)
	plain := Score(baseItem(), scoreCtx)

	if c.Score <= plain.Score {
		t.Errorf("new item %v should outrank old %v", c.Score, plain.Score)
	}
	if !hasReason(c, ReasonNew) {
		t.Errorf("reasons %v missing %q", c.Reasons, ReasonNew)
	}
}

func TestRecencyBoost(t *testing.T) {
	neverSeen := baseItem()
	justSeen := baseItem()
	recent := scoreNow.Add(-time.Hour)
	justSeen.Signals.LastSeenAt = &recent

	cNever := Score(neverSeen, scoreCtx)
	cJust := Score(justSeen, scoreCtx)

	if cJust.Score <= cNever.Score {
		t.Errorf("recently seen %v should outrank never seen %v", cJust.Score, cNever.Score)
	}
	if hasReason(cNever, ReasonRecent) {
		t.Errorf("never-seen item must not emit %q", ReasonRecent)
	}
	if !hasReason(cJust, ReasonRecent) {
		t.Errorf("reasons %v missing %q", cJust.Reasons, ReasonRecent)
	}
}

func TestFrequencyWeighting(t *testing.T) {
	opens := baseItem()
	opens.Signals.OpenedCount = 10

	views := baseItem()
	views.Signals.SeenCount = 20

	cOpens := Score(opens, scoreCtx)
	cViews := Score(views, scoreCtx)

	// seen + 2*opened: 10 opens weigh the same as 20 views.
	if cOpens.Score < cViews.Score {
		t.Errorf("opens-heavy %v should rank at or above views-heavy %v", cOpens.Score, cViews.Score)
	}
}

func TestFrequencySaturates(t *testing.T) {
	big := baseItem()
	big.Signals.SeenCount = 1_000_000
	huge := baseItem()
	huge.Signals.SeenCount = 100_000_000

	cBig := Score(big, scoreCtx)
	cHuge := Score(huge, scoreCtx)

	if cHuge.Score-cBig.Score > 0.01 {
		t.Errorf("frequency boost should saturate: %v vs %v", cBig.Score, cHuge.Score)
	}
}

func TestAffinityBoost(t *testing.T) {
	regular := baseItem()
	regular.Signals.PlaceHistogram = NewHistogram(scoreNow).Add("work", 9).Add("home", 1)

	c := Score(regular, scoreCtx)
	plain := Score(baseItem(), scoreCtx)

	if c.Score <= plain.Score {
		t.Errorf("place affinity %v should outrank no history %v", c.Score, plain.Score)
	}
	if !hasReason(c, "often seen at work") {
		t.Errorf("reasons %v missing place salience tag", c.Reasons)
	}
}

func TestFadingReason(t *testing.T) {
	ignored := baseItem()
	ignored.Signals.IgnoredStreak = 4 // penalty 0.4, still shy of decaying

	c := Score(ignored, scoreCtx)
	plain := Score(baseItem(), scoreCtx)

	if c.Score >= plain.Score {
		t.Errorf("ignored item %v should score below plain %v", c.Score, plain.Score)
	}
	if !hasReason(c, ReasonFading) {
		t.Errorf("reasons %v missing %q", c.Reasons, ReasonFading)
	}
}

// Items still inside the novelty window take the streak penalty but never
// read as fading.
func TestNoveltySuppressesFadingReason(t *testing.T) {
	item := baseItem()
	item.CreatedAt = scoreNow.Add(-time.Hour)
	item.Signals.IgnoredStreak = 4

	c := Score(item, scoreCtx)
	if hasReason(c, ReasonFading) {
		t.Errorf("new item should not emit %q, reasons: %v", ReasonFading, c.Reasons)
	}
	if !hasReason(c, ReasonNew) {
		t.Errorf("reasons %v missing %q", c.Reasons, ReasonNew)
	}
}

func TestScoreToDistance(t *testing.T) {
	cases := map[float64]float64{0: 1, 0.5: 0.5, 1: 0}
	for score, want := range cases {
		if got := ScoreToDistance(score); got != want {
			t.Errorf("ScoreToDistance(%v) = %v, want %v", score, got, want)
		}
	}
}
