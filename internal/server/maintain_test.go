package server

import (
	"testing"
	"time"

	"github.com/focal-dev/focal/internal/engine"
	"github.com/focal-dev/focal/internal/store"
)

func TestNewMaintainerValidatesSpecs(t *testing.T) {
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := NewMaintainer(db, 4, "@every 1m", "@daily"); err != nil {
		t.Errorf("valid specs rejected: %v", err)
	}
	if _, err := NewMaintainer(db, 4, "not a spec", "@daily"); err == nil {
		t.Error("invalid rerank spec accepted")
	}
	if _, err := NewMaintainer(db, 4, "@every 1m", "whenever"); err == nil {
		t.Error("invalid decay spec accepted")
	}
}

func TestDecayPassRefreshesHistograms(t *testing.T) {
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Seed an item whose histogram was last touched long ago.
	past := time.Now().UTC().Add(-10 * 24 * time.Hour)
	created, err := db.CreateItem("stale habit", past)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	updated := engine.RecordInteraction(*created, engine.ActionSeen, engine.NewContext(past, "home", "phone"))
	if err := db.SaveItem(updated, past); err != nil {
		t.Fatalf("SaveItem: %v", err)
	}

	m, err := NewMaintainer(db, 4, "@every 1m", "@daily")
	if err != nil {
		t.Fatalf("NewMaintainer: %v", err)
	}
	m.decay()

	got, err := db.GetItem(created.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	w := got.Signals.PlaceHistogram.Counts["home"]
	if w >= 1 {
		t.Errorf("ten days of decay left weight %v, want < 1", w)
	}
	if got.Signals.PlaceHistogram.LastUpdated.Before(past.Add(9 * 24 * time.Hour)) {
		t.Errorf("lastUpdated not refreshed: %v", got.Signals.PlaceHistogram.LastUpdated)
	}
}
