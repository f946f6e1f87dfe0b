package store

import (
	"testing"
	"time"

	"github.com/focal-dev/focal/internal/engine"
)

var storeNow = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndGetItem(t *testing.T) {
	db := testDB(t)

	created, err := db.CreateItem("water the plants", storeNow)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created item has empty ID")
	}

	got, err := db.GetItem(created.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got == nil {
		t.Fatal("GetItem returned nil for existing item")
	}
	if got.Title != "water the plants" {
		t.Errorf("title = %q", got.Title)
	}
	if !got.CreatedAt.Equal(storeNow) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt, storeNow)
	}
	if got.Signals.LastSeenAt != nil {
		t.Errorf("fresh item lastSeenAt = %v, want nil", got.Signals.LastSeenAt)
	}
}

func TestGetItemMissing(t *testing.T) {
	db := testDB(t)

	got, err := db.GetItem("no-such-id")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got != nil {
		t.Errorf("GetItem = %+v, want nil", got)
	}
}

func TestSaveItemRoundTrip(t *testing.T) {
	db := testDB(t)

	created, err := db.CreateItem("call the dentist", storeNow)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	ctx := engine.NewContext(storeNow, "home", "phone")
	updated := engine.RecordInteraction(*created, engine.ActionOpened, ctx)
	updated = engine.Pin(updated, nil)

	if err := db.SaveItem(updated, storeNow); err != nil {
		t.Fatalf("SaveItem: %v", err)
	}

	got, err := db.GetItem(created.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Signals.OpenedCount != 1 {
		t.Errorf("openedCount = %d, want 1", got.Signals.OpenedCount)
	}
	if got.Signals.LastSeenAt == nil || !got.Signals.LastSeenAt.Equal(storeNow) {
		t.Errorf("lastSeenAt = %v, want %v", got.Signals.LastSeenAt, storeNow)
	}
	if !got.Signals.Pinned || got.Signals.PinUntil != nil {
		t.Errorf("pin state = %v/%v, want true/nil", got.Signals.Pinned, got.Signals.PinUntil)
	}
	if got.Signals.PlaceHistogram.Counts["home"] != 1 {
		t.Errorf("place histogram = %v", got.Signals.PlaceHistogram.Counts)
	}
	if got.Signals.DeviceHistogram.Counts["phone"] != 1 {
		t.Errorf("device histogram = %v", got.Signals.DeviceHistogram.Counts)
	}
}

func TestSaveItemUnknownID(t *testing.T) {
	db := testDB(t)

	err := db.SaveItem(engine.Item{ID: "ghost"}, storeNow)
	if err == nil {
		t.Fatal("SaveItem on unknown id should fail")
	}
}

func TestRemoveItem(t *testing.T) {
	db := testDB(t)

	created, err := db.CreateItem("short-lived", storeNow)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	if err := db.RemoveItem(created.ID, storeNow); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}

	got, err := db.GetItem(created.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !got.Removed {
		t.Error("removed flag not set")
	}
	if engine.Classify(*got, storeNow) != engine.StateArchived {
		t.Errorf("removed item should classify as archived, got %s", engine.Classify(*got, storeNow))
	}
}

func TestListItemsOrder(t *testing.T) {
	db := testDB(t)

	for i, title := range []string{"first", "second", "third"} {
		if _, err := db.CreateItem(title, storeNow.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("CreateItem %q: %v", title, err)
		}
	}

	items, err := db.ListItems()
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	if items[0].Title != "first" || items[2].Title != "third" {
		t.Errorf("order = [%s %s %s]", items[0].Title, items[1].Title, items[2].Title)
	}
}

func TestDecayAllItems(t *testing.T) {
	db := testDB(t)

	created, err := db.CreateItem("gym", storeNow)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	ctx := engine.NewContext(storeNow, "gym", "watch")
	updated := engine.RecordInteraction(*created, engine.ActionSeen, ctx)
	if err := db.SaveItem(updated, storeNow); err != nil {
		t.Fatalf("SaveItem: %v", err)
	}

	// Three days later the weights should have decayed three steps.
	later := storeNow.Add(72 * time.Hour)
	n, err := db.DecayAllItems(later)
	if err != nil {
		t.Fatalf("DecayAllItems: %v", err)
	}
	if n != 1 {
		t.Errorf("updated = %d, want 1", n)
	}

	got, err := db.GetItem(created.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	w := got.Signals.PlaceHistogram.Counts["gym"]
	if w >= 1 || w < 0.85 {
		t.Errorf("decayed weight = %v, want ~0.857 (three 0.95 steps)", w)
	}
}

// Histograms written by the old unbounded scheme are bare count objects.
// Loading one must normalize it instead of failing.
func TestLegacyHistogramMigration(t *testing.T) {
	db := testDB(t)

	created, err := db.CreateItem("old timer", storeNow)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	_, err = db.Exec(`UPDATE items SET place_hist = ? WHERE id = ?`,
		`{"home": 900, "work": 100}`, created.ID)
	if err != nil {
		t.Fatalf("write legacy histogram: %v", err)
	}

	got, err := db.GetItem(created.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	counts := got.Signals.PlaceHistogram.Counts
	if counts["home"] != 50 || counts["work"] != 50 {
		t.Errorf("migrated histogram = %v, want home=50 work=50", counts)
	}
}

func TestSchemaVersion(t *testing.T) {
	db := testDB(t)

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("schema version = %d, want %d", v, len(migrations))
	}
}
