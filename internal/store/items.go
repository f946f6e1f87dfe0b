package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/focal-dev/focal/internal/engine"
)

// CreateItem inserts a new backlog item with empty signals and returns it.
func (db *DB) CreateItem(title string, now time.Time) (*engine.Item, error) {
	item := &engine.Item{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		Signals: engine.Signals{
			HourHistogram:   engine.NewHistogram(now),
			DayHistogram:    engine.NewHistogram(now),
			PlaceHistogram:  engine.NewHistogram(now),
			DeviceHistogram: engine.NewHistogram(now),
		},
	}

	_, err := db.Exec(`
		INSERT INTO items (id, title, created_at, removed,
			seen_count, opened_count, dismissed_count, last_seen_at, ignored_streak,
			pinned, pin_until, quiet_until,
			hour_hist, day_hist, place_hist, device_hist, updated_at)
		VALUES (?, ?, ?, 0, 0, 0, 0, NULL, 0, 0, NULL, NULL, ?, ?, ?, ?, ?)
	`, item.ID, item.Title, now.UnixMilli(),
		marshalHistogram(item.Signals.HourHistogram),
		marshalHistogram(item.Signals.DayHistogram),
		marshalHistogram(item.Signals.PlaceHistogram),
		marshalHistogram(item.Signals.DeviceHistogram),
		now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

// GetItem returns an item by ID, or nil if not found.
func (db *DB) GetItem(id string) (*engine.Item, error) {
	row := db.QueryRow(itemSelect+" WHERE id = ?", id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListItems returns the full collection, including removed items, in
// creation order. The ranking policy filters archived items itself.
func (db *DB) ListItems() ([]engine.Item, error) {
	rows, err := db.Query(itemSelect + " ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []engine.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// SaveItem writes an item's signals back. The engine hands us a fresh value
// on every mutation; this is the single-writer boundary.
func (db *DB) SaveItem(item engine.Item, now time.Time) error {
	s := item.Signals
	res, err := db.Exec(`
		UPDATE items SET removed = ?,
			seen_count = ?, opened_count = ?, dismissed_count = ?,
			last_seen_at = ?, ignored_streak = ?,
			pinned = ?, pin_until = ?, quiet_until = ?,
			hour_hist = ?, day_hist = ?, place_hist = ?, device_hist = ?,
			updated_at = ?
		WHERE id = ?
	`, boolInt(item.Removed),
		s.SeenCount, s.OpenedCount, s.DismissedCount,
		millisOrNil(s.LastSeenAt), s.IgnoredStreak,
		boolInt(s.Pinned), millisOrNil(s.PinUntil), millisOrNil(s.QuietUntil),
		marshalHistogram(s.HourHistogram), marshalHistogram(s.DayHistogram),
		marshalHistogram(s.PlaceHistogram), marshalHistogram(s.DeviceHistogram),
		now.UnixMilli(), item.ID)
	if err != nil {
		return fmt.Errorf("save item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("save item: no item with id %s", item.ID)
	}
	return nil
}

// RemoveItem flags an item as removed. Removed items classify as archived
// and never surface again; the row stays for history.
func (db *DB) RemoveItem(id string, now time.Time) error {
	res, err := db.Exec(`UPDATE items SET removed = 1, updated_at = ? WHERE id = ?`,
		now.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("remove item: no item with id %s", id)
	}
	return nil
}

// DecayAllItems applies rolling-window decay to every live item's
// histograms. Run daily so decay tracks wall-clock time, not event count.
// Returns the number of items refreshed.
func (db *DB) DecayAllItems(now time.Time) (int, error) {
	items, err := db.ListItems()
	if err != nil {
		return 0, fmt.Errorf("load items for decay: %w", err)
	}

	updated := 0
	for _, item := range items {
		if item.Removed {
			continue
		}
		s := item.Signals
		next := s
		next.HourHistogram = s.HourHistogram.RollingWindow(now)
		next.DayHistogram = s.DayHistogram.RollingWindow(now)
		next.PlaceHistogram = s.PlaceHistogram.RollingWindow(now)
		next.DeviceHistogram = s.DeviceHistogram.RollingWindow(now)

		item.Signals = next
		if err := db.SaveItem(item, now); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

const itemSelect = `
	SELECT id, title, created_at, removed,
		seen_count, opened_count, dismissed_count, last_seen_at, ignored_streak,
		pinned, pin_until, quiet_until,
		hour_hist, day_hist, place_hist, device_hist
	FROM items`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*engine.Item, error) {
	var (
		item                             engine.Item
		createdAt                        int64
		removed, pinned                  int
		lastSeenAt, pinUntil, quietUntil sql.NullInt64
		hourJS, dayJS, placeJS, deviceJS string
	)
	err := row.Scan(&item.ID, &item.Title, &createdAt, &removed,
		&item.Signals.SeenCount, &item.Signals.OpenedCount, &item.Signals.DismissedCount,
		&lastSeenAt, &item.Signals.IgnoredStreak,
		&pinned, &pinUntil, &quietUntil,
		&hourJS, &dayJS, &placeJS, &deviceJS)
	if err != nil {
		return nil, err
	}

	item.CreatedAt = time.UnixMilli(createdAt).UTC()
	item.Removed = removed != 0
	item.Signals.Pinned = pinned != 0
	item.Signals.LastSeenAt = timeOrNil(lastSeenAt)
	item.Signals.PinUntil = timeOrNil(pinUntil)
	item.Signals.QuietUntil = timeOrNil(quietUntil)
	item.Signals.HourHistogram = unmarshalHistogram(hourJS, item.CreatedAt)
	item.Signals.DayHistogram = unmarshalHistogram(dayJS, item.CreatedAt)
	item.Signals.PlaceHistogram = unmarshalHistogram(placeJS, item.CreatedAt)
	item.Signals.DeviceHistogram = unmarshalHistogram(deviceJS, item.CreatedAt)
	return &item, nil
}

func marshalHistogram(h engine.Histogram) string {
	if h.Counts == nil {
		h.Counts = map[string]float64{}
	}
	data, err := json.Marshal(h)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// unmarshalHistogram decodes a stored histogram. Rows written by the old
// unbounded scheme hold a bare counts object; those go through the legacy
// normalizer instead of failing.
func unmarshalHistogram(raw string, fallback time.Time) engine.Histogram {
	var h engine.Histogram
	if err := json.Unmarshal([]byte(raw), &h); err == nil && h.Counts != nil {
		return h
	}

	var legacy map[string]float64
	if err := json.Unmarshal([]byte(raw), &legacy); err == nil && len(legacy) > 0 {
		return engine.MigrateLegacy(legacy, fallback)
	}

	return engine.NewHistogram(fallback)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func millisOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func timeOrNil(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.UnixMilli(n.Int64).UTC()
	return &t
}
