package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "items: reminder backlog with behavioral signals",
		SQL: `
CREATE TABLE items (
    id              TEXT PRIMARY KEY,
    title           TEXT NOT NULL,
    created_at      INTEGER NOT NULL,
    removed         INTEGER NOT NULL DEFAULT 0,

    -- Interaction counters
    seen_count      INTEGER NOT NULL DEFAULT 0,
    opened_count    INTEGER NOT NULL DEFAULT 0,
    dismissed_count INTEGER NOT NULL DEFAULT 0,
    last_seen_at    INTEGER,
    ignored_streak  INTEGER NOT NULL DEFAULT 0,

    -- Pin / quiet windows
    pinned          INTEGER NOT NULL DEFAULT 0,
    pin_until       INTEGER,
    quiet_until     INTEGER,

    -- Decaying histograms, JSON-encoded
    hour_hist       TEXT NOT NULL DEFAULT '{}',
    day_hist        TEXT NOT NULL DEFAULT '{}',
    place_hist      TEXT NOT NULL DEFAULT '{}',
    device_hist     TEXT NOT NULL DEFAULT '{}',

    updated_at      INTEGER NOT NULL
);

CREATE INDEX idx_items_removed    ON items(removed);
CREATE INDEX idx_items_created_at ON items(created_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
