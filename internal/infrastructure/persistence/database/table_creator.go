package database

import (
	"database/sql"
	"fmt"
)

var tables = []string{
	`CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		published INTEGER NOT NULL DEFAULT 0,
		published_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ad_placements (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		targets TEXT NOT NULL DEFAULT '[]',
		priority INTEGER NOT NULL DEFAULT 0,
		start_at TEXT,
		end_at TEXT,
		click_url TEXT NOT NULL,
		utm_source TEXT,
		utm_campaign TEXT,
		utm_medium TEXT,
		creatives TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS feature_flags (
		key TEXT PRIMARY KEY,
		enabled INTEGER NOT NULL DEFAULT 0,
		metadata TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS view_events (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		subject_type TEXT NOT NULL,
		session_id TEXT NOT NULL,
		viewer_id TEXT NOT NULL,
		ip TEXT,
		user_agent TEXT,
		device TEXT,
		browser TEXT,
		os TEXT,
		country TEXT,
		city TEXT,
		created_at TEXT NOT NULL
	)`,
}

var indexes = []string{
	// The unique triple turns the recorder's check-then-insert race into a
	// detectable conflict instead of a silent duplicate row.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_view_events_triple
		ON view_events (subject_id, session_id, viewer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_view_events_subject_created
		ON view_events (subject_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_view_events_created
		ON view_events (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_ad_placements_status
		ON ad_placements (status)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_published
		ON posts (published)`,
}

// TableCreator handles the creation of the database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// SeedInitialContent idempotently inserts the feature flags the frontend
// expects to resolve on first boot.
func (tc *TableCreator) SeedInitialContent(db *sql.DB) error {
	seeds := []struct {
		key      string
		enabled  int
		metadata string
	}{
		{"ads", 0, `{"enabledSlots":["leaderboard","rectangle","mobile-banner"],"maxPerPage":3,"internalAdProbability":0.7}`},
		{"newsletter", 0, `{}`},
	}

	for _, seed := range seeds {
		var exists bool
		err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM feature_flags WHERE key = ?)", seed.key).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check for flag %s: %w", seed.key, err)
		}
		if exists {
			continue
		}
		if _, err := db.Exec(`INSERT INTO feature_flags (key, enabled, metadata) VALUES (?, ?, ?)`,
			seed.key, seed.enabled, seed.metadata); err != nil {
			return fmt.Errorf("failed to seed flag %s: %w", seed.key, err)
		}
	}
	return nil
}
