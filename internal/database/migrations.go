package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT UNIQUE NOT NULL,
    url TEXT,
    content_length INTEGER DEFAULT 0,
    latest_rev_id INTEGER DEFAULT 0,
    excerpt TEXT,
    source TEXT NOT NULL DEFAULT 'manual',
    discovered_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS targets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    locator TEXT UNIQUE NOT NULL,
    title TEXT,
    status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'done', 'failed')),
    added_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS features (
    target_id INTEGER PRIMARY KEY REFERENCES targets(id),
    revision_url TEXT NOT NULL,
    article_url TEXT NOT NULL DEFAULT '',
    author_user_name TEXT NOT NULL DEFAULT '',
    author_user_id INTEGER NOT NULL DEFAULT 0,
    revised_at INTEGER NOT NULL DEFAULT 0,
    past_revisions_count INTEGER NOT NULL DEFAULT 0,
    avg_time_between_revisions REAL,
    past_revisions_by_author INTEGER NOT NULL DEFAULT 0,
    revert_risk_score REAL,
    perc_past_revisions_by_author REAL,
    avg_time_between_author_revisions REAL,
    diff_text TEXT,
    gap_average REAL,
    gap_median REAL,
    gap_q1 REAL,
    gap_q3 REAL,
    gap_stddev REAL,
    author_gap_average REAL,
    author_gap_median REAL,
    author_gap_q1 REAL,
    author_gap_q3 REAL,
    author_gap_stddev REAL,
    extracted_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS labels (
    revision_url TEXT PRIMARY KEY,
    label TEXT NOT NULL CHECK(label IN ('INCREASES', 'DECREASES', 'NO_EFFECT')),
    imported_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS llm_labels (
    revision_url TEXT PRIMARY KEY,
    label TEXT NOT NULL DEFAULT '',
    raw_response TEXT,
    model TEXT,
    labeled_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS tree_models (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    model_json TEXT NOT NULL,
    max_depth INTEGER NOT NULL,
    min_samples_split INTEGER NOT NULL,
    seed INTEGER NOT NULL,
    train_count INTEGER DEFAULT 0,
    test_count INTEGER DEFAULT 0,
    accuracy REAL,
    report_md TEXT,
    trained_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    started_at TEXT DEFAULT (datetime('now')),
    finished_at TEXT,
    ok INTEGER DEFAULT 0,
    detail TEXT
);

CREATE INDEX IF NOT EXISTS idx_targets_status ON targets(status);
CREATE INDEX IF NOT EXISTS idx_features_url ON features(revision_url);
CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

// schemaVersion reads the store's user_version stamp; 0 means a fresh
// file that has never been migrated.
func schemaVersion(conn *sql.DB) (int, error) {
	var v int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading user_version: %w", err)
	}
	return v, nil
}

// upgradeSchema applies every migration the store has not seen yet, one
// transaction per step, recording progress in PRAGMA user_version.
func upgradeSchema(conn *sql.DB) error {
	current, err := schemaVersion(conn)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		log.Printf("store schema: migration %d (%s)", m.Version, m.Description)

		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: %w", m.Version, err)
		}
		if err := m.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d (%s): %w", m.Version, m.Description, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.Version, err)
		}

		// modernc's driver rejects PRAGMA user_version inside a
		// transaction, so the stamp lands after commit. A crash in
		// between replays the step on the next open; the DDL is
		// IF NOT EXISTS throughout, so a replay is a no-op.
		if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			return fmt.Errorf("recording schema version %d: %w", m.Version, err)
		}
	}

	return nil
}
