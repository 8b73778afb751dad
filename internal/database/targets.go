package database

import (
	"fmt"
)

// InsertTarget adds a locator to the extraction worklist. Returns the ID
// on success, 0 if the locator was already queued.
func (db *DB) InsertTarget(locator string, title *string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO targets (locator, title) VALUES (?, ?)`,
		locator, title,
	)
	if err != nil {
		// Duplicate locator constraint
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

// GetTargets returns the whole worklist in insertion order.
func (db *DB) GetTargets() ([]Target, error) {
	return db.queryTargets(
		`SELECT id, locator, title, status, added_at FROM targets ORDER BY id`)
}

// GetPendingTargets returns worklist entries not yet extracted, in
// insertion order.
func (db *DB) GetPendingTargets() ([]Target, error) {
	return db.queryTargets(
		`SELECT id, locator, title, status, added_at FROM targets
		WHERE status = ? ORDER BY id`, TargetPending)
}

// MarkTarget records the outcome of one extraction attempt.
func (db *DB) MarkTarget(targetID int64, status string) error {
	if status != TargetPending && status != TargetDone && status != TargetFailed {
		return fmt.Errorf("unknown target status %q", status)
	}
	_, err := db.conn.Exec("UPDATE targets SET status = ? WHERE id = ?", status, targetID)
	return err
}

func (db *DB) queryTargets(query string, args ...any) ([]Target, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []Target
	for rows.Next() {
		var tgt Target
		if err := rows.Scan(&tgt.ID, &tgt.Locator, &tgt.Title, &tgt.Status, &tgt.AddedAt); err != nil {
			return nil, err
		}
		targets = append(targets, tgt)
	}
	return targets, rows.Err()
}
