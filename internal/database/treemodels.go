package database

import "database/sql"

// InsertTreeModel stores one trained classifier snapshot.
func (db *DB) InsertTreeModel(m TreeModel) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO tree_models (model_json, max_depth, min_samples_split, seed,
			train_count, test_count, accuracy, report_md)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ModelJSON, m.MaxDepth, m.MinSamplesSplit, m.Seed,
		m.TrainCount, m.TestCount, m.Accuracy, m.Report,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetTreeModel returns the snapshot with the given id, or nil if it does
// not exist.
func (db *DB) GetTreeModel(id int64) (*TreeModel, error) {
	row := db.conn.QueryRow(
		`SELECT id, model_json, max_depth, min_samples_split, seed,
			train_count, test_count, accuracy, report_md, trained_at
		FROM tree_models WHERE id = ?`, id)
	return scanTreeModel(row)
}

// GetLatestTreeModel returns the newest snapshot, or nil if none exists.
func (db *DB) GetLatestTreeModel() (*TreeModel, error) {
	row := db.conn.QueryRow(
		`SELECT id, model_json, max_depth, min_samples_split, seed,
			train_count, test_count, accuracy, report_md, trained_at
		FROM tree_models ORDER BY id DESC LIMIT 1`)
	return scanTreeModel(row)
}

func scanTreeModel(row *sql.Row) (*TreeModel, error) {
	var m TreeModel
	err := row.Scan(&m.ID, &m.ModelJSON, &m.MaxDepth, &m.MinSamplesSplit, &m.Seed,
		&m.TrainCount, &m.TestCount, &m.Accuracy, &m.Report, &m.TrainedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
