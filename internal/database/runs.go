package database

// StartRun records the beginning of a pipeline run under the given id.
func (db *DB) StartRun(id, kind string) error {
	_, err := db.conn.Exec(
		`INSERT INTO runs (id, kind) VALUES (?, ?)`, id, kind)
	return err
}

// FinishRun closes out a run with its outcome and a short free-form note.
func (db *DB) FinishRun(id string, ok bool, detail string) error {
	okInt := 0
	if ok {
		okInt = 1
	}
	_, err := db.conn.Exec(
		`UPDATE runs SET finished_at = datetime('now'), ok = ?, detail = ? WHERE id = ?`,
		okInt, detail, id)
	return err
}

// GetRecentRuns returns the newest runs first.
func (db *DB) GetRecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.conn.Query(
		`SELECT id, kind, started_at, finished_at, ok, detail
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var ok int
		if err := rows.Scan(&r.ID, &r.Kind, &r.StartedAt, &r.FinishedAt, &ok, &r.Detail); err != nil {
			return nil, err
		}
		r.OK = ok != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
