package database

// GetStats returns aggregate counts for the status command and the web
// overview.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM articles", &s.Articles},
		{"SELECT COUNT(*) FROM targets", &s.Targets},
		{"SELECT COUNT(*) FROM targets WHERE status = 'pending'", &s.PendingTargets},
		{"SELECT COUNT(*) FROM targets WHERE status = 'done'", &s.DoneTargets},
		{"SELECT COUNT(*) FROM targets WHERE status = 'failed'", &s.FailedTargets},
		{"SELECT COUNT(*) FROM features", &s.Features},
		{"SELECT COUNT(*) FROM labels", &s.HumanLabels},
		{"SELECT COUNT(*) FROM llm_labels", &s.LLMLabels},
		{"SELECT COUNT(*) FROM tree_models", &s.TreeModels},
		{"SELECT COUNT(*) FROM runs", &s.Runs},
	}
	for _, c := range counts {
		if err := db.conn.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, err
		}
	}
	return s, nil
}
