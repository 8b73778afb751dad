package database

// Label classes. Human labels always carry one of the three; LLM labels
// may be empty when the response was unusable.
const (
	LabelIncreases = "INCREASES"
	LabelDecreases = "DECREASES"
	LabelNoEffect  = "NO_EFFECT"
)

// ValidLabel reports whether s is one of the three classes.
func ValidLabel(s string) bool {
	return s == LabelIncreases || s == LabelDecreases || s == LabelNoEffect
}

// UpsertLabel stores a human label, replacing any earlier one for the
// same revision.
func (db *DB) UpsertLabel(revisionURL, label string) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO labels (revision_url, label) VALUES (?, ?)`,
		revisionURL, label,
	)
	return err
}

// GetLabels returns all human labels, ordered by revision URL.
func (db *DB) GetLabels() ([]Label, error) {
	rows, err := db.conn.Query(
		`SELECT revision_url, label, imported_at FROM labels ORDER BY revision_url`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []Label
	for rows.Next() {
		var l Label
		if err := rows.Scan(&l.RevisionURL, &l.Label, &l.ImportedAt); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// UpsertLLMLabel stores a model judgement, replacing any earlier one for
// the same revision.
func (db *DB) UpsertLLMLabel(revisionURL, label string, rawResponse, model *string) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO llm_labels (revision_url, label, raw_response, model)
		VALUES (?, ?, ?, ?)`,
		revisionURL, label, rawResponse, model,
	)
	return err
}

// GetLLMLabels returns all model judgements, ordered by revision URL.
func (db *DB) GetLLMLabels() ([]LLMLabel, error) {
	rows, err := db.conn.Query(
		`SELECT revision_url, label, raw_response, model, labeled_at
		FROM llm_labels ORDER BY revision_url`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []LLMLabel
	for rows.Next() {
		var l LLMLabel
		if err := rows.Scan(&l.RevisionURL, &l.Label, &l.RawResponse, &l.Model, &l.LabeledAt); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// GetUnlabeledByLLM returns stored records that have no model judgement
// yet, in worklist order.
func (db *DB) GetUnlabeledByLLM() ([]StoredFeatures, error) {
	rows, err := db.conn.Query(
		`SELECT` + featureColumns + `
		FROM features f LEFT JOIN llm_labels m ON m.revision_url = f.revision_url
		WHERE m.revision_url IS NULL
		ORDER BY f.target_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredFeatures
	for rows.Next() {
		sf, err := scanFeatures(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sf)
	}
	return out, rows.Err()
}

// GetLabelPairs joins human and model labels per revision, ordered by
// revision URL. Only revisions carrying both appear.
func (db *DB) GetLabelPairs() ([]LabelPair, error) {
	rows, err := db.conn.Query(
		`SELECT l.revision_url, l.label, m.label
		FROM labels l JOIN llm_labels m ON m.revision_url = l.revision_url
		ORDER BY l.revision_url`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []LabelPair
	for rows.Next() {
		var p LabelPair
		if err := rows.Scan(&p.RevisionURL, &p.Human, &p.LLM); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
