package database

import (
	"database/sql"
	"math"

	"github.com/npovlab/npovscan/internal/stats"
)

// nanNull converts NaN to NULL for storage. SQLite REAL columns cannot
// hold NaN; NULL round-trips back to NaN on read.
func nanNull(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func nullNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// UpsertFeatures stores one extracted record, replacing any earlier
// extraction of the same target.
func (db *DB) UpsertFeatures(sf StoredFeatures) error {
	r := &sf.Record
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO features (
			target_id, revision_url, article_url, author_user_name, author_user_id, revised_at,
			past_revisions_count, avg_time_between_revisions, past_revisions_by_author,
			revert_risk_score, perc_past_revisions_by_author, avg_time_between_author_revisions,
			diff_text,
			gap_average, gap_median, gap_q1, gap_q3, gap_stddev,
			author_gap_average, author_gap_median, author_gap_q1, author_gap_q3, author_gap_stddev
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sf.TargetID, r.RevisionURL, sf.ArticleURL, r.AuthorUserName, sf.AuthorUserID, sf.RevisedAt,
		r.PastRevisionsCount, nanNull(r.AverageTimeBetweenRevisions), r.PastRevisionsAuthoredByUser,
		nanNull(r.RevertRiskModelScore), nanNull(r.PercPastRevisionsAuthored),
		nanNull(r.AverageTimeBetweenUserAuthoredRevisions),
		r.DiffText,
		nanNull(r.TimeBetweenRevisions.Average), nanNull(r.TimeBetweenRevisions.Median),
		nanNull(r.TimeBetweenRevisions.Q1), nanNull(r.TimeBetweenRevisions.Q3),
		nanNull(r.TimeBetweenRevisions.StdDev),
		nanNull(r.TimeBetweenUserRevisions.Average), nanNull(r.TimeBetweenUserRevisions.Median),
		nanNull(r.TimeBetweenUserRevisions.Q1), nanNull(r.TimeBetweenUserRevisions.Q3),
		nanNull(r.TimeBetweenUserRevisions.StdDev),
	)
	return err
}

const featureColumns = `
	f.target_id, f.revision_url, f.article_url, f.author_user_name, f.author_user_id, f.revised_at,
	f.past_revisions_count, f.avg_time_between_revisions, f.past_revisions_by_author,
	f.revert_risk_score, f.perc_past_revisions_by_author, f.avg_time_between_author_revisions,
	f.diff_text,
	f.gap_average, f.gap_median, f.gap_q1, f.gap_q3, f.gap_stddev,
	f.author_gap_average, f.author_gap_median, f.author_gap_q1, f.author_gap_q3, f.author_gap_stddev`

// GetFeatures returns all stored records in worklist order.
func (db *DB) GetFeatures() ([]StoredFeatures, error) {
	rows, err := db.conn.Query(
		`SELECT` + featureColumns + ` FROM features f ORDER BY f.target_id`)
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

// GetFeaturesByTarget returns one stored record, or nil if the target has
// not been extracted.
func (db *DB) GetFeaturesByTarget(targetID int64) (*StoredFeatures, error) {
	row := db.conn.QueryRow(
		`SELECT`+featureColumns+` FROM features f WHERE f.target_id = ?`, targetID)
	sf, err := scanFeatures(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sf, nil
}

// GetLabeledFeatures joins stored records with human labels, in worklist
// order. Unlabeled records are omitted.
func (db *DB) GetLabeledFeatures() ([]LabeledFeatures, error) {
	rows, err := db.conn.Query(
		`SELECT` + featureColumns + `, l.label
		FROM features f JOIN labels l ON l.revision_url = f.revision_url
		ORDER BY f.target_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LabeledFeatures
	for rows.Next() {
		var lf LabeledFeatures
		sf, err := scanFeatures(rows, &lf.Label)
		if err != nil {
			return nil, err
		}
		lf.Stored = sf
		out = append(out, lf)
	}
	return out, rows.Err()
}

// scanFeatures reads one feature row; extra receives any trailing columns
// a join added after the fixed feature set.
func scanFeatures(s interface{ Scan(...any) error }, extra ...any) (StoredFeatures, error) {
	var sf StoredFeatures
	r := &sf.Record
	var (
		avgGap, risk, perc, userAvgGap sql.NullFloat64
		gaps, userGaps                 [5]sql.NullFloat64
		diff                           sql.NullString
	)

	dest := []any{
		&sf.TargetID, &r.RevisionURL, &sf.ArticleURL, &r.AuthorUserName, &sf.AuthorUserID, &sf.RevisedAt,
		&r.PastRevisionsCount, &avgGap, &r.PastRevisionsAuthoredByUser,
		&risk, &perc, &userAvgGap,
		&diff,
		&gaps[0], &gaps[1], &gaps[2], &gaps[3], &gaps[4],
		&userGaps[0], &userGaps[1], &userGaps[2], &userGaps[3], &userGaps[4],
	}
	dest = append(dest, extra...)
	if err := s.Scan(dest...); err != nil {
		return StoredFeatures{}, err
	}

	r.AverageTimeBetweenRevisions = nullNaN(avgGap)
	r.RevertRiskModelScore = nullNaN(risk)
	r.PercPastRevisionsAuthored = nullNaN(perc)
	r.AverageTimeBetweenUserAuthoredRevisions = nullNaN(userAvgGap)
	r.DiffText = diff.String
	r.TimeBetweenRevisions = summaryFrom(gaps)
	r.TimeBetweenUserRevisions = summaryFrom(userGaps)
	return sf, nil
}

func summaryFrom(cols [5]sql.NullFloat64) stats.Summary {
	return stats.Summary{
		Average: nullNaN(cols[0]),
		Median:  nullNaN(cols[1]),
		Q1:      nullNaN(cols[2]),
		Q3:      nullNaN(cols[3]),
		StdDev:  nullNaN(cols[4]),
	}
}
