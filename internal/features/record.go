package features

import "github.com/npovlab/npovscan/internal/stats"

// Distribution field prefixes shared by the exporter and the trainer.
const (
	GapPrefix     = "timeBetweenRevisions"
	UserGapPrefix = "timeBetweenUserRevisions"
)

// FeatureRecord is one row of the training dataset, keyed by RevisionURL.
// The field set is fixed regardless of history size: statistics over
// degenerate samples degrade to 0 or NaN instead of changing the schema.
type FeatureRecord struct {
	RevisionURL    string
	AuthorUserName string

	// PastRevisionsCount counts the subject revision itself together with
	// every ancestor, so a freshly created article scores 1, not 0.
	PastRevisionsCount int

	// AverageTimeBetweenRevisions is the plain mean of consecutive gaps
	// divided by the revision count. It overlaps with
	// TimeBetweenRevisions.Average but uses a different divisor; both
	// columns are kept because existing models were trained on both.
	AverageTimeBetweenRevisions float64

	PastRevisionsAuthoredByUser int
	RevertRiskModelScore        float64

	// PercPastRevisionsAuthored is NaN when the history is empty; the
	// division is deliberately unguarded.
	PercPastRevisionsAuthored float64

	AverageTimeBetweenUserAuthoredRevisions float64

	DiffText string

	// Gap distributions over all revisions and over the subject author's
	// revisions only, both in chronological order.
	TimeBetweenRevisions     stats.Summary
	TimeBetweenUserRevisions stats.Summary
}

// featureNames lists the numeric columns in the order Vector emits them.
var featureNames = []string{
	"pastRevisionsCount",
	"averageTimeBetweenRevisions",
	"pastRevisionsAuthoredByUser",
	"revertRiskModelScore",
	"percPastRevisionsAuthored",
	"averageTimeBetweenUserAuthoredRevisions",
	GapPrefix + "Average",
	GapPrefix + "Median",
	GapPrefix + "Q1",
	GapPrefix + "Q3",
	GapPrefix + "StdDev",
	UserGapPrefix + "Average",
	UserGapPrefix + "Median",
	UserGapPrefix + "Q1",
	UserGapPrefix + "Q3",
	UserGapPrefix + "StdDev",
}

// FeatureNames returns the numeric column names in vector order.
func FeatureNames() []string {
	names := make([]string, len(featureNames))
	copy(names, featureNames)
	return names
}

// Vector flattens the record's numeric fields into classifier input, in
// FeatureNames order. NaN entries are allowed; the classifier routes them
// rather than rejecting the row.
func (r *FeatureRecord) Vector() []float64 {
	return []float64{
		float64(r.PastRevisionsCount),
		r.AverageTimeBetweenRevisions,
		float64(r.PastRevisionsAuthoredByUser),
		r.RevertRiskModelScore,
		r.PercPastRevisionsAuthored,
		r.AverageTimeBetweenUserAuthoredRevisions,
		r.TimeBetweenRevisions.Average,
		r.TimeBetweenRevisions.Median,
		r.TimeBetweenRevisions.Q1,
		r.TimeBetweenRevisions.Q3,
		r.TimeBetweenRevisions.StdDev,
		r.TimeBetweenUserRevisions.Average,
		r.TimeBetweenUserRevisions.Median,
		r.TimeBetweenUserRevisions.Q1,
		r.TimeBetweenUserRevisions.Q3,
		r.TimeBetweenUserRevisions.StdDev,
	}
}
