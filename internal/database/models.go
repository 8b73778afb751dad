package database

import (
	"github.com/npovlab/npovscan/internal/features"
)

// Article is a sampled candidate article.
type Article struct {
	ID            int64
	Title         string
	URL           *string
	ContentLength int64
	LatestRevID   int64
	Excerpt       *string
	Source        string
	DiscoveredAt  *string
}

// Target statuses.
const (
	TargetPending = "pending"
	TargetDone    = "done"
	TargetFailed  = "failed"
)

// Target is one entry of the extraction worklist. Worklist order is
// insertion order; exports preserve it.
type Target struct {
	ID      int64
	Locator string
	Title   *string
	Status  string
	AddedAt *string
}

// StoredFeatures is one extracted feature record together with the
// subject revision metadata the revision list artifact needs.
type StoredFeatures struct {
	TargetID     int64
	ArticleURL   string
	AuthorUserID int64
	RevisedAt    int64 // unix seconds
	Record       features.FeatureRecord
}

// Label is a human judgement for one revision.
type Label struct {
	RevisionURL string
	Label       string
	ImportedAt  *string
}

// LLMLabel is a model judgement for one revision. Label is empty when the
// response could not be parsed into one of the three classes.
type LLMLabel struct {
	RevisionURL string
	Label       string
	RawResponse *string
	Model       *string
	LabeledAt   *string
}

// LabelPair joins the human and LLM labels for one revision.
type LabelPair struct {
	RevisionURL string
	Human       string
	LLM         string
}

// LabeledFeatures joins a stored feature record with its human label.
type LabeledFeatures struct {
	Stored StoredFeatures
	Label  string
}

// TreeModel is a persisted trained classifier snapshot.
type TreeModel struct {
	ID              int64
	ModelJSON       string
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64
	TrainCount      int
	TestCount       int
	Accuracy        *float64
	Report          *string
	TrainedAt       *string
}

// Run holds metadata about one pipeline run.
type Run struct {
	ID         string
	Kind       string
	StartedAt  *string
	FinishedAt *string
	OK         bool
	Detail     *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Articles       int
	Targets        int
	PendingTargets int
	DoneTargets    int
	FailedTargets  int
	Features       int
	HumanLabels    int
	LLMLabels      int
	TreeModels     int
	Runs           int
}
