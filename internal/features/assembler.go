// Package features turns revision locators into fixed-schema feature
// records: history shape, edit-gap distributions, authorship ratios, the
// subject diff, and a revert-risk score.
package features

import (
	"context"

	"github.com/npovlab/npovscan/internal/config"
	"github.com/npovlab/npovscan/internal/mediawiki"
	"github.com/npovlab/npovscan/internal/stats"
)

// HistorySource yields an article's revision chain, newest-first, with
// the subject revision's diff populated.
type HistorySource interface {
	History(ctx context.Context, locator string) ([]mediawiki.Revision, error)
}

// RiskScorer estimates revert probability for an identifier. Never fails;
// degraded backends report 0.
type RiskScorer interface {
	Score(ctx context.Context, id int64) float64
}

// Assembler builds one FeatureRecord per revision locator.
type Assembler struct {
	history HistorySource
	scorer  RiskScorer
	riskKey string
}

// NewAssembler wires an assembler. riskKey selects which identifier feeds
// the risk model (config.RiskKeyUser or config.RiskKeyRevision).
func NewAssembler(history HistorySource, scorer RiskScorer, riskKey string) *Assembler {
	return &Assembler{history: history, scorer: scorer, riskKey: riskKey}
}

// Outcome pairs an assembled record with its subject revision.
type Outcome struct {
	Locator string
	Subject mediawiki.Revision
	Record  FeatureRecord
}

// Assemble produces the feature record for one locator. Any history or
// diff failure aborts this locator; only risk scoring degrades silently.
// Degenerate histories produce a full record with 0/NaN statistics rather
// than an error, so the output schema never depends on input size.
func (a *Assembler) Assemble(ctx context.Context, locator string) (*Outcome, error) {
	history, err := a.history.History(ctx, locator)
	if err != nil {
		return nil, err
	}

	subject := mediawiki.Revision{RevisionURL: locator}
	if len(history) > 0 {
		subject = history[0]
	}

	chrono := chronological(history)
	allGaps := gapSeconds(chrono)
	own := authoredBy(chrono, subject.UserID)
	ownGaps := gapSeconds(own)

	rec := FeatureRecord{
		RevisionURL:                 subject.RevisionURL,
		AuthorUserName:              subject.UserName,
		PastRevisionsCount:          len(history),
		AverageTimeBetweenRevisions: meanGap(allGaps, len(history)),
		PastRevisionsAuthoredByUser: len(own),
		// 0/0 = NaN for an empty history, by contract.
		PercPastRevisionsAuthored:               float64(len(own)) / float64(len(history)),
		AverageTimeBetweenUserAuthoredRevisions: meanGap(ownGaps, len(own)),
		TimeBetweenRevisions:                    stats.Describe(allGaps),
		TimeBetweenUserRevisions:                stats.Describe(ownGaps),
	}
	if subject.Diff != nil {
		rec.DiffText = *subject.Diff
	}

	riskID := subject.UserID
	if a.riskKey == config.RiskKeyRevision {
		riskID = subject.RevID
	}
	rec.RevertRiskModelScore = a.scorer.Score(ctx, riskID)

	return &Outcome{Locator: locator, Subject: subject, Record: rec}, nil
}

// chronological reverses a newest-first history into oldest-first order.
func chronological(history []mediawiki.Revision) []mediawiki.Revision {
	out := make([]mediawiki.Revision, len(history))
	for i, r := range history {
		out[len(history)-1-i] = r
	}
	return out
}

// authoredBy filters revisions to one editor. User ids are the join key;
// user names may alias.
func authoredBy(revs []mediawiki.Revision, userID int64) []mediawiki.Revision {
	var out []mediawiki.Revision
	for _, r := range revs {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// gapSeconds returns the deltas between consecutive revisions of an
// oldest-first sequence. Fewer than two revisions yield no gaps.
func gapSeconds(revs []mediawiki.Revision) []float64 {
	if len(revs) < 2 {
		return nil
	}
	gaps := make([]float64, 0, len(revs)-1)
	for i := 1; i < len(revs); i++ {
		gaps = append(gaps, float64(revs[i].Timestamp-revs[i-1].Timestamp))
	}
	return gaps
}

// meanGap divides the gap total by the revision count, not the gap count.
// That off-by-one divisor is the historical definition of the
// averageTimeBetween* columns and must not be corrected here; the
// distribution columns carry the conventional mean. Histories shorter
// than two revisions score 0.
func meanGap(gaps []float64, revisionCount int) float64 {
	if revisionCount < 2 {
		return 0
	}
	var sum float64
	for _, g := range gaps {
		sum += g
	}
	return sum / float64(revisionCount)
}
