package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/npovlab/npovscan/internal/config"
	"github.com/npovlab/npovscan/internal/database"
	"github.com/npovlab/npovscan/internal/features"
	"github.com/npovlab/npovscan/internal/mediawiki"
	"github.com/npovlab/npovscan/internal/riskmodel"
)

// ExtractResult counts one extraction pass over the worklist.
type ExtractResult struct {
	Seeded    int // targets newly queued from stored articles
	Extracted int
	Failed    int
	Pending   int // left untouched after an aborted pass
}

// Extract queues the newest revision of every stored article, then runs
// feature extraction over all pending worklist entries batch by batch.
// Each batch is persisted before the next starts; the first failed
// member stops the pass after its batch lands.
func Extract(ctx context.Context, cfg *config.Config, db *database.DB, wiki *mediawiki.Client) (*ExtractResult, error) {
	res := &ExtractResult{}

	seeded, err := seedTargets(db, wiki)
	if err != nil {
		return nil, err
	}
	res.Seeded = seeded

	pending, err := db.GetPendingTargets()
	if err != nil {
		return nil, fmt.Errorf("loading worklist: %w", err)
	}
	if len(pending) == 0 {
		log.Println("No revisions pending extraction")
		return res, nil
	}

	scorer := riskmodel.NewScorer(cfg.Risk, cfg.Wiki.Language)
	assembler := features.NewAssembler(wiki, scorer, cfg.Risk.Key)
	return runWorklist(ctx, db, assembler, pending, cfg.Extraction.BatchSize, res)
}

// seedTargets adds the newest revision of every article to the worklist.
// Articles without a known revision id are skipped; already queued
// locators count as duplicates, not additions.
func seedTargets(db *database.DB, wiki *mediawiki.Client) (int, error) {
	articles, err := db.GetArticles(0)
	if err != nil {
		return 0, fmt.Errorf("loading articles: %w", err)
	}

	seeded := 0
	for _, a := range articles {
		if a.LatestRevID <= 0 {
			continue
		}
		title := a.Title
		id, err := db.InsertTarget(wiki.RevisionURL(a.Title, a.LatestRevID), &title)
		if err != nil {
			return seeded, fmt.Errorf("queueing %q: %w", a.Title, err)
		}
		if id > 0 {
			seeded++
		}
	}
	return seeded, nil
}

func runWorklist(ctx context.Context, db *database.DB, ex features.Extractor,
	pending []database.Target, batchSize int, res *ExtractResult) (*ExtractResult, error) {

	items := make([]features.Item, len(pending))
	for i, t := range pending {
		items[i] = features.Item{ID: t.ID, Locator: t.Locator}
	}

	batcher := features.NewBatcher(ex, batchSize)
	err := batcher.Process(ctx, items, func(results []features.Result) error {
		for _, r := range results {
			if r.Err != nil {
				if merr := db.MarkTarget(r.Item.ID, database.TargetFailed); merr != nil {
					return merr
				}
				res.Failed++
				continue
			}
			sf := database.StoredFeatures{
				TargetID:     r.Item.ID,
				ArticleURL:   r.Outcome.Subject.ArticleURL,
				AuthorUserID: r.Outcome.Subject.UserID,
				RevisedAt:    r.Outcome.Subject.Timestamp,
				Record:       r.Outcome.Record,
			}
			if err := db.UpsertFeatures(sf); err != nil {
				return err
			}
			if merr := db.MarkTarget(r.Item.ID, database.TargetDone); merr != nil {
				return merr
			}
			res.Extracted++
		}
		return nil
	})

	res.Pending = len(pending) - res.Extracted - res.Failed
	return res, err
}
