// Package discover samples candidate articles from Wikipedia's featured
// content feeds and the random-article API and records their metadata
// for later target selection.
package discover

import (
	"context"
	"log"

	"github.com/npovlab/npovscan/internal/config"
	"github.com/npovlab/npovscan/internal/database"
	"github.com/npovlab/npovscan/internal/mediawiki"
)

// Result holds the results of a discovery run.
type Result struct {
	TotalFound  int
	NewArticles int
	Duplicates  int
	Errors      int
	Sources     map[string]int
}

// MetadataSource resolves article metadata and samples random titles.
type MetadataSource interface {
	ArticleInfo(ctx context.Context, title string) (*mediawiki.ArticleInfo, error)
	RandomArticles(ctx context.Context, count int) ([]string, error)
}

// Discoverer finds candidate articles and stores them.
type Discoverer struct {
	db          *database.DB
	wiki        MetadataSource
	sampler     *FeedSampler
	excerpts    *ExcerptFetcher
	randomCount int
}

// NewDiscoverer creates a discoverer for the configured sources.
func NewDiscoverer(cfg config.Discovery, db *database.DB, wiki MetadataSource) *Discoverer {
	d := &Discoverer{
		db:          db,
		wiki:        wiki,
		excerpts:    NewExcerptFetcher(0),
		randomCount: cfg.RandomCount,
	}
	if len(cfg.Feeds) > 0 {
		d.sampler = NewFeedSampler(cfg.Feeds)
	}
	return d
}

// Discover samples candidates from every configured source and stores
// the ones not seen before.
func (d *Discoverer) Discover(ctx context.Context) *Result {
	r := &Result{Sources: make(map[string]int)}

	var candidates []Candidate
	if d.sampler != nil {
		log.Println("Sampling featured content feeds...")
		candidates = append(candidates, d.sampler.SampleAll(ctx)...)
	}

	if d.randomCount > 0 {
		log.Printf("Sampling %d random articles...", d.randomCount)
		titles, err := d.wiki.RandomArticles(ctx, d.randomCount)
		if err != nil {
			log.Printf("Error sampling random articles: %v", err)
			r.Errors++
		}
		for _, title := range titles {
			candidates = append(candidates, Candidate{Title: title, Source: "random"})
		}
	}

	r.TotalFound = len(candidates)
	for _, c := range candidates {
		if err := d.store(ctx, c, r); err != nil {
			log.Printf("Error storing %q: %v", c.Title, err)
			r.Errors++
		}
	}

	log.Printf("Discovery complete: %d found, %d new, %d duplicates, %d errors",
		r.TotalFound, r.NewArticles, r.Duplicates, r.Errors)
	return r
}

func (d *Discoverer) store(ctx context.Context, c Candidate, r *Result) error {
	info, err := d.wiki.ArticleInfo(ctx, c.Title)
	if err != nil {
		return err
	}

	var urlPtr *string
	if info.CanonicalURL != "" {
		urlPtr = &info.CanonicalURL
	}

	var excerpt *string
	if text := d.excerpts.Fetch(ctx, info.CanonicalURL); text != "" {
		excerpt = &text
	}

	id, err := d.db.InsertArticle(info.Title, urlPtr, info.ContentLength, info.LatestRevID, excerpt, c.Source)
	if err != nil {
		return err
	}
	if id > 0 {
		r.NewArticles++
		r.Sources[c.Source]++
	} else {
		r.Duplicates++
	}
	return nil
}
