package discover

import (
	"context"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/npovlab/npovscan/internal/config"
)

const maxPerFeed = 20

// Candidate is one article title pulled out of a feed.
type Candidate struct {
	Title  string
	Source string
}

// FeedSampler pulls article candidates out of featured-content feeds.
type FeedSampler struct {
	feeds []config.Feed
}

// NewFeedSampler creates a sampler for the given feeds.
func NewFeedSampler(feeds []config.Feed) *FeedSampler {
	return &FeedSampler{feeds: feeds}
}

// SampleAll parses every configured feed and returns deduplicated
// candidate titles. A broken feed is logged and skipped.
func (fs *FeedSampler) SampleAll(ctx context.Context) []Candidate {
	parser := gofeed.NewParser()
	seen := make(map[string]bool)
	var all []Candidate

	for _, fc := range fs.feeds {
		name := fc.Name
		if name == "" {
			name = fc.URL
		}

		candidates, err := sampleFeed(ctx, parser, fc.URL, name)
		if err != nil {
			log.Printf("Failed to parse feed %s: %v", fc.URL, err)
			continue
		}

		added := 0
		for _, c := range candidates {
			if seen[c.Title] {
				continue
			}
			seen[c.Title] = true
			all = append(all, c)
			added++
		}
		log.Printf("Found %d candidates in %s", added, name)
	}

	return all
}

func sampleFeed(ctx context.Context, parser *gofeed.Parser, feedURL, source string) ([]Candidate, error) {
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []Candidate
	for _, item := range feed.Items {
		if len(out) >= maxPerFeed {
			break
		}
		for _, title := range articleLinks(item) {
			if len(out) >= maxPerFeed {
				break
			}
			if seen[title] {
				continue
			}
			seen[title] = true
			out = append(out, Candidate{Title: title, Source: source})
		}
	}
	return out, nil
}

// articleLinks collects article titles from the entry link and every
// wiki link inside the entry body.
func articleLinks(item *gofeed.Item) []string {
	var titles []string
	if t, ok := wikiTitle(item.Link); ok {
		titles = append(titles, t)
	}

	html := item.Content
	if html == "" {
		html = item.Description
	}
	if html == "" {
		return titles
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return titles
	}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if t, ok := wikiTitle(href); ok {
			titles = append(titles, t)
		}
	})
	return titles
}

// wikiTitle extracts an article title from a /wiki/ link. Links into
// other namespaces (File:, Wikipedia:, ...) are rejected.
func wikiTitle(href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	const prefix = "/wiki/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	raw := strings.TrimPrefix(u.Path, prefix)
	if raw == "" {
		return "", false
	}

	title, err := url.PathUnescape(raw)
	if err != nil {
		title = raw
	}
	title = strings.ReplaceAll(title, "_", " ")
	if strings.Contains(title, ":") {
		return "", false
	}
	return title, true
}
