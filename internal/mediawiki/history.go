package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"
)

// Revision is one historical edit of an article. History sequences are
// newest-first: index 0 is the most recent revision.
type Revision struct {
	RevisionURL string
	ArticleURL  string
	RevID       int64
	UserName    string
	UserID      int64
	Timestamp   int64 // unix seconds
	Diff        *string
}

type historyResponse struct {
	Continue *struct {
		RvContinue string `json:"rvcontinue"`
	} `json:"continue"`
	Query *struct {
		Pages []struct {
			PageID    int64  `json:"pageid"`
			Title     string `json:"title"`
			Missing   bool   `json:"missing"`
			Revisions []struct {
				RevID     int64  `json:"revid"`
				ParentID  int64  `json:"parentid"`
				User      string `json:"user"`
				UserID    int64  `json:"userid"`
				Timestamp string `json:"timestamp"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// History returns the subject revision and its complete ancestor chain,
// newest-first. The locator must carry an article title; when it also
// carries an oldid, enumeration starts at that revision, otherwise at the
// article's latest one.
//
// Pagination is an explicit loop: the API serves revisions newest-first
// and each continuation cursor walks further into the past, so the
// concatenation of pages is already in the returned order.
func (c *Client) History(ctx context.Context, locator string) ([]Revision, error) {
	loc, err := ParseLocator(locator)
	if err != nil {
		return nil, err
	}
	if loc.Title == "" {
		return nil, fmt.Errorf("%w: no article title in %q", ErrInvalidLocator, locator)
	}

	var all []Revision
	pages := 0
	cursor := ""
	for {
		body, err := c.get(ctx, c.historyURL(loc, cursor))
		if err != nil {
			return nil, err
		}

		var resp historyResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamShape, err)
		}

		revs, err := c.pageRevisions(&resp)
		if err != nil {
			return nil, err
		}
		all = append(all, revs...)
		pages++

		if resp.Continue == nil || resp.Continue.RvContinue == "" {
			break
		}
		cursor = resp.Continue.RvContinue
	}

	log.Printf("Fetched %d revisions in %d page(s) for %s", len(all), pages, loc.Title)

	if err := c.populateDiffs(ctx, loc, locator, all); err != nil {
		return nil, err
	}
	return all, nil
}

func (c *Client) historyURL(loc Locator, cursor string) string {
	q := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"prop":          {"revisions"},
		"titles":        {loc.Title},
		"rvprop":        {"ids|timestamp|user|userid"},
		"rvlimit":       {"max"},
		"rvdir":         {"older"},
	}
	if loc.RevID != 0 {
		q.Set("rvstartid", strconv.FormatInt(loc.RevID, 10))
	}
	if cursor != "" {
		q.Set("rvcontinue", cursor)
	}
	return c.baseURL + "/api.php?" + q.Encode()
}

func (c *Client) pageRevisions(resp *historyResponse) ([]Revision, error) {
	if resp.Query == nil || len(resp.Query.Pages) == 0 {
		return nil, fmt.Errorf("%w: response carries no pages", ErrUpstreamShape)
	}
	page := resp.Query.Pages[0]
	if page.Missing {
		return nil, fmt.Errorf("%w: page %q does not exist", ErrUpstreamShape, page.Title)
	}
	if page.Revisions == nil {
		return nil, fmt.Errorf("%w: page %q carries no revisions", ErrUpstreamShape, page.Title)
	}

	articleURL := c.ArticleURL(page.Title)
	revs := make([]Revision, 0, len(page.Revisions))
	for _, r := range page.Revisions {
		ts, err := time.Parse(time.RFC3339, r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: bad timestamp %q", ErrUpstreamShape, r.Timestamp)
		}
		revs = append(revs, Revision{
			RevisionURL: c.RevisionURL(page.Title, r.RevID),
			ArticleURL:  articleURL,
			RevID:       r.RevID,
			UserName:    r.User,
			UserID:      r.UserID,
			Timestamp:   ts.Unix(),
		})
	}
	return revs, nil
}

// populateDiffs attaches diff text per the global diff policy: every
// revision when fetch_all_diffs is on, otherwise only the newest one.
// The newest revision's diff goes through the original locator when it
// names a revision, so the predecessor id never needs to be known.
func (c *Client) populateDiffs(ctx context.Context, loc Locator, locator string, revs []Revision) error {
	if len(revs) == 0 {
		return nil
	}

	if c.fetchAllDiffs {
		for i := range revs {
			diff, err := c.DiffByRevID(ctx, revs[i].RevID)
			if err != nil {
				return err
			}
			revs[i].Diff = &diff
		}
		return nil
	}

	var diff string
	var err error
	if loc.RevID != 0 {
		diff, err = c.DiffByLocator(ctx, locator)
	} else {
		diff, err = c.DiffByRevID(ctx, revs[0].RevID)
	}
	if err != nil {
		return err
	}
	revs[0].Diff = &diff
	return nil
}
