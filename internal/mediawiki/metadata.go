package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// ArticleInfo is the page-level metadata used when sampling articles.
type ArticleInfo struct {
	Title         string
	CanonicalURL  string
	ContentLength int64
	LatestRevID   int64
}

type infoResponse struct {
	Query *struct {
		Pages []struct {
			Title        string `json:"title"`
			Missing      bool   `json:"missing"`
			CanonicalURL string `json:"canonicalurl"`
			Length       int64  `json:"length"`
			LastRevID    int64  `json:"lastrevid"`
		} `json:"pages"`
	} `json:"query"`
}

// ArticleInfo fetches title, canonical URL, byte length and latest
// revision id for one page.
func (c *Client) ArticleInfo(ctx context.Context, title string) (*ArticleInfo, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", ErrInvalidLocator)
	}

	q := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"prop":          {"info"},
		"inprop":        {"url"},
		"titles":        {title},
	}
	body, err := c.get(ctx, c.baseURL+"/api.php?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp infoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamShape, err)
	}
	if resp.Query == nil || len(resp.Query.Pages) == 0 {
		return nil, fmt.Errorf("%w: no pages in info response", ErrUpstreamShape)
	}
	page := resp.Query.Pages[0]
	if page.Missing {
		return nil, fmt.Errorf("%w: page %q does not exist", ErrUpstreamShape, title)
	}

	return &ArticleInfo{
		Title:         page.Title,
		CanonicalURL:  page.CanonicalURL,
		ContentLength: page.Length,
		LatestRevID:   page.LastRevID,
	}, nil
}
