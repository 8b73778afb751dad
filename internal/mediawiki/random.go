package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

type randomResponse struct {
	Query *struct {
		Random []struct {
			Title string `json:"title"`
		} `json:"random"`
	} `json:"query"`
}

// RandomArticles samples up to count article titles from the main
// namespace. The API caps a single request at 500 titles.
func (c *Client) RandomArticles(ctx context.Context, count int) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count %d", ErrInvalidLocator, count)
	}
	if count > 500 {
		count = 500
	}

	q := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"list":          {"random"},
		"rnnamespace":   {"0"},
		"rnlimit":       {strconv.Itoa(count)},
	}
	body, err := c.get(ctx, c.baseURL+"/api.php?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp randomResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamShape, err)
	}
	if resp.Query == nil {
		return nil, fmt.Errorf("%w: no query in random response", ErrUpstreamShape)
	}

	titles := make([]string, 0, len(resp.Query.Random))
	for _, r := range resp.Query.Random {
		titles = append(titles, r.Title)
	}
	return titles, nil
}
