package mediawiki

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// DiffByLocator returns the unified diff of the revision the locator
// names, against its immediate predecessor. The locator must carry an
// oldid; the diff=prev request form resolves the predecessor server-side.
func (c *Client) DiffByLocator(ctx context.Context, locator string) (string, error) {
	loc, err := ParseLocator(locator)
	if err != nil {
		return "", err
	}
	if loc.RevID == 0 {
		return "", fmt.Errorf("%w: no revision id in %q", ErrInvalidLocator, locator)
	}
	return c.fetchDiff(ctx, loc.RevID)
}

// DiffByRevID returns the unified diff of one revision against its
// immediate predecessor.
func (c *Client) DiffByRevID(ctx context.Context, revID int64) (string, error) {
	if revID <= 0 {
		return "", fmt.Errorf("%w: revision id %d", ErrInvalidLocator, revID)
	}
	return c.fetchDiff(ctx, revID)
}

func (c *Client) fetchDiff(ctx context.Context, revID int64) (string, error) {
	q := url.Values{
		"oldid":  {strconv.FormatInt(revID, 10)},
		"diff":   {"prev"},
		"action": {"render"},
	}
	body, err := c.get(ctx, c.baseURL+"/index.php?"+q.Encode())
	if err != nil {
		return "", err
	}
	return extractDiffBlock(body)
}

// extractDiffBlock pulls the diff text out of the HTML payload. The
// payload must contain exactly one preformatted block; zero means the
// diff is absent, more than one makes the extraction ambiguous. The
// block's inner text is returned verbatim.
func extractDiffBlock(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedFormat, err)
	}

	blocks := doc.Find("pre")
	if n := blocks.Length(); n != 1 {
		return "", fmt.Errorf("%w: found %d diff blocks, want exactly 1", ErrUnexpectedFormat, n)
	}
	return blocks.Text(), nil
}
