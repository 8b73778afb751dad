package mediawiki

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Locator is the parsed form of a revision URL. The canonical shape is
// https://<wiki>/w/index.php?title=<Title>&oldid=<id>; the pretty
// /wiki/<Title> form carries a title but no revision id.
type Locator struct {
	Title string
	RevID int64
}

// ParseLocator splits a revision URL into its title and revision id.
// Either part may be absent; callers check for the parts they need.
func ParseLocator(raw string) (Locator, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Locator{}, fmt.Errorf("%w: %q", ErrInvalidLocator, raw)
	}

	q := u.Query()
	loc := Locator{Title: q.Get("title")}

	if idStr := q.Get("oldid"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			return Locator{}, fmt.Errorf("%w: bad oldid in %q", ErrInvalidLocator, raw)
		}
		loc.RevID = id
	}

	if loc.Title == "" {
		if rest, ok := strings.CutPrefix(u.Path, "/wiki/"); ok && rest != "" {
			loc.Title, _ = url.PathUnescape(rest)
		}
	}

	return loc, nil
}

// RevisionURL builds the canonical locator for one revision of a title.
func (c *Client) RevisionURL(title string, revID int64) string {
	q := url.Values{
		"title": {title},
		"oldid": {strconv.FormatInt(revID, 10)},
	}
	return c.baseURL + "/index.php?" + q.Encode()
}

// ArticleURL builds the canonical locator for an article.
func (c *Client) ArticleURL(title string) string {
	q := url.Values{"title": {title}}
	return c.baseURL + "/index.php?" + q.Encode()
}
