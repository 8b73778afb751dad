package discover

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Excerpts longer than this are cut. The labeling UI only needs enough
// text to orient a reviewer.
const maxExcerptChars = 1200

// ExcerptFetcher pulls a plain-text article excerpt via HTTP and
// readability extraction.
type ExcerptFetcher struct {
	client *http.Client
}

// NewExcerptFetcher creates an excerpt fetcher.
func NewExcerptFetcher(timeout time.Duration) *ExcerptFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &ExcerptFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch returns a readable excerpt of the page, or the empty string when
// none could be extracted. Failures are logged, never fatal.
func (e *ExcerptFetcher) Fetch(ctx context.Context, pageURL string) string {
	if pageURL == "" {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "npovscan/1.0 (research tool)")

	resp, err := e.client.Do(req)
	if err != nil {
		log.Printf("Excerpt fetch failed for %s: %v", pageURL, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("Excerpt fetch for %s returned %d", pageURL, resp.StatusCode)
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}

	parsed, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return ""
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	if len(text) < 100 {
		return ""
	}
	if len(text) > maxExcerptChars {
		text = text[:maxExcerptChars] + "..."
	}
	return text
}
