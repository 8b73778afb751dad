// Package mediawiki talks to a MediaWiki installation: revision history,
// revision diffs, and article metadata. All outbound calls go through one
// controller that memoizes responses for the life of the process, paces
// requests client-side, and retries upstream rate-limit responses with a
// fixed wait.
package mediawiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/npovlab/npovscan/internal/config"
)

var (
	// ErrInvalidLocator means a revision locator was missing the parts a
	// call needed (article title, revision id).
	ErrInvalidLocator = errors.New("invalid revision locator")
	// ErrUpstreamShape means the API answered but not in the structure the
	// client expects.
	ErrUpstreamShape = errors.New("unexpected upstream response shape")
	// ErrRateLimited means the retry budget for HTTP 429 responses ran out.
	ErrRateLimited = errors.New("rate limit retries exhausted")
	// ErrUnexpectedFormat means diff extraction was ambiguous: the payload
	// did not contain exactly one diff block.
	ErrUnexpectedFormat = errors.New("unexpected diff payload format")
)

// errTooManyRequests marks a single 429 response inside the retry loop.
var errTooManyRequests = errors.New("upstream rate limit")

// Cache memoizes response bodies keyed by the exact request URL. One Cache
// is shared by all concurrent fetches of an extraction run; a hit returns
// the prior payload with no network call. Two concurrent identical misses
// may both reach the network, which is harmless for idempotent GETs.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

// NewCache creates an empty response cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

func (c *Cache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.entries[key]
	return body, ok
}

func (c *Cache) put(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = body
}

// Len reports the number of cached responses.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Client is a MediaWiki API client bound to one wiki.
type Client struct {
	baseURL       string
	language      string
	userAgent     string
	fetchAllDiffs bool

	http        *http.Client
	cache       *Cache
	limiter     *rate.Limiter
	maxAttempts int
	retryWait   time.Duration
	sleep       func(time.Duration)
}

// NewClient creates a client for the wiki described by cfg. The cache is
// injected so callers control its lifetime; nil gets a private one.
func NewClient(cfg config.Wiki, cache *Cache) *Client {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 3
	}
	wait := time.Duration(cfg.RetryWaitSeconds) * time.Second
	if cfg.RetryWaitSeconds <= 0 {
		wait = 10 * time.Second
	}
	if cache == nil {
		cache = NewCache()
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		language:      cfg.Language,
		userAgent:     cfg.UserAgent,
		fetchAllDiffs: cfg.FetchAllDiffs,
		http:          &http.Client{Timeout: 30 * time.Second},
		cache:         cache,
		limiter:       rate.NewLimiter(limit, 1),
		maxAttempts:   attempts,
		retryWait:     wait,
		sleep:         time.Sleep,
	}
}

// get fetches requestURL through the cache, the client-side pacer, and the
// rate-limit retry policy. Only HTTP 429 is retried: the controller waits
// the fixed interval after every limited attempt, gives up after
// maxAttempts, and surfaces ErrRateLimited. Any other failure propagates
// immediately.
func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	if body, ok := c.cache.get(requestURL); ok {
		return body, nil
	}

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.do(ctx, requestURL)
		if err == nil {
			c.cache.put(requestURL, body)
			return body, nil
		}
		if !errors.Is(err, errTooManyRequests) {
			return nil, err
		}

		c.sleep(c.retryWait)
		if attempt >= c.maxAttempts {
			return nil, fmt.Errorf("%w: GET %s failed %d times", ErrRateLimited, requestURL, attempt)
		}
	}
}

func (c *Client) do(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errTooManyRequests
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", requestURL, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
