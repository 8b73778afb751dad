package mediawiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/npovlab/npovscan/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.Wiki{
		BaseURL:          srv.URL,
		Language:         "en",
		UserAgent:        "npovscan-test",
		MaxAttempts:      3,
		RetryWaitSeconds: 10,
	}, nil)
}

// recordSleeps swaps the client's sleep for one that only records, so
// retry tests finish instantly.
func recordSleeps(c *Client) *[]time.Duration {
	var waits []time.Duration
	c.sleep = func(d time.Duration) { waits = append(waits, d) }
	return &waits
}

func TestGetCachesResponses(t *testing.T) {
	var hits atomic.Int64
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("payload"))
	}))

	url := c.baseURL + "/api.php?action=query"
	for i := 0; i < 3; i++ {
		body, err := c.get(context.Background(), url)
		if err != nil {
			t.Fatalf("get %d failed: %v", i, err)
		}
		if string(body) != "payload" {
			t.Errorf("get %d: expected 'payload', got %q", i, body)
		}
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("expected 1 upstream hit, got %d", got)
	}
	if c.cache.Len() != 1 {
		t.Errorf("expected 1 cache entry, got %d", c.cache.Len())
	}
}

func TestGetDistinctURLsNotShared(t *testing.T) {
	var hits atomic.Int64
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(r.URL.RawQuery))
	}))

	a, err := c.get(context.Background(), c.baseURL+"/api.php?titles=A")
	if err != nil {
		t.Fatalf("get A failed: %v", err)
	}
	b, err := c.get(context.Background(), c.baseURL+"/api.php?titles=B")
	if err != nil {
		t.Fatalf("get B failed: %v", err)
	}

	if string(a) == string(b) {
		t.Error("distinct URLs must not share a cache entry")
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("expected 2 upstream hits, got %d", got)
	}
}

func TestGetRetriesRateLimit(t *testing.T) {
	var hits atomic.Int64
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("recovered"))
	}))
	waits := recordSleeps(c)

	body, err := c.get(context.Background(), c.baseURL+"/api.php?action=query")
	if err != nil {
		t.Fatalf("expected recovery on third attempt, got %v", err)
	}
	if string(body) != "recovered" {
		t.Errorf("expected 'recovered', got %q", body)
	}
	if hits.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", hits.Load())
	}
	if len(*waits) != 2 {
		t.Fatalf("expected 2 waits, got %d", len(*waits))
	}
	for i, d := range *waits {
		if d != 10*time.Second {
			t.Errorf("wait %d: expected 10s, got %v", i, d)
		}
	}
}

func TestGetRateLimitExhausted(t *testing.T) {
	var hits atomic.Int64
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	waits := recordSleeps(c)

	_, err := c.get(context.Background(), c.baseURL+"/api.php?action=query")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", hits.Load())
	}
	if len(*waits) != 3 {
		t.Errorf("expected a wait after every limited attempt, got %d", len(*waits))
	}
}

func TestGetServerErrorNotRetried(t *testing.T) {
	var hits atomic.Int64
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	waits := recordSleeps(c)

	_, err := c.get(context.Background(), c.baseURL+"/api.php?action=query")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Error("500 must not be reported as rate limiting")
	}
	if hits.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", hits.Load())
	}
	if len(*waits) != 0 {
		t.Errorf("expected no waits, got %d", len(*waits))
	}
}

func TestGetSendsUserAgent(t *testing.T) {
	var agent string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		w.Write([]byte("{}"))
	}))

	if _, err := c.get(context.Background(), c.baseURL+"/api.php"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if agent != "npovscan-test" {
		t.Errorf("expected configured user agent, got %q", agent)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(config.Wiki{BaseURL: "https://en.wikipedia.org/w/"}, nil)

	if c.baseURL != "https://en.wikipedia.org/w" {
		t.Errorf("expected trailing slash trimmed, got %q", c.baseURL)
	}
	if c.maxAttempts != 3 {
		t.Errorf("expected 3 attempts by default, got %d", c.maxAttempts)
	}
	if c.retryWait != 10*time.Second {
		t.Errorf("expected 10s retry wait by default, got %v", c.retryWait)
	}
	if c.cache == nil {
		t.Error("expected a private cache when none is injected")
	}
}

func TestSharedCacheAcrossClients(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("shared"))
	}))
	t.Cleanup(srv.Close)

	cache := NewCache()
	a := NewClient(config.Wiki{BaseURL: srv.URL}, cache)
	b := NewClient(config.Wiki{BaseURL: srv.URL}, cache)

	if _, err := a.get(context.Background(), srv.URL+"/api.php?x=1"); err != nil {
		t.Fatalf("first get failed: %v", err)
	}
	if _, err := b.get(context.Background(), srv.URL+"/api.php?x=1"); err != nil {
		t.Fatalf("second get failed: %v", err)
	}

	if hits.Load() != 1 {
		t.Errorf("expected the shared cache to absorb the second fetch, got %d hits", hits.Load())
	}
}
