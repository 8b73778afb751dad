package riskmodel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/npovlab/npovscan/internal/config"
)

func newTestScorer(t *testing.T, handler http.Handler) *Scorer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := NewScorer(config.Risk{
		URL:              srv.URL,
		MaxAttempts:      3,
		RetryWaitSeconds: 10,
	}, "en")
	s.sleep = func(time.Duration) {}
	return s
}

func TestScoreSuccess(t *testing.T) {
	var gotBody map[string]any
	s := newTestScorer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Write([]byte(`{"output": {"prediction": true, "probabilities": {"true": 0.83, "false": 0.17}}}`))
	}))

	score := s.Score(context.Background(), 1187249107)
	if score != 0.83 {
		t.Errorf("expected 0.83, got %f", score)
	}
	if gotBody["rev_id"] != float64(1187249107) {
		t.Errorf("expected rev_id in payload, got %v", gotBody)
	}
	if gotBody["lang"] != "en" {
		t.Errorf("expected lang 'en', got %v", gotBody["lang"])
	}
}

func TestScoreRetriesThenRecovers(t *testing.T) {
	var hits atomic.Int64
	s := newTestScorer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"output": {"probabilities": {"true": 0.5}}}`))
	}))

	var waits []time.Duration
	s.sleep = func(d time.Duration) { waits = append(waits, d) }

	score := s.Score(context.Background(), 7)
	if score != 0.5 {
		t.Errorf("expected recovery score 0.5, got %f", score)
	}
	if hits.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", hits.Load())
	}
	if len(waits) != 2 {
		t.Fatalf("expected 2 waits, got %d", len(waits))
	}
	for i, d := range waits {
		if d != 10*time.Second {
			t.Errorf("wait %d: expected 10s, got %v", i, d)
		}
	}
}

func TestScoreExhaustionDefaultsToZero(t *testing.T) {
	var hits atomic.Int64
	s := newTestScorer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	var waits []time.Duration
	s.sleep = func(d time.Duration) { waits = append(waits, d) }

	score := s.Score(context.Background(), 7)
	if score != 0 {
		t.Errorf("expected default 0 after exhaustion, got %f", score)
	}
	if hits.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", hits.Load())
	}
	// One fixed wait per limited attempt: three attempts, three waits.
	if len(waits) != 3 {
		t.Fatalf("expected 3 waits, got %d", len(waits))
	}
	var total time.Duration
	for _, d := range waits {
		total += d
	}
	if total != 30*time.Second {
		t.Errorf("expected 30s total wait, got %v", total)
	}
}

func TestScoreMalformedResponseDefaultsToZero(t *testing.T) {
	s := newTestScorer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))

	if score := s.Score(context.Background(), 7); score != 0 {
		t.Errorf("expected 0 for unusable responses, got %f", score)
	}
}

func TestNewScorerDefaults(t *testing.T) {
	s := NewScorer(config.Risk{URL: "https://example.org/score"}, "de")
	if s.maxAttempts != 3 {
		t.Errorf("expected 3 attempts by default, got %d", s.maxAttempts)
	}
	if s.retryWait != 10*time.Second {
		t.Errorf("expected 10s wait by default, got %v", s.retryWait)
	}
	if s.language != "de" {
		t.Errorf("expected language 'de', got %q", s.language)
	}
}
