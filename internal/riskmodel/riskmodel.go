// Package riskmodel scores revisions against a revert-risk prediction
// service. Scoring is best-effort: exhausted retries degrade to a zero
// score instead of failing the caller, because the signal is auxiliary to
// the feature vector rather than structural.
package riskmodel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/npovlab/npovscan/internal/config"
)

// Scorer calls one revert-risk endpoint.
type Scorer struct {
	url      string
	language string

	http        *http.Client
	maxAttempts int
	retryWait   time.Duration
	sleep       func(time.Duration)
}

// NewScorer creates a scorer for the endpoint described by cfg. language
// is the wiki language code sent with every request.
func NewScorer(cfg config.Risk, language string) *Scorer {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 3
	}
	wait := time.Duration(cfg.RetryWaitSeconds) * time.Second
	if cfg.RetryWaitSeconds <= 0 {
		wait = 10 * time.Second
	}

	return &Scorer{
		url:         cfg.URL,
		language:    language,
		http:        &http.Client{Timeout: 30 * time.Second},
		maxAttempts: attempts,
		retryWait:   wait,
		sleep:       time.Sleep,
	}
}

type scoreRequest struct {
	RevID int64  `json:"rev_id"`
	Lang  string `json:"lang"`
}

type scoreResponse struct {
	Output struct {
		Probabilities struct {
			True float64 `json:"true"`
		} `json:"probabilities"`
	} `json:"output"`
}

// Score returns the revert probability in [0,1] for id, or 0 when the
// endpoint stays unavailable. Every failed attempt, rate limiting and
// transport errors alike, waits the fixed interval before the next try;
// the attempt cap then settles on the zero default. id is whichever
// identifier the configured binding selected; the wire field is rev_id
// either way.
func (s *Scorer) Score(ctx context.Context, id int64) float64 {
	for attempt := 1; ; attempt++ {
		score, err := s.score(ctx, id)
		if err == nil {
			return score
		}

		s.sleep(s.retryWait)
		if attempt >= s.maxAttempts {
			log.Printf("risk score for %d unavailable after %d attempts, using 0: %v", id, attempt, err)
			return 0
		}
	}
}

func (s *Scorer) score(ctx context.Context, id int64) (float64, error) {
	payload, err := json.Marshal(scoreRequest{RevID: id, Lang: s.language})
	if err != nil {
		return 0, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("POST %s: %s", s.url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	var out scoreResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}
	return out.Output.Probabilities.True, nil
}
