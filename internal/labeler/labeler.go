// Package labeler asks an LLM whether a revision diff improves or harms
// the article's neutral point of view and tracks how often the model
// agrees with human judgement.
package labeler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/npovlab/npovscan/internal/database"
	"github.com/npovlab/npovscan/internal/llm"
)

const labelPrompt = `You are reviewing a Wikipedia edit for compliance with the neutral point of view (NPOV) policy.

Below is the diff of one revision. Removed text is prefixed with "-", added text with "+".

Classify the edit:

INCREASES means the article became more neutral (biased wording removed, balance added, opinions attributed).
DECREASES means the article became less neutral (biased wording added, balance removed, opinion stated as fact).
NO_EFFECT means neutrality is unchanged (typo fixes, formatting, routine factual updates).

Diff:
%s

Respond with exactly one word: INCREASES, DECREASES or NO_EFFECT.`

// Diffs are truncated before prompting so a pathological revision cannot
// blow the context window.
const maxDiffChars = 8000

const defaultMaxTokens = 16

// Result holds the counters of a labeling run. Unparseable responses are
// stored (with an empty label) and counted inside Processed.
type Result struct {
	Processed   int
	Unparseable int
	Skipped     int
	Errors      int
}

// Labeler stores LLM judgements for stored revisions that lack one.
type Labeler struct {
	db          *database.DB
	provider    llm.Provider
	maxTokens   int
	maxAttempts int
	sleep       func(time.Duration)
}

// NewLabeler creates a labeler on top of an LLM provider.
func NewLabeler(db *database.DB, provider llm.Provider, maxTokens int) *Labeler {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Labeler{
		db:          db,
		provider:    provider,
		maxTokens:   maxTokens,
		maxAttempts: 3,
		sleep:       time.Sleep,
	}
}

// LabelAll asks the provider to judge every stored revision without an
// LLM label yet. A failure on one revision does not stop the others.
func (l *Labeler) LabelAll(ctx context.Context) *Result {
	if l.provider == nil {
		log.Println("No LLM provider available for labeling")
		return &Result{Errors: 1}
	}

	pending, err := l.db.GetUnlabeledByLLM()
	if err != nil {
		log.Printf("Error loading unlabeled revisions: %v", err)
		return &Result{Errors: 1}
	}
	if len(pending) == 0 {
		log.Println("No revisions pending LLM labels")
		return &Result{}
	}

	model := modelName(l.provider)
	r := &Result{}
	for _, sf := range pending {
		if strings.TrimSpace(sf.Record.DiffText) == "" {
			r.Skipped++
			continue
		}

		raw, err := l.labelDiff(ctx, sf.Record.DiffText)
		if err != nil {
			log.Printf("Error labeling %s: %v", sf.Record.RevisionURL, err)
			r.Errors++
			continue
		}

		label := ParseLabel(raw)
		if label == "" {
			log.Printf("Unparseable label for %s: %q", sf.Record.RevisionURL, snippet(raw))
			r.Unparseable++
		}
		if err := l.db.UpsertLLMLabel(sf.Record.RevisionURL, label, &raw, model); err != nil {
			log.Printf("Error storing label for %s: %v", sf.Record.RevisionURL, err)
			r.Errors++
			continue
		}
		r.Processed++
	}

	log.Printf("Labeling complete: %d labeled (%d unparseable), %d skipped, %d errors",
		r.Processed, r.Unparseable, r.Skipped, r.Errors)
	return r
}

func (l *Labeler) labelDiff(ctx context.Context, diff string) (string, error) {
	if len(diff) > maxDiffChars {
		diff = diff[:maxDiffChars] + "..."
	}
	prompt := fmt.Sprintf(labelPrompt, diff)

	bo := newRetryBackoff()
	var lastErr error
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		response, err := l.provider.Generate(ctx, prompt, l.maxTokens)
		if err == nil {
			return response, nil
		}
		lastErr = err
		if attempt < l.maxAttempts {
			delay := bo.NextBackOff()
			log.Printf("LLM call failed (attempt %d/%d), retrying in %s: %v",
				attempt, l.maxAttempts, delay, err)
			l.sleep(delay)
		}
	}
	return "", fmt.Errorf("calling LLM after %d attempts: %w", l.maxAttempts, lastErr)
}

// newRetryBackoff creates the exponential backoff policy for transient
// LLM failures.
func newRetryBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 30 * time.Second
	bo.Multiplier = 2
	return bo
}

// ParseLabel extracts one of the three labels from an LLM response. The
// response must be the label verbatim apart from surrounding whitespace;
// anything else yields the empty string.
func ParseLabel(response string) string {
	s := strings.TrimSpace(response)
	if database.ValidLabel(s) {
		return s
	}
	return ""
}

// ClassOf maps a label string to its classifier class. The second return
// is false for anything outside the three known labels.
func ClassOf(label string) (int, bool) {
	switch label {
	case database.LabelIncreases:
		return 1, true
	case database.LabelDecreases:
		return -1, true
	case database.LabelNoEffect:
		return 0, true
	}
	return 0, false
}

// LabelOf is the inverse of ClassOf.
func LabelOf(class int) string {
	switch class {
	case 1:
		return database.LabelIncreases
	case -1:
		return database.LabelDecreases
	case 0:
		return database.LabelNoEffect
	}
	return fmt.Sprintf("class %d", class)
}

// modelName extracts the provider's model identifier for provenance.
func modelName(p llm.Provider) *string {
	if n, ok := p.(interface{ Name() string }); ok {
		name := n.Name()
		return &name
	}
	return nil
}

func snippet(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
