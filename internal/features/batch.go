package features

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Extractor produces one outcome per locator.
type Extractor interface {
	Assemble(ctx context.Context, locator string) (*Outcome, error)
}

// Item is one worklist entry: the caller's correlation key plus the
// locator to extract.
type Item struct {
	ID      int64
	Locator string
}

// Result is the outcome of one item. Results are positionally aligned
// with the batch's input items, not completion-ordered.
type Result struct {
	Item    Item
	Outcome *Outcome
	Err     error
}

// Batcher walks a worklist in fixed-size batches, running each batch's
// members concurrently. Batch size bounds in-flight upstream requests.
type Batcher struct {
	extractor Extractor
	size      int
}

// NewBatcher creates a batch runner. Sizes below 1 fall back to 5.
func NewBatcher(extractor Extractor, size int) *Batcher {
	if size < 1 {
		size = 5
	}
	return &Batcher{extractor: extractor, size: size}
}

// Process extracts every item, batch by batch. A batch completes as a
// whole before flush sees its results, and flush returns before the next
// batch starts, so progress is durable per batch. The first failed
// member, surfaced after its batch is flushed, stops the walk; items in
// later batches are never issued. A flush error stops the walk too.
func (b *Batcher) Process(ctx context.Context, items []Item, flush func([]Result) error) error {
	for start := 0; start < len(items); start += b.size {
		end := min(start+b.size, len(items))
		batch := items[start:end]
		results := make([]Result, len(batch))

		var wg sync.WaitGroup
		for i, item := range batch {
			wg.Add(1)
			go func(i int, item Item) {
				defer wg.Done()
				out, err := b.extractor.Assemble(ctx, item.Locator)
				results[i] = Result{Item: item, Outcome: out, Err: err}
			}(i, item)
		}
		wg.Wait()

		if flush != nil {
			if err := flush(results); err != nil {
				return fmt.Errorf("recording batch results: %w", err)
			}
		}
		for _, r := range results {
			if r.Err != nil {
				return fmt.Errorf("extracting %s: %w", r.Item.Locator, r.Err)
			}
		}

		log.Printf("Extracted batch of %d (%d/%d done)", len(batch), end, len(items))
	}
	return nil
}
