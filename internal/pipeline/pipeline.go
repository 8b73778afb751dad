// Package pipeline chains the individual tools into one end-to-end run:
// discover articles, extract revision features, label diffs with the
// LLM, compare against human labels, train a classifier and export the
// CSV artifacts. Each run is recorded in the store under a fresh id.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/npovlab/npovscan/internal/config"
	"github.com/npovlab/npovscan/internal/database"
	"github.com/npovlab/npovscan/internal/discover"
	"github.com/npovlab/npovscan/internal/export"
	"github.com/npovlab/npovscan/internal/labeler"
	"github.com/npovlab/npovscan/internal/llm"
	"github.com/npovlab/npovscan/internal/mediawiki"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID string
	Steps []StepResult
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return fmt.Errorf("%s: %w", s.Name, s.Err)
		}
	}
	return nil
}

// Pipeline orchestrates the 6-step extraction and training pipeline.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	wiki     *mediawiki.Client
	provider llm.Provider
}

// New creates a new pipeline. The wiki client and its response cache live
// for the whole run.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		db:       db,
		wiki:     mediawiki.NewClient(cfg.Wiki, mediawiki.NewCache()),
		provider: llm.CreateProvider(cfg.Labeling),
	}
}

// Run executes the full 6-step pipeline and records the run.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{RunID: uuid.NewString()}
	if err := p.db.StartRun(r.RunID, "pipeline"); err != nil {
		log.Printf("Error recording run start: %v", err)
	}

	// Step 1: Discover
	step := p.runDiscover(ctx)
	r.Steps = append(r.Steps, step)

	// Step 2: Extract
	step = p.runExtract(ctx)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		p.finish(r)
		return r
	}

	// Step 3: Label
	r.Steps = append(r.Steps, p.runLabel(ctx))

	// Step 4: Compare
	r.Steps = append(r.Steps, p.runCompare())

	// Step 5: Train
	r.Steps = append(r.Steps, p.runTrain())

	// Step 6: Export
	r.Steps = append(r.Steps, p.runExport())

	p.finish(r)
	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun() *Result {
	r := &Result{}

	r.Steps = append(r.Steps, StepResult{
		Name: "Discover",
		Summary: fmt.Sprintf("[dry-run] would sample %d feeds and %d random articles",
			len(p.cfg.Discovery.Feeds), p.cfg.Discovery.RandomCount),
	})

	pending, _ := p.db.GetPendingTargets()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Extract",
		Summary: fmt.Sprintf("[dry-run] %d revisions pending extraction", len(pending)),
	})

	unlabeled, _ := p.db.GetUnlabeledByLLM()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Label",
		Summary: fmt.Sprintf("[dry-run] %d diffs need LLM labels", len(unlabeled)),
	})

	pairs, _ := p.db.GetLabelPairs()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Compare",
		Summary: fmt.Sprintf("[dry-run] %d human/LLM label pairs to compare", len(pairs)),
	})

	labeled, _ := p.db.GetLabeledFeatures()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Train",
		Summary: fmt.Sprintf("[dry-run] %d labeled feature rows to train on", len(labeled)),
	})

	r.Steps = append(r.Steps, StepResult{
		Name:    "Export",
		Summary: fmt.Sprintf("[dry-run] would write 4 CSV files to %s", p.cfg.GetDataDir()),
	})

	return r
}

func (p *Pipeline) runDiscover(ctx context.Context) StepResult {
	log.Println("Step 1/6: Discovering articles...")
	d := discover.NewDiscoverer(p.cfg.Discovery, p.db, p.wiki)
	result := d.Discover(ctx)
	return StepResult{
		Name: "Discover",
		Summary: fmt.Sprintf("Found %d new articles (%d seen, %d duplicates, %d errors)",
			result.NewArticles, result.TotalFound, result.Duplicates, result.Errors),
	}
}

func (p *Pipeline) runExtract(ctx context.Context) StepResult {
	log.Println("Step 2/6: Extracting revision features...")
	result, err := Extract(ctx, p.cfg, p.db, p.wiki)
	if err != nil {
		return StepResult{Name: "Extract", Err: err}
	}
	return StepResult{
		Name: "Extract",
		Summary: fmt.Sprintf("Extracted %d revisions (%d newly queued, %d failed)",
			result.Extracted, result.Seeded, result.Failed),
	}
}

func (p *Pipeline) runLabel(ctx context.Context) StepResult {
	log.Println("Step 3/6: Labeling diffs with the LLM...")
	lab := labeler.NewLabeler(p.db, p.provider, p.cfg.Labeling.MaxTokens)
	result := lab.LabelAll(ctx)
	return StepResult{
		Name: "Label",
		Summary: fmt.Sprintf("Labeled %d diffs (%d unparseable, %d skipped, %d errors)",
			result.Processed, result.Unparseable, result.Skipped, result.Errors),
	}
}

func (p *Pipeline) runCompare() StepResult {
	log.Println("Step 4/6: Comparing labels...")
	pairs, err := p.db.GetLabelPairs()
	if err != nil {
		return StepResult{Name: "Compare", Err: err}
	}
	c := labeler.Compare(pairs)
	if c.Total == 0 {
		return StepResult{Name: "Compare", Summary: "No human/LLM label pairs yet"}
	}
	return StepResult{
		Name: "Compare",
		Summary: fmt.Sprintf("LLM agrees with %d of %d human labels (%.1f%%)",
			c.Agreements, c.Total, c.Rate*100),
	}
}

func (p *Pipeline) runTrain() StepResult {
	log.Println("Step 5/6: Training classifier...")
	result, err := Train(p.db, p.cfg.Training)
	if err != nil {
		return StepResult{Name: "Train", Err: err}
	}
	summary := fmt.Sprintf("Trained model %d on %d examples", result.ModelID, result.TrainCount)
	if result.TestCount > 0 {
		summary += fmt.Sprintf(", accuracy %.3f on %d held out",
			result.Evaluation.Accuracy, result.TestCount)
	}
	return StepResult{Name: "Train", Summary: summary}
}

func (p *Pipeline) runExport() StepResult {
	log.Println("Step 6/6: Exporting CSV artifacts...")
	dir := p.cfg.GetDataDir()
	exp := export.NewExporter(p.db, dir)
	paths, err := exp.WriteAll()
	if err != nil {
		return StepResult{Name: "Export", Err: err}
	}
	return StepResult{
		Name:    "Export",
		Summary: fmt.Sprintf("Wrote %d files to %s", len(paths), dir),
	}
}

func (p *Pipeline) finish(r *Result) {
	var failed []string
	for _, s := range r.Steps {
		if s.Err != nil {
			failed = append(failed, s.Name)
		}
	}
	detail := fmt.Sprintf("%d steps completed", len(r.Steps))
	if len(failed) > 0 {
		detail = "failed at " + strings.Join(failed, ", ")
	}
	if err := p.db.FinishRun(r.RunID, len(failed) == 0, detail); err != nil {
		log.Printf("Error recording run end: %v", err)
	}
}
