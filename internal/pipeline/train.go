package pipeline

import (
	"fmt"
	"log"

	"github.com/npovlab/npovscan/internal/config"
	"github.com/npovlab/npovscan/internal/database"
	"github.com/npovlab/npovscan/internal/features"
	"github.com/npovlab/npovscan/internal/labeler"
	"github.com/npovlab/npovscan/internal/report"
	"github.com/npovlab/npovscan/internal/tree"
)

// TrainResult summarizes one stored classifier snapshot.
type TrainResult struct {
	ModelID    int64
	TrainCount int
	TestCount  int
	Evaluation tree.Evaluation
	Report     string
}

// Train fits a fresh classifier on the human-labeled feature rows,
// evaluates it on a seeded holdout split and stores the snapshot with
// its markdown report.
func Train(db *database.DB, cfg config.Training) (*TrainResult, error) {
	labeled, err := db.GetLabeledFeatures()
	if err != nil {
		return nil, fmt.Errorf("loading labeled features: %w", err)
	}

	var examples []tree.Example
	for _, lf := range labeled {
		class, ok := labeler.ClassOf(lf.Label)
		if !ok {
			continue
		}
		examples = append(examples, tree.Example{Vector: lf.Stored.Record.Vector(), Class: class})
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("no labeled feature rows to train on")
	}

	trainSet, testSet := tree.SplitExamples(examples, cfg.TestFraction, cfg.Seed)

	X := make([][]float64, len(trainSet))
	y := make([]int, len(trainSet))
	for i, ex := range trainSet {
		X[i] = ex.Vector
		y[i] = ex.Class
	}

	params := tree.Params{MaxDepth: cfg.MaxDepth, MinSamplesSplit: cfg.MinSamplesSplit}
	model, err := tree.Train(X, y, features.FeatureNames(), params)
	if err != nil {
		return nil, fmt.Errorf("training classifier: %w", err)
	}

	ev := tree.Evaluate(model, testSet)
	reportMD := report.TrainingReport(model, ev, len(trainSet))

	modelJSON, err := model.JSON()
	if err != nil {
		return nil, fmt.Errorf("serializing model: %w", err)
	}

	row := database.TreeModel{
		ModelJSON:       modelJSON,
		MaxDepth:        model.Params.MaxDepth,
		MinSamplesSplit: model.Params.MinSamplesSplit,
		Seed:            cfg.Seed,
		TrainCount:      len(trainSet),
		TestCount:       len(testSet),
		Report:          &reportMD,
	}
	if ev.TestCount > 0 {
		acc := ev.Accuracy
		row.Accuracy = &acc
	}

	id, err := db.InsertTreeModel(row)
	if err != nil {
		return nil, fmt.Errorf("storing model: %w", err)
	}

	log.Printf("Trained model %d on %d examples (%d held out)", id, len(trainSet), len(testSet))
	return &TrainResult{
		ModelID:    id,
		TrainCount: len(trainSet),
		TestCount:  len(testSet),
		Evaluation: ev,
		Report:     reportMD,
	}, nil
}
