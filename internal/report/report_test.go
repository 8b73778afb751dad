package report

import (
	"strings"
	"testing"

	"github.com/npovlab/npovscan/internal/labeler"
	"github.com/npovlab/npovscan/internal/tree"
)

func trainedModel(t *testing.T) (*tree.Tree, tree.Evaluation) {
	t.Helper()
	X := [][]float64{{1}, {2}, {3}, {10}, {11}, {12}}
	y := []int{-1, -1, -1, 1, 1, 1}
	model, err := tree.Train(X, y, []string{"revertRiskModelScore"}, tree.Params{MaxDepth: 3, MinSamplesSplit: 2})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}

	test := make([]tree.Example, len(X))
	for i := range X {
		test[i] = tree.Example{Vector: X[i], Class: y[i]}
	}
	return model, tree.Evaluate(model, test)
}

func TestTrainingReport(t *testing.T) {
	model, ev := trainedModel(t)
	md := TrainingReport(model, ev, 6)

	for _, want := range []string{
		"# Training report",
		"- Max depth: 3",
		"- Min samples per split: 2",
		"- Training examples: 6",
		"- Holdout examples: 6",
		"1.000 on 6 holdout examples.",
		"## Confusion matrix",
		"DECREASES",
		"INCREASES",
		"## Per-class metrics",
		"revertRiskModelScore: 1 split",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q\n%s", want, md)
		}
	}
}

func TestTrainingReportLeafModel(t *testing.T) {
	model := &tree.Tree{Root: &tree.Node{Class: 0, Samples: 4}, Params: tree.Params{MaxDepth: 1, MinSamplesSplit: 2}}
	md := TrainingReport(model, tree.Evaluation{}, 4)
	if !strings.Contains(md, "single leaf") {
		t.Errorf("expected leaf note, got\n%s", md)
	}
}

func TestComparisonReport(t *testing.T) {
	c := labeler.Comparison{
		Total:       4,
		Agreements:  3,
		Rate:        0.75,
		Unparseable: 1,
		Matrix: map[string]map[string]int{
			"INCREASES": {"INCREASES": 1, "NO_EFFECT": 1},
			"DECREASES": {"DECREASES": 1},
			"NO_EFFECT": {"NO_EFFECT": 1},
		},
	}

	md := ComparisonReport(c)
	for _, want := range []string{
		"# Label comparison",
		"- Pairs compared: 4",
		"- Agreement: 3 (75.0%)",
		"- Unparseable LLM responses: 1",
		"## Confusion",
		`human \ llm`,
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q\n%s", want, md)
		}
	}

	if !strings.Contains(md, "| INCREASES | 1 | 0 | 1 |") {
		t.Errorf("expected INCREASES row rendered, got\n%s", md)
	}
}

func TestComparisonReportEmpty(t *testing.T) {
	md := ComparisonReport(labeler.Comparison{Unparseable: 2})
	if !strings.Contains(md, "No labeled pairs to compare.") {
		t.Errorf("expected empty note, got\n%s", md)
	}
	if !strings.Contains(md, "2 LLM responses were unparseable.") {
		t.Errorf("expected unparseable count, got\n%s", md)
	}
}
