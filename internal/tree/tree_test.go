package tree

import (
	"math"
	"testing"
)

func col(vals ...float64) [][]float64 {
	X := make([][]float64, len(vals))
	for i, v := range vals {
		X[i] = []float64{v}
	}
	return X
}

func TestTrainPureData(t *testing.T) {
	X := col(1, 2, 3, 4)
	y := []int{1, 1, 1, 1}

	tr, err := Train(X, y, []string{"f0"}, Params{MaxDepth: 3, MinSamplesSplit: 2})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if !tr.Root.leaf() {
		t.Error("expected a single leaf for pure data")
	}
	if tr.Root.Class != 1 {
		t.Errorf("expected class 1, got %d", tr.Root.Class)
	}
	if tr.Root.Samples != 4 {
		t.Errorf("expected 4 samples recorded, got %d", tr.Root.Samples)
	}
}

func TestTrainSeparableSplit(t *testing.T) {
	X := col(1, 2, 3, 10, 11, 12)
	y := []int{-1, -1, -1, 1, 1, 1}

	tr, err := Train(X, y, []string{"f0"}, Params{MaxDepth: 3, MinSamplesSplit: 2})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}

	for i, x := range X {
		if got := tr.Predict(x); got != y[i] {
			t.Errorf("row %d: predicted %d, expected %d", i, got, y[i])
		}
	}
	if tr.Root.leaf() {
		t.Fatal("expected a split at the root")
	}
	if tr.Root.Threshold <= 3 || tr.Root.Threshold >= 10 {
		t.Errorf("expected threshold between the groups, got %f", tr.Root.Threshold)
	}
}

func TestTrainThreeClasses(t *testing.T) {
	X := col(1, 2, 3, 11, 12, 13, 21, 22, 23)
	y := []int{-1, -1, -1, 0, 0, 0, 1, 1, 1}

	tr, err := Train(X, y, []string{"f0"}, Params{MaxDepth: 4, MinSamplesSplit: 2})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	for i, x := range X {
		if got := tr.Predict(x); got != y[i] {
			t.Errorf("row %d (%v): predicted %d, expected %d", i, x, got, y[i])
		}
	}
}

func TestTrainRespectsMaxDepth(t *testing.T) {
	X := col(1, 2, 3, 4, 5, 6, 7, 8)
	y := []int{-1, 1, -1, 1, -1, 1, -1, 1}

	tr, err := Train(X, y, []string{"f0"}, Params{MaxDepth: 2, MinSamplesSplit: 2})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}

	if d := depth(tr.Root); d > 2 {
		t.Errorf("expected depth <= 2, got %d", d)
	}
}

func TestTrainRespectsMinSamplesSplit(t *testing.T) {
	X := col(1, 2, 10, 11)
	y := []int{-1, -1, 1, 1}

	tr, err := Train(X, y, []string{"f0"}, Params{MaxDepth: 5, MinSamplesSplit: 5})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if !tr.Root.leaf() {
		t.Error("expected no split below min_samples_split")
	}
}

func TestPredictRoutesNaNRight(t *testing.T) {
	tr := &Tree{Root: &Node{
		Feature:   0,
		Threshold: 5,
		Class:     -1,
		Left:      &Node{Class: -1},
		Right:     &Node{Class: 1},
	}}

	if got := tr.Predict([]float64{2}); got != -1 {
		t.Errorf("small value: expected -1, got %d", got)
	}
	if got := tr.Predict([]float64{9}); got != 1 {
		t.Errorf("large value: expected 1, got %d", got)
	}
	if got := tr.Predict([]float64{math.NaN()}); got != 1 {
		t.Errorf("NaN: expected right branch class 1, got %d", got)
	}
}

func TestTrainToleratesNaNRows(t *testing.T) {
	X := [][]float64{
		{1, math.NaN()},
		{2, math.NaN()},
		{10, 5},
		{11, 6},
	}
	y := []int{-1, -1, 1, 1}

	tr, err := Train(X, y, []string{"f0", "f1"}, Params{MaxDepth: 3, MinSamplesSplit: 2})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if got := tr.Predict([]float64{1.5, math.NaN()}); got != -1 {
		t.Errorf("expected -1 for NaN-bearing row near the first group, got %d", got)
	}
	if got := tr.Predict([]float64{10.5, 5.5}); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}

func TestTrainRejectsBadInput(t *testing.T) {
	if _, err := Train(nil, nil, nil, Params{}); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := Train(col(1, 2), []int{1}, nil, Params{}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	X := col(1, 2, 3, 10, 11, 12)
	y := []int{-1, -1, -1, 1, 1, 1}
	tr, err := Train(X, y, []string{"f0"}, Params{MaxDepth: 3, MinSamplesSplit: 2})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}

	encoded, err := tr.JSON()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	restored, err := Parse(encoded)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	for _, x := range []([]float64){{0}, {2.5}, {7}, {15}, {math.NaN()}} {
		if a, b := tr.Predict(x), restored.Predict(x); a != b {
			t.Errorf("input %v: original predicts %d, restored %d", x, a, b)
		}
	}
	if len(restored.Features) != 1 || restored.Features[0] != "f0" {
		t.Errorf("expected feature names preserved, got %v", restored.Features)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("not json"); err == nil {
		t.Error("expected error for malformed model")
	}
	if _, err := Parse("{}"); err == nil {
		t.Error("expected error for rootless model")
	}
}

func TestTrainDeterministic(t *testing.T) {
	X := col(3, 1, 4, 1, 5, 9, 2, 6)
	y := []int{1, -1, 1, -1, 1, 1, -1, 1}

	a, err := Train(X, y, []string{"f0"}, Params{MaxDepth: 4, MinSamplesSplit: 2})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	b, _ := Train(X, y, []string{"f0"}, Params{MaxDepth: 4, MinSamplesSplit: 2})

	ja, _ := a.JSON()
	jb, _ := b.JSON()
	if ja != jb {
		t.Error("expected identical models from identical input")
	}
}

func TestSplitCounts(t *testing.T) {
	X := col(1, 2, 3, 10, 11, 12)
	y := []int{-1, -1, -1, 1, 1, 1}
	tr, err := Train(X, y, []string{"gapMean"}, Params{MaxDepth: 3, MinSamplesSplit: 2})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}

	counts := tr.SplitCounts()
	if counts["gapMean"] < 1 {
		t.Errorf("expected at least one split on gapMean, got %v", counts)
	}

	leafOnly := &Tree{Root: &Node{Class: 1}}
	if n := len(leafOnly.SplitCounts()); n != 0 {
		t.Errorf("expected no splits for a leaf, got %d", n)
	}
}

func depth(n *Node) int {
	if n.leaf() {
		return 0
	}
	l, r := depth(n.Left), depth(n.Right)
	if l > r {
		return l + 1
	}
	return r + 1
}
