package tree

import (
	"math/rand"
	"sort"
)

// Example is one labeled training row.
type Example struct {
	Vector []float64
	Class  int
}

// SplitExamples shuffles examples with a seeded generator and carves off
// the trailing testFraction as the holdout set. The same seed always
// yields the same partition. At least one example stays in training when
// any exist.
func SplitExamples(examples []Example, testFraction float64, seed int64) (train, test []Example) {
	n := len(examples)
	if n == 0 {
		return nil, nil
	}

	shuffled := make([]Example, n)
	copy(shuffled, examples)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	testCount := int(float64(n) * testFraction)
	if testCount < 0 {
		testCount = 0
	}
	if testCount >= n {
		testCount = n - 1
	}
	cut := n - testCount
	return shuffled[:cut], shuffled[cut:]
}

// ClassMetrics is per-class test performance.
type ClassMetrics struct {
	Class     int     `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	Support   int     `json:"support"`
}

// Evaluation summarizes holdout performance. Confusion is indexed
// [actual][predicted] following the order of Classes.
type Evaluation struct {
	Classes   []int          `json:"classes"`
	Confusion [][]int        `json:"confusion"`
	Accuracy  float64        `json:"accuracy"`
	PerClass  []ClassMetrics `json:"per_class"`
	TestCount int            `json:"test_count"`
}

// Evaluate scores the tree against a holdout set.
func Evaluate(t *Tree, test []Example) Evaluation {
	classSet := make(map[int]bool)
	for _, ex := range test {
		classSet[ex.Class] = true
		classSet[t.Predict(ex.Vector)] = true
	}
	classes := make([]int, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	confusion := make([][]int, len(classes))
	for i := range confusion {
		confusion[i] = make([]int, len(classes))
	}

	correct := 0
	for _, ex := range test {
		pred := t.Predict(ex.Vector)
		confusion[index[ex.Class]][index[pred]]++
		if pred == ex.Class {
			correct++
		}
	}

	ev := Evaluation{
		Classes:   classes,
		Confusion: confusion,
		TestCount: len(test),
	}
	if len(test) > 0 {
		ev.Accuracy = float64(correct) / float64(len(test))
	}

	for i, c := range classes {
		var predicted, actual int
		for j := range classes {
			predicted += confusion[j][i]
			actual += confusion[i][j]
		}
		m := ClassMetrics{Class: c, Support: actual}
		if predicted > 0 {
			m.Precision = float64(confusion[i][i]) / float64(predicted)
		}
		if actual > 0 {
			m.Recall = float64(confusion[i][i]) / float64(actual)
		}
		ev.PerClass = append(ev.PerClass, m)
	}
	return ev
}
