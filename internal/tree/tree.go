// Package tree implements the CART decision tree that classifies
// revisions from their feature vectors: binary Gini-impurity splits,
// majority-class leaves, JSON-serializable models. Labels are the
// integer classes {1, -1, 0}.
package tree

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Params controls tree growth.
type Params struct {
	MaxDepth        int `json:"max_depth"`
	MinSamplesSplit int `json:"min_samples_split"`
}

// Node is one node of a trained tree. Internal nodes carry a split;
// leaves have no children. Class is the majority class of the node's
// training samples, so prediction can stop at any depth.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Class     int     `json:"class"`
	Samples   int     `json:"samples"`
	Left      *Node   `json:"left,omitempty"`
	Right     *Node   `json:"right,omitempty"`
}

func (n *Node) leaf() bool { return n.Left == nil && n.Right == nil }

// Tree is a trained classifier.
type Tree struct {
	Root     *Node    `json:"root"`
	Features []string `json:"features"`
	Params   Params   `json:"params"`
}

// Train grows a tree over the feature matrix X and class vector y.
// Rows may contain NaN: NaN never produces a split threshold, and a row
// whose split feature is NaN goes right, the same direction Predict
// sends it.
func Train(X [][]float64, y []int, featureNames []string, p Params) (*Tree, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("feature matrix has %d rows, labels %d", len(X), len(y))
	}
	if p.MaxDepth < 1 {
		p.MaxDepth = 1
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}

	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	root := grow(X, y, idx, 0, p)
	return &Tree{Root: root, Features: featureNames, Params: p}, nil
}

// Predict returns the class for one feature vector.
func (t *Tree) Predict(x []float64) int {
	n := t.Root
	for !n.leaf() {
		v := x[n.Feature]
		if math.IsNaN(v) || v > n.Threshold {
			n = n.Right
		} else {
			n = n.Left
		}
	}
	return n.Class
}

// JSON serializes the model.
func (t *Tree) JSON() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encoding model: %w", err)
	}
	return string(data), nil
}

// SplitCounts tallies how often each feature is used as a split,
// keyed by feature name.
func (t *Tree) SplitCounts() map[string]int {
	counts := make(map[string]int)
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil || n.leaf() {
			return
		}
		name := fmt.Sprintf("feature %d", n.Feature)
		if n.Feature >= 0 && n.Feature < len(t.Features) {
			name = t.Features[n.Feature]
		}
		counts[name]++
		walk(n.Left)
		walk(n.Right)
	}
	walk(t.Root)
	return counts
}

// Parse restores a model serialized by JSON.
func Parse(modelJSON string) (*Tree, error) {
	var t Tree
	if err := json.Unmarshal([]byte(modelJSON), &t); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	if t.Root == nil {
		return nil, fmt.Errorf("model has no root node")
	}
	return &t, nil
}

// grow builds the subtree for the rows in idx.
func grow(X [][]float64, y []int, idx []int, depth int, p Params) *Node {
	node := &Node{
		Class:   majorityClass(y, idx),
		Samples: len(idx),
	}

	if depth >= p.MaxDepth || len(idx) < p.MinSamplesSplit || pure(y, idx) {
		return node
	}

	feature, threshold, ok := bestSplit(X, y, idx)
	if !ok {
		return node
	}

	left, right := partition(X, idx, feature, threshold)
	if len(left) == 0 || len(right) == 0 {
		return node
	}

	node.Feature = feature
	node.Threshold = threshold
	node.Left = grow(X, y, left, depth+1, p)
	node.Right = grow(X, y, right, depth+1, p)
	return node
}

// bestSplit scans every feature for the threshold with the lowest
// weighted Gini impurity. Thresholds are midpoints between consecutive
// distinct non-NaN values. Returns ok=false when no split beats the
// parent's impurity.
func bestSplit(X [][]float64, y []int, idx []int) (feature int, threshold float64, ok bool) {
	parent := gini(y, idx)
	best := parent
	nFeatures := len(X[idx[0]])

	for f := 0; f < nFeatures; f++ {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			if v := X[i][f]; !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		if len(values) < 2 {
			continue
		}
		sort.Float64s(values)

		for k := 1; k < len(values); k++ {
			if values[k] == values[k-1] {
				continue
			}
			t := (values[k] + values[k-1]) / 2
			left, right := partition(X, idx, f, t)
			if len(left) == 0 || len(right) == 0 {
				continue
			}

			nl, nr := float64(len(left)), float64(len(right))
			weighted := (nl*gini(y, left) + nr*gini(y, right)) / (nl + nr)
			if weighted < best-1e-12 {
				best = weighted
				feature = f
				threshold = t
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

// partition splits rows on one feature: left gets values <= threshold,
// right gets larger values and NaN.
func partition(X [][]float64, idx []int, feature int, threshold float64) (left, right []int) {
	for _, i := range idx {
		v := X[i][feature]
		if math.IsNaN(v) || v > threshold {
			right = append(right, i)
		} else {
			left = append(left, i)
		}
	}
	return left, right
}

// gini is the Gini impurity 1 - sum(p_c^2) of the rows in idx.
func gini(y []int, idx []int) float64 {
	counts := make(map[int]int)
	for _, i := range idx {
		counts[y[i]]++
	}
	n := float64(len(idx))
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / n
		impurity -= p * p
	}
	return impurity
}

// majorityClass picks the most frequent class; ties break toward the
// smallest class value so training is deterministic.
func majorityClass(y []int, idx []int) int {
	counts := make(map[int]int)
	for _, i := range idx {
		counts[y[i]]++
	}

	classes := make([]int, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	best := classes[0]
	for _, c := range classes[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

func pure(y []int, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}
