// Package stats computes the descriptive statistics used in feature
// records: mean, floor-indexed median and quartiles, and population
// standard deviation. The indexing rule is positional (sorted[n/2],
// sorted[n/4], sorted[3n/4]) rather than interpolated, which is biased
// for small samples but matches the historical feature tables bit for
// bit. Changing it would invalidate previously trained models.
package stats

import (
	"math"
	"sort"
)

// Summary holds the five derived statistics for one numeric sample.
type Summary struct {
	Average float64
	Median  float64
	Q1      float64
	Q3      float64
	StdDev  float64
}

// Field is one named component of a flattened summary.
type Field struct {
	Name  string
	Value float64
}

// Fields flattens the summary into named fields, in schema order, with
// the base label prefixed onto each name.
func (s Summary) Fields(base string) []Field {
	return []Field{
		{base + "Average", s.Average},
		{base + "Median", s.Median},
		{base + "Q1", s.Q1},
		{base + "Q3", s.Q3},
		{base + "StdDev", s.StdDev},
	}
}

// Describe computes a Summary over sample. The input is never reordered:
// sorting happens on a private copy, so callers may pass overlapping views
// of a shared backing array. An empty sample yields NaN in every field and
// never panics; callers format NaN as empty cells on export.
func Describe(sample []float64) Summary {
	n := len(sample)
	if n == 0 {
		nan := math.NaN()
		return Summary{Average: nan, Median: nan, Q1: nan, Q3: nan, StdDev: nan}
	}

	avg := mean(sample)
	sorted := make([]float64, n)
	copy(sorted, sample)
	sort.Float64s(sorted)

	return Summary{
		Average: avg,
		Median:  sorted[n/2],
		Q1:      sorted[n/4],
		Q3:      sorted[3*n/4],
		StdDev:  stdDev(sample, avg),
	}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdDev is the population standard deviation (divide by n, not n-1).
func stdDev(xs []float64, mean float64) float64 {
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}
