package features

import (
	"testing"

	"github.com/npovlab/npovscan/internal/stats"
)

func TestVectorMatchesFeatureNames(t *testing.T) {
	r := FeatureRecord{
		PastRevisionsCount:          3,
		AverageTimeBetweenRevisions: 83.33,
		PastRevisionsAuthoredByUser: 2,
		RevertRiskModelScore:        0.5,
		TimeBetweenRevisions:        stats.Summary{Average: 125, Median: 150, Q1: 100, Q3: 150, StdDev: 25},
	}

	vec := r.Vector()
	names := FeatureNames()
	if len(vec) != len(names) {
		t.Fatalf("vector has %d entries, names %d", len(vec), len(names))
	}

	byName := make(map[string]float64, len(vec))
	for i, n := range names {
		byName[n] = vec[i]
	}
	if byName["pastRevisionsCount"] != 3 {
		t.Errorf("expected count 3, got %f", byName["pastRevisionsCount"])
	}
	if byName[GapPrefix+"StdDev"] != 25 {
		t.Errorf("expected stddev 25, got %f", byName[GapPrefix+"StdDev"])
	}
}

func TestFeatureNamesIsACopy(t *testing.T) {
	names := FeatureNames()
	names[0] = "clobbered"
	if FeatureNames()[0] == "clobbered" {
		t.Error("expected FeatureNames to return a private copy")
	}
}
