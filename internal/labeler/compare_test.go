package labeler

import (
	"math"
	"testing"

	"github.com/npovlab/npovscan/internal/database"
)

func TestCompareAgreement(t *testing.T) {
	pairs := []database.LabelPair{
		{RevisionURL: "u1", Human: "INCREASES", LLM: "INCREASES"},
		{RevisionURL: "u2", Human: "INCREASES", LLM: "NO_EFFECT"},
		{RevisionURL: "u3", Human: "DECREASES", LLM: "DECREASES"},
		{RevisionURL: "u4", Human: "NO_EFFECT", LLM: "NO_EFFECT"},
		{RevisionURL: "u5", Human: "NO_EFFECT", LLM: ""},
	}

	c := Compare(pairs)
	if c.Total != 4 {
		t.Errorf("expected 4 counted pairs, got %d", c.Total)
	}
	if c.Agreements != 3 {
		t.Errorf("expected 3 agreements, got %d", c.Agreements)
	}
	if math.Abs(c.Rate-0.75) > 1e-9 {
		t.Errorf("expected rate 0.75, got %f", c.Rate)
	}
	if c.Unparseable != 1 {
		t.Errorf("expected 1 unparseable pair, got %d", c.Unparseable)
	}

	if c.Matrix["INCREASES"]["INCREASES"] != 1 {
		t.Errorf("matrix[INCREASES][INCREASES] = %d", c.Matrix["INCREASES"]["INCREASES"])
	}
	if c.Matrix["INCREASES"]["NO_EFFECT"] != 1 {
		t.Errorf("matrix[INCREASES][NO_EFFECT] = %d", c.Matrix["INCREASES"]["NO_EFFECT"])
	}
	if c.Matrix["NO_EFFECT"][""] != 0 {
		t.Error("unparseable pairs must not enter the matrix")
	}
}

func TestCompareEmpty(t *testing.T) {
	c := Compare(nil)
	if c.Total != 0 || c.Rate != 0 {
		t.Errorf("expected zeroed comparison, got %+v", c)
	}
}

func TestLabelsOrder(t *testing.T) {
	want := []string{"INCREASES", "DECREASES", "NO_EFFECT"}
	got := Labels()
	if len(got) != len(want) {
		t.Fatalf("expected %d labels, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label %d: got %q, expected %q", i, got[i], want[i])
		}
	}
}
