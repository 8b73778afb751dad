package labeler

import "github.com/npovlab/npovscan/internal/database"

// Labels lists the three classes in report order.
func Labels() []string {
	return []string{database.LabelIncreases, database.LabelDecreases, database.LabelNoEffect}
}

// Comparison summarizes how often the LLM agrees with human labels.
// Matrix is indexed human label first, then LLM label.
type Comparison struct {
	Total       int
	Agreements  int
	Rate        float64
	Unparseable int
	Matrix      map[string]map[string]int
}

// Compare computes agreement statistics over joined label pairs. Pairs
// whose LLM label is empty never enter the rate; they are counted as
// unparseable.
func Compare(pairs []database.LabelPair) Comparison {
	c := Comparison{Matrix: make(map[string]map[string]int)}
	for _, p := range pairs {
		if p.LLM == "" {
			c.Unparseable++
			continue
		}
		c.Total++
		if p.Human == p.LLM {
			c.Agreements++
		}
		row := c.Matrix[p.Human]
		if row == nil {
			row = make(map[string]int)
			c.Matrix[p.Human] = row
		}
		row[p.LLM]++
	}
	if c.Total > 0 {
		c.Rate = float64(c.Agreements) / float64(c.Total)
	}
	return c
}
