// Package report composes the markdown reports stored with trained
// models and rendered in the dashboard.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npovlab/npovscan/internal/labeler"
	"github.com/npovlab/npovscan/internal/tree"
)

// TrainingReport renders one training run as markdown.
func TrainingReport(model *tree.Tree, ev tree.Evaluation, trainCount int) string {
	var sections []string

	sections = append(sections, "# Training report")

	sections = append(sections, strings.Join([]string{
		"## Parameters",
		"",
		fmt.Sprintf("- Max depth: %d", model.Params.MaxDepth),
		fmt.Sprintf("- Min samples per split: %d", model.Params.MinSamplesSplit),
		fmt.Sprintf("- Training examples: %d", trainCount),
		fmt.Sprintf("- Holdout examples: %d", ev.TestCount),
	}, "\n"))

	sections = append(sections, fmt.Sprintf("## Accuracy\n\n%.3f on %d holdout examples.",
		ev.Accuracy, ev.TestCount))

	if len(ev.Classes) > 0 {
		sections = append(sections, "## Confusion matrix\n\n"+confusionTable(ev))
		sections = append(sections, "## Per-class metrics\n\n"+metricsTable(ev))
	}

	sections = append(sections, "## Feature usage\n\n"+featureUsage(model))

	return strings.Join(sections, "\n\n") + "\n"
}

// ComparisonReport renders human-vs-LLM agreement as markdown.
func ComparisonReport(c labeler.Comparison) string {
	var sections []string

	sections = append(sections, "# Label comparison")

	if c.Total == 0 {
		summary := "No labeled pairs to compare."
		if c.Unparseable > 0 {
			summary += fmt.Sprintf(" %d LLM responses were unparseable.", c.Unparseable)
		}
		sections = append(sections, summary)
		return strings.Join(sections, "\n\n") + "\n"
	}

	sections = append(sections, strings.Join([]string{
		fmt.Sprintf("- Pairs compared: %d", c.Total),
		fmt.Sprintf("- Agreement: %d (%.1f%%)", c.Agreements, c.Rate*100),
		fmt.Sprintf("- Unparseable LLM responses: %d", c.Unparseable),
	}, "\n"))

	labels := labeler.Labels()
	header := append([]string{`human \ llm`}, labels...)
	rows := [][]string{header, tableRule(len(header))}
	for _, human := range labels {
		row := []string{human}
		for _, llm := range labels {
			row = append(row, fmt.Sprintf("%d", c.Matrix[human][llm]))
		}
		rows = append(rows, row)
	}
	sections = append(sections, "## Confusion\n\n"+renderTable(rows))

	return strings.Join(sections, "\n\n") + "\n"
}

func confusionTable(ev tree.Evaluation) string {
	header := []string{`actual \ predicted`}
	for _, c := range ev.Classes {
		header = append(header, labeler.LabelOf(c))
	}

	rows := [][]string{header, tableRule(len(header))}
	for i, c := range ev.Classes {
		row := []string{labeler.LabelOf(c)}
		for j := range ev.Classes {
			row = append(row, fmt.Sprintf("%d", ev.Confusion[i][j]))
		}
		rows = append(rows, row)
	}
	return renderTable(rows)
}

func metricsTable(ev tree.Evaluation) string {
	rows := [][]string{
		{"class", "precision", "recall", "support"},
		tableRule(4),
	}
	for _, m := range ev.PerClass {
		rows = append(rows, []string{
			labeler.LabelOf(m.Class),
			fmt.Sprintf("%.3f", m.Precision),
			fmt.Sprintf("%.3f", m.Recall),
			fmt.Sprintf("%d", m.Support),
		})
	}
	return renderTable(rows)
}

// featureUsage lists split counts, most used first.
func featureUsage(model *tree.Tree) string {
	counts := model.SplitCounts()
	if len(counts) == 0 {
		return "The model is a single leaf; no features are used."
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	var lines []string
	for _, name := range names {
		noun := "splits"
		if counts[name] == 1 {
			noun = "split"
		}
		lines = append(lines, fmt.Sprintf("- %s: %d %s", name, counts[name], noun))
	}
	return strings.Join(lines, "\n")
}

func renderTable(rows [][]string) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = "| " + strings.Join(row, " | ") + " |"
	}
	return strings.Join(lines, "\n")
}

func tableRule(cols int) []string {
	rule := make([]string, cols)
	for i := range rule {
		rule[i] = "---"
	}
	return rule
}
