// Package export writes the tabular artifacts derived from the store.
package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/npovlab/npovscan/internal/database"
	"github.com/npovlab/npovscan/internal/features"
	"github.com/npovlab/npovscan/internal/stats"
)

// Exporter writes CSV artifacts into one directory.
type Exporter struct {
	db  *database.DB
	dir string
}

// NewExporter creates an exporter writing into dir.
func NewExporter(db *database.DB, dir string) *Exporter {
	return &Exporter{db: db, dir: dir}
}

// WriteAll writes every artifact and returns the written paths.
func (e *Exporter) WriteAll() ([]string, error) {
	var paths []string
	for _, write := range []func() (string, error){
		e.WriteRevisions,
		e.WriteFeatures,
		e.WriteLabels,
		e.WriteComparison,
	} {
		path, err := write()
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteRevisions writes revisions.csv, one row per extracted subject
// revision.
func (e *Exporter) WriteRevisions() (string, error) {
	stored, err := e.db.GetFeatures()
	if err != nil {
		return "", fmt.Errorf("loading features: %w", err)
	}

	header := []string{"revisionUrl", "articleUrl", "userName", "userId", "timestamp", "diff"}
	rows := make([][]string, 0, len(stored))
	for _, sf := range stored {
		rows = append(rows, []string{
			sf.Record.RevisionURL,
			sf.ArticleURL,
			sf.Record.AuthorUserName,
			strconv.FormatInt(sf.AuthorUserID, 10),
			strconv.FormatInt(sf.RevisedAt, 10),
			sf.Record.DiffText,
		})
	}
	return e.writeCSV("revisions.csv", header, rows)
}

// WriteFeatures writes features.csv, the training table.
func (e *Exporter) WriteFeatures() (string, error) {
	stored, err := e.db.GetFeatures()
	if err != nil {
		return "", fmt.Errorf("loading features: %w", err)
	}

	header := []string{
		"revisionUrl",
		"authorUserName",
		"pastRevisionsCount",
		"averageTimeBetweenRevisions",
		"pastRevisionsAuthoredByUser",
		"revertRiskModelScore",
		"percPastRevisionsAuthored",
		"averageTimeBetweenUserAuthoredRevisions",
		"diffText",
	}
	for _, f := range (stats.Summary{}).Fields(features.GapPrefix) {
		header = append(header, f.Name)
	}
	for _, f := range (stats.Summary{}).Fields(features.UserGapPrefix) {
		header = append(header, f.Name)
	}

	rows := make([][]string, 0, len(stored))
	for _, sf := range stored {
		r := sf.Record
		row := []string{
			r.RevisionURL,
			r.AuthorUserName,
			strconv.Itoa(r.PastRevisionsCount),
			num(r.AverageTimeBetweenRevisions),
			strconv.Itoa(r.PastRevisionsAuthoredByUser),
			num(r.RevertRiskModelScore),
			num(r.PercPastRevisionsAuthored),
			num(r.AverageTimeBetweenUserAuthoredRevisions),
			r.DiffText,
		}
		for _, f := range r.TimeBetweenRevisions.Fields(features.GapPrefix) {
			row = append(row, num(f.Value))
		}
		for _, f := range r.TimeBetweenUserRevisions.Fields(features.UserGapPrefix) {
			row = append(row, num(f.Value))
		}
		rows = append(rows, row)
	}
	return e.writeCSV("features.csv", header, rows)
}

// WriteLabels writes labels.csv with the human labels.
func (e *Exporter) WriteLabels() (string, error) {
	labels, err := e.db.GetLabels()
	if err != nil {
		return "", fmt.Errorf("loading labels: %w", err)
	}

	header := []string{"revisionUrl", "label"}
	rows := make([][]string, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, []string{l.RevisionURL, l.Label})
	}
	return e.writeCSV("labels.csv", header, rows)
}

// WriteComparison writes comparison.csv joining human and LLM labels per
// revision. The agree cell stays empty when the LLM response was
// unparseable.
func (e *Exporter) WriteComparison() (string, error) {
	pairs, err := e.db.GetLabelPairs()
	if err != nil {
		return "", fmt.Errorf("loading label pairs: %w", err)
	}

	header := []string{"revisionUrl", "humanLabel", "llmLabel", "agree"}
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		agree := ""
		if p.LLM != "" {
			agree = strconv.FormatBool(p.Human == p.LLM)
		}
		rows = append(rows, []string{p.RevisionURL, p.Human, p.LLM, agree})
	}
	return e.writeCSV("comparison.csv", header, rows)
}

func (e *Exporter) writeCSV(name string, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(e.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("writing %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("writing %s row: %w", name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing %s: %w", name, err)
	}
	return path, nil
}

// num renders a float for CSV. NaN becomes the empty cell.
func num(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
