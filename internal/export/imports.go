package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/npovlab/npovscan/internal/database"
)

// ImportLabels loads human labels from a CSV file carrying a
// "revisionUrl,label" header. Every label must be one of the three
// classes; the first bad row aborts the import, keeping earlier rows.
func ImportLabels(db *database.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}
	if header[0] != "revisionUrl" || header[1] != "label" {
		return 0, fmt.Errorf("unexpected header %v, want revisionUrl,label", header)
	}

	count := 0
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("reading line %d: %w", line, err)
		}

		url := strings.TrimSpace(row[0])
		label := strings.TrimSpace(row[1])
		if url == "" {
			return count, fmt.Errorf("line %d: empty revision URL", line)
		}
		if !database.ValidLabel(label) {
			return count, fmt.Errorf("line %d: unknown label %q", line, label)
		}
		if err := db.UpsertLabel(url, label); err != nil {
			return count, fmt.Errorf("storing label for %s: %w", url, err)
		}
		count++
	}
	return count, nil
}
