// internal/adapters/output/csv.go
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mailscout/internal/core/domain"
)

// csvHeader is the flat export: one row per distinct address.
var csvHeader = []string{"email", "first_source_video_id", "all_source_video_ids", "occurrence_count"}

// CSVExporter writes <prefix>.csv. The file is written even when no
// address was found, with the header only.
type CSVExporter struct {
	path string
}

// NewCSVExporter creates an exporter writing to prefix + ".csv".
func NewCSVExporter(prefix string) *CSVExporter {
	return &CSVExporter{path: prefix + ".csv"}
}

// Name returns the exporter name.
func (e *CSVExporter) Name() string {
	return "csv"
}

// Path returns the output file path.
func (e *CSVExporter) Path() string {
	return e.path
}

// Export writes the result to the output file.
func (e *CSVExporter) Export(result *domain.AggregateResult) error {
	return writeFile(e.path, func(w io.Writer) error {
		return e.ExportToWriter(result, w)
	})
}

// ExportToWriter writes the rows to w, sorted by address. Source IDs are
// joined with ";".
func (e *CSVExporter) ExportToWriter(result *domain.AggregateResult, w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("%w: failed to write CSV header: %v", domain.ErrExportFailed, err)
	}

	for _, rec := range result.EmailList() {
		row := []string{
			rec.Email,
			rec.FirstVideoID,
			strings.Join(rec.Sources, ";"),
			strconv.Itoa(rec.Count),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: failed to write CSV row: %v", domain.ErrExportFailed, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: failed to flush CSV: %v", domain.ErrExportFailed, err)
	}
	return nil
}
