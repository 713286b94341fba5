// internal/adapters/output/json.go
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"mailscout/internal/core/domain"
)

// jsonDocument is the tree-structured export: run metadata, counters, one
// record per video in enumeration order, and the deduplicated addresses.
type jsonDocument struct {
	Metadata domain.RunMetadata    `json:"metadata"`
	Stats    domain.RunStats       `json:"stats"`
	Videos   []domain.VideoOutcome `json:"videos"`
	Emails   []domain.EmailRecord  `json:"emails"`
}

// JSONExporter writes <prefix>.json.
type JSONExporter struct {
	path   string
	pretty bool
}

// NewJSONExporter creates an exporter writing to prefix + ".json".
func NewJSONExporter(prefix string) *JSONExporter {
	return &JSONExporter{path: prefix + ".json", pretty: true}
}

// Name returns the exporter name.
func (e *JSONExporter) Name() string {
	return "json"
}

// Path returns the output file path.
func (e *JSONExporter) Path() string {
	return e.path
}

// Export writes the result to the output file.
func (e *JSONExporter) Export(result *domain.AggregateResult) error {
	return writeFile(e.path, func(w io.Writer) error {
		return e.ExportToWriter(result, w)
	})
}

// ExportToWriter encodes the result to w.
func (e *JSONExporter) ExportToWriter(result *domain.AggregateResult, w io.Writer) error {
	doc := jsonDocument{
		Metadata: result.Metadata,
		Stats:    result.Stats(),
		Videos:   result.Videos,
		Emails:   result.EmailList(),
	}
	if doc.Videos == nil {
		doc.Videos = []domain.VideoOutcome{}
	}

	enc := json.NewEncoder(w)
	if e.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("%w: failed to encode JSON: %v", domain.ErrExportFailed, err)
	}
	return nil
}

// writeFile creates path (and its directory) and hands it to write.
func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: failed to create output directory: %v", domain.ErrExportFailed, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: failed to create output file: %v", domain.ErrExportFailed, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %v", domain.ErrExportFailed, path, err)
	}
	return nil
}
