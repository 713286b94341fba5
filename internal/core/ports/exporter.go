// internal/core/ports/exporter.go
package ports

import "mailscout/internal/core/domain"

// Exporter writes a finalized result somewhere.
type Exporter interface {
	// Name returns the exporter name (ej: "json", "csv")
	Name() string

	// Path returns the destination, empty for writers without one
	Path() string

	// Export writes the result
	Export(result *domain.AggregateResult) error
}
