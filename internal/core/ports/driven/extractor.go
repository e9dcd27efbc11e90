package driven

import (
	"context"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
)

// TableExtractor hands over tables already parsed out of a document by the
// extraction collaborator. Document parsing itself (HTML, spreadsheets)
// lives behind this boundary; the core only sees ordered named columns of
// raw values.
type TableExtractor interface {
	// Extract returns the source identifier and the tables found in the
	// input, in document order. Table Index fields are 1-based.
	Extract(ctx context.Context, path string) (sourceID string, tables []domain.RawTable, err error)
}
