package driving

import (
	"context"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
)

// IngestOptions configures one ingestion run.
type IngestOptions struct {
	// ForceReplace re-stores tables whose identity is already present
	// instead of skipping them.
	ForceReplace bool
}

// IngestService turns extracted raw tables into typed, described, stored
// schemas.
type IngestService interface {
	// Ingest processes one source's tables under a fresh session.
	// Re-ingesting the same source is a no-op per table unless
	// ForceReplace is set.
	Ingest(ctx context.Context, sourceID string, tables []domain.RawTable, opts IngestOptions) (*domain.IngestReport, error)
}
