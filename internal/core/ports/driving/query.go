package driving

import (
	"context"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
)

// QueryService answers natural-language questions from stored table data.
type QueryService interface {
	// Ask runs the full pipeline: feasibility analysis, query synthesis
	// with validation and retries, then execution. An unanswerable
	// question returns an Answer whose verdict is unfulfillable, not an
	// error.
	Ask(ctx context.Context, question string) (*domain.Answer, error)

	// Analyze judges answerability without synthesizing or executing.
	Analyze(ctx context.Context, question string) (domain.Verdict, error)
}

// CatalogService exposes the stored schema catalog to listing and
// reporting collaborators.
type CatalogService interface {
	// ListTables returns the catalog, optionally filtered by source.
	ListTables(ctx context.Context, filter domain.SchemaFilter) ([]domain.Schema, error)

	// GetTable returns one schema by table ID.
	GetTable(ctx context.Context, tableID string) (*domain.Schema, error)

	// Summary returns a store overview.
	Summary(ctx context.Context) (domain.StoreSummary, error)

	// Sessions returns recent ingestion sessions.
	Sessions(ctx context.Context, limit int) ([]domain.IngestionSession, error)
}
