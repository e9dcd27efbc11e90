package services

import (
	"context"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driving"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// CatalogService exposes the stored schema catalog to listing and
// reporting collaborators.
type CatalogService struct {
	store driven.TableStore
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store driven.TableStore) *CatalogService {
	return &CatalogService{store: store}
}

// ListTables returns the catalog, optionally filtered by source.
func (s *CatalogService) ListTables(ctx context.Context, filter domain.SchemaFilter) ([]domain.Schema, error) {
	return s.store.ListSchemas(ctx, filter)
}

// GetTable returns one schema by table ID.
func (s *CatalogService) GetTable(ctx context.Context, tableID string) (*domain.Schema, error) {
	return s.store.GetSchema(ctx, tableID)
}

// Summary returns a store overview.
func (s *CatalogService) Summary(ctx context.Context) (domain.StoreSummary, error) {
	return s.store.Summary(ctx)
}

// Sessions returns recent ingestion sessions.
func (s *CatalogService) Sessions(ctx context.Context, limit int) ([]domain.IngestionSession, error) {
	return s.store.ListSessions(ctx, limit)
}
