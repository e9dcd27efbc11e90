package mcp

import (
	"context"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer  *domain.Answer
	verdict domain.Verdict
	err     error
}

func (m *mockQueryService) Ask(_ context.Context, _ string) (*domain.Answer, error) {
	return m.answer, m.err
}

func (m *mockQueryService) Analyze(_ context.Context, _ string) (domain.Verdict, error) {
	return m.verdict, m.err
}

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	schemas  []domain.Schema
	schema   *domain.Schema
	summary  domain.StoreSummary
	sessions []domain.IngestionSession
	err      error
}

func (m *mockCatalogService) ListTables(_ context.Context, _ domain.SchemaFilter) ([]domain.Schema, error) {
	return m.schemas, m.err
}

func (m *mockCatalogService) GetTable(_ context.Context, _ string) (*domain.Schema, error) {
	return m.schema, m.err
}

func (m *mockCatalogService) Summary(_ context.Context) (domain.StoreSummary, error) {
	return m.summary, m.err
}

func (m *mockCatalogService) Sessions(_ context.Context, _ int) ([]domain.IngestionSession, error) {
	return m.sessions, m.err
}
