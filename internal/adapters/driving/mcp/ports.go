package mcp

import (
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers natural-language questions.
	Query driving.QueryService

	// Catalog exposes stored table schemas.
	Catalog driving.CatalogService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	// Catalog is optional; resources degrade to empty listings.
	return nil
}
