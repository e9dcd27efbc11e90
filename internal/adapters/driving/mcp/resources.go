package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for Tabula resources.
	uriScheme = "tabula://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing stored tables.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "tables",
		Name:        "tables",
		Description: "Catalog of all stored table schemas",
		MIMEType:    "application/json",
	}, s.handleTablesResource)

	// Template for one table's schema.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "tables/{tableId}",
		Name:        "table-schema",
		Description: "Schema and sample rows of a specific stored table",
		MIMEType:    "application/json",
	}, s.handleTableResource)
}

// tableInfo is the catalog listing payload.
type tableInfo struct {
	TableID     string `json:"table_id"`
	SourceID    string `json:"source_id"`
	TableIndex  int    `json:"table_index"`
	RowCount    int    `json:"row_count"`
	ColumnCount int    `json:"column_count"`
	Description string `json:"description,omitempty"`
}

// handleTablesResource returns the stored schema catalog.
func (s *Server) handleTablesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	schemas, err := s.ports.Catalog.ListTables(ctx, domain.SchemaFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	infos := make([]tableInfo, len(schemas))
	for i := range schemas {
		infos[i] = tableInfo{
			TableID:     schemas[i].TableID,
			SourceID:    schemas[i].SourceID,
			TableIndex:  schemas[i].TableIndex,
			RowCount:    schemas[i].RowCount,
			ColumnCount: len(schemas[i].ColumnNames),
		}
		if schemas[i].Description != nil {
			infos[i].Description = *schemas[i].Description
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling tables: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// tableDetail is the single-table payload.
type tableDetail struct {
	TableID     string                       `json:"table_id"`
	SourceID    string                       `json:"source_id"`
	TableIndex  int                          `json:"table_index"`
	RowCount    int                          `json:"row_count"`
	ColumnNames []string                     `json:"column_names"`
	ColumnTypes map[string]domain.ColumnType `json:"column_types"`
	SampleRows  []map[string]any             `json:"sample_rows,omitempty"`
	Description string                       `json:"description,omitempty"`
}

// handleTableResource returns one table's schema.
func (s *Server) handleTableResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract tableId from URI: tabula://tables/{tableId}
	tableID := extractTableID(req.Params.URI)
	if tableID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	schema, err := s.ports.Catalog.GetTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting table: %w", err)
	}

	detail := tableDetail{
		TableID:     schema.TableID,
		SourceID:    schema.SourceID,
		TableIndex:  schema.TableIndex,
		RowCount:    schema.RowCount,
		ColumnNames: schema.ColumnNames,
		ColumnTypes: schema.ColumnTypes,
	}
	if schema.Description != nil {
		detail.Description = *schema.Description
	}
	for _, row := range schema.SampleRows {
		out := make(map[string]any, len(row))
		for col, val := range row {
			out[col] = val.Native()
		}
		detail.SampleRows = append(detail.SampleRows, out)
	}

	data, err := json.MarshalIndent(detail, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling table: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractTableID extracts the table ID from a URI like tabula://tables/{tableId}.
func extractTableID(uri string) string {
	const prefix = uriScheme + "tables/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
