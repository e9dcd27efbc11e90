// Package mcp provides an MCP (Model Context Protocol) server adapter for Tabula.
// It enables AI assistants like Claude to query stored table data in natural language.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
