package driven

import (
	"context"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
)

// TableStore persists table schemas and their row documents and runs
// synthesized queries against them.
//
// Rows are stored as flexible key-value documents rather than fixed
// relational columns so heterogeneous source shapes survive storage.
// Queries against typed fields therefore cast the stored document value to
// the column's declared type; the synthesizer is told the exact cast
// expression for every column.
type TableStore interface {
	// Exists reports whether a table with this source and position is
	// already stored. Fails only on storage I/O errors.
	Exists(ctx context.Context, sourceID string, tableIndex int) (bool, error)

	// Put stores a schema and its rows in one transaction: afterwards
	// either both are visible or neither is. A duplicate table identity is
	// rejected with domain.ErrDuplicateTable unless replace is set, in
	// which case the prior table and rows are deleted first inside the
	// same transaction. Returns the stored table ID.
	Put(ctx context.Context, schema domain.Schema, rows []domain.Row, sessionID string, replace bool) (string, error)

	// GetSchema returns the schema for a table ID, or domain.ErrNotFound.
	GetSchema(ctx context.Context, tableID string) (*domain.Schema, error)

	// ListSchemas returns the catalog, optionally filtered by source, in
	// ingestion order.
	ListSchemas(ctx context.Context, filter domain.SchemaFilter) ([]domain.Schema, error)

	// SetDescription attaches a generated description to a stored table.
	// Set exactly once per table; callers never overwrite an existing one.
	SetDescription(ctx context.Context, tableID, description string) error

	// ValidateQuery dry-runs a query: read-only policy, syntax, and that
	// every referenced table and column exists in the current catalog.
	// Row data is not touched. Malformed input is a normal Invalid
	// outcome, not an error; only storage I/O failures return an error.
	ValidateQuery(ctx context.Context, sql string) (domain.ValidationOutcome, error)

	// Execute runs a previously validated read-only query and returns the
	// generic result rows. Destructive statements are rejected by policy
	// before reaching the engine.
	Execute(ctx context.Context, sql string) (domain.ResultSet, error)

	// StartSession records the beginning of an ingestion run for a source
	// and returns the session ID.
	StartSession(ctx context.Context, sourceID string) (string, error)

	// FinishSession records a completed run's counters. The session is
	// never mutated afterwards.
	FinishSession(ctx context.Context, sessionID string, attempted, succeeded int) error

	// ListSessions returns ingestion sessions, most recent first.
	ListSessions(ctx context.Context, limit int) ([]domain.IngestionSession, error)

	// Summary returns an overview of the store's contents.
	Summary(ctx context.Context) (domain.StoreSummary, error)

	// Close releases the underlying storage.
	Close() error
}
