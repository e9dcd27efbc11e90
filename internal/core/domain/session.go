package domain

import "time"

// IngestionSession groups the tables stored during one ingestion run of a
// single source. Sessions are append-only history: finished sessions are
// never mutated again.
type IngestionSession struct {
	// ID is the unique session identifier.
	ID string

	// SourceID identifies the document the run processed.
	SourceID string

	// TablesAttempted is the number of tables the run tried to store.
	TablesAttempted int

	// TablesSucceeded is the number of tables actually stored.
	TablesSucceeded int

	// CreatedAt is when the run started.
	CreatedAt time.Time
}

// IngestReport summarises one ingestion run for the caller.
type IngestReport struct {
	SessionID       string
	SourceID        string
	TablesAttempted int
	TablesSucceeded int
	TablesSkipped   int
	TableIDs        []string
}

// StoreSummary is an overview of the table store's contents.
type StoreSummary struct {
	TotalTables    int
	TotalRows      int
	UniqueSources  int
	RecentSessions []IngestionSession
}
