// Package sqlite provides the SQLite-based implementation of the TableStore port.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Table metadata lives in fixed relational
// columns while row data is stored as JSON documents, so heterogeneous source table
// shapes survive storage; queries read typed fields through json_extract with an
// explicit cast.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.tabula/data/tabula.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. The single externally visible multi-step mutation, Put,
// runs in one transaction and relies on a unique constraint on
// (source_id, table_index) rather than a prior existence check.
package sqlite
