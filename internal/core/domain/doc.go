// Package domain defines the core business entities for Tabula.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawTable: An extracted table before type inference
//   - Schema: The typed description of a stored table
//   - Value / Row: Typed cell values and row documents
//   - Verdict / Answer: Question feasibility judgment and pipeline outcome
//   - IngestionSession: One ingestion run's append-only history record
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
