// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - TableStore: table metadata, row document and session persistence,
//     plus query validation and execution
//   - SettingsStore: application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: text generation. Without it, description generation and
//     question answering are disabled; ingestion still stores typed tables.
//   - TableExtractor: raw table input. Provided per ingestion invocation.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
