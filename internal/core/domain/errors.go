package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateTable indicates the idempotency guard tripped: a table
	// with the same source and position is already stored. Callers recover
	// by skipping or forcing a replace.
	ErrDuplicateTable = errors.New("table already stored")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrGenerationFailed indicates the text-generation capability failed
	// (timeout, transport error, unusable response).
	ErrGenerationFailed = errors.New("generation failed")

	// ErrSynthesisFailed indicates query synthesis exhausted its attempt
	// bound without producing a valid query. A normal terminal outcome for
	// questions that are unanswerable in practice.
	ErrSynthesisFailed = errors.New("query synthesis failed")

	// ErrExecutionFailed indicates a validated query failed at run time,
	// e.g. a type cast mismatch on unexpected data. Not retried.
	ErrExecutionFailed = errors.New("query execution failed")

	// ErrDestructiveQuery indicates a query was rejected by the read-only
	// policy check before execution.
	ErrDestructiveQuery = errors.New("destructive statements are not allowed")

	// ErrLLMUnavailable indicates no text-generation capability is
	// configured. Description generation and question answering are
	// disabled without one.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
