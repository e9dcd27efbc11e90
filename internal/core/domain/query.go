package domain

// Verdict is the feasibility analyzer's structured judgment of whether a
// question is answerable from the current catalog.
type Verdict struct {
	// Fulfillable is true when the question can be answered by querying
	// stored table data.
	Fulfillable bool

	// Confidence is the analyzer's self-reported confidence in [0, 1].
	Confidence float64

	// Reasoning explains the judgment. On infrastructure failure it
	// carries the failure cause.
	Reasoning string

	// RelevantTables lists the table IDs judged relevant to the question.
	RelevantTables []string
}

// ValidationOutcome is the result of a dry-run query check. Malformed
// queries are a normal outcome, communicated through Valid/Reason rather
// than an error.
type ValidationOutcome struct {
	Valid  bool
	Reason string
}

// ValidOutcome returns a passing validation outcome.
func ValidOutcome() ValidationOutcome { return ValidationOutcome{Valid: true} }

// InvalidOutcome returns a failing validation outcome with the given reason.
func InvalidOutcome(reason string) ValidationOutcome {
	return ValidationOutcome{Valid: false, Reason: reason}
}

// ResultSet holds the rows produced by executing a query, with the result
// column order preserved from the underlying query.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// Answer is the outcome of one complete question pipeline run.
type Answer struct {
	// Question is the user's free-text question.
	Question string

	// Verdict is the feasibility judgment. When Fulfillable is false the
	// remaining fields are zero.
	Verdict Verdict

	// SQL is the validated query that produced the result.
	SQL string

	// Attempts is how many drafting attempts synthesis used.
	Attempts int

	// Result holds the typed result rows.
	Result ResultSet
}
