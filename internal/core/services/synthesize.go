package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tabula-cli/internal/logger"
)

// synthesizeMaxTokens bounds query generation output.
const synthesizeMaxTokens = 300

// synthState is a state of the synthesis machine.
type synthState int

const (
	stateDrafting synthState = iota
	stateValidating
	stateRetrying
	stateSucceeded
	stateFailed
)

// Synthesizer produces a validated SQL query for a question through a
// bounded draft-validate-retry loop. Each retry prompt carries the previous
// concrete validation failure so attempts are informed, not blind repeats.
// The attempt bound caps latency and cost: the underlying generation step
// is non-deterministic, so convergence cannot be guaranteed.
type Synthesizer struct {
	llm         driven.LLMService
	store       driven.TableStore
	maxAttempts int
}

// NewSynthesizer creates a new query synthesizer.
func NewSynthesizer(llm driven.LLMService, store driven.TableStore, maxAttempts int) *Synthesizer {
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultMaxSynthesisAttempts
	}
	return &Synthesizer{llm: llm, store: store, maxAttempts: maxAttempts}
}

// Synthesize returns a validated query for the question, or
// domain.ErrSynthesisFailed carrying the last validation reason once the
// attempt bound is exhausted. Cancellation is cooperative: it is checked
// between attempts, never mid-flight.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, schemas []domain.Schema) (sql string, attempts int, err error) {
	logger.Section("Query Synthesis")
	logger.Debug("Question: %q, schemas: %d, max attempts: %d", question, len(schemas), s.maxAttempts)

	state := stateDrafting
	lastReason := ""
	var candidate string

	for state != stateSucceeded && state != stateFailed {
		switch state {
		case stateDrafting:
			if cerr := ctx.Err(); cerr != nil {
				return "", attempts, fmt.Errorf("%w: cancelled", domain.ErrSynthesisFailed)
			}
			attempts++
			logger.Debug("Drafting attempt %d/%d", attempts, s.maxAttempts)

			candidate, lastReason = s.draft(ctx, question, schemas, lastReason)
			if candidate == "" {
				state = stateRetrying
				continue
			}
			state = stateValidating

		case stateValidating:
			outcome, verr := s.store.ValidateQuery(ctx, candidate)
			if verr != nil {
				// Storage I/O failure, not a malformed query. Surface it.
				return "", attempts, fmt.Errorf("validate query: %w", verr)
			}
			if outcome.Valid {
				logger.Info("Valid query on attempt %d: %s", attempts, candidate)
				state = stateSucceeded
				continue
			}
			lastReason = outcome.Reason
			logger.Debug("Validation failed: %s", lastReason)
			state = stateRetrying

		case stateRetrying:
			if attempts >= s.maxAttempts {
				state = stateFailed
				continue
			}
			state = stateDrafting
		}
	}

	if state == stateFailed {
		return "", attempts, fmt.Errorf("%w after %d attempts: %s", domain.ErrSynthesisFailed, attempts, lastReason)
	}
	return candidate, attempts, nil
}

// draft requests one candidate query. It returns the extracted SQL, or an
// empty string plus the reason to feed into the next attempt.
func (s *Synthesizer) draft(ctx context.Context, question string, schemas []domain.Schema, previousFailure string) (string, string) {
	prompt := buildSynthesisPrompt(question, schemas, previousFailure)

	response, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   synthesizeMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Sprintf("generation failed: %v", err)
	}

	sql, ok := extractSQL(response)
	if !ok {
		return "", "response did not contain a SELECT statement"
	}
	return sql, previousFailure
}

// CastExpression returns the SQL expression that reads a typed column out
// of the stored row document. Comparing a numeric column without the cast
// compares JSON text, so the synthesizer includes these verbatim in its
// prompts.
func CastExpression(column string, t domain.ColumnType) string {
	extract := fmt.Sprintf("json_extract(row_data, '$.%q')", column)
	switch t {
	case domain.TypeInteger:
		return fmt.Sprintf("CAST(%s AS INTEGER)", extract)
	case domain.TypeFloat:
		return fmt.Sprintf("CAST(%s AS REAL)", extract)
	default:
		return extract
	}
}

func buildSynthesisPrompt(question string, schemas []domain.Schema, previousFailure string) string {
	var b strings.Builder

	b.WriteString("You are an expert SQL query generator. Generate one SQLite-compatible SQL query that answers the user's question.\n\n")
	b.WriteString(`Storage layout:
- tables(table_id TEXT, source_id TEXT, row_count INTEGER, column_names TEXT, column_types TEXT, description TEXT, created_at TIMESTAMP): metadata about stored tables
- table_rows(table_id TEXT, row_index INTEGER, row_data TEXT): the data rows; row_data is a JSON object keyed by column name

`)

	b.WriteString("Relevant tables and how to read their columns:\n")
	for _, s := range schemas {
		fmt.Fprintf(&b, "\n- table_id '%s' (%d rows)", s.TableID, s.RowCount)
		if s.Description != nil {
			fmt.Fprintf(&b, ": %s", *s.Description)
		}
		b.WriteString("\n")
		for _, name := range s.ColumnNames {
			t := s.ColumnTypes[name]
			fmt.Fprintf(&b, "  - %s (%s): %s\n", name, t, CastExpression(name, t))
		}
	}

	fmt.Fprintf(&b, "\nUser Question: %q\n", question)

	if previousFailure != "" {
		fmt.Fprintf(&b, "\nThe previous attempt was rejected: %s\nFix that specific problem.\n", previousFailure)
	}

	b.WriteString(`
Rules:
1. Return ONLY the SQL query, no explanations, no markdown
2. Read-only: SELECT (or WITH ... SELECT) statements only
3. Filter table_rows by table_id and read columns with the exact expressions listed above
4. Compare numeric columns only through their CAST expression
5. json_extract returns raw values: compare strings with 'Value', not '"Value"'
6. Use aggregation functions (COUNT, SUM, AVG) when appropriate

SQL:`)

	return b.String()
}

// extractSQL pulls a read-only SQL statement out of a model response,
// stripping markdown fences. Returns false when no SELECT/WITH statement
// is present.
func extractSQL(response string) (string, bool) {
	s := stripFences(response)
	s = strings.TrimSpace(s)

	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return "", false
	}

	if !strings.HasSuffix(s, ";") {
		s += ";"
	}
	return s, true
}
