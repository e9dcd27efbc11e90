package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tabula-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tabula-cli/internal/core/domain"
)

// --- Mock implementations ---

// scriptedStore overrides ValidateQuery with scripted outcomes, repeating
// the last one. The embedded memory store covers the rest of the port.
type scriptedStore struct {
	*memory.TableStore
	outcomes []domain.ValidationOutcome
	verr     error
	calls    int
	queries  []string
}

func (s *scriptedStore) ValidateQuery(_ context.Context, query string) (domain.ValidationOutcome, error) {
	s.calls++
	s.queries = append(s.queries, query)
	if s.verr != nil {
		return domain.ValidationOutcome{}, s.verr
	}
	if len(s.outcomes) == 0 {
		return domain.ValidOutcome(), nil
	}
	idx := s.calls - 1
	if idx >= len(s.outcomes) {
		idx = len(s.outcomes) - 1
	}
	return s.outcomes[idx], nil
}

func newScriptedStore(outcomes ...domain.ValidationOutcome) *scriptedStore {
	return &scriptedStore{TableStore: memory.NewTableStore(), outcomes: outcomes}
}

// --- Tests ---

func TestSynthesizer_FirstAttemptSucceeds(t *testing.T) {
	llm := &mockLLM{responses: []string{"SELECT 1"}}
	store := newScriptedStore(domain.ValidOutcome())
	synth := NewSynthesizer(llm, store, 5)

	sql, attempts, err := synth.Synthesize(context.Background(), "how old is Ann?", testCatalog())

	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", sql)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, llm.calls)
}

func TestSynthesizer_RetriesThenSucceeds(t *testing.T) {
	llm := &mockLLM{responses: []string{"SELECT bad", "SELECT good"}}
	store := newScriptedStore(
		domain.InvalidOutcome("no such column: bad"),
		domain.ValidOutcome(),
	)
	synth := NewSynthesizer(llm, store, 5)

	sql, attempts, err := synth.Synthesize(context.Background(), "how old is Ann?", testCatalog())

	require.NoError(t, err)
	assert.Equal(t, "SELECT good;", sql)
	assert.Equal(t, 2, attempts)
}

func TestSynthesizer_RetryPromptCarriesFailureReason(t *testing.T) {
	llm := &mockLLM{responses: []string{"SELECT bad", "SELECT good"}}
	store := newScriptedStore(
		domain.InvalidOutcome("no such column: bad"),
		domain.ValidOutcome(),
	)
	synth := NewSynthesizer(llm, store, 5)

	_, _, err := synth.Synthesize(context.Background(), "how old is Ann?", testCatalog())

	require.NoError(t, err)
	require.Len(t, llm.prompts, 2)
	assert.NotContains(t, llm.prompts[0], "previous attempt was rejected")
	assert.Contains(t, llm.prompts[1], "no such column: bad")
}

func TestSynthesizer_ExhaustsAttemptBound(t *testing.T) {
	llm := &mockLLM{responses: []string{"SELECT bad"}}
	store := newScriptedStore(domain.InvalidOutcome("always wrong"))
	synth := NewSynthesizer(llm, store, 3)

	_, attempts, err := synth.Synthesize(context.Background(), "how old is Ann?", testCatalog())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSynthesisFailed)
	assert.Contains(t, err.Error(), "always wrong")
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, llm.calls, "exactly maxAttempts drafts")
}

func TestSynthesizer_NonSelectResponseCountsAsAttempt(t *testing.T) {
	llm := &mockLLM{responses: []string{"I cannot write SQL for that."}}
	store := newScriptedStore()
	synth := NewSynthesizer(llm, store, 2)

	_, attempts, err := synth.Synthesize(context.Background(), "how old is Ann?", testCatalog())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSynthesisFailed)
	assert.Equal(t, 2, attempts)
	assert.Zero(t, store.calls, "nothing to validate")
}

func TestSynthesizer_ValidationIOErrorSurfaces(t *testing.T) {
	llm := &mockLLM{responses: []string{"SELECT 1"}}
	store := newScriptedStore()
	store.verr = errors.New("database is locked")
	synth := NewSynthesizer(llm, store, 5)

	_, attempts, err := synth.Synthesize(context.Background(), "how old is Ann?", testCatalog())

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSynthesisFailed)
	assert.Contains(t, err.Error(), "database is locked")
	assert.Equal(t, 1, attempts)
}

func TestSynthesizer_Cancellation(t *testing.T) {
	llm := &mockLLM{responses: []string{"SELECT 1"}}
	store := newScriptedStore()
	synth := NewSynthesizer(llm, store, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := synth.Synthesize(ctx, "how old is Ann?", testCatalog())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSynthesisFailed)
	assert.Zero(t, llm.calls)
}

func TestSynthesizer_StripsFences(t *testing.T) {
	llm := &mockLLM{responses: []string{"```sql\nSELECT 1\n```"}}
	store := newScriptedStore()
	synth := NewSynthesizer(llm, store, 5)

	sql, _, err := synth.Synthesize(context.Background(), "how old is Ann?", testCatalog())

	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", sql)
}

func TestSynthesizer_PromptIncludesCastExpressions(t *testing.T) {
	llm := &mockLLM{responses: []string{"SELECT 1"}}
	store := newScriptedStore()
	synth := NewSynthesizer(llm, store, 5)

	_, _, err := synth.Synthesize(context.Background(), "how old is Ann?", testCatalog())

	require.NoError(t, err)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], CastExpression("Age", domain.TypeInteger))
	assert.Contains(t, llm.prompts[0], "table_rows")
}

func TestCastExpression(t *testing.T) {
	assert.Equal(t,
		`CAST(json_extract(row_data, '$."Age"') AS INTEGER)`,
		CastExpression("Age", domain.TypeInteger))
	assert.Equal(t,
		`CAST(json_extract(row_data, '$."Price"') AS REAL)`,
		CastExpression("Price", domain.TypeFloat))
	assert.Equal(t,
		`json_extract(row_data, '$."Name"')`,
		CastExpression("Name", domain.TypeString))
}
