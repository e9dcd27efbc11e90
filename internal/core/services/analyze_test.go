package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLM implements driven.LLMService for testing. Generate returns the
// scripted responses in order, repeating the last one.
type mockLLM struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

// --- Test helpers ---

func testCatalog() []domain.Schema {
	desc := "People and their ages"
	return []domain.Schema{{
		TableID:     "doc-1_table_1",
		SourceID:    "doc-1",
		TableIndex:  1,
		ColumnNames: []string{"Name", "Age"},
		ColumnTypes: map[string]domain.ColumnType{
			"Name": domain.TypeString,
			"Age":  domain.TypeInteger,
		},
		RowCount:    3,
		Description: &desc,
	}}
}

// --- Tests ---

func TestAnalyzer_EmptyCatalog(t *testing.T) {
	llm := &mockLLM{}
	analyzer := NewAnalyzer(llm)

	verdict := analyzer.Analyze(context.Background(), "how old is Ann?", nil)

	assert.False(t, verdict.Fulfillable)
	assert.Contains(t, verdict.Reasoning, "no tables")
	assert.Zero(t, llm.calls, "no LLM call should be made for an empty catalog")
}

func TestAnalyzer_FulfillableVerdict(t *testing.T) {
	llm := &mockLLM{responses: []string{
		`{"fulfillable": true, "confidence": 0.9, "reasoning": "age column present", "relevant_tables": ["doc-1_table_1"]}`,
	}}
	analyzer := NewAnalyzer(llm)

	verdict := analyzer.Analyze(context.Background(), "how old is Ann?", testCatalog())

	assert.True(t, verdict.Fulfillable)
	assert.InDelta(t, 0.9, verdict.Confidence, 0.001)
	assert.Equal(t, []string{"doc-1_table_1"}, verdict.RelevantTables)
}

func TestAnalyzer_FailsClosedOnLLMError(t *testing.T) {
	llm := &mockLLM{err: errors.New("connection timeout")}
	analyzer := NewAnalyzer(llm)

	verdict := analyzer.Analyze(context.Background(), "how old is Ann?", testCatalog())

	assert.False(t, verdict.Fulfillable)
	assert.Contains(t, verdict.Reasoning, "connection timeout")
}

func TestAnalyzer_FailsClosedOnGarbage(t *testing.T) {
	llm := &mockLLM{responses: []string{"I think the answer is probably yes?"}}
	analyzer := NewAnalyzer(llm)

	verdict := analyzer.Analyze(context.Background(), "how old is Ann?", testCatalog())

	assert.False(t, verdict.Fulfillable)
	assert.Contains(t, verdict.Reasoning, "no parseable verdict")
}

func TestAnalyzer_ToleratesFencedResponse(t *testing.T) {
	llm := &mockLLM{responses: []string{
		"```json\n{\"fulfillable\": true, \"confidence\": 0.8, \"reasoning\": \"ok\", \"relevant_tables\": []}\n```",
	}}
	analyzer := NewAnalyzer(llm)

	verdict := analyzer.Analyze(context.Background(), "how old is Ann?", testCatalog())

	assert.True(t, verdict.Fulfillable)
}

func TestAnalyzer_ToleratesSurroundingProse(t *testing.T) {
	llm := &mockLLM{responses: []string{
		`Here is my analysis: {"fulfillable": true, "confidence": 0.7, "reasoning": "ok"} I hope that helps.`,
	}}
	analyzer := NewAnalyzer(llm)

	verdict := analyzer.Analyze(context.Background(), "how old is Ann?", testCatalog())

	assert.True(t, verdict.Fulfillable)
}

func TestAnalyzer_FiltersUnknownTables(t *testing.T) {
	llm := &mockLLM{responses: []string{
		`{"fulfillable": true, "confidence": 0.9, "reasoning": "ok", "relevant_tables": ["doc-1_table_1", "made-up_table_9"]}`,
	}}
	analyzer := NewAnalyzer(llm)

	verdict := analyzer.Analyze(context.Background(), "how old is Ann?", testCatalog())

	assert.Equal(t, []string{"doc-1_table_1"}, verdict.RelevantTables)
}

func TestAnalyzer_PromptCarriesCatalog(t *testing.T) {
	llm := &mockLLM{responses: []string{`{"fulfillable": false, "confidence": 0.2, "reasoning": "no"}`}}
	analyzer := NewAnalyzer(llm)

	analyzer.Analyze(context.Background(), "how old is Ann?", testCatalog())

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "doc-1_table_1")
	assert.Contains(t, llm.prompts[0], "Age (integer)")
	assert.Contains(t, llm.prompts[0], "People and their ages")
}

func TestCatalogContext_Empty(t *testing.T) {
	assert.Equal(t, "No tables available.", CatalogContext(nil))
}
