package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
)

func TestDescriber_Describe(t *testing.T) {
	llm := &mockLLM{responses: []string{"  A table of people and their ages.  "}}
	describer := NewDescriber(llm)

	text, err := describer.Describe(context.Background(), testCatalog()[0])

	require.NoError(t, err)
	assert.Equal(t, "A table of people and their ages.", text)
}

func TestDescriber_PromptCarriesSchema(t *testing.T) {
	schema := testCatalog()[0]
	schema.SampleRows = []domain.Row{{
		"Name": domain.StringValue("Ann"),
		"Age":  domain.IntegerValue(30),
	}}
	llm := &mockLLM{responses: []string{"ok"}}
	describer := NewDescriber(llm)

	_, err := describer.Describe(context.Background(), schema)

	require.NoError(t, err)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "doc-1_table_1")
	assert.Contains(t, llm.prompts[0], "Age (integer)")
	assert.Contains(t, llm.prompts[0], "Name=Ann")
	assert.Contains(t, llm.prompts[0], "Age=30")
}

func TestDescriber_GenerationError(t *testing.T) {
	llm := &mockLLM{err: errors.New("model not loaded")}
	describer := NewDescriber(llm)

	_, err := describer.Describe(context.Background(), testCatalog()[0])

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestDescriber_EmptyResponse(t *testing.T) {
	llm := &mockLLM{responses: []string{"   \n  "}}
	describer := NewDescriber(llm)

	_, err := describer.Describe(context.Background(), testCatalog()[0])

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}
