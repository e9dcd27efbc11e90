package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
)

// --- Test helpers ---

func writeTempJSON(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// --- Tests ---

func TestExtractor_ObjectForm(t *testing.T) {
	path := writeTempJSON(t, "report.json", `{
		"source_id": "report-2024",
		"tables": [
			{"columns": [
				{"name": "Name", "values": ["Ann", "Bob"]},
				{"name": "Age", "values": [30, null]}
			]}
		]
	}`)

	sourceID, tables, err := NewExtractor().Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "report-2024", sourceID)
	require.Len(t, tables, 1)
	assert.Equal(t, 1, tables[0].Index)
	require.Len(t, tables[0].Columns, 2)
	assert.Equal(t, "Name", tables[0].Columns[0].Name)
	assert.Equal(t, domain.IntegerValue(30), tables[0].Columns[1].Values[0])
	assert.True(t, tables[0].Columns[1].Values[1].IsNull())
}

func TestExtractor_BareArrayForm(t *testing.T) {
	path := writeTempJSON(t, "quarterly.json", `[
		{"columns": [{"name": "A", "values": [1]}]},
		{"columns": [{"name": "B", "values": [2]}]}
	]`)

	sourceID, tables, err := NewExtractor().Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "quarterly", sourceID, "source ID falls back to the file name")
	require.Len(t, tables, 2)
	assert.Equal(t, 1, tables[0].Index)
	assert.Equal(t, 2, tables[1].Index)
}

func TestExtractor_ValueConversion(t *testing.T) {
	path := writeTempJSON(t, "mix.json", `[
		{"columns": [{"name": "V", "values": ["txt", 3, 3.5, true, null]}]}
	]`)

	_, tables, err := NewExtractor().Extract(context.Background(), path)

	require.NoError(t, err)
	values := tables[0].Columns[0].Values
	require.Len(t, values, 5)
	assert.Equal(t, domain.StringValue("txt"), values[0])
	assert.Equal(t, domain.IntegerValue(3), values[1], "whole JSON numbers stay integral")
	assert.Equal(t, domain.FloatValue(3.5), values[2])
	assert.Equal(t, domain.BoolValue(true), values[3])
	assert.True(t, values[4].IsNull())
}

func TestExtractor_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"tables": [`},
		{"table without columns", `[{"columns": []}]`},
		{"empty column name", `[{"columns": [{"name": "", "values": [1]}]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempJSON(t, "bad.json", tt.content)
			_, _, err := NewExtractor().Extract(context.Background(), path)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestExtractor_MissingFile(t *testing.T) {
	_, _, err := NewExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewExtractor().Extract(ctx, "anything.json")
	assert.ErrorIs(t, err, context.Canceled)
}
