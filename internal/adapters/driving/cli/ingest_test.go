package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tabula-cli/internal/adapters/driven/extract/csvfile"
	"github.com/custodia-labs/tabula-cli/internal/adapters/driven/extract/jsonfile"
)

// Test helper functions in ingest.go

func TestExtractorFor(t *testing.T) {
	t.Run("explicit json format", func(t *testing.T) {
		extractor, err := extractorFor("data.txt", "json")
		require.NoError(t, err)
		assert.IsType(t, &jsonfile.Extractor{}, extractor)
	})

	t.Run("explicit csv format", func(t *testing.T) {
		extractor, err := extractorFor("data.txt", "csv")
		require.NoError(t, err)
		assert.IsType(t, &csvfile.Extractor{}, extractor)
	})

	t.Run("json by extension", func(t *testing.T) {
		extractor, err := extractorFor("report.json", "")
		require.NoError(t, err)
		assert.IsType(t, &jsonfile.Extractor{}, extractor)
	})

	t.Run("csv by extension", func(t *testing.T) {
		extractor, err := extractorFor("people.CSV", "")
		require.NoError(t, err)
		assert.IsType(t, &csvfile.Extractor{}, extractor)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := extractorFor("data.xlsx", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported input format")
	})
}

func TestIngestCmd_RequiresFileArgument(t *testing.T) {
	err := ingestCmd.Args(ingestCmd, []string{})
	assert.Error(t, err)

	err = ingestCmd.Args(ingestCmd, []string{"a.json", "b.json"})
	assert.Error(t, err)

	err = ingestCmd.Args(ingestCmd, []string{"a.json"})
	assert.NoError(t, err)
}
