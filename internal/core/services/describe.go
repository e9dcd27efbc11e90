package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tabula-cli/internal/logger"
)

// describeMaxTokens bounds description generation output.
const describeMaxTokens = 400

// Describer turns a schema into a natural-language table description via
// the text-generation capability.
type Describer struct {
	llm driven.LLMService
}

// NewDescriber creates a new describer. llm may not be nil.
func NewDescriber(llm driven.LLMService) *Describer {
	return &Describer{llm: llm}
}

// Describe generates a description of the table behind the schema.
// Failure is surfaced as domain.ErrGenerationFailed and leaves no partial
// state: the caller stores either the whole description or nothing.
func (d *Describer) Describe(ctx context.Context, schema domain.Schema) (string, error) {
	prompt := buildDescribePrompt(schema)

	text, err := d.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   describeMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("%w: describe table %s: %v", domain.ErrGenerationFailed, schema.TableID, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: describe table %s: empty response", domain.ErrGenerationFailed, schema.TableID)
	}

	logger.Debug("Generated description for table %s (%d chars)", schema.TableID, len(text))
	return text, nil
}

func buildDescribePrompt(schema domain.Schema) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze this table and provide a clear, concise description of what it contains and its purpose.\n\n")
	fmt.Fprintf(&b, "Table Information:\n")
	fmt.Fprintf(&b, "- Table ID: %s\n", schema.TableID)
	fmt.Fprintf(&b, "- Dimensions: %d rows x %d columns\n", schema.RowCount, len(schema.ColumnNames))
	fmt.Fprintf(&b, "- Columns:\n")
	for _, name := range schema.ColumnNames {
		fmt.Fprintf(&b, "  - %s (%s)\n", name, schema.ColumnTypes[name])
	}

	if len(schema.SampleRows) > 0 {
		fmt.Fprintf(&b, "\nSample Data (first rows):\n")
		for i, row := range schema.SampleRows {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "Row %d: %s\n", i+1, formatRow(row, schema.ColumnNames))
		}
	}

	b.WriteString(`
Provide a description that:
1. Explains what type of data this table contains
2. Describes the main purpose of the table
3. Mentions key columns and their significance
4. Is concise but informative (2-4 sentences)

Description:`)

	return b.String()
}

// formatRow renders a row in schema column order for prompt context.
func formatRow(row domain.Row, columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, name := range columns {
		v := row[name]
		if v.IsNull() {
			parts = append(parts, fmt.Sprintf("%s=null", name))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", name, v.String()))
	}
	return strings.Join(parts, ", ")
}
