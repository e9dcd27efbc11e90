package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tabula-cli/internal/logger"
)

// analyzeMaxTokens bounds verdict generation output.
const analyzeMaxTokens = 500

// Analyzer judges whether a free-text question is answerable from the
// stored catalog. Infrastructure failures and unparseable responses fail
// closed: the verdict is unfulfillable with the cause in Reasoning, never
// silently fulfillable.
type Analyzer struct {
	llm driven.LLMService
}

// NewAnalyzer creates a new feasibility analyzer. llm may not be nil.
func NewAnalyzer(llm driven.LLMService) *Analyzer {
	return &Analyzer{llm: llm}
}

// Analyze returns the feasibility verdict for a question over the catalog.
func (a *Analyzer) Analyze(ctx context.Context, question string, catalog []domain.Schema) domain.Verdict {
	logger.Section("Feasibility Analysis")
	logger.Debug("Question: %q, catalog size: %d", question, len(catalog))

	if len(catalog) == 0 {
		return domain.Verdict{
			Fulfillable: false,
			Reasoning:   "no tables have been ingested yet",
		}
	}

	prompt := buildAnalyzePrompt(question, catalog)

	response, err := a.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   analyzeMaxTokens,
		Temperature: 0.1,
	})
	if err != nil {
		logger.Warn("Feasibility analysis failed: %v", err)
		return domain.Verdict{
			Fulfillable: false,
			Reasoning:   fmt.Sprintf("analysis failed: %v", err),
		}
	}

	verdict, err := parseVerdict(response)
	if err != nil {
		logger.Warn("Unparseable verdict: %v", err)
		return domain.Verdict{
			Fulfillable: false,
			Reasoning:   fmt.Sprintf("analysis produced no parseable verdict: %v", err),
		}
	}

	verdict.RelevantTables = knownTables(verdict.RelevantTables, catalog)
	logger.Info("Verdict: fulfillable=%t confidence=%.2f tables=%v",
		verdict.Fulfillable, verdict.Confidence, verdict.RelevantTables)
	return verdict
}

// CatalogContext renders the catalog as compact prompt context: identifiers,
// typed columns, and descriptions when present.
func CatalogContext(catalog []domain.Schema) string {
	if len(catalog) == 0 {
		return "No tables available."
	}

	var b strings.Builder
	b.WriteString("Available tables:\n")
	for _, s := range catalog {
		fmt.Fprintf(&b, "\n- Table: %s\n", s.TableID)
		fmt.Fprintf(&b, "  Source: %s\n", s.SourceID)
		fmt.Fprintf(&b, "  Rows: %d, Columns: %d\n", s.RowCount, len(s.ColumnNames))
		cols := make([]string, 0, len(s.ColumnNames))
		for _, name := range s.ColumnNames {
			cols = append(cols, fmt.Sprintf("%s (%s)", name, s.ColumnTypes[name]))
		}
		fmt.Fprintf(&b, "  Columns: %s\n", strings.Join(cols, ", "))
		if s.Description != nil {
			fmt.Fprintf(&b, "  Description: %s\n", *s.Description)
		}
	}
	return b.String()
}

func buildAnalyzePrompt(question string, catalog []domain.Schema) string {
	return fmt.Sprintf(`You are an expert database query analyst. Determine whether the user's question can be answered by querying the available table data.

%s

User Question: %q

Consider:
1. Does the question ask for information the tables could contain?
2. Are the required fields likely present in the table columns?
3. Is the question a lookup, filter or aggregation feasible with SQL?

Respond with a JSON object in exactly this format:
{
    "fulfillable": true,
    "confidence": 0.0,
    "reasoning": "explanation of your analysis",
    "relevant_tables": ["table ids needed to answer"]
}

Questions asking for actions outside the database (weather, sending email, creating new data) are not fulfillable.

Return ONLY the JSON object.`, CatalogContext(catalog), question)
}

// verdictPayload is the expected JSON shape of the analyzer response.
type verdictPayload struct {
	Fulfillable    bool     `json:"fulfillable"`
	Confidence     float64  `json:"confidence"`
	Reasoning      string   `json:"reasoning"`
	RelevantTables []string `json:"relevant_tables"`
}

// parseVerdict extracts a verdict from the model response, tolerating prose
// and markdown fences around the JSON payload. It tries the raw text, then
// the fence-stripped text, then the outermost brace-delimited substring.
func parseVerdict(response string) (domain.Verdict, error) {
	candidates := []string{
		strings.TrimSpace(response),
		stripFences(response),
		braceSubstring(response),
	}

	var lastErr error
	for _, c := range candidates {
		if c == "" {
			continue
		}
		var p verdictPayload
		if err := json.Unmarshal([]byte(c), &p); err != nil {
			lastErr = err
			continue
		}
		return domain.Verdict{
			Fulfillable:    p.Fulfillable,
			Confidence:     p.Confidence,
			Reasoning:      p.Reasoning,
			RelevantTables: p.RelevantTables,
		}, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("empty response")
	}
	return domain.Verdict{}, lastErr
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```sql")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// braceSubstring returns the substring from the first '{' to the last '}'.
func braceSubstring(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// knownTables keeps only table IDs that exist in the catalog, preserving
// the analyzer's order.
func knownTables(ids []string, catalog []domain.Schema) []string {
	known := make(map[string]bool, len(catalog))
	for _, s := range catalog {
		known[s.TableID] = true
	}
	var out []string
	for _, id := range ids {
		if known[id] {
			out = append(out, id)
		}
	}
	return out
}
