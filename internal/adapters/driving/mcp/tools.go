package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the natural-language question to answer from stored table data"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Fulfillable bool             `json:"fulfillable"`
	Confidence  float64          `json:"confidence"`
	Reasoning   string           `json:"reasoning"`
	SQL         string           `json:"sql,omitempty"`
	Attempts    int              `json:"attempts,omitempty"`
	Columns     []string         `json:"columns,omitempty"`
	Rows        []map[string]any `json:"rows,omitempty"`
}

// AnalyzeInput is the input schema for the analyze tool.
type AnalyzeInput struct {
	Question string `json:"question" jsonschema:"the natural-language question to judge for answerability"`
}

// AnalyzeOutput is the output schema for the analyze tool.
type AnalyzeOutput struct {
	Fulfillable    bool     `json:"fulfillable"`
	Confidence     float64  `json:"confidence"`
	Reasoning      string   `json:"reasoning"`
	RelevantTables []string `json:"relevant_tables,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a natural-language question from stored table data",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze",
		Description: "Judge whether a question is answerable from the stored tables, without running a query",
	}, s.handleAnalyze)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Query.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Fulfillable: answer.Verdict.Fulfillable,
		Confidence:  answer.Verdict.Confidence,
		Reasoning:   answer.Verdict.Reasoning,
		SQL:         answer.SQL,
		Attempts:    answer.Attempts,
		Columns:     answer.Result.Columns,
	}

	for _, row := range answer.Result.Rows {
		out := make(map[string]any, len(row))
		for col, val := range row {
			out[col] = val.Native()
		}
		output.Rows = append(output.Rows, out)
	}

	return nil, output, nil
}

// handleAnalyze handles the analyze tool invocation.
func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	verdict, err := s.ports.Query.Analyze(ctx, input.Question)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}

	return nil, AnalyzeOutput{
		Fulfillable:    verdict.Fulfillable,
		Confidence:     verdict.Confidence,
		Reasoning:      verdict.Reasoning,
		RelevantTables: verdict.RelevantTables,
	}, nil
}
