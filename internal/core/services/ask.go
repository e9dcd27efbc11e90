package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driving"
	"github.com/custodia-labs/tabula-cli/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService runs the question pipeline: feasibility analysis, query
// synthesis with validation and retries, then execution.
type QueryService struct {
	store       driven.TableStore
	analyzer    *Analyzer
	synthesizer *Synthesizer
	executor    *Executor
}

// NewQueryService creates the question-answering pipeline.
func NewQueryService(store driven.TableStore, analyzer *Analyzer, synthesizer *Synthesizer, executor *Executor) *QueryService {
	return &QueryService{
		store:       store,
		analyzer:    analyzer,
		synthesizer: synthesizer,
		executor:    executor,
	}
}

// Analyze judges answerability without synthesizing or executing.
func (s *QueryService) Analyze(ctx context.Context, question string) (domain.Verdict, error) {
	catalog, err := s.store.ListSchemas(ctx, domain.SchemaFilter{})
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("list schemas: %w", err)
	}
	return s.analyzer.Analyze(ctx, question, catalog), nil
}

// Ask runs the full pipeline. An unanswerable question yields an Answer
// with an unfulfillable verdict; exhausted synthesis yields
// domain.ErrSynthesisFailed; execution failures yield
// domain.ErrExecutionFailed. Nothing partial or fabricated is returned.
func (s *QueryService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	catalog, err := s.store.ListSchemas(ctx, domain.SchemaFilter{})
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}

	answer := &domain.Answer{Question: question}

	answer.Verdict = s.analyzer.Analyze(ctx, question, catalog)
	if !answer.Verdict.Fulfillable {
		logger.Info("Question judged unfulfillable: %s", answer.Verdict.Reasoning)
		return answer, nil
	}

	relevant := relevantSchemas(catalog, answer.Verdict.RelevantTables)

	sql, attempts, err := s.synthesizer.Synthesize(ctx, question, relevant)
	answer.Attempts = attempts
	if err != nil {
		return answer, err
	}
	answer.SQL = sql

	result, err := s.executor.Run(ctx, sql, relevant)
	if err != nil {
		return answer, err
	}
	answer.Result = result

	return answer, nil
}

// relevantSchemas narrows the catalog to the verdict's tables, falling back
// to the whole catalog when the analyzer named none.
func relevantSchemas(catalog []domain.Schema, tableIDs []string) []domain.Schema {
	if len(tableIDs) == 0 {
		return catalog
	}
	wanted := make(map[string]bool, len(tableIDs))
	for _, id := range tableIDs {
		wanted[id] = true
	}
	var out []domain.Schema
	for _, s := range catalog {
		if wanted[s.TableID] {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return catalog
	}
	return out
}
