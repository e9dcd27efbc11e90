package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driving"
	"github.com/custodia-labs/tabula-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs the ingestion pipeline: raw table -> type inference ->
// description -> store, under a per-source ingestion session.
type IngestService struct {
	store     driven.TableStore
	describer *Describer // nil when no LLM is configured
	infer     InferOptions
}

// NewIngestService creates a new ingestion service. describer is optional:
// without it tables are stored with a null description.
func NewIngestService(store driven.TableStore, describer *Describer, infer InferOptions) *IngestService {
	return &IngestService{store: store, describer: describer, infer: infer}
}

// Ingest processes one source's tables under a fresh session. Storage state
// after the call is a pure function of the set of (source, position)
// identities processed: re-ingesting an already-stored table is a no-op
// unless ForceReplace is set.
func (s *IngestService) Ingest(ctx context.Context, sourceID string, tables []domain.RawTable, opts driving.IngestOptions) (*domain.IngestReport, error) {
	logger.Section("Ingestion")
	logger.Info("Source %s: %d tables", sourceID, len(tables))

	sessionID, err := s.store.StartSession(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	report := &domain.IngestReport{
		SessionID: sessionID,
		SourceID:  sourceID,
	}

	for _, raw := range tables {
		report.TablesAttempted++

		tableID, err := s.ingestOne(ctx, raw, sessionID, opts.ForceReplace)
		switch {
		case errors.Is(err, domain.ErrDuplicateTable):
			report.TablesSkipped++
			logger.Info("Table %d of %s already stored, skipping", raw.Index, sourceID)
		case err != nil:
			// Storage failure for one table doesn't abort the run; the
			// session counters record the shortfall.
			logger.Warn("Storing table %d of %s failed: %v", raw.Index, sourceID, err)
		default:
			report.TablesSucceeded++
			report.TableIDs = append(report.TableIDs, tableID)
		}
	}

	if err := s.store.FinishSession(ctx, sessionID, report.TablesAttempted, report.TablesSucceeded); err != nil {
		return nil, fmt.Errorf("finish session: %w", err)
	}

	logger.Info("Session %s: %d/%d stored, %d skipped",
		sessionID, report.TablesSucceeded, report.TablesAttempted, report.TablesSkipped)
	return report, nil
}

func (s *IngestService) ingestOne(ctx context.Context, raw domain.RawTable, sessionID string, force bool) (string, error) {
	if !force {
		exists, err := s.store.Exists(ctx, raw.SourceID, raw.Index)
		if err != nil {
			return "", fmt.Errorf("existence check: %w", err)
		}
		if exists {
			s.backfillDescription(ctx, raw)
			return "", domain.ErrDuplicateTable
		}
	}

	schema := InferSchema(raw, s.infer)
	if err := schema.Validate(); err != nil {
		return "", err
	}

	// Description failure is tolerated: the table is stored with a null
	// description rather than dropped. No partially generated description
	// is ever observable.
	if s.describer != nil {
		description, err := s.describer.Describe(ctx, schema)
		if err != nil {
			logger.Warn("Description generation for %s failed: %v", schema.TableID, err)
		} else {
			schema.Description = &description
		}
	}

	rows := make([]domain.Row, 0, schema.RowCount)
	for i := 0; i < schema.RowCount; i++ {
		rows = append(rows, CoerceRow(raw.Row(i), schema.ColumnTypes))
	}

	tableID, err := s.store.Put(ctx, schema, rows, sessionID, force)
	if err != nil {
		return "", err
	}
	return tableID, nil
}

// backfillDescription completes a skipped duplicate that was stored without
// a description, typically by an earlier run with no LLM configured. The
// set-once contract of SetDescription keeps existing descriptions intact.
func (s *IngestService) backfillDescription(ctx context.Context, raw domain.RawTable) {
	if s.describer == nil {
		return
	}
	tableID := domain.TableID(raw.SourceID, raw.Index)
	schema, err := s.store.GetSchema(ctx, tableID)
	if err != nil || schema.Description != nil {
		return
	}
	description, err := s.describer.Describe(ctx, *schema)
	if err != nil {
		logger.Warn("Description back-fill for %s failed: %v", tableID, err)
		return
	}
	if err := s.store.SetDescription(ctx, tableID, description); err != nil {
		logger.Warn("Description back-fill for %s failed: %v", tableID, err)
	}
}
