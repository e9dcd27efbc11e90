// Package memory provides an in-memory TableStore for tests and dry runs.
// It honours the same idempotency and validation semantics as the SQLite
// store but cannot execute SQL; Execute always fails.
package memory

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
)

// Ensure TableStore implements the interface.
var _ driven.TableStore = (*TableStore)(nil)

type storedTable struct {
	schema domain.Schema
	rows   []domain.Row
	seq    int
}

// TableStore is an in-memory implementation of driven.TableStore.
type TableStore struct {
	mu       sync.RWMutex
	tables   map[string]*storedTable // keyed by table_id
	sessions []domain.IngestionSession
	nextSeq  int
}

// NewTableStore creates an empty in-memory table store.
func NewTableStore() *TableStore {
	return &TableStore{tables: make(map[string]*storedTable)}
}

// Exists reports whether a table with this source and position is stored.
func (s *TableStore) Exists(_ context.Context, sourceID string, tableIndex int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tables {
		if t.schema.SourceID == sourceID && t.schema.TableIndex == tableIndex {
			return true, nil
		}
	}
	return false, nil
}

// Put stores a schema and its rows.
func (s *TableStore) Put(_ context.Context, schema domain.Schema, rows []domain.Row, sessionID string, replace bool) (string, error) {
	if err := schema.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[schema.TableID]; ok && !replace {
		return "", fmt.Errorf("%w: %s", domain.ErrDuplicateTable, schema.TableID)
	}

	schema.SessionID = sessionID
	if schema.CreatedAt.IsZero() {
		schema.CreatedAt = time.Now().UTC()
	}
	s.nextSeq++
	s.tables[schema.TableID] = &storedTable{schema: schema, rows: rows, seq: s.nextSeq}
	return schema.TableID, nil
}

// GetSchema returns the schema for a table ID.
func (s *TableStore) GetSchema(_ context.Context, tableID string) (*domain.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[tableID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	schema := t.schema
	return &schema, nil
}

// ListSchemas returns the catalog in insertion order.
func (s *TableStore) ListSchemas(_ context.Context, filter domain.SchemaFilter) ([]domain.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := make([]*storedTable, 0, len(s.tables))
	for _, t := range s.tables {
		if filter.SourceID != "" && t.schema.SourceID != filter.SourceID {
			continue
		}
		stored = append(stored, t)
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].seq < stored[j].seq })

	schemas := make([]domain.Schema, 0, len(stored))
	for _, t := range stored {
		schemas = append(schemas, t.schema)
	}
	return schemas, nil
}

// SetDescription attaches a description to a table that has none yet.
func (s *TableStore) SetDescription(_ context.Context, tableID, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[tableID]
	if !ok {
		return domain.ErrNotFound
	}
	if t.schema.Description == nil {
		t.schema.Description = &description
	}
	return nil
}

var (
	destructiveRE = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|REPLACE\s+INTO|ATTACH|DETACH|PRAGMA|VACUUM|TRUNCATE)\b`)
	jsonExtractRE = regexp.MustCompile(`json_extract\(row_data,\s*'\$\."?([^"']+)"?'\)`)
)

// stripStringLiterals blanks out single-quoted SQL string literals,
// honouring the '' escape, so quoted data cannot trip the keyword scan.
func stripStringLiterals(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	inLiteral := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c != '\'' {
			if !inLiteral {
				b.WriteByte(c)
			}
			continue
		}
		if inLiteral && i+1 < len(query) && query[i+1] == '\'' {
			i++
			continue
		}
		inLiteral = !inLiteral
		b.WriteByte('\'')
	}
	return b.String()
}

// ValidateQuery applies the read-only policy and the catalog column check.
// Without an SQL engine there is no syntax dry run; queries passing both
// checks are reported valid.
func (s *TableStore) ValidateQuery(_ context.Context, query string) (domain.ValidationOutcome, error) {
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return domain.InvalidOutcome("only SELECT statements are allowed"), nil
	}
	bare := stripStringLiterals(trimmed)
	if m := destructiveRE.FindString(bare); m != "" {
		return domain.InvalidOutcome(fmt.Sprintf("destructive keyword %s is not allowed",
			strings.ToUpper(strings.Join(strings.Fields(m), " ")))), nil
	}
	if strings.Count(strings.TrimSuffix(bare, ";"), ";") > 0 {
		return domain.InvalidOutcome("multiple statements are not allowed"), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	columns := make(map[string]bool)
	for _, t := range s.tables {
		for _, n := range t.schema.ColumnNames {
			columns[n] = true
		}
	}
	for _, m := range jsonExtractRE.FindAllStringSubmatch(query, -1) {
		if !columns[m[1]] {
			return domain.InvalidOutcome(fmt.Sprintf("unknown column %q in row data", m[1])), nil
		}
	}
	return domain.ValidOutcome(), nil
}

// Execute is unsupported: the in-memory store has no SQL engine.
func (s *TableStore) Execute(_ context.Context, _ string) (domain.ResultSet, error) {
	return domain.ResultSet{}, fmt.Errorf("memory store cannot execute queries")
}

// Rows returns the stored rows of a table, for test assertions.
func (s *TableStore) Rows(tableID string) []domain.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[tableID]
	if !ok {
		return nil
	}
	return t.rows
}

// StartSession records the beginning of an ingestion run.
func (s *TableStore) StartSession(_ context.Context, sourceID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := domain.IngestionSession{
		ID:        uuid.NewString(),
		SourceID:  sourceID,
		CreatedAt: time.Now().UTC(),
	}
	s.sessions = append(s.sessions, sess)
	return sess.ID, nil
}

// FinishSession records a completed run's counters.
func (s *TableStore) FinishSession(_ context.Context, sessionID string, attempted, succeeded int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			s.sessions[i].TablesAttempted = attempted
			s.sessions[i].TablesSucceeded = succeeded
			return nil
		}
	}
	return fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
}

// ListSessions returns sessions, most recent first.
func (s *TableStore) ListSessions(_ context.Context, limit int) ([]domain.IngestionSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.sessions) {
		limit = len(s.sessions)
	}
	out := make([]domain.IngestionSession, 0, limit)
	for i := len(s.sessions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.sessions[i])
	}
	return out, nil
}

// Summary returns an overview of the store's contents.
func (s *TableStore) Summary(_ context.Context) (domain.StoreSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources := make(map[string]bool)
	totalRows := 0
	for _, t := range s.tables {
		sources[t.schema.SourceID] = true
		totalRows += len(t.rows)
	}

	recent := len(s.sessions)
	if recent > 5 {
		recent = 5
	}
	sessions := make([]domain.IngestionSession, 0, recent)
	for i := len(s.sessions) - 1; i >= 0 && len(sessions) < recent; i-- {
		sessions = append(sessions, s.sessions[i])
	}

	return domain.StoreSummary{
		TotalTables:    len(s.tables),
		TotalRows:      totalRows,
		UniqueSources:  len(sources),
		RecentSessions: sessions,
	}, nil
}

// Close is a no-op.
func (s *TableStore) Close() error { return nil }
