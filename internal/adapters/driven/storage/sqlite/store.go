package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/tabula-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tabula-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.TableStore = (*Store)(nil)

// Store is the SQLite-backed table store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.tabula/data/tabula.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tabula", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "tabula.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Table Persistence ====================

// Exists reports whether a table with this source and position is stored.
func (s *Store) Exists(ctx context.Context, sourceID string, tableIndex int) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM tables WHERE source_id = ? AND table_index = ?
	`, sourceID, tableIndex).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking table existence: %w", err)
	}
	return true, nil
}

// Put stores a schema and its rows in one transaction.
func (s *Store) Put(ctx context.Context, schema domain.Schema, rows []domain.Row, sessionID string, replace bool) (string, error) {
	if err := schema.Validate(); err != nil {
		return "", err
	}

	namesJSON, err := json.Marshal(schema.ColumnNames)
	if err != nil {
		return "", fmt.Errorf("marshalling column names: %w", err)
	}
	typesJSON, err := json.Marshal(schema.ColumnTypes)
	if err != nil {
		return "", fmt.Errorf("marshalling column types: %w", err)
	}
	samplesJSON, err := json.Marshal(encodeRows(schema.SampleRows))
	if err != nil {
		return "", fmt.Errorf("marshalling sample rows: %w", err)
	}
	allNullJSON, err := json.Marshal(schema.AllNullColumns)
	if err != nil {
		return "", fmt.Errorf("marshalling all-null columns: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if replace {
		if _, err := tx.ExecContext(ctx, "DELETE FROM table_rows WHERE table_id = ?", schema.TableID); err != nil {
			return "", fmt.Errorf("deleting prior rows: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM tables WHERE table_id = ?", schema.TableID); err != nil {
			return "", fmt.Errorf("deleting prior table: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tables (
			table_id, source_id, table_index, row_count, column_count,
			column_names, column_types, sample_rows, all_null_columns,
			description, session_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, schema.TableID, schema.SourceID, schema.TableIndex, schema.RowCount,
		len(schema.ColumnNames), string(namesJSON), string(typesJSON),
		string(samplesJSON), string(allNullJSON),
		nullString(schema.Description), sessionID, time.Now().UTC())
	if err != nil {
		// The unique constraint on (source_id, table_index) is the
		// idempotency guard; a prior Exists check cannot be trusted under
		// concurrent ingestion.
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: %s", domain.ErrDuplicateTable, schema.TableID)
		}
		return "", fmt.Errorf("inserting table %s: %w", schema.TableID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO table_rows (table_id, row_index, row_data) VALUES (?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("preparing row insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		rowJSON, err := json.Marshal(encodeRow(row))
		if err != nil {
			return "", fmt.Errorf("marshalling row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, schema.TableID, i, string(rowJSON)); err != nil {
			return "", fmt.Errorf("inserting row %d of %s: %w", i, schema.TableID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing table %s: %w", schema.TableID, err)
	}

	logger.Debug("Stored table %s (%d rows)", schema.TableID, len(rows))
	return schema.TableID, nil
}

// GetSchema returns the schema for a table ID.
func (s *Store) GetSchema(ctx context.Context, tableID string) (*domain.Schema, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT table_id, source_id, table_index, row_count, column_names,
		       column_types, sample_rows, all_null_columns, description,
		       session_id, created_at
		FROM tables WHERE table_id = ?
	`, tableID)

	schema, err := scanSchema(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return schema, nil
}

// ListSchemas returns the catalog in ingestion order.
func (s *Store) ListSchemas(ctx context.Context, filter domain.SchemaFilter) ([]domain.Schema, error) {
	query := `
		SELECT table_id, source_id, table_index, row_count, column_names,
		       column_types, sample_rows, all_null_columns, description,
		       session_id, created_at
		FROM tables`
	var args []any
	if filter.SourceID != "" {
		query += " WHERE source_id = ?"
		args = append(args, filter.SourceID)
	}
	query += " ORDER BY created_at, table_index"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing schemas: %w", err)
	}
	defer rows.Close()

	var schemas []domain.Schema
	for rows.Next() {
		schema, err := scanSchema(rows)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, *schema)
	}
	return schemas, rows.Err()
}

// SetDescription attaches a description to a table that has none yet.
// A table whose description is already set is left untouched.
func (s *Store) SetDescription(ctx context.Context, tableID, description string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tables SET description = ? WHERE table_id = ? AND description IS NULL
	`, description, tableID)
	if err != nil {
		return fmt.Errorf("setting description: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting description: %w", err)
	}
	if n == 0 {
		exists, eerr := s.tableExistsByID(ctx, tableID)
		if eerr != nil {
			return eerr
		}
		if !exists {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (s *Store) tableExistsByID(ctx context.Context, tableID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM tables WHERE table_id = ?", tableID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", tableID, err)
	}
	return true, nil
}

// ==================== Query Validation and Execution ====================

// destructiveRE matches statement keywords the read-only policy rejects.
// The store is shared across ad-hoc synthesized queries from an untrusted
// generation process, so the policy is enforced here independently of the
// engine's own permission model.
// REPLACE is matched only in its statement form so the replace() string
// function stays usable.
var destructiveRE = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|REPLACE\s+INTO|ATTACH|DETACH|PRAGMA|VACUUM|TRUNCATE)\b`)

// jsonExtractRE captures column names read out of row documents.
var jsonExtractRE = regexp.MustCompile(`json_extract\(row_data,\s*'\$\."?([^"']+)"?'\)`)

// stripStringLiterals blanks out single-quoted SQL string literals,
// honouring the '' escape, so quoted data cannot trip the keyword scan or
// the statement count.
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

// policyCheck returns a rejection reason, or "" when the query passes the
// read-only policy.
func policyCheck(query string) string {
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return "only SELECT statements are allowed"
	}
	bare := stripStringLiterals(trimmed)
	if m := destructiveRE.FindString(bare); m != "" {
		return fmt.Sprintf("destructive keyword %s is not allowed",
			strings.ToUpper(strings.Join(strings.Fields(m), " ")))
	}
	if strings.Count(strings.TrimSuffix(bare, ";"), ";") > 0 {
		return "multiple statements are not allowed"
	}
	return ""
}

// ValidateQuery dry-runs a query without touching row data. Malformed
// input is a normal Invalid outcome, never an error.
func (s *Store) ValidateQuery(ctx context.Context, query string) (domain.ValidationOutcome, error) {
	if reason := policyCheck(query); reason != "" {
		return domain.InvalidOutcome(reason), nil
	}

	// Syntax and referential check against the engine's own catalog.
	// EXPLAIN QUERY PLAN parses and plans without executing.
	rows, err := s.db.QueryContext(ctx, "EXPLAIN QUERY PLAN "+strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if err != nil {
		return domain.InvalidOutcome(err.Error()), nil
	}
	rows.Close()

	// Column references inside row documents are invisible to the engine;
	// check them against the stored catalog.
	columns, err := s.catalogColumns(ctx)
	if err != nil {
		return domain.ValidationOutcome{}, err
	}
	for _, m := range jsonExtractRE.FindAllStringSubmatch(query, -1) {
		if !columns[m[1]] {
			return domain.InvalidOutcome(fmt.Sprintf("unknown column %q in row data", m[1])), nil
		}
	}

	return domain.ValidOutcome(), nil
}

// catalogColumns returns the union of all stored column names.
func (s *Store) catalogColumns(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT column_names FROM tables")
	if err != nil {
		return nil, fmt.Errorf("loading catalog columns: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var namesJSON string
		if err := rows.Scan(&namesJSON); err != nil {
			return nil, fmt.Errorf("scanning catalog columns: %w", err)
		}
		var names []string
		if err := json.Unmarshal([]byte(namesJSON), &names); err != nil {
			return nil, fmt.Errorf("unmarshalling catalog columns: %w", err)
		}
		for _, n := range names {
			columns[n] = true
		}
	}
	return columns, rows.Err()
}

// Execute runs a read-only query and returns the generic result rows.
func (s *Store) Execute(ctx context.Context, query string) (domain.ResultSet, error) {
	if reason := policyCheck(query); reason != "" {
		return domain.ResultSet{}, fmt.Errorf("%w: %s", domain.ErrDestructiveQuery, reason)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("reading result columns: %w", err)
	}

	result := domain.ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return domain.ResultSet{}, fmt.Errorf("scanning result row: %w", err)
		}

		row := make(domain.Row, len(columns))
		for i, col := range columns {
			row[col] = valueFromDriver(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.ResultSet{}, fmt.Errorf("iterating results: %w", err)
	}

	return result, nil
}

// ==================== Sessions ====================

// StartSession records the beginning of an ingestion run.
func (s *Store) StartSession(ctx context.Context, sourceID string) (string, error) {
	sessionID := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingestion_sessions (session_id, source_id, created_at)
		VALUES (?, ?, ?)
	`, sessionID, sourceID, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("starting session: %w", err)
	}
	return sessionID, nil
}

// FinishSession records a completed run's counters.
func (s *Store) FinishSession(ctx context.Context, sessionID string, attempted, succeeded int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ingestion_sessions SET tables_attempted = ?, tables_succeeded = ?
		WHERE session_id = ?
	`, attempted, succeeded, sessionID)
	if err != nil {
		return fmt.Errorf("finishing session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}
	return nil
}

// ListSessions returns ingestion sessions, most recent first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]domain.IngestionSession, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, source_id, tables_attempted, tables_succeeded, created_at
		FROM ingestion_sessions ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.IngestionSession
	for rows.Next() {
		var sess domain.IngestionSession
		var createdAt sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.SourceID, &sess.TablesAttempted,
			&sess.TablesSucceeded, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if createdAt.Valid {
			sess.CreatedAt = createdAt.Time
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Summary returns an overview of the store's contents.
func (s *Store) Summary(ctx context.Context) (domain.StoreSummary, error) {
	var summary domain.StoreSummary

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tables").Scan(&summary.TotalTables); err != nil {
		return summary, fmt.Errorf("counting tables: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM table_rows").Scan(&summary.TotalRows); err != nil {
		return summary, fmt.Errorf("counting rows: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT source_id) FROM tables").Scan(&summary.UniqueSources); err != nil {
		return summary, fmt.Errorf("counting sources: %w", err)
	}

	sessions, err := s.ListSessions(ctx, 5)
	if err != nil {
		return summary, err
	}
	summary.RecentSessions = sessions

	return summary, nil
}

// ==================== Helpers ====================

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure. modernc.org/sqlite does not export a typed constraint error, so
// this matches the engine's stable message text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// encodeRow converts a typed row to its JSON document form.
func encodeRow(row domain.Row) map[string]any {
	doc := make(map[string]any, len(row))
	for name, v := range row {
		doc[name] = v.Native()
	}
	return doc
}

func encodeRows(rows []domain.Row) []map[string]any {
	docs := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, encodeRow(r))
	}
	return docs
}

// valueFromDriver converts a database/sql result value to a domain value.
func valueFromDriver(v any) domain.Value {
	switch x := v.(type) {
	case nil:
		return domain.NullValue()
	case int64:
		return domain.IntegerValue(x)
	case float64:
		return domain.FloatValue(x)
	case bool:
		return domain.BoolValue(x)
	case string:
		return domain.StringValue(x)
	case []byte:
		return domain.StringValue(string(x))
	case time.Time:
		return domain.DateValue(x)
	default:
		return domain.StringValue(fmt.Sprintf("%v", x))
	}
}

// valueFromJSON converts a decoded JSON document value to a domain value,
// consulting the declared column type for numbers.
func valueFromJSON(v any, t domain.ColumnType) domain.Value {
	switch x := v.(type) {
	case nil:
		return domain.NullValue()
	case bool:
		return domain.BoolValue(x)
	case float64:
		if t == domain.TypeInteger {
			return domain.IntegerValue(int64(x))
		}
		return domain.FloatValue(x)
	case string:
		return domain.StringValue(x)
	default:
		return domain.StringValue(fmt.Sprintf("%v", x))
	}
}

// scanner abstracts *sql.Row and *sql.Rows for scanSchema.
type scanner interface {
	Scan(dest ...any) error
}

func scanSchema(sc scanner) (*domain.Schema, error) {
	var schema domain.Schema
	var namesJSON, typesJSON, samplesJSON string
	var allNullJSON, description, sessionID sql.NullString
	var createdAt sql.NullTime

	err := sc.Scan(&schema.TableID, &schema.SourceID, &schema.TableIndex,
		&schema.RowCount, &namesJSON, &typesJSON, &samplesJSON,
		&allNullJSON, &description, &sessionID, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning schema: %w", err)
	}

	if err := json.Unmarshal([]byte(namesJSON), &schema.ColumnNames); err != nil {
		return nil, fmt.Errorf("unmarshalling column names: %w", err)
	}
	if err := json.Unmarshal([]byte(typesJSON), &schema.ColumnTypes); err != nil {
		return nil, fmt.Errorf("unmarshalling column types: %w", err)
	}

	var samples []map[string]any
	if err := json.Unmarshal([]byte(samplesJSON), &samples); err != nil {
		return nil, fmt.Errorf("unmarshalling sample rows: %w", err)
	}
	for _, doc := range samples {
		row := make(domain.Row, len(doc))
		for name, v := range doc {
			row[name] = valueFromJSON(v, schema.ColumnTypes[name])
		}
		schema.SampleRows = append(schema.SampleRows, row)
	}

	if allNullJSON.Valid && allNullJSON.String != "" && allNullJSON.String != "null" {
		if err := json.Unmarshal([]byte(allNullJSON.String), &schema.AllNullColumns); err != nil {
			return nil, fmt.Errorf("unmarshalling all-null columns: %w", err)
		}
	}
	if description.Valid {
		schema.Description = &description.String
	}
	schema.SessionID = sessionID.String
	if createdAt.Valid {
		schema.CreatedAt = createdAt.Time
	}

	return &schema, nil
}
