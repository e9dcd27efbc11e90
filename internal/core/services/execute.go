package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tabula-cli/internal/logger"
)

// Executor runs validated queries and decodes the generic stored documents
// back into typed values, so callers see native types rather than raw
// encoded strings. Execution failures are surfaced verbatim and never
// retried: the query already passed validation, so a run-time failure
// (typically a cast mismatch on unexpected data) would only repeat.
type Executor struct {
	store driven.TableStore
}

// NewExecutor creates a new query executor.
func NewExecutor(store driven.TableStore) *Executor {
	return &Executor{store: store}
}

// jsonExtractRE matches the column access expression the synthesizer emits,
// capturing the column name.
var jsonExtractRE = regexp.MustCompile(`json_extract\(row_data,\s*'\$\."?([^"']+)"?'\)`)

// Run executes the query and decodes result values using the originating
// schemas' column types.
func (e *Executor) Run(ctx context.Context, sql string, schemas []domain.Schema) (domain.ResultSet, error) {
	result, err := e.store.Execute(ctx, sql)
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("%w: %v", domain.ErrExecutionFailed, err)
	}

	types := columnTypeIndex(schemas)
	for i, row := range result.Rows {
		decoded := make(domain.Row, len(row))
		for col, v := range row {
			decoded[col] = decodeValue(v, declaredType(col, types))
		}
		result.Rows[i] = decoded
	}

	logger.Debug("Query returned %d rows", len(result.Rows))
	return result, nil
}

// columnTypeIndex merges the schemas' column types. On a name collision the
// first schema wins; relevant schemas rarely overlap in practice.
func columnTypeIndex(schemas []domain.Schema) map[string]domain.ColumnType {
	idx := make(map[string]domain.ColumnType)
	for _, s := range schemas {
		for name, t := range s.ColumnTypes {
			if _, ok := idx[name]; !ok {
				idx[name] = t
			}
		}
	}
	return idx
}

// declaredType resolves a result column to a declared column type. The
// result column may be the bare column name or the json_extract expression
// the synthesizer emits.
func declaredType(resultColumn string, types map[string]domain.ColumnType) domain.ColumnType {
	if t, ok := types[resultColumn]; ok {
		return t
	}
	if m := jsonExtractRE.FindStringSubmatch(resultColumn); m != nil {
		if t, ok := types[m[1]]; ok {
			return t
		}
	}
	return ""
}

// decodeValue converts a generic stored value into its declared type where
// one is known, otherwise keeps the kind the engine produced.
func decodeValue(v domain.Value, t domain.ColumnType) domain.Value {
	if v.IsNull() {
		return v
	}

	switch t {
	case domain.TypeInteger:
		switch v.Kind {
		case domain.KindInteger:
			return v
		case domain.KindFloat:
			return domain.IntegerValue(int64(v.Float))
		case domain.KindString:
			if i, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64); err == nil {
				return domain.IntegerValue(i)
			}
		}
	case domain.TypeFloat:
		switch v.Kind {
		case domain.KindFloat:
			return v
		case domain.KindInteger:
			return domain.FloatValue(float64(v.Int))
		case domain.KindString:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil {
				return domain.FloatValue(f)
			}
		}
	case domain.TypeBoolean:
		switch v.Kind {
		case domain.KindBool:
			return v
		case domain.KindInteger:
			return domain.BoolValue(v.Int != 0)
		case domain.KindString:
			if b, err := strconv.ParseBool(v.Str); err == nil {
				return domain.BoolValue(b)
			}
		}
	case domain.TypeDate:
		if v.Kind == domain.KindString {
			if t, ok := parseDate(v.Str); ok {
				return domain.DateValue(t)
			}
		}
	}

	return v
}
