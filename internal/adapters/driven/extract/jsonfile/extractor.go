// Package jsonfile provides a TableExtractor that reads pre-extracted
// tables from a JSON document.
//
// The expected shape is either a bare array of tables or an object with
// an optional "source_id" and a "tables" array. Each table lists its
// columns in order, and each column carries its raw values:
//
//	{
//	  "source_id": "report-2024",
//	  "tables": [
//	    {"columns": [{"name": "Name", "values": ["Ann", "Bob"]},
//	                 {"name": "Age", "values": [30, null]}]}
//	  ]
//	}
//
// Cell values may be JSON strings, numbers, booleans, or null; typing
// happens downstream during inference.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TableExtractor = (*Extractor)(nil)

// Extractor reads raw tables from a JSON file.
type Extractor struct{}

// NewExtractor creates a JSON file extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

type document struct {
	SourceID string    `json:"source_id"`
	Tables   []rawJSON `json:"tables"`
}

type rawJSON struct {
	Columns []columnJSON `json:"columns"`
}

type columnJSON struct {
	Name   string `json:"name"`
	Values []any  `json:"values"`
}

// Extract reads the file at path and returns its tables in document order.
func (e *Extractor) Extract(ctx context.Context, path string) (string, []domain.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := parseDocument(data)
	if err != nil {
		return "", nil, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidInput, path, err)
	}

	sourceID := doc.SourceID
	if sourceID == "" {
		sourceID = sourceIDFromPath(path)
	}

	tables := make([]domain.RawTable, 0, len(doc.Tables))
	for i, t := range doc.Tables {
		raw, err := convertTable(sourceID, i+1, t)
		if err != nil {
			return "", nil, fmt.Errorf("%w: table %d in %s: %v", domain.ErrInvalidInput, i+1, path, err)
		}
		tables = append(tables, raw)
	}
	return sourceID, tables, nil
}

// parseDocument accepts either the object form or a bare array of tables.
func parseDocument(data []byte) (document, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var tables []rawJSON
		if err := json.Unmarshal(data, &tables); err != nil {
			return document{}, err
		}
		return document{Tables: tables}, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, err
	}
	return doc, nil
}

func convertTable(sourceID string, index int, t rawJSON) (domain.RawTable, error) {
	if len(t.Columns) == 0 {
		return domain.RawTable{}, fmt.Errorf("no columns")
	}

	columns := make([]domain.RawColumn, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return domain.RawTable{}, fmt.Errorf("column with empty name")
		}
		values := make([]domain.Value, 0, len(c.Values))
		for _, v := range c.Values {
			values = append(values, convertValue(v))
		}
		columns = append(columns, domain.RawColumn{Name: c.Name, Values: values})
	}

	return domain.RawTable{SourceID: sourceID, Index: index, Columns: columns}, nil
}

// convertValue maps a decoded JSON scalar onto an untyped domain value.
// Whole numbers become integers so numeric columns keep their narrow type;
// non-scalar cells are stringified so they survive into inference.
func convertValue(v any) domain.Value {
	switch val := v.(type) {
	case nil:
		return domain.NullValue()
	case string:
		return domain.StringValue(val)
	case float64:
		if val == math.Trunc(val) && val >= math.MinInt64 && val <= math.MaxInt64 {
			return domain.IntegerValue(int64(val))
		}
		return domain.FloatValue(val)
	case bool:
		return domain.BoolValue(val)
	default:
		return domain.StringValue(fmt.Sprintf("%v", val))
	}
}

func sourceIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
