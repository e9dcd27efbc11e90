package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/logger"
)

// dateLayouts are the recognised date grammars. A column is typed date only
// if every sampled non-null value parses under at least one of them.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"01/02/2006",
	time.RFC3339,
	"Jan 2, 2006",
	"2 Jan 2006",
}

// booleanLiterals are the accepted boolean spellings, lowercased. "1"/"0"
// are deliberately absent so numeric columns never collapse to boolean.
var booleanLiterals = map[string]bool{
	"true": true, "false": false,
	"yes": true, "no": false,
	"on": true, "off": false,
}

// InferOptions tunes type inference.
type InferOptions struct {
	// SampleLimit bounds how many values per column are inspected.
	SampleLimit int

	// SampleRowCount is how many row snapshots the schema keeps.
	SampleRowCount int
}

func (o InferOptions) withDefaults() InferOptions {
	if o.SampleLimit <= 0 {
		o.SampleLimit = domain.DefaultInferenceSampleLimit
	}
	if o.SampleRowCount <= 0 {
		o.SampleRowCount = domain.DefaultSampleRowCount
	}
	return o
}

// InferSchema converts a raw table into its canonical typed schema.
// It is total and deterministic: anomalous values broaden the column type,
// with string as the universal fallback, and never produce an error.
func InferSchema(raw domain.RawTable, opts InferOptions) domain.Schema {
	opts = opts.withDefaults()

	schema := domain.Schema{
		TableID:     domain.TableID(raw.SourceID, raw.Index),
		SourceID:    raw.SourceID,
		TableIndex:  raw.Index,
		ColumnNames: make([]string, 0, len(raw.Columns)),
		ColumnTypes: make(map[string]domain.ColumnType, len(raw.Columns)),
		RowCount:    raw.RowCount(),
	}

	for _, col := range raw.Columns {
		colType, allNull := inferColumnType(col.Values, opts.SampleLimit)
		schema.ColumnNames = append(schema.ColumnNames, col.Name)
		schema.ColumnTypes[col.Name] = colType
		if allNull {
			schema.AllNullColumns = append(schema.AllNullColumns, col.Name)
			logger.Debug("Column %q is all-null, typed string", col.Name)
		}
	}

	sampleCount := schema.RowCount
	if sampleCount > opts.SampleRowCount {
		sampleCount = opts.SampleRowCount
	}
	for i := 0; i < sampleCount; i++ {
		schema.SampleRows = append(schema.SampleRows, CoerceRow(raw.Row(i), schema.ColumnTypes))
	}

	return schema
}

// columnProfile tracks which types remain compatible with every value seen
// so far. Flags only ever flip from true to false: broadening is monotonic.
type columnProfile struct {
	integer bool
	float   bool
	boolean bool
	date    bool
}

func inferColumnType(values []domain.Value, sampleLimit int) (domain.ColumnType, bool) {
	p := columnProfile{integer: true, float: true, boolean: true, date: true}

	sampled := values
	if len(sampled) > sampleLimit {
		sampled = sampled[:sampleLimit]
	}

	nonNull := 0
	for _, v := range sampled {
		if isNullish(v) {
			continue
		}
		nonNull++
		p.observe(v)
	}

	if nonNull == 0 {
		return domain.TypeString, true
	}

	switch {
	case p.boolean:
		return domain.TypeBoolean, false
	case p.integer:
		return domain.TypeInteger, false
	case p.float:
		return domain.TypeFloat, false
	case p.date:
		return domain.TypeDate, false
	default:
		return domain.TypeString, false
	}
}

func (p *columnProfile) observe(v domain.Value) {
	switch v.Kind {
	case domain.KindInteger:
		p.boolean = false
		p.date = false
	case domain.KindFloat:
		p.boolean = false
		p.integer = false
		p.date = false
	case domain.KindBool:
		p.integer = false
		p.float = false
		p.date = false
	case domain.KindDate:
		p.integer = false
		p.float = false
		p.boolean = false
	case domain.KindString:
		s := strings.TrimSpace(v.Str)
		if !isIntegerLiteral(s) {
			p.integer = false
		}
		if !isFloatLiteral(s) {
			p.float = false
		}
		if _, ok := booleanLiterals[strings.ToLower(s)]; !ok {
			p.boolean = false
		}
		if _, ok := parseDate(s); !ok {
			p.date = false
		}
	}
}

// isNullish treats empty strings, bare dashes and whitespace as null,
// matching how extracted tables mark missing cells.
func isNullish(v domain.Value) bool {
	if v.IsNull() {
		return true
	}
	if v.Kind == domain.KindString {
		s := strings.TrimSpace(v.Str)
		return s == "" || s == "-"
	}
	return false
}

func isIntegerLiteral(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloatLiteral(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CoerceRow converts raw cell values to the declared column types. Values
// that resist conversion are kept as strings; nulls stay null.
func CoerceRow(row domain.Row, types map[string]domain.ColumnType) domain.Row {
	out := make(domain.Row, len(row))
	for name, v := range row {
		out[name] = coerceValue(v, types[name])
	}
	return out
}

func coerceValue(v domain.Value, t domain.ColumnType) domain.Value {
	if isNullish(v) {
		return domain.NullValue()
	}

	switch t {
	case domain.TypeInteger:
		switch v.Kind {
		case domain.KindInteger:
			return v
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
		case domain.KindString:
			if b, ok := booleanLiterals[strings.ToLower(strings.TrimSpace(v.Str))]; ok {
				return domain.BoolValue(b)
			}
		}
	case domain.TypeDate:
		switch v.Kind {
		case domain.KindDate:
			return v
		case domain.KindString:
			if t, ok := parseDate(strings.TrimSpace(v.Str)); ok {
				return domain.DateValue(t)
			}
		}
	}

	if v.Kind == domain.KindString {
		return v
	}
	return domain.StringValue(v.String())
}
