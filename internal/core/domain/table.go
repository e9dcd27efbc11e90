package domain

import (
	"fmt"
	"strconv"
	"time"
)

// ColumnType is the inferred type of a table column.
// The set is closed: queries rely on these exact names when casting
// stored document values back to native types.
type ColumnType string

// Recognised column types.
const (
	TypeString  ColumnType = "string"
	TypeInteger ColumnType = "integer"
	TypeFloat   ColumnType = "float"
	TypeBoolean ColumnType = "boolean"
	TypeDate    ColumnType = "date"
	TypeNull    ColumnType = "null"
)

// IsValid returns true if the column type is recognised.
func (t ColumnType) IsValid() bool {
	switch t {
	case TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeDate, TypeNull:
		return true
	default:
		return false
	}
}

// ValueKind discriminates the scalar kinds a cell value can hold.
type ValueKind int

// Scalar kinds.
const (
	KindNull ValueKind = iota
	KindString
	KindInteger
	KindFloat
	KindBool
	KindDate
)

// Value is a tagged union over the scalar kinds a table cell can hold.
// Exactly one payload field is meaningful, selected by Kind.
type Value struct {
	Kind  ValueKind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Time  time.Time
}

// NullValue returns the null value.
func NullValue() Value { return Value{Kind: KindNull} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IntegerValue wraps an integer.
func IntegerValue(i int64) Value { return Value{Kind: KindInteger, Int: i} }

// FloatValue wraps a float.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// DateValue wraps a date.
func DateValue(t time.Time) Value { return Value{Kind: KindDate, Time: t} }

// IsNull returns true for the null value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Native returns the value as a plain Go type suitable for JSON encoding.
// Dates are rendered in ISO 8601 date form.
func (v Value) Native() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInteger:
		return v.Int
	case KindFloat:
		return v.Float
	case KindBool:
		return v.Bool
	case KindDate:
		return v.Time.Format("2006-01-02")
	default:
		return nil
	}
}

// String renders the value for display.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindDate:
		return v.Time.Format("2006-01-02")
	default:
		return ""
	}
}

// Row maps column names to cell values. Column order is carried by the
// owning Schema, not the map.
type Row map[string]Value

// RawColumn is one named column of untyped values as handed over by the
// extraction collaborator.
type RawColumn struct {
	// Name is the column header.
	Name string

	// Values holds the raw cell values in row order. Untyped input is
	// represented with string/float/bool/null kinds only.
	Values []Value
}

// RawTable is one extracted table before type inference.
type RawTable struct {
	// SourceID identifies the originating document.
	SourceID string

	// Index is the 1-based ordinal position of the table within the source.
	// Together with SourceID it forms the table's stable identity.
	Index int

	// Columns holds the named columns in their original order.
	Columns []RawColumn
}

// RowCount returns the number of rows, i.e. the longest column length.
func (t RawTable) RowCount() int {
	n := 0
	for _, c := range t.Columns {
		if len(c.Values) > n {
			n = len(c.Values)
		}
	}
	return n
}

// Row assembles the i-th row across all columns. Columns shorter than i
// contribute null.
func (t RawTable) Row(i int) Row {
	row := make(Row, len(t.Columns))
	for _, c := range t.Columns {
		if i < len(c.Values) {
			row[c.Name] = c.Values[i]
		} else {
			row[c.Name] = NullValue()
		}
	}
	return row
}

// Schema is the canonical typed description of one extracted table.
// Immutable after ingestion except for Description, which is set exactly
// once after successful generation.
type Schema struct {
	// TableID is the stable identifier derived from source and position.
	TableID string

	// SourceID identifies the originating document.
	SourceID string

	// TableIndex is the 1-based position of the table within the source.
	TableIndex int

	// ColumnNames preserves the original column order. Positional row data
	// maps back to named columns through this sequence.
	ColumnNames []string

	// ColumnTypes maps each column to its inferred type.
	ColumnTypes map[string]ColumnType

	// RowCount is the number of data rows.
	RowCount int

	// SampleRows holds a few representative row snapshots.
	SampleRows []Row

	// AllNullColumns lists columns whose sampled values were all null.
	// Such columns are typed string.
	AllNullColumns []string

	// Description is the generated natural-language description,
	// nil until generation succeeds.
	Description *string

	// SessionID links to the ingestion session that stored this table.
	SessionID string

	// CreatedAt is when the table was stored.
	CreatedAt time.Time
}

// TableID derives the stable table identifier for a source and position.
func TableID(sourceID string, index int) string {
	return fmt.Sprintf("%s_table_%d", sourceID, index)
}

// Validate checks the schema's structural invariants.
func (s Schema) Validate() error {
	if s.TableID == "" {
		return fmt.Errorf("%w: empty table id", ErrInvalidInput)
	}
	if len(s.ColumnNames) != len(s.ColumnTypes) {
		return fmt.Errorf("%w: %d column names but %d column types",
			ErrInvalidInput, len(s.ColumnNames), len(s.ColumnTypes))
	}
	seen := make(map[string]bool, len(s.ColumnNames))
	for _, name := range s.ColumnNames {
		if seen[name] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidInput, name)
		}
		seen[name] = true
		if _, ok := s.ColumnTypes[name]; !ok {
			return fmt.Errorf("%w: no type for column %q", ErrInvalidInput, name)
		}
	}
	return nil
}

// SchemaFilter narrows ListSchemas results.
type SchemaFilter struct {
	// SourceID restricts results to one source when non-empty.
	SourceID string
}
