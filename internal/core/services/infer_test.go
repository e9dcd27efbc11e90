package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
)

// --- Test helpers ---

func stringColumn(name string, values ...string) domain.RawColumn {
	col := domain.RawColumn{Name: name}
	for _, v := range values {
		col.Values = append(col.Values, domain.StringValue(v))
	}
	return col
}

func rawTable(columns ...domain.RawColumn) domain.RawTable {
	return domain.RawTable{SourceID: "doc-1", Index: 1, Columns: columns}
}

// --- Tests ---

func TestInferSchema_TableID(t *testing.T) {
	schema := InferSchema(rawTable(stringColumn("Name", "Ann")), InferOptions{})

	assert.Equal(t, "doc-1_table_1", schema.TableID)
	assert.Equal(t, "doc-1", schema.SourceID)
	assert.Equal(t, 1, schema.TableIndex)
}

func TestInferSchema_ColumnTypes(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   domain.ColumnType
	}{
		{"integers", []string{"1", "42", "-7"}, domain.TypeInteger},
		{"floats", []string{"1.5", "2.25"}, domain.TypeFloat},
		{"mixed numeric broadens to float", []string{"1", "2.5"}, domain.TypeFloat},
		{"booleans", []string{"true", "no", "Yes", "off"}, domain.TypeBoolean},
		{"numeric literals are not boolean", []string{"1", "0"}, domain.TypeInteger},
		{"iso dates", []string{"2024-01-15", "2023-12-01"}, domain.TypeDate},
		{"mixed date formats", []string{"2024-01-15", "Jan 2, 2006"}, domain.TypeDate},
		{"text", []string{"Ann", "Bob"}, domain.TypeString},
		{"numeric with stray text broadens to string", []string{"1", "2", "n/a"}, domain.TypeString},
		{"nulls are skipped", []string{"", "5", "-", "9"}, domain.TypeInteger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := InferSchema(rawTable(stringColumn("col", tt.values...)), InferOptions{})
			assert.Equal(t, tt.want, schema.ColumnTypes["col"])
		})
	}
}

func TestInferSchema_AllNullColumn(t *testing.T) {
	schema := InferSchema(rawTable(
		stringColumn("Empty", "", "-", "  "),
		stringColumn("Name", "Ann", "Bob", "Cid"),
	), InferOptions{})

	assert.Equal(t, domain.TypeString, schema.ColumnTypes["Empty"])
	assert.Equal(t, []string{"Empty"}, schema.AllNullColumns)
	assert.Equal(t, domain.TypeString, schema.ColumnTypes["Name"])
}

func TestInferSchema_PreservesColumnOrder(t *testing.T) {
	schema := InferSchema(rawTable(
		stringColumn("C", "1"),
		stringColumn("A", "2"),
		stringColumn("B", "3"),
	), InferOptions{})

	assert.Equal(t, []string{"C", "A", "B"}, schema.ColumnNames)
}

func TestInferSchema_SampleLimitBoundsInspection(t *testing.T) {
	// The anomaly sits past the sample limit, so the column stays integer.
	values := make([]string, 0, 11)
	for i := 0; i < 10; i++ {
		values = append(values, "1")
	}
	values = append(values, "not a number")

	schema := InferSchema(rawTable(stringColumn("col", values...)), InferOptions{SampleLimit: 10})

	assert.Equal(t, domain.TypeInteger, schema.ColumnTypes["col"])
}

func TestInferSchema_SampleRows(t *testing.T) {
	schema := InferSchema(rawTable(
		stringColumn("Name", "Ann", "Bob", "Cid", "Dee"),
		stringColumn("Age", "30", "25", "41", "19"),
	), InferOptions{SampleRowCount: 2})

	require.Len(t, schema.SampleRows, 2)
	assert.Equal(t, 4, schema.RowCount)
	assert.Equal(t, domain.IntegerValue(30), schema.SampleRows[0]["Age"])
	assert.Equal(t, domain.StringValue("Ann"), schema.SampleRows[0]["Name"])
}

func TestInferSchema_RaggedColumns(t *testing.T) {
	schema := InferSchema(rawTable(
		stringColumn("Long", "a", "b", "c"),
		stringColumn("Short", "1"),
	), InferOptions{})

	require.Equal(t, 3, schema.RowCount)
	require.Len(t, schema.SampleRows, 3)
	assert.True(t, schema.SampleRows[2]["Short"].IsNull())
}

func TestInferSchema_TypedInputValues(t *testing.T) {
	raw := rawTable(domain.RawColumn{Name: "n", Values: []domain.Value{
		domain.IntegerValue(1),
		domain.IntegerValue(2),
	}})

	schema := InferSchema(raw, InferOptions{})
	assert.Equal(t, domain.TypeInteger, schema.ColumnTypes["n"])

	raw.Columns[0].Values = append(raw.Columns[0].Values, domain.FloatValue(2.5))
	schema = InferSchema(raw, InferOptions{})
	assert.Equal(t, domain.TypeFloat, schema.ColumnTypes["n"])
}

func TestCoerceRow(t *testing.T) {
	types := map[string]domain.ColumnType{
		"i": domain.TypeInteger,
		"f": domain.TypeFloat,
		"b": domain.TypeBoolean,
		"d": domain.TypeDate,
		"s": domain.TypeString,
	}
	row := domain.Row{
		"i": domain.StringValue("42"),
		"f": domain.StringValue("2.5"),
		"b": domain.StringValue("yes"),
		"d": domain.StringValue("2024-01-15"),
		"s": domain.StringValue("hello"),
	}

	out := CoerceRow(row, types)

	assert.Equal(t, domain.KindInteger, out["i"].Kind)
	assert.Equal(t, int64(42), out["i"].Int)
	assert.Equal(t, 2.5, out["f"].Float)
	assert.True(t, out["b"].Bool)
	assert.Equal(t, domain.KindDate, out["d"].Kind)
	assert.Equal(t, "hello", out["s"].Str)
}

func TestCoerceRow_AnomalousValueStaysString(t *testing.T) {
	types := map[string]domain.ColumnType{"i": domain.TypeInteger}
	row := domain.Row{"i": domain.StringValue("not a number")}

	out := CoerceRow(row, types)

	assert.Equal(t, domain.KindString, out["i"].Kind)
	assert.Equal(t, "not a number", out["i"].Str)
}

func TestCoerceRow_NullishBecomesNull(t *testing.T) {
	types := map[string]domain.ColumnType{"i": domain.TypeInteger}

	for _, s := range []string{"", "-", "   "} {
		out := CoerceRow(domain.Row{"i": domain.StringValue(s)}, types)
		assert.True(t, out["i"].IsNull(), "value %q should coerce to null", s)
	}
}
