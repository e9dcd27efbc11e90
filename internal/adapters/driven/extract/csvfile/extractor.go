// Package csvfile provides a TableExtractor that reads a single table
// from a CSV file. The first record is the header; every cell arrives as
// a string and is typed downstream during inference.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TableExtractor = (*Extractor)(nil)

// Extractor reads one raw table from a CSV file.
type Extractor struct{}

// NewExtractor creates a CSV file extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path as one table. The source ID is the file
// name without extension.
func (e *Extractor) Extract(ctx context.Context, path string) (string, []domain.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows become short columns

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return "", nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, path)
		}
		return "", nil, fmt.Errorf("%w: read header of %s: %v", domain.ErrInvalidInput, path, err)
	}

	columns := make([]domain.RawColumn, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return "", nil, fmt.Errorf("%w: empty column name at position %d in %s", domain.ErrInvalidInput, i+1, path)
		}
		columns[i] = domain.RawColumn{Name: name}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidInput, path, err)
		}
		for i := range columns {
			if i < len(record) {
				columns[i].Values = append(columns[i].Values, domain.StringValue(record[i]))
			} else {
				columns[i].Values = append(columns[i].Values, domain.NullValue())
			}
		}
	}

	sourceID := sourceIDFromPath(path)
	table := domain.RawTable{SourceID: sourceID, Index: 1, Columns: columns}
	return sourceID, []domain.RawTable{table}, nil
}

func sourceIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
