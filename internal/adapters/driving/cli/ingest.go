package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tabula-cli/internal/adapters/driven/extract/csvfile"
	"github.com/custodia-labs/tabula-cli/internal/adapters/driven/extract/jsonfile"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driving"
)

var (
	ingestForce  bool
	ingestFormat string
	ingestSource string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest extracted tables from a file",
	Long: `Reads extracted tables from a JSON or CSV file, infers a typed schema
for each table, and stores schema and rows for querying.

Re-ingesting a source skips tables already stored unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "replace tables already stored for this source")
	ingestCmd.Flags().StringVar(&ingestFormat, "format", "", "input format: json or csv (default: by file extension)")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "override the source ID (default: derived from the file)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	extractor, err := extractorFor(path, ingestFormat)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sourceID, tables, err := extractor.Extract(ctx, path)
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}
	if ingestSource != "" {
		sourceID = ingestSource
		for i := range tables {
			tables[i].SourceID = sourceID
		}
	}

	if len(tables) == 0 {
		cmd.Println("No tables found in input.")
		return nil
	}

	report, err := ingestService.Ingest(ctx, sourceID, tables, driving.IngestOptions{
		ForceReplace: ingestForce,
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Source %s: %d tables attempted, %d stored, %d skipped.\n",
		report.SourceID, report.TablesAttempted, report.TablesSucceeded, report.TablesSkipped)
	for _, id := range report.TableIDs {
		cmd.Printf("  stored %s\n", id)
	}
	return nil
}

// extractorFor picks the extractor by explicit format or file extension.
func extractorFor(path, format string) (driven.TableExtractor, error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}

	switch strings.ToLower(format) {
	case "json":
		return jsonfile.NewExtractor(), nil
	case "csv":
		return csvfile.NewExtractor(), nil
	default:
		return nil, fmt.Errorf("unsupported input format %q (expected json or csv)", format)
	}
}
