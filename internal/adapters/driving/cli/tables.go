package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
)

var tablesSource string

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List stored tables",
	Long:  `Lists the stored schema catalog. Use subcommands for details.`,
	RunE:  runTablesList,
}

var tablesShowCmd = &cobra.Command{
	Use:   "show [table-id]",
	Short: "Show one table's schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runTablesShow,
}

var tablesSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a store overview",
	RunE:  runTablesSummary,
}

func init() {
	tablesCmd.Flags().StringVar(&tablesSource, "source", "", "only list tables from this source")
	tablesCmd.AddCommand(tablesShowCmd)
	tablesCmd.AddCommand(tablesSummaryCmd)
	rootCmd.AddCommand(tablesCmd)
}

func runTablesList(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	schemas, err := catalogService.ListTables(cmd.Context(), domain.SchemaFilter{SourceID: tablesSource})
	if err != nil {
		return fmt.Errorf("list tables failed: %w", err)
	}

	if len(schemas) == 0 {
		cmd.Println("No tables stored. Run 'tabula ingest' first.")
		return nil
	}

	for i := range schemas {
		cmd.Printf("  %s  (%d rows, %d columns)\n",
			schemas[i].TableID, schemas[i].RowCount, len(schemas[i].ColumnNames))
		if schemas[i].Description != nil {
			cmd.Printf("      %s\n", *schemas[i].Description)
		}
	}
	return nil
}

func runTablesShow(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	schema, err := catalogService.GetTable(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("table %s not found", args[0])
		}
		return fmt.Errorf("get table failed: %w", err)
	}

	cmd.Printf("Table: %s\n", schema.TableID)
	cmd.Printf("Source: %s (table %d)\n", schema.SourceID, schema.TableIndex)
	cmd.Printf("Rows: %d\n", schema.RowCount)
	if schema.Description != nil {
		cmd.Printf("Description: %s\n", *schema.Description)
	}
	cmd.Println("Columns:")
	for _, name := range schema.ColumnNames {
		cmd.Printf("  %-24s %s\n", name, schema.ColumnTypes[name])
	}
	if len(schema.AllNullColumns) > 0 {
		cmd.Printf("All-null columns: %s\n", strings.Join(schema.AllNullColumns, ", "))
	}
	if len(schema.SampleRows) > 0 {
		cmd.Println("Sample rows:")
		for _, row := range schema.SampleRows {
			cells := make([]string, len(schema.ColumnNames))
			for i, col := range schema.ColumnNames {
				cells[i] = row[col].String()
			}
			cmd.Printf("  %s\n", strings.Join(cells, " | "))
		}
	}
	return nil
}

func runTablesSummary(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	summary, err := catalogService.Summary(cmd.Context())
	if err != nil {
		return fmt.Errorf("summary failed: %w", err)
	}

	cmd.Printf("Tables:  %d\n", summary.TotalTables)
	cmd.Printf("Rows:    %d\n", summary.TotalRows)
	cmd.Printf("Sources: %d\n", summary.UniqueSources)
	if len(summary.RecentSessions) > 0 {
		cmd.Println("Recent sessions:")
		for _, s := range summary.RecentSessions {
			cmd.Printf("  %s  %s  %d/%d tables\n",
				s.CreatedAt.Format("2006-01-02 15:04"), s.SourceID, s.TablesSucceeded, s.TablesAttempted)
		}
	}
	return nil
}
