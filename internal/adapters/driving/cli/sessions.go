package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent ingestion sessions",
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "maximum number of sessions")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	sessions, err := catalogService.Sessions(cmd.Context(), sessionsLimit)
	if err != nil {
		return fmt.Errorf("list sessions failed: %w", err)
	}

	if len(sessions) == 0 {
		cmd.Println("No ingestion sessions recorded.")
		return nil
	}

	for _, s := range sessions {
		cmd.Printf("  %s  %s  %s  %d/%d tables\n",
			s.CreatedAt.Format("2006-01-02 15:04"), s.ID, s.SourceID, s.TablesSucceeded, s.TablesAttempted)
	}
	return nil
}
