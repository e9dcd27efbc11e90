package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from stored table data",
	Long: `Runs the full question pipeline: feasibility analysis against the
stored schema catalog, SQL synthesis with validation and retries, then
read-only execution.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [question]",
	Short: "Judge whether a question is answerable",
	Long: `Judges answerability against the stored schema catalog without
synthesising or executing a query.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if queryService == nil {
		return errors.New("no LLM provider configured; run 'tabula settings set' first")
	}

	answer, err := queryService.Ask(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	return outputAnswerText(cmd, answer)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if queryService == nil {
		return errors.New("no LLM provider configured; run 'tabula settings set' first")
	}

	verdict, err := queryService.Analyze(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	printVerdict(cmd, verdict)
	return nil
}

func printVerdict(cmd *cobra.Command, verdict domain.Verdict) {
	if verdict.Fulfillable {
		cmd.Printf("Answerable (confidence %.2f)\n", verdict.Confidence)
	} else {
		cmd.Printf("Not answerable (confidence %.2f)\n", verdict.Confidence)
	}
	if verdict.Reasoning != "" {
		cmd.Printf("  %s\n", verdict.Reasoning)
	}
	if len(verdict.RelevantTables) > 0 {
		cmd.Printf("  Relevant tables: %s\n", strings.Join(verdict.RelevantTables, ", "))
	}
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) error {
	printVerdict(cmd, answer.Verdict)
	if !answer.Verdict.Fulfillable {
		return nil
	}

	cmd.Println()
	cmd.Printf("SQL (%d attempt(s)): %s\n", answer.Attempts, answer.SQL)
	cmd.Println()

	if len(answer.Result.Rows) == 0 {
		cmd.Println("No rows returned.")
		return nil
	}

	cmd.Println(strings.Join(answer.Result.Columns, " | "))
	for _, row := range answer.Result.Rows {
		cells := make([]string, len(answer.Result.Columns))
		for i, col := range answer.Result.Columns {
			cells[i] = row[col].String()
		}
		cmd.Println(strings.Join(cells, " | "))
	}
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	rows := make([]map[string]any, 0, len(answer.Result.Rows))
	for _, row := range answer.Result.Rows {
		out := make(map[string]any, len(row))
		for col, val := range row {
			out[col] = val.Native()
		}
		rows = append(rows, out)
	}

	payload := map[string]any{
		"question":    answer.Question,
		"fulfillable": answer.Verdict.Fulfillable,
		"confidence":  answer.Verdict.Confidence,
		"reasoning":   answer.Verdict.Reasoning,
		"sql":         answer.SQL,
		"attempts":    answer.Attempts,
		"columns":     answer.Result.Columns,
		"rows":        rows,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
