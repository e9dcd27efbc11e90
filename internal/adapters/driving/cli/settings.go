package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tabula-cli/internal/adapters/driven/llm"
	"github.com/custodia-labs/tabula-cli/internal/core/domain"
)

var (
	settingsProvider string
	settingsModel    string
	settingsAPIKey   string
	settingsBaseURL  string
	settingsRPS      float64
	settingsAttempts int
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the LLM provider and query options.

Use subcommands to change or test specific settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set LLM provider and query options",
	Long: `Set the LLM provider used for table description, feasibility
analysis, and SQL synthesis.

Available providers:
  ollama    - local Ollama server (no API key required)
  openai    - OpenAI API (requires an API key)
  anthropic - Anthropic API (requires an API key)`,
	RunE: runSettingsSet,
}

var settingsTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Test LLM provider connectivity",
	RunE:  runSettingsTest,
}

func init() {
	settingsSetCmd.Flags().StringVar(&settingsProvider, "provider", "", "LLM provider (ollama, openai or anthropic)")
	settingsSetCmd.Flags().StringVar(&settingsModel, "model", "", "LLM model name")
	settingsSetCmd.Flags().StringVar(&settingsAPIKey, "api-key", "", "API key for hosted providers")
	settingsSetCmd.Flags().StringVar(&settingsBaseURL, "base-url", "", "API base URL override")
	settingsSetCmd.Flags().Float64Var(&settingsRPS, "rps", 0, "client-side request rate limit (requests per second)")
	settingsSetCmd.Flags().IntVar(&settingsAttempts, "max-attempts", 0, "maximum SQL synthesis attempts")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsTestCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", appSettings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", appSettings.LLM.Model)
	if appSettings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", appSettings.LLM.BaseURL)
	}
	if appSettings.LLM.Provider.RequiresAPIKey() {
		if appSettings.LLM.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(appSettings.LLM.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if appSettings.LLM.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %.1f req/s\n", appSettings.LLM.RequestsPerSecond)
	}
	status := "configured"
	if !appSettings.LLM.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Query]")
	cmd.Printf("  Max synthesis attempts: %d\n", appSettings.MaxSynthesisAttempts)
	cmd.Printf("  Inference sample limit: %d\n", appSettings.InferenceSampleLimit)
	cmd.Println()

	cmd.Printf("Config file: %s\n", settingsStore.Path())
	return nil
}

func runSettingsSet(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	if settingsProvider != "" {
		provider := domain.LLMProvider(settingsProvider)
		if !provider.IsValid() {
			return fmt.Errorf("unknown provider %q (expected ollama, openai or anthropic)", settingsProvider)
		}
		appSettings.LLM.Provider = provider
	}
	if settingsModel != "" {
		appSettings.LLM.Model = settingsModel
	}
	if settingsAPIKey != "" {
		appSettings.LLM.APIKey = settingsAPIKey
	}
	if settingsBaseURL != "" {
		appSettings.LLM.BaseURL = settingsBaseURL
	}
	if settingsRPS > 0 {
		appSettings.LLM.RequestsPerSecond = settingsRPS
	}
	if settingsAttempts > 0 {
		appSettings.MaxSynthesisAttempts = settingsAttempts
	}

	if err := settingsStore.Save(appSettings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Settings saved.")
	return nil
}

func runSettingsTest(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	if !appSettings.LLM.IsConfigured() {
		return fmt.Errorf("no LLM provider configured; run 'tabula settings set' first")
	}

	svc, err := llm.CreateAndValidateService(&appSettings.LLM)
	if err != nil {
		return fmt.Errorf("LLM connectivity test failed: %w", err)
	}
	defer svc.Close()

	cmd.Printf("%s is reachable (model %s).\n", appSettings.LLM.Provider.Description(), svc.ModelName())
	return nil
}

// maskAPIKey hides all but the last four characters of a key.
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
