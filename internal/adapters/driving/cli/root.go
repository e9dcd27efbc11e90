// Package cli provides the cobra command tree for the Tabula CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/tabula-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/tabula-cli/internal/adapters/driven/llm"
	"github.com/custodia-labs/tabula-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driving"
	"github.com/custodia-labs/tabula-cli/internal/core/services"
	"github.com/custodia-labs/tabula-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "tabula",
	Short: "Query extracted tables in natural language",
	Long: `Tabula ingests extracted tables, infers a typed schema for each,
and answers natural-language questions about the stored data by
synthesising and executing read-only SQL.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

// Shared application state, built lazily by initServices.
var (
	appSettings    *domain.Settings
	settingsStore  driven.SettingsStore
	tableStore     driven.TableStore
	llmService     driven.LLMService
	ingestService  driving.IngestService
	queryService   driving.QueryService
	catalogService driving.CatalogService

	servicesReady bool
)

// initServices wires the driven adapters and core services. It is
// idempotent so every command can call it up front.
func initServices() error {
	if servicesReady {
		return nil
	}

	var err error
	settingsStore, err = configfile.NewSettingsStore("")
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}

	appSettings, err = settingsStore.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	store, err := sqlite.NewStore(appSettings.DataDir)
	if err != nil {
		return fmt.Errorf("open table store: %w", err)
	}
	tableStore = store

	// An unconfigured LLM leaves llmService nil; commands that need it
	// report that explicitly.
	llmService, err = llm.CreateService(&appSettings.LLM)
	if err != nil {
		logger.Warn("LLM unavailable: %v", err)
		llmService = nil
	}

	inferOpts := services.InferOptions{
		SampleLimit:    appSettings.InferenceSampleLimit,
		SampleRowCount: appSettings.SampleRowCount,
	}

	var describer *services.Describer
	if llmService != nil {
		describer = services.NewDescriber(llmService)
	}
	ingestService = services.NewIngestService(tableStore, describer, inferOpts)
	catalogService = services.NewCatalogService(tableStore)

	if llmService != nil {
		analyzer := services.NewAnalyzer(llmService)
		synthesizer := services.NewSynthesizer(llmService, tableStore, appSettings.MaxSynthesisAttempts)
		executor := services.NewExecutor(tableStore)
		queryService = services.NewQueryService(tableStore, analyzer, synthesizer, executor)
	}

	servicesReady = true
	return nil
}

// closeServices releases adapter resources.
func closeServices() {
	if llmService != nil {
		llmService.Close() //nolint:errcheck
	}
	if tableStore != nil {
		tableStore.Close() //nolint:errcheck
	}
}

// Execute runs the root command.
func Execute() {
	defer closeServices()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}
