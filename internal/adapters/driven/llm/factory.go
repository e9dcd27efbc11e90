package llm

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/tabula-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/tabula-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/tabula-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateService creates the appropriate LLM service based on settings.
// Returns nil if no provider is configured.
func CreateService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.LLMService
		err error
	)

	switch settings.Provider {
	case domain.LLMProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout(),
		})

	case domain.LLMProviderOpenAI:
		svc, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout(),
		})
		if err != nil {
			return nil, err
		}

	case domain.LLMProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout(),
		})
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}

	return NewRateLimitedService(svc, settings.RequestsPerSecond), nil
}

// CreateAndValidateService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'tabula settings set' to fix",
			domain.ErrLLMUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'tabula settings set' to fix",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}
