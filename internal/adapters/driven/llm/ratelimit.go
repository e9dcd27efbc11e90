// Package llm provides factory and decorator adapters for LLM services.
package llm

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
)

// Ensure RateLimitedService implements the interface.
var _ driven.LLMService = (*RateLimitedService)(nil)

// RateLimitedService wraps an LLM service with proactive client-side
// throttling. Every Generate call waits on the token bucket before the
// request goes out, so a long synthesis retry loop cannot hammer the
// provider.
type RateLimitedService struct {
	inner   driven.LLMService
	limiter *rate.Limiter
}

// NewRateLimitedService decorates svc with a token bucket allowing
// requestsPerSecond sustained throughput and a burst of one. A rate of
// zero or less returns svc unchanged.
func NewRateLimitedService(svc driven.LLMService, requestsPerSecond float64) driven.LLMService {
	if requestsPerSecond <= 0 {
		return svc
	}
	return &RateLimitedService{
		inner:   svc,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Generate waits for the limiter, then delegates.
func (s *RateLimitedService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return s.inner.Generate(ctx, prompt, opts)
}

// ModelName returns the wrapped service's model name.
func (s *RateLimitedService) ModelName() string {
	return s.inner.ModelName()
}

// Ping delegates without consuming a token; connectivity checks are not
// inference requests.
func (s *RateLimitedService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close releases the wrapped service's resources.
func (s *RateLimitedService) Close() error {
	return s.inner.Close()
}
