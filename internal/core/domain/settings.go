package domain

import "time"

const unknownDescription = "Unknown"

// LLMProvider identifies a text-generation provider.
type LLMProvider string

// Available LLM providers.
const (
	// LLMProviderOllama is a local Ollama instance.
	LLMProviderOllama LLMProvider = "ollama"

	// LLMProviderOpenAI is the OpenAI cloud API.
	LLMProviderOpenAI LLMProvider = "openai"

	// LLMProviderAnthropic is the Anthropic cloud API.
	LLMProviderAnthropic LLMProvider = "anthropic"
)

// IsValid returns true if the provider is recognised.
func (p LLMProvider) IsValid() bool {
	switch p {
	case LLMProviderOllama, LLMProviderOpenAI, LLMProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p LLMProvider) RequiresAPIKey() bool {
	return p == LLMProviderOpenAI || p == LLMProviderAnthropic
}

// String returns the string representation.
func (p LLMProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p LLMProvider) Description() string {
	switch p {
	case LLMProviderOllama:
		return "Ollama (local)"
	case LLMProviderOpenAI:
		return "OpenAI (cloud)"
	case LLMProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds text-generation provider configuration.
type LLMSettings struct {
	// Provider selects the LLM backend.
	Provider LLMProvider `toml:"provider"`

	// Model is the model identifier, provider-specific.
	Model string `toml:"model"`

	// APIKey authenticates cloud providers. Unused for local ones.
	APIKey string `toml:"api_key"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `toml:"base_url"`

	// TimeoutSeconds bounds each generation request.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// RequestsPerSecond throttles generation calls. Zero disables
	// throttling.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// IsConfigured returns true when the settings name a usable provider.
func (s *LLMSettings) IsConfigured() bool {
	if s == nil || !s.Provider.IsValid() {
		return false
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// Timeout returns the request timeout as a duration.
func (s *LLMSettings) Timeout() time.Duration {
	if s == nil || s.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Defaults for pipeline tuning knobs.
const (
	// DefaultMaxSynthesisAttempts bounds the synthesis retry loop.
	DefaultMaxSynthesisAttempts = 5

	// DefaultInferenceSampleLimit bounds how many values per column type
	// inference inspects.
	DefaultInferenceSampleLimit = 200

	// DefaultSampleRowCount is how many representative rows a schema keeps.
	DefaultSampleRowCount = 5
)

// Settings is the full application configuration.
type Settings struct {
	// DataDir is where the SQLite database lives.
	// Empty means ~/.tabula/data.
	DataDir string `toml:"data_dir"`

	// LLM configures the text-generation capability.
	LLM LLMSettings `toml:"llm"`

	// MaxSynthesisAttempts bounds the query synthesis retry loop.
	MaxSynthesisAttempts int `toml:"max_synthesis_attempts"`

	// InferenceSampleLimit bounds per-column sampling during type inference.
	InferenceSampleLimit int `toml:"inference_sample_limit"`

	// SampleRowCount is how many sample rows each schema records.
	SampleRowCount int `toml:"sample_row_count"`
}

// ApplyDefaults fills zero fields with their defaults.
func (s *Settings) ApplyDefaults() {
	if s.MaxSynthesisAttempts <= 0 {
		s.MaxSynthesisAttempts = DefaultMaxSynthesisAttempts
	}
	if s.InferenceSampleLimit <= 0 {
		s.InferenceSampleLimit = DefaultInferenceSampleLimit
	}
	if s.SampleRowCount <= 0 {
		s.SampleRowCount = DefaultSampleRowCount
	}
	if s.LLM.TimeoutSeconds <= 0 {
		s.LLM.TimeoutSeconds = 120
	}
}
