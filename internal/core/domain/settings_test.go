package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestLLMProvider_IsValid tests all valid and invalid providers
func TestLLMProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider LLMProvider
		expected bool
	}{
		{
			name:     "ollama is valid",
			provider: LLMProviderOllama,
			expected: true,
		},
		{
			name:     "openai is valid",
			provider: LLMProviderOpenAI,
			expected: true,
		},
		{
			name:     "anthropic is valid",
			provider: LLMProviderAnthropic,
			expected: true,
		},
		{
			name:     "empty string is invalid",
			provider: LLMProvider(""),
			expected: false,
		},
		{
			name:     "unknown provider is invalid",
			provider: LLMProvider("bedrock"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestLLMProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, LLMProviderOllama.RequiresAPIKey())
	assert.True(t, LLMProviderOpenAI.RequiresAPIKey())
	assert.True(t, LLMProviderAnthropic.RequiresAPIKey())
}

func TestLLMProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", LLMProviderOllama.Description())
	assert.Equal(t, "OpenAI (cloud)", LLMProviderOpenAI.Description())
	assert.Equal(t, "Anthropic (cloud)", LLMProviderAnthropic.Description())
	assert.Equal(t, "Unknown", LLMProvider("bedrock").Description())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings *LLMSettings
		expected bool
	}{
		{
			name:     "nil settings",
			settings: nil,
			expected: false,
		},
		{
			name:     "no provider",
			settings: &LLMSettings{},
			expected: false,
		},
		{
			name:     "ollama without key",
			settings: &LLMSettings{Provider: LLMProviderOllama},
			expected: true,
		},
		{
			name:     "openai without key",
			settings: &LLMSettings{Provider: LLMProviderOpenAI},
			expected: false,
		},
		{
			name:     "openai with key",
			settings: &LLMSettings{Provider: LLMProviderOpenAI, APIKey: "sk-test"},
			expected: true,
		},
		{
			name:     "anthropic with key",
			settings: &LLMSettings{Provider: LLMProviderAnthropic, APIKey: "sk-ant"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestLLMSettings_Timeout(t *testing.T) {
	var nilSettings *LLMSettings
	assert.Equal(t, 120*time.Second, nilSettings.Timeout())
	assert.Equal(t, 120*time.Second, (&LLMSettings{}).Timeout())
	assert.Equal(t, 30*time.Second, (&LLMSettings{TimeoutSeconds: 30}).Timeout())
}

func TestSettings_ApplyDefaults(t *testing.T) {
	s := &Settings{}
	s.ApplyDefaults()

	assert.Equal(t, DefaultMaxSynthesisAttempts, s.MaxSynthesisAttempts)
	assert.Equal(t, DefaultInferenceSampleLimit, s.InferenceSampleLimit)
	assert.Equal(t, DefaultSampleRowCount, s.SampleRowCount)
	assert.Equal(t, 120, s.LLM.TimeoutSeconds)
}

func TestSettings_ApplyDefaults_KeepsExplicitValues(t *testing.T) {
	s := &Settings{
		MaxSynthesisAttempts: 2,
		InferenceSampleLimit: 50,
		SampleRowCount:       1,
		LLM:                  LLMSettings{TimeoutSeconds: 10},
	}
	s.ApplyDefaults()

	assert.Equal(t, 2, s.MaxSynthesisAttempts)
	assert.Equal(t, 50, s.InferenceSampleLimit)
	assert.Equal(t, 1, s.SampleRowCount)
	assert.Equal(t, 10, s.LLM.TimeoutSeconds)
}
