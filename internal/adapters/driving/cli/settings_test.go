package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc",
			expected: "****",
		},
		{
			name:     "Exactly 4 chars",
			input:    "1234",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "****cdef",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsCmd_Structure(t *testing.T) {
	assert.Equal(t, "settings", settingsCmd.Use)

	names := make([]string, 0)
	for _, sub := range settingsCmd.Commands() {
		names = append(names, sub.Use)
	}
	assert.Contains(t, names, "show")
	assert.Contains(t, names, "set")
	assert.Contains(t, names, "test")
}
