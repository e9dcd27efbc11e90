package driven

import "github.com/custodia-labs/tabula-cli/internal/core/domain"

// SettingsStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files).
type SettingsStore interface {
	// Load reads the settings from storage. A missing file yields the
	// defaults, not an error.
	Load() (*domain.Settings, error)

	// Save persists the settings to storage.
	Save(settings *domain.Settings) error

	// Path returns the configuration file path.
	Path() string
}
