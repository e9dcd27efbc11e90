// Package file provides a TOML-backed implementation of the SettingsStore port.
//
// Settings live in a single config.toml inside the tabula config directory
// (default ~/.tabula). The file is written with restricted permissions since
// it can hold an API key.
package file

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/tabula-cli/internal/core/domain"
	"github.com/custodia-labs/tabula-cli/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore is a file-based implementation of driven.SettingsStore using TOML.
type SettingsStore struct {
	mu       sync.Mutex
	filePath string
}

// NewSettingsStore creates a TOML-backed settings store.
// If configDir is empty, defaults to ~/.tabula/config.toml.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".tabula")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &SettingsStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Load reads settings from disk. A missing file yields defaults rather
// than an error so first runs work without prior configuration.
func (s *SettingsStore) Load() (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := &domain.Settings{}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			settings.ApplyDefaults()
			return settings, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	settings.ApplyDefaults()
	return settings, nil
}

// Save persists settings to disk.
func (s *SettingsStore) Save(settings *domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(settings)
	if err != nil {
		return err
	}

	// Write with restricted permissions; the file may contain an API key.
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}
