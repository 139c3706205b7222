package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

// SettingsStore owns the runtime settings. Readers get a consistent snapshot
// without locking; writers are serialised and replace the whole value.
type SettingsStore struct {
	path string
	mu   sync.Mutex
	cur  atomic.Pointer[domain.Settings]
}

// LoadSettings reads persisted settings over defaults. A missing file keeps the defaults.
// An empty path keeps settings in memory only.
func LoadSettings(path string, defaults domain.Settings) (*SettingsStore, error) {
	s := &SettingsStore{path: path}
	settings := defaults

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read settings: %w", err)
		default:
			if err := yaml.Unmarshal(data, &settings); err != nil {
				return nil, fmt.Errorf("failed to parse settings: %w", err)
			}
		}
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	s.cur.Store(&settings)
	return s, nil
}

// Get returns the current settings
func (s *SettingsStore) Get() domain.Settings {
	return *s.cur.Load()
}

// Update applies fn to a copy, validates and persists it, then swaps it in.
// On any error the current settings are unchanged.
func (s *SettingsStore) Update(fn func(*domain.Settings)) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.cur.Load()
	fn(&next)
	if err := next.Validate(); err != nil {
		return s.Get(), err
	}
	if err := s.persist(next); err != nil {
		return s.Get(), err
	}
	s.cur.Store(&next)
	return next, nil
}

// persist writes settings via a temp file and rename
func (s *SettingsStore) persist(settings domain.Settings) error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}
