package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings is the persisted configuration. Zero values mean "use the
// built-in default", so a hand-edited partial file stays valid.
type Settings struct {
	// ManagerPath is the console binary; empty triggers autodetection.
	ManagerPath string `json:"manager_path,omitempty"`

	// ManagerConfigDir is watched for instance changes; empty disables
	// the rebind watcher.
	ManagerConfigDir string `json:"manager_config_dir,omitempty"`

	OperationMode string `json:"operation_mode,omitempty"`
	ExecutionMode string `json:"execution_mode,omitempty"`
	TextInputMode string `json:"text_input_mode,omitempty"`

	LogLevel  string `json:"log_level,omitempty"`
	LogToFile bool   `json:"log_to_file,omitempty"`
}

// SettingsStore loads and saves Settings as JSON in the per-user config
// directory. Writes go through a temp file and rename so a crash cannot
// leave a torn config behind.
type SettingsStore struct {
	mu   sync.Mutex
	path string
	cur  Settings
}

// AppConfigDir returns the per-user config directory, created on demand.
func AppConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("no user config dir: %w", err)
	}
	dir := filepath.Join(base, "Marionette")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

func NewSettingsStore() (*SettingsStore, error) {
	dir, err := AppConfigDir()
	if err != nil {
		return nil, err
	}
	return NewSettingsStoreAt(filepath.Join(dir, "settings.json")), nil
}

func NewSettingsStoreAt(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// Load reads settings from disk. A missing file is not an error, it just
// yields defaults; a corrupt file is reported and defaults are used.
func (s *SettingsStore) Load() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			LogWarn("settings").Str("path", s.path).Err(err).Msg("settings unreadable, using defaults")
		}
		s.cur = Settings{}
		return s.cur
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		LogWarn("settings").Str("path", s.path).Err(err).Msg("settings corrupt, using defaults")
		s.cur = Settings{}
		return s.cur
	}
	s.cur = loaded
	return s.cur
}

// Save persists settings atomically.
func (s *SettingsStore) Save(cfg Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace settings: %w", err)
	}
	s.cur = cfg
	return nil
}

// Current returns the last loaded or saved settings.
func (s *SettingsStore) Current() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

func parseLogLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LogLevelDebug
	case "warn":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}
