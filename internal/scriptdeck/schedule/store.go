package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SafeName turns a script name into the filesystem- and scheduler-friendly
// key shared by the store, the wrapper generator and the task registrar.
func SafeName(name string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_")
	return replacer.Replace(name)
}

// Store persists one schedule config per script as JSON under its directory.
// It assumes a single writer (one interactive session); there is no locking.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the config file location for a script name
func (s *Store) Path(scriptName string) string {
	return filepath.Join(s.dir, SafeName(scriptName)+".json")
}

// Load reads the schedule of a script. The second return value reports
// whether a schedule exists.
func (s *Store) Load(scriptName string) (*Config, bool, error) {
	data, err := os.ReadFile(s.Path(scriptName)) //nolint:gosec // G304: path derives from configured schedules dir
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read schedule: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, false, fmt.Errorf("failed to parse schedule: %w", err)
	}
	return &cfg, true, nil
}

// Save validates and writes the full config, overwriting any previous one.
// A config with zero triggers is rejected; removing a schedule entirely is
// Delete's job, an empty-but-enabled document must never be stored.
func (s *Store) Save(scriptName string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create schedules directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}
	if err := os.WriteFile(s.Path(scriptName), data, 0600); err != nil {
		return fmt.Errorf("failed to write schedule: %w", err)
	}
	return nil
}

// Delete removes the stored schedule; a missing file is not an error
func (s *Store) Delete(scriptName string) error {
	err := os.Remove(s.Path(scriptName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}
