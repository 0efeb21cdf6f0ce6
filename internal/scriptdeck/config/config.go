// Package config loads the scriptdeck configuration file and resolves the
// directories the rest of the application works in. The loaded Config is
// passed explicitly to every component; there is no package-level state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFile is the default configuration file name
const ConfigFile = "config.yaml"

// SMTP holds the mail settings used for run report notifications
type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// Config represents the application configuration
type Config struct {
	ScriptsDir   string `yaml:"scripts_dir"`
	LogsDir      string `yaml:"logs_dir"`
	SchedulesDir string `yaml:"schedules_dir"`
	SMTP         *SMTP  `yaml:"smtp"`
}

// defaults mirrors the directories the app uses when no config file exists
func defaults() *Config {
	return &Config{
		ScriptsDir:   "scripts",
		LogsDir:      "logs",
		SchedulesDir: "schedules",
	}
}

// Load reads the configuration from path. An empty path searches the usual
// locations (./config.yaml, ./config/config.yaml); a missing file is not an
// error and yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		for _, candidate := range []string{ConfigFile, filepath.Join("config", ConfigFile)} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return defaults(), nil
	}

	cfg := defaults()
	if err := ParseYamlFromFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config load error: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ScriptsDir == "" {
		return fmt.Errorf("scripts_dir must not be empty")
	}
	if c.LogsDir == "" {
		return fmt.Errorf("logs_dir must not be empty")
	}
	if c.SchedulesDir == "" {
		return fmt.Errorf("schedules_dir must not be empty")
	}
	return nil
}

// WrappersDir returns the directory generated wrapper launchers live in
func (c *Config) WrappersDir() string {
	return filepath.Join(c.SchedulesDir, "wrappers")
}

// TempDir returns the directory temporary task definition files live in
func (c *Config) TempDir() string {
	return filepath.Join(c.SchedulesDir, "temp")
}

// HistoryPath returns the path of the run history database
func (c *Config) HistoryPath() string {
	return filepath.Join(c.SchedulesDir, "history.db")
}
