package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileName = "terrashade.yaml"

// UserPath is where Save writes and where Load looks after ./terrashade.yaml.
func UserPath() string {
	return filepath.Join(ConfigDir(), fileName)
}

// Save writes the config to UserPath.
func (c *Config) Save() error {
	return c.SaveTo(UserPath())
}

// SaveTo writes the config as YAML, creating parent directories.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
