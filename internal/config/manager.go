package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manager loads and saves the yaml config file
type Manager struct {
	configFilePath string
}

// NewManager creates a Manager for the config file at configFilePath
func NewManager(configFilePath string) *Manager {
	return &Manager{configFilePath: configFilePath}
}

// Path returns the config file location
func (m *Manager) Path() string {
	return m.configFilePath
}

// LoadConfig loads the existing configuration or creates and loads default config if not found.
// Values missing from the file keep their defaults.
func (m *Manager) LoadConfig() (Config, error) {
	defaultConfig := Config{}.Default()

	if m.configFilePath == "" {
		return defaultConfig, fmt.Errorf("config file path not set")
	}

	if !m.configFileExists() {
		if err := m.SaveConfig(defaultConfig); err != nil {
			return Config{}, fmt.Errorf("failed to save default config: %w", err)
		}
		return defaultConfig, nil
	}

	configFile, err := os.ReadFile(m.configFilePath)
	if err != nil {
		return defaultConfig, fmt.Errorf("failed to read config file: %w", err)
	}

	if len(configFile) == 0 {
		if err := m.SaveConfig(defaultConfig); err != nil {
			return Config{}, fmt.Errorf("failed to save default config to empty file: %w", err)
		}
		return defaultConfig, nil
	}

	cfg := defaultConfig
	if err := yaml.Unmarshal(configFile, &cfg); err != nil {
		return defaultConfig, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func (m *Manager) SaveConfig(cfg Config) error {
	if m.configFilePath == "" {
		return fmt.Errorf("config file path not set")
	}

	yamlData, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configFilePath, yamlData, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigExists reports whether a non-empty config file is present
func (m *Manager) ConfigExists() bool {
	info, err := os.Stat(m.configFilePath)
	return err == nil && info.Size() > 0
}

func (m *Manager) configFileExists() bool {
	_, err := os.Stat(m.configFilePath)
	return !os.IsNotExist(err)
}
