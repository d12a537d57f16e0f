package initializer

import (
	"github.com/shaharia-lab/cypherchat/internal/config"
	"github.com/stretchr/testify/mock"
)

// MockConfigManager implements the ConfigManager interface for testing
type MockConfigManager struct {
	mock.Mock
	ConfigSaved config.Config
}

func (m *MockConfigManager) LoadConfig() (config.Config, error) {
	args := m.Called()
	return args.Get(0).(config.Config), args.Error(1)
}

func (m *MockConfigManager) SaveConfig(cfg config.Config) error {
	args := m.Called(cfg)
	m.ConfigSaved = cfg
	return args.Error(0)
}

func (m *MockConfigManager) ConfigExists() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockPrompter implements the Prompter interface for testing.
// Input answers are checked with the validator before they are returned.
type MockPrompter struct {
	mock.Mock
}

func (m *MockPrompter) Input(message, defaultValue string, validate Validator) (string, error) {
	args := m.Called(message, defaultValue)
	answer := args.String(0)
	if err := args.Error(1); err != nil {
		return "", err
	}
	if validate != nil {
		if err := validate(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

func (m *MockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	args := m.Called(message, defaultValue)
	return args.Bool(0), args.Error(1)
}

func (m *MockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	args := m.Called(message, options, defaultValue)
	return args.String(0), args.Error(1)
}
