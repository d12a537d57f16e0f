// Package initializer runs the guided setup that writes the config file.
package initializer

import (
	"fmt"

	"github.com/shaharia-lab/cypherchat/internal/config"
	"github.com/shaharia-lab/cypherchat/internal/logger"
	"github.com/shaharia-lab/cypherchat/internal/theme"
)

// Initializer handles the interactive setup process
type Initializer struct {
	Config        config.Config
	IsUpdateMode  bool
	configManager ConfigManager
	prompter      Prompter
	log           logger.Logger
	appConfig     *config.AppConfig
	cliTheme      *theme.Manager
}

// ConfigManager interface for loading/saving configuration. *config.Manager satisfies it.
type ConfigManager interface {
	LoadConfig() (config.Config, error)
	SaveConfig(config.Config) error
	ConfigExists() bool
}

// NewInitializer creates a new initializer asking its questions with survey
func NewInitializer(log logger.Logger, appCfg *config.AppConfig, themeMgr *theme.Manager, configManager ConfigManager) *Initializer {
	if log == nil {
		log = logger.Discard
	}
	return &Initializer{
		log:           log,
		appConfig:     appCfg,
		configManager: configManager,
		prompter:      SurveyPrompter{},
		cliTheme:      themeMgr,
	}
}

// WithPrompter sets a custom prompter (useful for testing)
func (i *Initializer) WithPrompter(p Prompter) *Initializer {
	i.prompter = p
	return i
}

// Run starts the interactive configuration process
func (i *Initializer) Run() error {
	i.log.Debug("starting configuration process", nil)

	t := i.cliTheme.GetCurrentTheme()
	i.IsUpdateMode = i.configManager.ConfigExists()

	if i.IsUpdateMode {
		cfg, err := i.configManager.LoadConfig()
		if err != nil {
			i.log.Error("error loading configuration", map[string]interface{}{logger.ErrorKey: err})
			return fmt.Errorf("error loading configuration: %w", err)
		}
		i.Config = cfg

		t.Primary().Println("Configuration Update Mode")
		t.Warning().Println("You are about to update your existing configuration. Press Enter to keep current values, or provide new ones.")
	} else {
		i.Config = config.Config{}.Default()
		t.Primary().Println("Initial Configuration")
		t.Info().Println(fmt.Sprintf("Please configure %s for the first time. You can always change the configuration later.", i.appConfig.Name))
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{name: "backend", run: i.ConfigureBackend},
		{name: "push channel", run: i.ConfigurePush},
		{name: "logging", run: i.ConfigureLogging},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			i.log.Error("error configuring "+step.name, map[string]interface{}{logger.ErrorKey: err})
			return fmt.Errorf("error configuring %s: %w", step.name, err)
		}
	}

	if err := i.Config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := i.configManager.SaveConfig(i.Config); err != nil {
		i.log.Error("error saving configuration", map[string]interface{}{logger.ErrorKey: err})
		return fmt.Errorf("error saving configuration: %w", err)
	}

	i.log.Debug("configuration process complete", nil)
	t.Success().Println("\nConfiguration updated successfully!")
	t.Info().Println("Run 'cypherchat chat' to start an interactive chat session.")
	return nil
}
