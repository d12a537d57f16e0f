package initializer

import (
	"errors"
	"time"

	"github.com/shaharia-lab/cypherchat/internal/config"
	"github.com/shaharia-lab/cypherchat/internal/logger"
)

var logLevels = []string{
	string(logger.DebugLevel),
	string(logger.InfoLevel),
	string(logger.WarnLevel),
	string(logger.ErrorLevel),
}

// ConfigureBackend asks for the HTTP API location and request timeout
func (i *Initializer) ConfigureBackend() error {
	i.cliTheme.GetCurrentTheme().Info().Println("\nBackend API")

	baseURL, err := i.prompter.Input("API base URL:", i.Config.API.BaseURL, func(answer string) error {
		return config.ValidateURL(answer, "http", "https")
	})
	if err != nil {
		return err
	}

	timeout, err := i.prompter.Input("Request timeout (0 waits indefinitely):", i.Config.API.Timeout.String(), validateDuration)
	if err != nil {
		return err
	}
	d, err := config.ParseDuration(timeout)
	if err != nil {
		return err
	}

	i.Config.API.BaseURL = baseURL
	i.Config.API.Timeout = d
	return nil
}

// ConfigurePush asks whether to use the live metrics channel and where it lives
func (i *Initializer) ConfigurePush() error {
	i.cliTheme.GetCurrentTheme().Info().Println("\nLive metrics")

	enabled, err := i.prompter.Confirm("Connect to the live metrics channel?", i.Config.Push.Enabled)
	if err != nil {
		return err
	}
	i.Config.Push.Enabled = enabled
	if !enabled {
		return nil
	}

	pushURL, err := i.prompter.Input("Metrics channel URL:", i.Config.Push.URL, func(answer string) error {
		return config.ValidateURL(answer, "ws", "wss")
	})
	if err != nil {
		return err
	}

	delay := i.Config.Push.ReconnectDelay
	if delay <= 0 {
		delay = config.DefaultReconnectDelay
	}
	reconnect, err := i.prompter.Input("Reconnect delay:", delay.String(), validatePositiveDuration)
	if err != nil {
		return err
	}
	d, err := config.ParseDuration(reconnect)
	if err != nil {
		return err
	}

	i.Config.Push.URL = pushURL
	i.Config.Push.ReconnectDelay = d
	return nil
}

// ConfigureLogging asks for the log level and console output
func (i *Initializer) ConfigureLogging() error {
	i.cliTheme.GetCurrentTheme().Info().Println("\nLogging")

	level, err := i.prompter.Select("Log level:", logLevels, string(logger.ParseLevel(i.Config.Log.Level)))
	if err != nil {
		return err
	}

	console, err := i.prompter.Confirm("Also write logs to the terminal?", i.Config.Log.Console)
	if err != nil {
		return err
	}

	i.Config.Log.Level = level
	i.Config.Log.Console = console
	return nil
}

func validateDuration(answer string) error {
	d, err := config.ParseDuration(answer)
	if err != nil {
		return errors.New("please enter a duration such as 30s or 2m")
	}
	if d < 0 {
		return errors.New("duration must not be negative")
	}
	return nil
}

func validatePositiveDuration(answer string) error {
	if err := validateDuration(answer); err != nil {
		return err
	}
	if d, _ := config.ParseDuration(answer); d < time.Millisecond {
		return errors.New("duration must be positive")
	}
	return nil
}
