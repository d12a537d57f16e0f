package chat

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/shaharia-lab/cypherchat/internal/preferences"
)

// SettingsEditor asks the user for new generation settings
type SettingsEditor interface {
	Edit(current preferences.Settings) (preferences.Settings, error)
}

// SurveyConfirmer asks yes/no questions on the terminal
type SurveyConfirmer struct{}

// Confirm implements Confirmer
func (SurveyConfirmer) Confirm(question string) (bool, error) {
	confirmed := false
	prompt := &survey.Confirm{
		Message: question,
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}

// SurveySettingsEditor prompts for each setting with the current value as default
type SurveySettingsEditor struct{}

// Edit implements SettingsEditor
func (SurveySettingsEditor) Edit(current preferences.Settings) (preferences.Settings, error) {
	var maxTokens, temperature, topP string

	err := survey.AskOne(&survey.Input{
		Message: fmt.Sprintf("Max tokens (%d-%d):", preferences.MinMaxTokens, preferences.MaxMaxTokens),
		Default: strconv.Itoa(current.MaxTokens),
	}, &maxTokens, survey.WithValidator(survey.Required), survey.WithValidator(intBetween(preferences.MinMaxTokens, preferences.MaxMaxTokens)))
	if err != nil {
		return current, err
	}

	err = survey.AskOne(&survey.Input{
		Message: fmt.Sprintf("Temperature (%.1f-%.1f):", preferences.MinTemperature, preferences.MaxTemperature),
		Default: strconv.FormatFloat(current.Temperature, 'f', -1, 64),
	}, &temperature, survey.WithValidator(survey.Required), survey.WithValidator(floatBetween(preferences.MinTemperature, preferences.MaxTemperature)))
	if err != nil {
		return current, err
	}

	err = survey.AskOne(&survey.Input{
		Message: fmt.Sprintf("Top P (%.1f-%.1f):", preferences.MinTopP, preferences.MaxTopP),
		Default: strconv.FormatFloat(current.TopP, 'f', -1, 64),
	}, &topP, survey.WithValidator(survey.Required), survey.WithValidator(floatBetween(preferences.MinTopP, preferences.MaxTopP)))
	if err != nil {
		return current, err
	}

	return ParseSettings(maxTokens, temperature, topP)
}

// ParseSettings converts text fields into settings without range checks
func ParseSettings(maxTokens, temperature, topP string) (preferences.Settings, error) {
	var s preferences.Settings
	var err error

	if s.MaxTokens, err = strconv.Atoi(maxTokens); err != nil {
		return s, fmt.Errorf("%w: max tokens must be a whole number", preferences.ErrInvalidSettings)
	}
	if s.Temperature, err = strconv.ParseFloat(temperature, 64); err != nil {
		return s, fmt.Errorf("%w: temperature must be a number", preferences.ErrInvalidSettings)
	}
	if s.TopP, err = strconv.ParseFloat(topP, 64); err != nil {
		return s, fmt.Errorf("%w: top p must be a number", preferences.ErrInvalidSettings)
	}
	return s, nil
}

func intBetween(lo, hi int) survey.Validator {
	return func(ans interface{}) error {
		s, _ := ans.(string)
		n, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("please enter a whole number")
		}
		if n < lo || n > hi {
			return fmt.Errorf("value must be between %d and %d", lo, hi)
		}
		return nil
	}
}

func floatBetween(lo, hi float64) survey.Validator {
	return func(ans interface{}) error {
		s, _ := ans.(string)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.New("please enter a number")
		}
		if f < lo || f > hi {
			return fmt.Errorf("value must be between %.1f and %.1f", lo, hi)
		}
		return nil
	}
}
