package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Accepted generation parameter ranges
const (
	MinMaxTokens   = 1
	MaxMaxTokens   = 4096
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinTopP        = 0.0
	MaxTopP        = 1.0
)

// ErrInvalidSettings is returned when a settings value is outside its accepted range.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings are the generation parameters sent with every prompt.
type Settings struct {
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
}

// DefaultSettings returns the settings used when nothing has been saved.
func DefaultSettings() Settings {
	return Settings{
		MaxTokens:   512,
		Temperature: 0.7,
		TopP:        0.9,
	}
}

// Validate reports whether every field is in range. The error wraps ErrInvalidSettings.
func (s Settings) Validate() error {
	if s.MaxTokens < MinMaxTokens || s.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("%w: max tokens must be between %d and %d, got %d",
			ErrInvalidSettings, MinMaxTokens, MaxMaxTokens, s.MaxTokens)
	}
	if s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		return fmt.Errorf("%w: temperature must be between %.1f and %.1f, got %g",
			ErrInvalidSettings, MinTemperature, MaxTemperature, s.Temperature)
	}
	if s.TopP < MinTopP || s.TopP > MaxTopP {
		return fmt.Errorf("%w: top p must be between %.1f and %.1f, got %g",
			ErrInvalidSettings, MinTopP, MaxTopP, s.TopP)
	}
	return nil
}

// LoadSettings reads the persisted record and merges it over the defaults field by field.
// A field that is missing, undecodable or out of range keeps its default. A record that is
// not a JSON object yields the defaults. Only store failures are returned as errors.
func LoadSettings(ctx context.Context, store Store) (Settings, error) {
	settings := DefaultSettings()

	raw, found, err := store.Get(ctx, SettingsKey)
	if err != nil {
		return settings, err
	}
	if !found {
		return settings, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return settings, nil
	}

	if v, ok := decodeNumber(fields["maxTokens"]); ok && v == math.Trunc(v) &&
		v >= MinMaxTokens && v <= MaxMaxTokens {
		settings.MaxTokens = int(v)
	}
	if v, ok := decodeNumber(fields["temperature"]); ok && v >= MinTemperature && v <= MaxTemperature {
		settings.Temperature = v
	}
	if v, ok := decodeNumber(fields["topP"]); ok && v >= MinTopP && v <= MaxTopP {
		settings.TopP = v
	}

	return settings, nil
}

// decodeNumber reports false for absent, null or non-numeric values.
func decodeNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return 0, false
	}
	return *v, true
}

// SaveSettings validates s and replaces the persisted record.
func SaveSettings(ctx context.Context, store Store, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	return store.Set(ctx, SettingsKey, string(data))
}
