package preferences

import (
	"context"
)

// ThemeName is the persisted color theme token.
type ThemeName string

const (
	ThemeLight ThemeName = "light"
	ThemeDark  ThemeName = "dark"

	DefaultTheme = ThemeLight
)

// Toggle returns the opposite theme.
func (t ThemeName) Toggle() ThemeName {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ParseThemeName maps a stored token to a ThemeName, falling back to the default.
func ParseThemeName(s string) ThemeName {
	switch ThemeName(s) {
	case ThemeDark:
		return ThemeDark
	case ThemeLight:
		return ThemeLight
	default:
		return DefaultTheme
	}
}

// LoadTheme returns the persisted theme or the default when none is stored.
func LoadTheme(ctx context.Context, store Store) (ThemeName, error) {
	raw, found, err := store.Get(ctx, ThemeKey)
	if err != nil {
		return DefaultTheme, err
	}
	if !found {
		return DefaultTheme, nil
	}
	return ParseThemeName(raw), nil
}

// SaveTheme persists the theme token.
func SaveTheme(ctx context.Context, store Store, t ThemeName) error {
	return store.Set(ctx, ThemeKey, string(ParseThemeName(string(t))))
}
