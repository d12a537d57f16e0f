package theme

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/shaharia-lab/cypherchat/internal/preferences"
)

// Manager owns the active theme and its persisted light/dark token
type Manager struct {
	mu           sync.RWMutex
	currentTheme Theme
	store        preferences.Store
	out          io.Writer
	colors       bool
}

// Option configures a Manager
type Option func(*Manager)

// WithOutput directs all theme styles to w
func WithOutput(w io.Writer) Option {
	return func(m *Manager) {
		m.out = w
	}
}

// WithColors forces color output on or off
func WithColors(enabled bool) Option {
	return func(m *Manager) {
		m.colors = enabled
	}
}

// NewManager creates a theme manager starting on the light theme
func NewManager(store preferences.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		out:    os.Stdout,
		colors: !color.NoColor,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.currentTheme = m.build(preferences.DefaultTheme)
	return m
}

func (m *Manager) build(name preferences.ThemeName) Theme {
	t := ForName(name)
	t.SetWriter(m.out)
	t.SetEnabled(m.colors)
	return t
}

// GetCurrentTheme returns the currently active theme
func (m *Manager) GetCurrentTheme() Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTheme
}

// Load applies the persisted theme. The default theme stays active when the store fails.
func (m *Manager) Load(ctx context.Context) (Theme, error) {
	name, err := preferences.LoadTheme(ctx, m.store)
	t := m.apply(name)
	if err != nil {
		return t, fmt.Errorf("failed to load theme: %w", err)
	}
	return t, nil
}

// Toggle switches between light and dark, persists the choice and returns the new theme.
// The new theme is applied even when persisting fails.
func (m *Manager) Toggle(ctx context.Context) (Theme, error) {
	next := m.GetCurrentTheme().Name().Toggle()
	t := m.apply(next)

	if err := preferences.SaveTheme(ctx, m.store, next); err != nil {
		return t, fmt.Errorf("failed to save theme: %w", err)
	}
	return t, nil
}

func (m *Manager) apply(name preferences.ThemeName) Theme {
	t := m.build(name)

	m.mu.Lock()
	m.currentTheme = t
	m.mu.Unlock()

	return t
}
