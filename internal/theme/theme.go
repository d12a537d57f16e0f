package theme

import (
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/shaharia-lab/cypherchat/internal/preferences"
)

// Theme defines the interface for theming in the application
type Theme interface {
	// Name is the persisted token of the theme
	Name() preferences.ThemeName

	Primary() *Style
	Secondary() *Style
	Success() *Style
	Error() *Style
	Warning() *Style
	Info() *Style
	Subtle() *Style

	// User and Assistant style the transcript speaker labels
	User() *Style
	Assistant() *Style

	// ToggleIcon is the indicator offering a switch to the other theme
	ToggleIcon() string

	// HighlightStyle names the chroma style used for code blocks
	HighlightStyle() string

	IsEnabled() bool
	SetEnabled(enabled bool)
	SetWriter(w io.Writer)
}

const (
	sunIcon  = "☀"
	moonIcon = "☾"
)

// Palette is the Theme implementation shared by the light and dark themes
type Palette struct {
	name           preferences.ThemeName
	primary        *Style
	secondary      *Style
	success        *Style
	error          *Style
	warning        *Style
	info           *Style
	subtle         *Style
	user           *Style
	assistant      *Style
	icon           string
	highlightStyle string

	mu      sync.RWMutex
	enabled bool
}

var _ Theme = (*Palette)(nil)

// NewLightTheme creates the theme for light terminal backgrounds
func NewLightTheme() *Palette {
	return newPalette(&Palette{
		name:           preferences.ThemeLight,
		primary:        NewStyle(color.FgBlue, 0, color.Bold),
		secondary:      NewStyle(color.FgCyan, 0),
		success:        NewStyle(color.FgGreen, 0),
		error:          NewStyle(color.FgRed, 0),
		warning:        NewStyle(color.FgYellow, 0),
		info:           NewStyle(color.FgBlack, 0),
		subtle:         NewStyle(color.FgHiBlack, 0),
		user:           NewStyle(color.FgBlue, 0, color.Bold),
		assistant:      NewStyle(color.FgMagenta, 0, color.Bold),
		icon:           moonIcon,
		highlightStyle: "github",
	})
}

// NewDarkTheme creates the theme for dark terminal backgrounds
func NewDarkTheme() *Palette {
	return newPalette(&Palette{
		name:           preferences.ThemeDark,
		primary:        NewStyle(color.FgHiCyan, 0, color.Bold),
		secondary:      NewStyle(color.FgHiBlue, 0),
		success:        NewStyle(color.FgHiGreen, 0),
		error:          NewStyle(color.FgHiRed, 0),
		warning:        NewStyle(color.FgHiYellow, 0),
		info:           NewStyle(color.FgHiWhite, 0),
		subtle:         NewStyle(color.FgWhite, 0),
		user:           NewStyle(color.FgHiCyan, 0, color.Bold),
		assistant:      NewStyle(color.FgHiMagenta, 0, color.Bold),
		icon:           sunIcon,
		highlightStyle: "monokai",
	})
}

// ForName returns a fresh theme for the given token
func ForName(name preferences.ThemeName) *Palette {
	if name == preferences.ThemeDark {
		return NewDarkTheme()
	}
	return NewLightTheme()
}

func newPalette(p *Palette) *Palette {
	p.SetEnabled(!color.NoColor)
	return p
}

func (p *Palette) styles() []*Style {
	return []*Style{p.primary, p.secondary, p.success, p.error, p.warning, p.info, p.subtle, p.user, p.assistant}
}

func (p *Palette) Name() preferences.ThemeName { return p.name }
func (p *Palette) Primary() *Style              { return p.primary }
func (p *Palette) Secondary() *Style            { return p.secondary }
func (p *Palette) Success() *Style              { return p.success }
func (p *Palette) Error() *Style                { return p.error }
func (p *Palette) Warning() *Style              { return p.warning }
func (p *Palette) Info() *Style                 { return p.info }
func (p *Palette) Subtle() *Style               { return p.subtle }
func (p *Palette) User() *Style                 { return p.user }
func (p *Palette) Assistant() *Style            { return p.assistant }
func (p *Palette) ToggleIcon() string           { return p.icon }
func (p *Palette) HighlightStyle() string       { return p.highlightStyle }

// IsEnabled reports if colors are enabled
func (p *Palette) IsEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

// SetEnabled enables or disables color output for every style of the theme
func (p *Palette) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
	for _, s := range p.styles() {
		s.setEnabled(enabled)
	}
}

// SetWriter directs every style of the theme to w
func (p *Palette) SetWriter(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.styles() {
		s.WithWriter(w)
	}
}
