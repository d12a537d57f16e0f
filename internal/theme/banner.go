package theme

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shaharia-lab/cypherchat/internal/config"
)

// DisplayBanner prints the welcome banner with the app name and version
func (m *Manager) DisplayBanner(appCfg *config.AppConfig) {
	Banner(m.GetCurrentTheme(), fmt.Sprintf("Welcome to %s", appCfg.Name), 44,
		"Chat with your Cypher query assistant", appCfg.Version.VersionText())
}

// Banner prints a boxed title with optional subtitles using the theme's primary and secondary styles
func Banner(t Theme, title string, width int, subtitle ...string) {
	primary := t.Primary()
	secondary := t.Secondary()

	titleLen := utf8.RuneCountInString(title)
	if width < titleLen+4 {
		width = titleLen + 4
	}
	for _, sub := range subtitle {
		if n := utf8.RuneCountInString(sub); n+4 > width {
			width = n + 4
		}
	}

	primary.Println("╔" + strings.Repeat("═", width-2) + "╗")
	primary.Println(centered(title, width))

	if len(subtitle) > 0 {
		primary.Println("║" + strings.Repeat("─", width-2) + "║")
		for _, sub := range subtitle {
			secondary.Println(centered(sub, width))
		}
	}

	primary.Println("╚" + strings.Repeat("═", width-2) + "╝")
}

// centered pads text inside a bordered line; odd padding goes to the right
func centered(text string, width int) string {
	space := width - utf8.RuneCountInString(text) - 2
	left := space / 2
	right := space - left
	return fmt.Sprintf("║%s%s%s║", strings.Repeat(" ", left), text, strings.Repeat(" ", right))
}
