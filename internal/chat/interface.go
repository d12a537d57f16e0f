package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shaharia-lab/cypherchat/internal/api"
	"github.com/shaharia-lab/cypherchat/internal/metrics"
	"github.com/shaharia-lab/cypherchat/internal/preferences"
	"github.com/shaharia-lab/cypherchat/internal/theme"
)

// Backend is the messaging API the controller talks to. *api.Client satisfies it.
type Backend interface {
	Chat(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error)
	ClearHistory(ctx context.Context) error
	History(ctx context.Context) (json.RawMessage, error)
	Examples(ctx context.Context) ([]api.Example, error)
	Health(ctx context.Context) (api.Health, error)
}

// Themes loads and toggles the persisted color theme. *theme.Manager satisfies it.
type Themes interface {
	Load(ctx context.Context) (theme.Theme, error)
	Toggle(ctx context.Context) (theme.Theme, error)
}

// Clipboard writes text to the system clipboard
type Clipboard interface {
	WriteAll(text string) error
}

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// View is the surface the controller drives. Implementations must be safe for
// use from the push goroutine and the input goroutine at the same time.
type View interface {
	SetInputEnabled(enabled bool)
	SetTyping(visible bool)
	AppendMessage(m Message)
	// ResetTranscript empties the transcript and shows placeholder in its place
	ResetTranscript(placeholder string)
	// SetInput replaces the pending input; empty clears it
	SetInput(text string)
	FocusInput()
	ScrollToChat()

	ShowSettings(s preferences.Settings)
	CloseSettings()
	ShowExamples(examples []api.Example)

	SetHealth(h Health)
	SetChannelStatus(s ChannelStatus)
	UpdateMetrics(d metrics.Display, series metrics.Series)

	ApplyTheme(name preferences.ThemeName, icon string)
	Toast(message string, d time.Duration)
}

// NopView discards every update. It backs one-shot commands that use the controller without a session.
type NopView struct{}

var _ View = NopView{}

func (NopView) SetInputEnabled(bool) {}
func (NopView) SetTyping(bool) {}
func (NopView) AppendMessage(Message) {}
func (NopView) ResetTranscript(string) {}
func (NopView) SetInput(string) {}
func (NopView) FocusInput() {}
func (NopView) ScrollToChat() {}
func (NopView) ShowSettings(preferences.Settings) {}
func (NopView) CloseSettings() {}
func (NopView) ShowExamples([]api.Example) {}
func (NopView) SetHealth(Health) {}
func (NopView) SetChannelStatus(ChannelStatus) {}
func (NopView) UpdateMetrics(metrics.Display, metrics.Series) {}
func (NopView) ApplyTheme(preferences.ThemeName, string) {}
func (NopView) Toast(string, time.Duration) {}
