// Package chat holds the chat session controller and its terminal front end.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shaharia-lab/cypherchat/internal/api"
	"github.com/shaharia-lab/cypherchat/internal/logger"
	"github.com/shaharia-lab/cypherchat/internal/metrics"
	"github.com/shaharia-lab/cypherchat/internal/preferences"
	"github.com/shaharia-lab/cypherchat/internal/push"
)

const (
	ClearedPlaceholder = "Chat cleared. Ask me to generate Cypher queries!"
	ClearConfirmation  = "Are you sure you want to clear the chat history?"
	SettingsSavedToast = "Settings saved successfully!"
	CopiedToast        = "Copied to clipboard!"
	ToastDuration      = 3 * time.Second

	exportFilePattern = "cypher-chat-%s.json"
)

var (
	// ErrSendInFlight is returned when a prompt is submitted while another is awaiting its reply
	ErrSendInFlight = errors.New("a message is already being sent")
	// ErrExampleNotFound is returned for an example index outside the gallery
	ErrExampleNotFound = errors.New("example not found")
)

// Deps are the collaborators of a Controller
type Deps struct {
	Backend   Backend
	Store     preferences.Store
	Themes    Themes
	View      View
	Clipboard Clipboard
	Confirmer Confirmer
	Logger    logger.Logger

	// ExportDir receives exported history files; empty means the working directory
	ExportDir string
	// HistorySize caps the metrics chart history; zero uses metrics.DefaultHistorySize
	HistorySize int
	// Now defaults to time.Now
	Now func() time.Time
}

// Controller mediates between the backend, the push channel, the preference store and the view
type Controller struct {
	backend   Backend
	store     preferences.Store
	themes    Themes
	view      View
	clipboard Clipboard
	confirmer Confirmer
	log       logger.Logger
	exportDir string
	now       func() time.Time

	sending atomic.Bool

	mu         sync.Mutex
	settings   preferences.Settings
	transcript []Message
	examples   []api.Example
	history    *metrics.History
	latest     *metrics.Update
	live       bool
}

// NewController creates a controller. Backend, Store, Themes and View are required.
func NewController(deps Deps) (*Controller, error) {
	switch {
	case deps.Backend == nil:
		return nil, errors.New("backend is required")
	case deps.Store == nil:
		return nil, errors.New("preference store is required")
	case deps.Themes == nil:
		return nil, errors.New("theme manager is required")
	case deps.View == nil:
		return nil, errors.New("view is required")
	}

	c := &Controller{
		backend:   deps.Backend,
		store:     deps.Store,
		themes:    deps.Themes,
		view:      deps.View,
		clipboard: deps.Clipboard,
		confirmer: deps.Confirmer,
		log:       deps.Logger,
		exportDir: deps.ExportDir,
		now:       deps.Now,
		settings:  preferences.DefaultSettings(),
		history:   metrics.NewHistory(deps.HistorySize),
	}
	if c.log == nil {
		c.log = logger.Discard
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.clipboard == nil {
		c.clipboard = NoClipboard{}
	}
	if c.confirmer == nil {
		c.confirmer = AlwaysConfirm{}
	}

	return c, nil
}

// Start runs Init and then the push channel until ctx is cancelled.
// A nil channel skips live metrics. Cancellation is not reported as an error.
func (c *Controller) Start(ctx context.Context, ch push.Channel) error {
	c.Init(ctx)
	return c.RunPush(ctx, ch)
}

// Init applies the persisted theme and settings, loads the examples and checks health once.
// Every step is best effort; failures are logged.
func (c *Controller) Init(ctx context.Context) {
	t, err := c.themes.Load(ctx)
	if err != nil {
		c.log.Warn("failed to load theme", map[string]interface{}{logger.ErrorKey: err})
	}
	if t != nil {
		c.view.ApplyTheme(t.Name(), t.ToggleIcon())
	}

	settings, err := preferences.LoadSettings(ctx, c.store)
	if err != nil {
		c.log.Warn("failed to load settings, using defaults", map[string]interface{}{logger.ErrorKey: err})
	}
	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()
	c.view.ShowSettings(settings)

	if err := c.LoadExamples(ctx); err != nil {
		c.log.Error("failed to load examples", map[string]interface{}{logger.ErrorKey: err})
	}

	c.CheckHealth(ctx)
}

// RunPush binds the push channel events to the controller until ctx is cancelled
func (c *Controller) RunPush(ctx context.Context, ch push.Channel) error {
	if ch == nil {
		return nil
	}
	err := ch.Run(ctx, push.Handlers{
		OnConnect:    c.HandleConnect,
		OnDisconnect: c.HandleDisconnect,
		OnMetrics:    c.HandleMetrics,
	})
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// SendMessage submits prompt with the current settings and appends the outcome to the transcript.
// A blank prompt does nothing. Backend and transport failures become flagged transcript entries,
// not returned errors.
func (c *Controller) SendMessage(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil
	}

	if !c.sending.CompareAndSwap(false, true) {
		return ErrSendInFlight
	}
	defer c.sending.Store(false)

	c.view.SetInputEnabled(false)
	defer c.view.SetInputEnabled(true)

	c.view.SetTyping(true)
	c.appendMessage(newMessage(RoleUser, prompt, c.now()))
	c.view.SetInput("")

	settings := c.Settings()
	resp, err := c.backend.Chat(ctx, api.ChatRequest{
		Prompt:      prompt,
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
		TopP:        settings.TopP,
	})

	c.view.SetTyping(false)

	if err != nil {
		msg := newMessage(RoleAssistant, "", c.now())
		msg.IsError = true
		if apiErr, ok := api.AsError(err); ok {
			msg.Content = "Error: " + apiErr.Message
		} else {
			msg.Content = "Network error: " + err.Error()
		}
		c.log.Warn("chat request failed", map[string]interface{}{logger.ErrorKey: err})
		c.appendMessage(msg)
		return nil
	}

	msg := newMessage(RoleAssistant, resp.Response, c.now())
	md := &Metadata{Duration: resp.Duration}
	if resp.Usage != nil {
		md.CompletionTokens = resp.Usage.CompletionTokens
	}
	msg.Metadata = md
	c.appendMessage(msg)

	return nil
}

// Sending reports whether a prompt is awaiting its reply
func (c *Controller) Sending() bool {
	return c.sending.Load()
}

func (c *Controller) appendMessage(m Message) {
	c.mu.Lock()
	c.transcript = append(c.transcript, m)
	c.mu.Unlock()
	c.view.AppendMessage(m)
}

// Transcript returns a copy of the messages shown so far
func (c *Controller) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.transcript...)
}

// LastAssistantMessage returns the most recent successful assistant reply
func (c *Controller) LastAssistantMessage() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.transcript) - 1; i >= 0; i-- {
		if m := c.transcript[i]; m.Role == RoleAssistant && !m.IsError {
			return m, true
		}
	}
	return Message{}, false
}

// ClearChat asks for confirmation, resets the transcript and then asks the backend to drop its history.
// It reports whether the chat was cleared. A backend failure is logged and the local reset stands.
func (c *Controller) ClearChat(ctx context.Context) (bool, error) {
	ok, err := c.confirmer.Confirm(ClearConfirmation)
	if err != nil {
		return false, fmt.Errorf("failed to confirm: %w", err)
	}
	if !ok {
		return false, nil
	}

	c.mu.Lock()
	c.transcript = nil
	c.mu.Unlock()
	c.view.ResetTranscript(ClearedPlaceholder)

	if err := c.backend.ClearHistory(ctx); err != nil {
		c.log.Error("failed to clear chat", map[string]interface{}{logger.ErrorKey: err})
	}
	return true, nil
}

// ExportChat writes the backend's history, indented with two spaces, to
// cypher-chat-YYYY-MM-DD.json (UTC date) in the export directory and returns the path.
func (c *Controller) ExportChat(ctx context.Context) (string, error) {
	path, err := c.exportChat(ctx)
	if err != nil {
		c.log.Error("failed to export chat", map[string]interface{}{logger.ErrorKey: err})
		return "", err
	}
	c.log.Info("chat exported", map[string]interface{}{"path": path})
	return path, nil
}

func (c *Controller) exportChat(ctx context.Context) (string, error) {
	raw, err := c.backend.History(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch history: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", fmt.Errorf("failed to format history: %w", err)
	}

	dir := c.exportDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf(exportFilePattern, c.now().UTC().Format("2006-01-02")))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

// Settings returns the settings used for the next prompt
func (c *Controller) Settings() preferences.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// SaveSettings validates and persists s, then closes the settings surface and confirms with a toast.
// Invalid settings are rejected with an error wrapping preferences.ErrInvalidSettings.
func (c *Controller) SaveSettings(ctx context.Context, s preferences.Settings) error {
	if err := preferences.SaveSettings(ctx, c.store, s); err != nil {
		return err
	}

	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()

	c.view.ShowSettings(s)
	c.view.CloseSettings()
	c.view.Toast(SettingsSavedToast, ToastDuration)
	return nil
}

// LoadExamples fetches the example gallery and shows it
func (c *Controller) LoadExamples(ctx context.Context) error {
	examples, err := c.backend.Examples(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch examples: %w", err)
	}

	c.mu.Lock()
	c.examples = examples
	c.mu.Unlock()

	c.view.ShowExamples(examples)
	return nil
}

// Examples returns the loaded gallery
func (c *Controller) Examples() []api.Example {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.Example(nil), c.examples...)
}

// UseExample puts the prompt of example i (zero-based) into the input
func (c *Controller) UseExample(i int) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.examples) {
		n := len(c.examples)
		c.mu.Unlock()
		return fmt.Errorf("%w: index %d of %d", ErrExampleNotFound, i, n)
	}
	prompt := c.examples[i].Prompt
	c.mu.Unlock()

	c.view.SetInput(prompt)
	c.view.FocusInput()
	c.view.ScrollToChat()
	return nil
}

// CheckHealth queries the backend once and updates the health indicator
func (c *Controller) CheckHealth(ctx context.Context) Health {
	h, err := c.backend.Health(ctx)
	if err != nil {
		c.log.Debug("health check failed", map[string]interface{}{logger.ErrorKey: err})
		c.view.SetHealth(HealthOffline)
		return HealthOffline
	}

	indicator := healthFromStatus(h.Status)
	c.view.SetHealth(indicator)
	return indicator
}

// HandleConnect marks the push channel live
func (c *Controller) HandleConnect() {
	c.mu.Lock()
	c.live = true
	c.mu.Unlock()
	c.view.SetChannelStatus(ChannelLive)
}

// HandleDisconnect marks the push channel offline
func (c *Controller) HandleDisconnect(err error) {
	c.mu.Lock()
	c.live = false
	c.mu.Unlock()
	if err != nil {
		c.log.Debug("push channel offline", map[string]interface{}{logger.ErrorKey: err})
	}
	c.view.SetChannelStatus(ChannelOffline)
}

// Live reports whether the push channel is connected
func (c *Controller) Live() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// HandleMetrics updates the display and chart history from a pushed update.
// Updates carrying an error are logged and otherwise ignored.
func (c *Controller) HandleMetrics(u metrics.Update) {
	if u.Failed() {
		c.log.Error("metrics error", map[string]interface{}{"metrics_error": u.Error})
		return
	}

	c.history.Append(metrics.NewSample(u, c.now()))

	c.mu.Lock()
	latest := u
	c.latest = &latest
	c.mu.Unlock()

	c.view.UpdateMetrics(u.Display(), c.history.Snapshot())
}

// Metrics returns the last accepted update and the chart series
func (c *Controller) Metrics() (*metrics.Update, metrics.Series) {
	c.mu.Lock()
	var latest *metrics.Update
	if c.latest != nil {
		u := *c.latest
		latest = &u
	}
	c.mu.Unlock()
	return latest, c.history.Snapshot()
}

// ToggleTheme switches between light and dark, persists the choice and applies it.
// The switch is applied even when persisting fails.
func (c *Controller) ToggleTheme(ctx context.Context) (preferences.ThemeName, error) {
	t, err := c.themes.Toggle(ctx)
	if t != nil {
		c.view.ApplyTheme(t.Name(), t.ToggleIcon())
	}
	if err != nil {
		c.log.Warn("failed to persist theme", map[string]interface{}{logger.ErrorKey: err})
	}
	if t == nil {
		return "", err
	}
	return t.Name(), err
}

// CopyToClipboard copies text and confirms with a toast. Failures are only logged.
func (c *Controller) CopyToClipboard(text string) bool {
	if err := c.clipboard.WriteAll(text); err != nil {
		c.log.Debug("failed to copy to clipboard", map[string]interface{}{logger.ErrorKey: err})
		return false
	}
	c.view.Toast(CopiedToast, ToastDuration)
	return true
}

// UseAsPrompt puts text into the input for editing or resending
func (c *Controller) UseAsPrompt(text string) {
	c.view.SetInput(text)
	c.view.FocusInput()
}
