package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/shaharia-lab/cypherchat/internal/api"
	"github.com/shaharia-lab/cypherchat/internal/metrics"
	"github.com/shaharia-lab/cypherchat/internal/preferences"
	"github.com/stretchr/testify/mock"
)

// MockBackend implements Backend for testing
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Chat(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(api.ChatResponse), args.Error(1)
}

func (m *MockBackend) ClearHistory(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBackend) History(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *MockBackend) Examples(ctx context.Context) ([]api.Example, error) {
	args := m.Called(ctx)
	examples, _ := args.Get(0).([]api.Example)
	return examples, args.Error(1)
}

func (m *MockBackend) Health(ctx context.Context) (api.Health, error) {
	args := m.Called(ctx)
	return args.Get(0).(api.Health), args.Error(1)
}

// MockClipboard implements Clipboard for testing
type MockClipboard struct {
	mock.Mock
}

func (m *MockClipboard) WriteAll(text string) error {
	args := m.Called(text)
	return args.Error(0)
}

// MockConfirmer implements Confirmer for testing
type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) Confirm(question string) (bool, error) {
	args := m.Called(question)
	return args.Bool(0), args.Error(1)
}

// MockSettingsEditor implements SettingsEditor for testing
type MockSettingsEditor struct {
	mock.Mock
}

func (m *MockSettingsEditor) Edit(current preferences.Settings) (preferences.Settings, error) {
	args := m.Called(current)
	return args.Get(0).(preferences.Settings), args.Error(1)
}

// recordingView records what the controller asks the view to show
type recordingView struct {
	mu sync.Mutex

	inputEnabled []bool
	typing       []bool
	messages     []Message
	placeholders []string
	input        string
	focused      int
	scrolled     int
	settings     []preferences.Settings
	closed       int
	examples     []api.Example
	health       []Health
	channel      []ChannelStatus
	display      []metrics.Display
	series       metrics.Series
	themes       []preferences.ThemeName
	icons        []string
	toasts       []string
}

func (v *recordingView) SetInputEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inputEnabled = append(v.inputEnabled, enabled)
}

func (v *recordingView) SetTyping(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.typing = append(v.typing, visible)
}

func (v *recordingView) AppendMessage(m Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages = append(v.messages, m)
}

func (v *recordingView) ResetTranscript(placeholder string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages = nil
	v.placeholders = append(v.placeholders, placeholder)
}

func (v *recordingView) SetInput(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.input = text
}

func (v *recordingView) FocusInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.focused++
}

func (v *recordingView) ScrollToChat() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrolled++
}

func (v *recordingView) ShowSettings(s preferences.Settings) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settings = append(v.settings, s)
}

func (v *recordingView) CloseSettings() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed++
}

func (v *recordingView) ShowExamples(examples []api.Example) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.examples = examples
}

func (v *recordingView) SetHealth(h Health) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.health = append(v.health, h)
}

func (v *recordingView) SetChannelStatus(s ChannelStatus) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.channel = append(v.channel, s)
}

func (v *recordingView) UpdateMetrics(d metrics.Display, series metrics.Series) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.display = append(v.display, d)
	v.series = series
}

func (v *recordingView) ApplyTheme(name preferences.ThemeName, icon string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.themes = append(v.themes, name)
	v.icons = append(v.icons, icon)
}

func (v *recordingView) Toast(message string, _ time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.toasts = append(v.toasts, message)
}

// failingStore fails every operation
type failingStore struct{}

var errStore = errors.New("store unavailable")

func (failingStore) Get(context.Context, string) (string, bool, error) { return "", false, errStore }
func (failingStore) Set(context.Context, string, string) error { return errStore }
func (failingStore) Delete(context.Context, string) error { return errStore }
func (failingStore) Close() error { return nil }
