package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shaharia-lab/cypherchat/internal/api"
	"github.com/shaharia-lab/cypherchat/internal/metrics"
	"github.com/shaharia-lab/cypherchat/internal/preferences"
	"github.com/shaharia-lab/cypherchat/internal/push"
	"github.com/shaharia-lab/cypherchat/internal/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

type testController struct {
	ctrl      *Controller
	backend   *MockBackend
	view      *recordingView
	store     preferences.Store
	clipboard *MockClipboard
	confirmer *MockConfirmer
}

func newTestController(t *testing.T, modify ...func(*Deps)) *testController {
	t.Helper()

	tc := &testController{
		backend:   &MockBackend{},
		view:      &recordingView{},
		store:     preferences.NewMemoryStore(),
		clipboard: &MockClipboard{},
		confirmer: &MockConfirmer{},
	}

	deps := Deps{
		Backend:   tc.backend,
		Store:     tc.store,
		Themes:    theme.NewManager(tc.store, theme.WithColors(false), theme.WithOutput(io.Discard)),
		View:      tc.view,
		Clipboard: tc.clipboard,
		Confirmer: tc.confirmer,
		Now:       func() time.Time { return fixedNow },
	}
	for _, m := range modify {
		m(&deps)
	}

	ctrl, err := NewController(deps)
	require.NoError(t, err)
	tc.ctrl = ctrl
	return tc
}

func floatPtr(f float64) *float64 {
	return &f
}

func TestNewController_RequiresCollaborators(t *testing.T) {
	store := preferences.NewMemoryStore()
	valid := Deps{
		Backend: &MockBackend{},
		Store:   store,
		Themes:  theme.NewManager(store, theme.WithColors(false)),
		View:    &recordingView{},
	}

	tests := []struct {
		name   string
		modify func(*Deps)
		errMsg string
	}{
		{name: "missing backend", modify: func(d *Deps) { d.Backend = nil }, errMsg: "backend is required"},
		{name: "missing store", modify: func(d *Deps) { d.Store = nil }, errMsg: "preference store is required"},
		{name: "missing themes", modify: func(d *Deps) { d.Themes = nil }, errMsg: "theme manager is required"},
		{name: "missing view", modify: func(d *Deps) { d.View = nil }, errMsg: "view is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := valid
			tt.modify(&deps)
			_, err := NewController(deps)
			assert.EqualError(t, err, tt.errMsg)
		})
	}

	ctrl, err := NewController(valid)
	require.NoError(t, err)
	assert.Equal(t, preferences.DefaultSettings(), ctrl.Settings())
}

func TestController_SendMessage(t *testing.T) {
	tc := newTestController(t)
	ctx := context.Background()

	reply := "Here you go:\n```cypher\nMATCH (p:Person) RETURN p\n```"
	tc.backend.On("Chat", mock.Anything, api.ChatRequest{
		Prompt:      "find people",
		MaxTokens:   512,
		Temperature: 0.7,
		TopP:        0.9,
	}).Return(api.ChatResponse{
		Response: reply,
		Duration: floatPtr(1.25),
		Usage:    &api.Usage{CompletionTokens: 42},
	}, nil).Once()

	require.NoError(t, tc.ctrl.SendMessage(ctx, "  find people \n"))

	tc.backend.AssertExpectations(t)

	transcript := tc.ctrl.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, RoleUser, transcript[0].Role)
	assert.Equal(t, "find people", transcript[0].Content)
	assert.Nil(t, transcript[0].Metadata)

	assert.Equal(t, RoleAssistant, transcript[1].Role)
	assert.Equal(t, reply, transcript[1].Content)
	assert.False(t, transcript[1].IsError)
	require.NotNil(t, transcript[1].Metadata)
	assert.Equal(t, "1.25s • 42 tokens", transcript[1].Metadata.Text())
	assert.NotEqual(t, transcript[0].ID, transcript[1].ID)

	assert.Equal(t, transcript, tc.view.messages)
	assert.Equal(t, []bool{false, true}, tc.view.inputEnabled)
	assert.Equal(t, []bool{true, false}, tc.view.typing)
	assert.Empty(t, tc.view.input)
	assert.False(t, tc.ctrl.Sending())

	last, ok := tc.ctrl.LastAssistantMessage()
	require.True(t, ok)
	assert.Equal(t, reply, last.Content)
}

func TestController_SendMessage_BlankPromptIsIgnored(t *testing.T) {
	tc := newTestController(t)

	for _, prompt := range []string{"", "   ", "\n\t"} {
		require.NoError(t, tc.ctrl.SendMessage(context.Background(), prompt))
	}

	tc.backend.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
	assert.Empty(t, tc.ctrl.Transcript())
	assert.Empty(t, tc.view.inputEnabled)
}

func TestController_SendMessage_Failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		content string
	}{
		{
			name:    "backend error",
			err:     &api.Error{StatusCode: 400, Message: "Prompt is required"},
			content: "Error: Prompt is required",
		},
		{
			name:    "wrapped backend error",
			err:     errors.Join(errors.New("request failed"), &api.Error{StatusCode: 500, Message: "model crashed"}),
			content: "Error: model crashed",
		},
		{
			name:    "transport failure",
			err:     errors.New("connection refused"),
			content: "Network error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestController(t)
			tc.backend.On("Chat", mock.Anything, mock.Anything).Return(api.ChatResponse{}, tt.err).Once()

			require.NoError(t, tc.ctrl.SendMessage(context.Background(), "find people"))

			transcript := tc.ctrl.Transcript()
			require.Len(t, transcript, 2)
			assert.Equal(t, RoleAssistant, transcript[1].Role)
			assert.True(t, transcript[1].IsError)
			assert.Equal(t, tt.content, transcript[1].Content)
			assert.Nil(t, transcript[1].Metadata)

			assert.Equal(t, []bool{false, true}, tc.view.inputEnabled)
			assert.Equal(t, []bool{true, false}, tc.view.typing)
			assert.False(t, tc.ctrl.Sending())

			_, ok := tc.ctrl.LastAssistantMessage()
			assert.False(t, ok)
		})
	}
}

func TestController_SendMessage_RejectsWhileInFlight(t *testing.T) {
	tc := newTestController(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	tc.backend.On("Chat", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(api.ChatResponse{Response: "done"}, nil).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, tc.ctrl.SendMessage(ctx, "first"))
	}()

	<-started
	assert.True(t, tc.ctrl.Sending())
	assert.ErrorIs(t, tc.ctrl.SendMessage(ctx, "second"), ErrSendInFlight)

	close(release)
	wg.Wait()

	tc.backend.AssertNumberOfCalls(t, "Chat", 1)
	transcript := tc.ctrl.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, "first", transcript[0].Content)
	assert.Equal(t, "done", transcript[1].Content)
}

func TestMetadata_Text(t *testing.T) {
	tests := []struct {
		name string
		md   Metadata
		want string
	}{
		{name: "duration and tokens", md: Metadata{Duration: floatPtr(1.234), CompletionTokens: 10}, want: "1.23s • 10 tokens"},
		{name: "rounds duration", md: Metadata{Duration: floatPtr(0.005), CompletionTokens: 1}, want: "0.01s • 1 tokens"},
		{name: "missing duration", md: Metadata{CompletionTokens: 5}, want: "• 5 tokens"},
		{name: "zero duration", md: Metadata{Duration: floatPtr(0), CompletionTokens: 5}, want: "• 5 tokens"},
		{name: "missing usage", md: Metadata{Duration: floatPtr(2)}, want: "2.00s • 0 tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.md.Text())
		})
	}
}

func TestController_ClearChat(t *testing.T) {
	tests := []struct {
		name        string
		confirm     bool
		confirmErr  error
		clearErr    error
		wantCleared bool
		wantErr     bool
	}{
		{name: "confirmed", confirm: true, wantCleared: true},
		{name: "declined", confirm: false, wantCleared: false},
		{name: "backend failure keeps local reset", confirm: true, clearErr: errors.New("boom"), wantCleared: true},
		{name: "prompt failure", confirmErr: errors.New("interrupted"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestController(t)
			ctx := context.Background()

			tc.backend.On("Chat", mock.Anything, mock.Anything).Return(api.ChatResponse{Response: "ok"}, nil).Once()
			require.NoError(t, tc.ctrl.SendMessage(ctx, "hello"))

			tc.confirmer.On("Confirm", ClearConfirmation).Return(tt.confirm, tt.confirmErr).Once()
			tc.backend.On("ClearHistory", mock.Anything).Return(tt.clearErr).Maybe()

			cleared, err := tc.ctrl.ClearChat(ctx)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCleared, cleared)

			if tt.wantCleared {
				tc.backend.AssertCalled(t, "ClearHistory", mock.Anything)
				assert.Empty(t, tc.ctrl.Transcript())
				assert.Equal(t, []string{ClearedPlaceholder}, tc.view.placeholders)
			} else {
				tc.backend.AssertNotCalled(t, "ClearHistory", mock.Anything)
				assert.Len(t, tc.ctrl.Transcript(), 2)
				assert.Empty(t, tc.view.placeholders)
			}
		})
	}
}

func TestController_ExportChat(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	evening := time.Date(2024, 3, 5, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600))
	tc := newTestController(t, func(d *Deps) {
		d.ExportDir = dir
		d.Now = func() time.Time { return evening }
	})

	tc.backend.On("History", mock.Anything).
		Return(json.RawMessage(`[{"id":"1","prompt":"p","usage":{"completion_tokens":3}}]`), nil).Once()

	path, err := tc.ctrl.ExportChat(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cypher-chat-2024-03-06.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "[\n  {\n    \"id\": \"1\",\n    \"prompt\": \"p\",\n    \"usage\": {\n      \"completion_tokens\": 3\n    }\n  }\n]"
	assert.Equal(t, want, string(data))
}

func TestController_ExportChat_Failures(t *testing.T) {
	tests := []struct {
		name   string
		raw    json.RawMessage
		err    error
		errMsg string
	}{
		{name: "history unavailable", err: errors.New("offline"), errMsg: "failed to fetch history"},
		{name: "malformed history", raw: json.RawMessage(`{not json`), errMsg: "failed to format history"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tc := newTestController(t, func(d *Deps) { d.ExportDir = dir })
			tc.backend.On("History", mock.Anything).Return(tt.raw, tt.err).Once()

			_, err := tc.ctrl.ExportChat(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestController_Init(t *testing.T) {
	tc := newTestController(t)
	ctx := context.Background()

	require.NoError(t, preferences.SaveTheme(ctx, tc.store, preferences.ThemeDark))
	require.NoError(t, tc.store.Set(ctx, preferences.SettingsKey, `{"maxTokens":1024}`))

	examples := []api.Example{{Title: "Find", Category: "Basic", Prompt: "find all"}}
	tc.backend.On("Examples", mock.Anything).Return(examples, nil).Once()
	tc.backend.On("Health", mock.Anything).Return(api.Health{Status: "degraded"}, nil).Once()

	tc.ctrl.Init(ctx)

	tc.backend.AssertExpectations(t)
	assert.Equal(t, []preferences.ThemeName{preferences.ThemeDark}, tc.view.themes)
	assert.Equal(t, []string{"☀"}, tc.view.icons)

	want := preferences.Settings{MaxTokens: 1024, Temperature: 0.7, TopP: 0.9}
	assert.Equal(t, want, tc.ctrl.Settings())
	assert.Equal(t, []preferences.Settings{want}, tc.view.settings)

	assert.Equal(t, examples, tc.view.examples)
	assert.Equal(t, examples, tc.ctrl.Examples())
	assert.Equal(t, []Health{HealthDegraded}, tc.view.health)
}

func TestController_Init_BestEffort(t *testing.T) {
	tc := newTestController(t, func(d *Deps) {
		d.Store = failingStore{}
		d.Themes = theme.NewManager(failingStore{}, theme.WithColors(false), theme.WithOutput(io.Discard))
	})

	tc.backend.On("Examples", mock.Anything).Return(nil, errors.New("offline")).Once()
	tc.backend.On("Health", mock.Anything).Return(api.Health{}, errors.New("offline")).Once()

	tc.ctrl.Init(context.Background())

	assert.Equal(t, []preferences.ThemeName{preferences.ThemeLight}, tc.view.themes)
	assert.Equal(t, preferences.DefaultSettings(), tc.ctrl.Settings())
	assert.Empty(t, tc.ctrl.Examples())
	assert.Equal(t, []Health{HealthOffline}, tc.view.health)
}

func TestController_SaveSettings(t *testing.T) {
	tc := newTestController(t)
	ctx := context.Background()

	updated := preferences.Settings{MaxTokens: 2048, Temperature: 1.5, TopP: 0.5}
	require.NoError(t, tc.ctrl.SaveSettings(ctx, updated))

	assert.Equal(t, updated, tc.ctrl.Settings())
	stored, err := preferences.LoadSettings(ctx, tc.store)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
	assert.Equal(t, 1, tc.view.closed)
	assert.Equal(t, []string{SettingsSavedToast}, tc.view.toasts)

	tc.backend.On("Chat", mock.Anything, api.ChatRequest{
		Prompt: "go", MaxTokens: 2048, Temperature: 1.5, TopP: 0.5,
	}).Return(api.ChatResponse{Response: "ok"}, nil).Once()
	require.NoError(t, tc.ctrl.SendMessage(ctx, "go"))
	tc.backend.AssertExpectations(t)
}

func TestController_SaveSettings_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		settings preferences.Settings
	}{
		{name: "max tokens too low", settings: preferences.Settings{MaxTokens: 0, Temperature: 0.7, TopP: 0.9}},
		{name: "max tokens too high", settings: preferences.Settings{MaxTokens: 5000, Temperature: 0.7, TopP: 0.9}},
		{name: "temperature too high", settings: preferences.Settings{MaxTokens: 512, Temperature: 2.1, TopP: 0.9}},
		{name: "top p negative", settings: preferences.Settings{MaxTokens: 512, Temperature: 0.7, TopP: -0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestController(t)

			err := tc.ctrl.SaveSettings(context.Background(), tt.settings)
			assert.ErrorIs(t, err, preferences.ErrInvalidSettings)

			assert.Equal(t, preferences.DefaultSettings(), tc.ctrl.Settings())
			_, found, err := tc.store.Get(context.Background(), preferences.SettingsKey)
			require.NoError(t, err)
			assert.False(t, found)
			assert.Empty(t, tc.view.toasts)
		})
	}
}

func TestController_UseExample(t *testing.T) {
	tc := newTestController(t)
	examples := []api.Example{
		{Title: "One", Prompt: "first prompt"},
		{Title: "Two", Prompt: "second prompt"},
	}
	tc.backend.On("Examples", mock.Anything).Return(examples, nil).Once()
	require.NoError(t, tc.ctrl.LoadExamples(context.Background()))

	require.NoError(t, tc.ctrl.UseExample(1))
	assert.Equal(t, "second prompt", tc.view.input)
	assert.Equal(t, 1, tc.view.focused)
	assert.Equal(t, 1, tc.view.scrolled)

	for _, i := range []int{-1, 2, 10} {
		assert.ErrorIs(t, tc.ctrl.UseExample(i), ErrExampleNotFound)
	}
	assert.Equal(t, "second prompt", tc.view.input)
}

func TestController_CheckHealth(t *testing.T) {
	tests := []struct {
		name   string
		health api.Health
		err    error
		want   Health
	}{
		{name: "healthy", health: api.Health{Status: "healthy"}, want: HealthHealthy},
		{name: "degraded", health: api.Health{Status: "degraded"}, want: HealthDegraded},
		{name: "unhealthy", health: api.Health{Status: "unhealthy", Error: "model not loaded"}, want: HealthUnhealthy},
		{name: "unrecognized status", health: api.Health{Status: "warming"}, want: HealthHealthy},
		{name: "unreachable", err: errors.New("connection refused"), want: HealthOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestController(t)
			tc.backend.On("Health", mock.Anything).Return(tt.health, tt.err).Once()

			assert.Equal(t, tt.want, tc.ctrl.CheckHealth(context.Background()))
			assert.Equal(t, []Health{tt.want}, tc.view.health)
		})
	}
}

func TestController_HandleMetrics(t *testing.T) {
	tc := newTestController(t)

	tc.ctrl.HandleMetrics(metrics.Update{Error: "collector down"})
	assert.Empty(t, tc.view.display)
	latest, series := tc.ctrl.Metrics()
	assert.Nil(t, latest)
	assert.Empty(t, series.Timestamps)

	for i := 0; i < 25; i++ {
		tc.ctrl.HandleMetrics(metrics.Update{
			HealthStatus:          "healthy",
			ActiveRequests:        float64(i % 3),
			AvgTokensPerSecond:    float64(i) + 0.5,
			RequestsTotal:         float64(i),
			TokensGeneratedTotal:  float64(i * 10),
			GenerationDurationAvg: 0.1234,
		})
	}

	require.Len(t, tc.view.display, 25)
	last := tc.view.display[24]
	assert.Equal(t, "healthy", last.Health)
	assert.Equal(t, "25", last.TokensPerSecond)
	assert.Equal(t, "24", last.RequestsTotal)
	assert.Equal(t, "240", last.TokensTotal)
	assert.Equal(t, "123ms", last.AvgGeneration)

	assert.Len(t, tc.view.series.Timestamps, metrics.DefaultHistorySize)
	assert.Len(t, tc.view.series.TokensPerSecond, metrics.DefaultHistorySize)
	assert.Equal(t, 5.5, tc.view.series.TokensPerSecond[0])
	assert.Equal(t, 24.5, tc.view.series.TokensPerSecond[metrics.DefaultHistorySize-1])

	latest, series = tc.ctrl.Metrics()
	require.NotNil(t, latest)
	assert.Equal(t, 24.0, latest.RequestsTotal)
	assert.Len(t, series.ActiveRequests, metrics.DefaultHistorySize)
}

func TestController_ChannelStatus(t *testing.T) {
	tc := newTestController(t)

	assert.False(t, tc.ctrl.Live())
	tc.ctrl.HandleConnect()
	assert.True(t, tc.ctrl.Live())
	tc.ctrl.HandleDisconnect(errors.New("socket closed"))
	assert.False(t, tc.ctrl.Live())

	assert.Equal(t, []ChannelStatus{ChannelLive, ChannelOffline}, tc.view.channel)
}

// scriptedChannel replays events to the handlers and then waits for cancellation
type scriptedChannel struct {
	updates []metrics.Update
}

func (c *scriptedChannel) Run(ctx context.Context, h push.Handlers) error {
	h.OnConnect()
	for _, u := range c.updates {
		h.OnMetrics(u)
	}
	h.OnDisconnect(nil)
	<-ctx.Done()
	return ctx.Err()
}

func (c *scriptedChannel) RequestMetrics() error { return nil }

func TestController_RunPush(t *testing.T) {
	tc := newTestController(t)
	ch := &scriptedChannel{updates: []metrics.Update{{HealthStatus: "healthy", RequestsTotal: 3}}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tc.ctrl.RunPush(ctx, ch)
	}()

	require.Eventually(t, func() bool {
		tc.view.mu.Lock()
		defer tc.view.mu.Unlock()
		return len(tc.view.channel) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)

	assert.Equal(t, []ChannelStatus{ChannelLive, ChannelOffline}, tc.view.channel)
	require.Len(t, tc.view.display, 1)
	assert.Equal(t, "3", tc.view.display[0].RequestsTotal)

	assert.NoError(t, tc.ctrl.RunPush(context.Background(), nil))
}

func TestController_ToggleTheme(t *testing.T) {
	tc := newTestController(t)
	ctx := context.Background()

	name, err := tc.ctrl.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeDark, name)
	stored, err := preferences.LoadTheme(ctx, tc.store)
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeDark, stored)

	name, err = tc.ctrl.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeLight, name)
	stored, err = preferences.LoadTheme(ctx, tc.store)
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeLight, stored)

	assert.Equal(t, []preferences.ThemeName{preferences.ThemeDark, preferences.ThemeLight}, tc.view.themes)
	assert.Equal(t, []string{"☀", "☾"}, tc.view.icons)
}

func TestController_ToggleTheme_AppliesWhenSaveFails(t *testing.T) {
	tc := newTestController(t, func(d *Deps) {
		d.Themes = theme.NewManager(failingStore{}, theme.WithColors(false), theme.WithOutput(io.Discard))
	})

	name, err := tc.ctrl.ToggleTheme(context.Background())
	assert.ErrorIs(t, err, errStore)
	assert.Equal(t, preferences.ThemeDark, name)
	assert.Equal(t, []preferences.ThemeName{preferences.ThemeDark}, tc.view.themes)
}

func TestController_CopyToClipboard(t *testing.T) {
	tc := newTestController(t)

	tc.clipboard.On("WriteAll", "MATCH (n) RETURN n").Return(nil).Once()
	assert.True(t, tc.ctrl.CopyToClipboard("MATCH (n) RETURN n"))
	assert.Equal(t, []string{CopiedToast}, tc.view.toasts)

	tc.clipboard.On("WriteAll", "denied").Return(errors.New("no display")).Once()
	assert.False(t, tc.ctrl.CopyToClipboard("denied"))
	assert.Equal(t, []string{CopiedToast}, tc.view.toasts)

	tc.clipboard.AssertExpectations(t)
}

func TestController_UseAsPrompt(t *testing.T) {
	tc := newTestController(t)

	tc.ctrl.UseAsPrompt("MATCH (n) RETURN n")
	assert.Equal(t, "MATCH (n) RETURN n", tc.view.input)
	assert.Equal(t, 1, tc.view.focused)
	assert.Equal(t, 0, tc.view.scrolled)
}
