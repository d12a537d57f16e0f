package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shaharia-lab/cypherchat/internal/api"
	"github.com/shaharia-lab/cypherchat/internal/metrics"
	"github.com/shaharia-lab/cypherchat/internal/preferences"
	"github.com/shaharia-lab/cypherchat/internal/push"
	"github.com/shaharia-lab/cypherchat/internal/theme"
	"github.com/shaharia-lab/cypherchat/internal/webserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testSession struct {
	session   *Session
	server    *webserver.WebServer
	url       string
	store     preferences.Store
	out       *syncBuffer
	clipboard *MockClipboard
	editor    *MockSettingsEditor
}

func newTestSession(t *testing.T, input io.Reader, modify ...func(*Deps)) *testSession {
	t.Helper()

	ws := webserver.NewWebServer("", webserver.NewBackend(nil), webserver.WithPushInterval(0))
	srv := httptest.NewServer(ws.Handler())
	t.Cleanup(func() {
		require.NoError(t, ws.Stop())
		srv.Close()
	})

	ts := &testSession{
		server:    ws,
		url:       srv.URL,
		store:     preferences.NewMemoryStore(),
		out:       &syncBuffer{},
		clipboard: &MockClipboard{},
		editor:    &MockSettingsEditor{},
	}

	deps := Deps{
		Backend:   api.NewClient(srv.URL),
		Store:     ts.store,
		Clipboard: ts.clipboard,
		Confirmer: AlwaysConfirm{},
		ExportDir: t.TempDir(),
	}
	for _, m := range modify {
		m(&deps)
	}

	themes := theme.NewManager(ts.store, theme.WithColors(false), theme.WithOutput(ts.out))
	session, err := NewSession(deps, themes,
		WithInput(input),
		WithOutput(ts.out),
		WithAnimation(false),
		WithSettingsEditor(ts.editor),
	)
	require.NoError(t, err)
	ts.session = session
	return ts
}

func TestNewSession_RequiresThemes(t *testing.T) {
	_, err := NewSession(Deps{}, nil)
	assert.EqualError(t, err, "theme manager is required")

	_, err = NewSession(Deps{}, theme.NewManager(preferences.NewMemoryStore()))
	assert.ErrorContains(t, err, "backend is required")
}

func TestSession_ExampleDraftIsSentOnEmptyEnter(t *testing.T) {
	input := strings.NewReader("/examples\n/example 1\n\n/copy 1\n/settings\n/metrics\nexit\n")
	ts := newTestSession(t, input)

	first := webserver.DefaultExamples()[0]
	ts.clipboard.On("WriteAll", "MATCH (n)\nRETURN n\nLIMIT 25").Return(nil).Once()

	require.NoError(t, ts.session.Run(context.Background(), nil))

	out := ts.out.String()
	assert.Contains(t, out, "Chat session started.")
	assert.Contains(t, out, "Backend: Healthy")
	assert.Contains(t, out, first.Title)
	assert.Contains(t, out, "Draft: "+first.Prompt)
	assert.Contains(t, out, "Assistant > ")
	assert.Contains(t, out, "[1] cypher  (/copy 1)")
	assert.Contains(t, out, "   1 │ MATCH (n)")
	assert.Contains(t, out, "tokens")
	assert.Contains(t, out, CopiedToast)
	assert.Contains(t, out, "512")
	assert.Contains(t, out, "No metrics received yet")
	assert.Contains(t, out, "Ending chat session. Goodbye")

	assert.Equal(t, []api.ChatRequest{{Prompt: first.Prompt, MaxTokens: 512, Temperature: 0.7, TopP: 0.9}},
		ts.server.Backend().Requests())
	ts.clipboard.AssertExpectations(t)
}

func TestSession_TypedLineReplacesDraft(t *testing.T) {
	input := strings.NewReader("/example 2\nfind all movies\n\n/exit\n")
	ts := newTestSession(t, input)

	require.NoError(t, ts.session.Run(context.Background(), nil))

	requests := ts.server.Backend().Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "find all movies", requests[0].Prompt)
}

func TestSession_ClearAndExport(t *testing.T) {
	exportDir := t.TempDir()
	input := strings.NewReader("hello\n/clear\n/export\n/quit\n")
	ts := newTestSession(t, input, func(d *Deps) {
		d.ExportDir = exportDir
		d.Now = func() time.Time { return fixedNow }
	})

	require.NoError(t, ts.session.Run(context.Background(), nil))

	out := ts.out.String()
	assert.Contains(t, out, ClearedPlaceholder)
	assert.Contains(t, out, "Chat exported to")
	assert.Equal(t, 1, ts.server.Backend().Clears())
	assert.Empty(t, ts.session.Controller().Transcript())

	data, err := os.ReadFile(filepath.Join(exportDir, "cypher-chat-2024-03-05.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestSession_EditSettings(t *testing.T) {
	input := strings.NewReader("/settings edit\n/settings edit\nhello\n/exit\n")
	ts := newTestSession(t, input)

	updated := preferences.Settings{MaxTokens: 1024, Temperature: 0.2, TopP: 0.5}
	ts.editor.On("Edit", preferences.DefaultSettings()).Return(updated, nil).Once()
	ts.editor.On("Edit", updated).Return(preferences.Settings{MaxTokens: 0, Temperature: 0.2, TopP: 0.5}, nil).Once()

	require.NoError(t, ts.session.Run(context.Background(), nil))

	out := ts.out.String()
	assert.Contains(t, out, SettingsSavedToast)
	assert.Contains(t, out, "invalid settings")

	stored, err := preferences.LoadSettings(context.Background(), ts.store)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)

	requests := ts.server.Backend().Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, 1024, requests[0].MaxTokens)
	assert.Equal(t, 0.2, requests[0].Temperature)
	assert.Equal(t, 0.5, requests[0].TopP)
	ts.editor.AssertExpectations(t)
}

func TestSession_ThemeToggle(t *testing.T) {
	input := strings.NewReader("/theme\n/exit\n")
	ts := newTestSession(t, input)

	require.NoError(t, ts.session.Run(context.Background(), nil))

	assert.Contains(t, ts.out.String(), "Switched to the dark theme (☀)")
	stored, err := preferences.LoadTheme(context.Background(), ts.store)
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeDark, stored)
}

func TestSession_CommandErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "unknown command", input: "/frobnicate\n", want: "Error: unknown command /frobnicate"},
		{name: "example out of range", input: "/example 99\n", want: "example not found"},
		{name: "example not a number", input: "/example two\n", want: `invalid example number "two"`},
		{name: "example without number", input: "/example\n", want: "usage: /example N"},
		{name: "copy without reply", input: "/copy\n", want: "there is no reply yet"},
		{name: "reuse without reply", input: "/reuse 1\n", want: "there is no reply yet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestSession(t, strings.NewReader(tt.input))

			require.NoError(t, ts.session.Run(context.Background(), nil))
			assert.Contains(t, ts.out.String(), tt.want)
		})
	}
}

func TestSession_BackendErrorIsShownInline(t *testing.T) {
	input := strings.NewReader("find people\n/copy\n")
	ts := newTestSession(t, input)
	ts.server.Backend().SetResponder(func(context.Context, api.ChatRequest) (string, error) {
		return "", errors.New("model overloaded")
	})

	require.NoError(t, ts.session.Run(context.Background(), nil))

	out := ts.out.String()
	assert.Contains(t, out, "Assistant > Error: model overloaded")
	assert.Contains(t, out, "there is no reply yet")

	transcript := ts.session.Controller().Transcript()
	require.Len(t, transcript, 2)
	assert.True(t, transcript[1].IsError)
}

func TestSession_ReuseCodeBlock(t *testing.T) {
	input := strings.NewReader("find people\n/reuse 1\n/copy 2\n")
	ts := newTestSession(t, input)

	require.NoError(t, ts.session.Run(context.Background(), nil))

	out := ts.out.String()
	assert.Contains(t, out, "Draft: MATCH (n)")
	assert.Contains(t, out, "code block 2 not found, the last reply has 1")
	ts.clipboard.AssertNotCalled(t, "WriteAll", mock.Anything)
}

func TestSession_ChannelStatusAnnouncesTransitions(t *testing.T) {
	ts := newTestSession(t, strings.NewReader(""))

	ts.session.SetChannelStatus(ChannelLive)
	ts.session.SetChannelStatus(ChannelLive)
	ts.session.SetChannelStatus(ChannelOffline)

	out := ts.out.String()
	assert.Equal(t, 1, strings.Count(out, "Live metrics: Live"))
	assert.Equal(t, 1, strings.Count(out, "Live metrics: Offline"))
}

func TestSession_MetricsAreBufferedUntilRequested(t *testing.T) {
	ts := newTestSession(t, strings.NewReader("/metrics\n"))

	u := metrics.Update{HealthStatus: "healthy", ActiveRequests: 2, AvgTokensPerSecond: 41.6, RequestsTotal: 7}
	ts.session.UpdateMetrics(u.Display(), metrics.Series{
		Timestamps:      []string{"10:00:00", "10:00:05"},
		TokensPerSecond: []float64{30, 41.6},
		ActiveRequests:  []float64{1, 2},
	})
	assert.Empty(t, ts.out.String())

	require.NoError(t, ts.session.Run(context.Background(), nil))

	out := ts.out.String()
	assert.Contains(t, out, "Tokens/sec")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "Tokens/sec (10:00:00 - 10:00:05)")
	assert.Contains(t, out, "Active requests (10:00:00 - 10:00:05)")
}

func TestSession_LiveMetricsOverPushChannel(t *testing.T) {
	pr, pw := io.Pipe()
	ts := newTestSession(t, pr)

	wsURL := "ws" + strings.TrimPrefix(ts.url, "http") + "/ws"
	ch := push.NewClient(push.NewWebSocketDialer(wsURL), push.WithReconnectDelay(50*time.Millisecond))

	done := make(chan error, 1)
	go func() {
		done <- ts.session.Run(context.Background(), ch)
	}()

	require.Eventually(t, func() bool {
		latest, _ := ts.session.Controller().Metrics()
		return ts.session.Controller().Live() && latest != nil
	}, 5*time.Second, 20*time.Millisecond)

	_, err := io.WriteString(pw, "/metrics\nexit\n")
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
	require.NoError(t, pw.Close())

	out := ts.out.String()
	assert.Contains(t, out, "Live metrics: Live")
	assert.Contains(t, out, "Active requests (")
}

func TestSession_CancelledReadIsReused(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	pr, pw := io.Pipe()
	store := preferences.NewMemoryStore()
	themes := theme.NewManager(store, theme.WithColors(false), theme.WithOutput(io.Discard))
	session, err := NewSession(Deps{Backend: &MockBackend{}, Store: store}, themes,
		WithInput(pr),
		WithOutput(io.Discard),
		WithAnimation(false),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = session.readUserInput(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	go func() {
		_, _ = io.WriteString(pw, "hello\n")
	}()

	line, err := session.readUserInput(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", line)

	require.NoError(t, pw.Close())
}
