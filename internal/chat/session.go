package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shaharia-lab/cypherchat/internal/api"
	"github.com/shaharia-lab/cypherchat/internal/logger"
	"github.com/shaharia-lab/cypherchat/internal/metrics"
	"github.com/shaharia-lab/cypherchat/internal/preferences"
	"github.com/shaharia-lab/cypherchat/internal/push"
	"github.com/shaharia-lab/cypherchat/internal/render"
	"github.com/shaharia-lab/cypherchat/internal/theme"
)

const (
	thinkingInterval = 300 * time.Millisecond
	chartWidth       = 60
	userPrompt       = "You > "
)

// Session is the interactive terminal front end of a Controller. It implements View.
type Session struct {
	ctrl   *Controller
	themes *theme.Manager
	editor SettingsEditor
	log    logger.Logger

	in      *bufio.Reader
	out     io.Writer
	animate bool

	// pending is a line read that outlived a cancelled wait. It is owned by the loop goroutine.
	pending chan lineResult

	// mu guards the writer and everything below it
	mu        sync.Mutex
	channel   push.Channel
	draft     string
	prompting bool
	settings  preferences.Settings
	examples  []api.Example
	health    *Health
	status    *ChannelStatus
	display   *metrics.Display
	series    metrics.Series
	themeName preferences.ThemeName

	thinkingStop chan struct{}
	thinkingDone chan struct{}
}

var _ View = (*Session)(nil)

// SessionOption configures a Session
type SessionOption func(*Session)

// WithInput reads user lines from r instead of stdin
func WithInput(r io.Reader) SessionOption {
	return func(s *Session) {
		s.in = bufio.NewReader(r)
	}
}

// WithOutput writes the transcript to w instead of stdout
func WithOutput(w io.Writer) SessionOption {
	return func(s *Session) {
		s.out = w
	}
}

// WithAnimation turns the thinking animation on or off
func WithAnimation(enabled bool) SessionOption {
	return func(s *Session) {
		s.animate = enabled
	}
}

// WithSettingsEditor replaces the survey based settings editor
func WithSettingsEditor(e SettingsEditor) SessionOption {
	return func(s *Session) {
		s.editor = e
	}
}

// NewSession creates a terminal session and the controller it drives.
// deps.View and deps.Themes are set by the session.
func NewSession(deps Deps, themes *theme.Manager, opts ...SessionOption) (*Session, error) {
	if themes == nil {
		return nil, errors.New("theme manager is required")
	}

	s := &Session{
		themes:   themes,
		editor:   SurveySettingsEditor{},
		log:      deps.Logger,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		animate:  true,
		settings: preferences.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Discard
	}

	deps.View = s
	deps.Themes = themes
	ctrl, err := NewController(deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat controller: %w", err)
	}
	s.ctrl = ctrl

	return s, nil
}

// Controller returns the controller driven by this session
func (s *Session) Controller() *Controller {
	return s.ctrl
}

// Run initializes the controller, starts the push channel (when ch is not nil) and reads
// input until exit, end of input or cancellation of ctx. The push channel is stopped before Run returns.
func (s *Session) Run(ctx context.Context, ch push.Channel) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.channel = ch
	s.mu.Unlock()

	s.ctrl.Init(ctx)
	s.showWelcomeMessage()

	var wg sync.WaitGroup
	if ch != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.ctrl.RunPush(ctx, ch); err != nil {
				s.log.Error("push channel stopped", map[string]interface{}{logger.ErrorKey: err})
			}
		}()
	}

	err := s.loop(ctx)

	cancel()
	wg.Wait()
	return err
}

func (s *Session) loop(ctx context.Context) error {
	for {
		line, err := s.readUserInput(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				s.println(s.theme().Info().Sprint("\nEnding chat session. Goodbye"))
				return nil
			}
			return fmt.Errorf("error reading input: %w", err)
		}

		if line == "" {
			line = s.takeDraft()
			if line == "" {
				continue
			}
		}

		if strings.EqualFold(line, "exit") {
			s.println(s.theme().Info().Sprint("Ending chat session. Goodbye"))
			return nil
		}

		if strings.HasPrefix(line, "/") {
			done, err := s.handleCommand(ctx, line)
			if err != nil {
				s.println(s.theme().Error().Sprintf("Error: %v", err))
			}
			if done {
				s.println(s.theme().Info().Sprint("Ending chat session. Goodbye"))
				return nil
			}
			continue
		}

		s.takeDraft()
		if err := s.ctrl.SendMessage(ctx, line); err != nil {
			s.println(s.theme().Error().Sprintf("Error: %v", err))
		}
	}
}

type lineResult struct {
	line string
	err  error
}

// readUserInput blocks for one line. Only one read is ever pending so survey prompts
// can own stdin between reads. A read still blocked when ctx is cancelled is kept and
// reused by the next call; its goroutine exits once the input yields a line or EOF.
func (s *Session) readUserInput(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.prompting = true
	s.writePrompt()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.prompting = false
		s.mu.Unlock()
	}()

	result := s.pending
	if result == nil {
		result = make(chan lineResult, 1)
		go func() {
			line, err := s.in.ReadString('\n')
			if err != nil && line != "" && errors.Is(err, io.EOF) {
				err = nil
			}
			result <- lineResult{line: line, err: err}
		}()
	}

	select {
	case r := <-result:
		s.pending = nil
		return strings.TrimSpace(r.line), r.err
	case <-ctx.Done():
		s.pending = result
		return "", ctx.Err()
	}
}

// writePrompt must be called with s.mu held
func (s *Session) writePrompt() {
	t := s.theme()
	if s.draft != "" {
		fmt.Fprintln(s.out, t.Subtle().Sprintf("Draft: %s", s.draft))
		fmt.Fprintln(s.out, t.Subtle().Sprint("(press Enter to send, or type a new message)"))
	}
	fmt.Fprint(s.out, t.Primary().Sprint(userPrompt))
}

func (s *Session) takeDraft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft
	s.draft = ""
	return d
}

func (s *Session) theme() theme.Theme {
	return s.themes.GetCurrentTheme()
}

func (s *Session) println(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, line)
}

// announce prints a line that may arrive while the user is typing
func (s *Session) announce(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prompting {
		fmt.Fprintln(s.out)
	}
	fmt.Fprintln(s.out, line)
	if s.prompting {
		s.writePrompt()
	}
}

func (s *Session) showWelcomeMessage() {
	t := s.theme()
	s.println(t.Info().Sprint("\nChat session started."))
	s.println(t.Secondary().Sprint("Ask for a Cypher query and press Enter. Type /help for commands or 'exit' to end the session."))

	s.mu.Lock()
	h := s.health
	s.mu.Unlock()
	if h != nil {
		s.println(t.Subtle().Sprint("Backend: ") + healthStyle(t, h.Level).Sprint(h.Label))
	}
}

func (s *Session) handleCommand(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "/exit", "/quit":
		return true, nil
	case "/help":
		s.showHelp()
	case "/clear":
		if _, err := s.ctrl.ClearChat(ctx); err != nil {
			return false, err
		}
	case "/export":
		path, err := s.ctrl.ExportChat(ctx)
		if err != nil {
			return false, err
		}
		s.println(s.theme().Success().Sprintf("Chat exported to %s", path))
	case "/settings":
		if len(args) > 0 && strings.EqualFold(args[0], "edit") {
			return false, s.editSettings(ctx)
		}
		s.showSettings()
	case "/theme":
		name, err := s.ctrl.ToggleTheme(ctx)
		if err != nil {
			s.println(s.theme().Warning().Sprintf("Theme switched to %s but could not be saved", name))
		}
	case "/examples":
		if len(s.ctrl.Examples()) == 0 {
			if err := s.ctrl.LoadExamples(ctx); err != nil {
				return false, err
			}
		}
		s.showExamples()
	case "/example":
		if len(args) != 1 {
			return false, errors.New("usage: /example N")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("invalid example number %q", args[0])
		}
		return false, s.ctrl.UseExample(n - 1)
	case "/copy":
		text, err := s.pick(args)
		if err != nil {
			return false, err
		}
		if !s.ctrl.CopyToClipboard(text) {
			s.println(s.theme().Warning().Sprint("Could not copy to clipboard"))
		}
	case "/reuse":
		text, err := s.pick(args)
		if err != nil {
			return false, err
		}
		s.ctrl.UseAsPrompt(text)
	case "/health":
		h := s.ctrl.CheckHealth(ctx)
		t := s.theme()
		s.println(t.Subtle().Sprint("Backend: ") + healthStyle(t, h.Level).Sprint(h.Label))
	case "/metrics":
		s.showMetrics()
	default:
		return false, fmt.Errorf("unknown command %s, type /help for the list", fields[0])
	}
	return false, nil
}

// pick returns code block N of the last reply, or the whole reply when no N is given
func (s *Session) pick(args []string) (string, error) {
	reply, ok := s.ctrl.LastAssistantMessage()
	if !ok {
		return "", errors.New("there is no reply yet")
	}
	if len(args) == 0 {
		return reply.Content, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid code block number %q", args[0])
	}
	blocks := render.CodeBlocks(reply.Content)
	if n < 1 || n > len(blocks) {
		return "", fmt.Errorf("code block %d not found, the last reply has %d", n, len(blocks))
	}
	return blocks[n-1].Code, nil
}

func (s *Session) showHelp() {
	t := s.theme()
	commands := [][2]string{
		{"/help", "Show this help"},
		{"/clear", "Clear the chat history"},
		{"/export", "Export the chat history to a JSON file"},
		{"/settings", "Show the generation settings"},
		{"/settings edit", "Change the generation settings"},
		{"/theme", "Switch between the light and dark theme"},
		{"/examples", "List the example prompts"},
		{"/example N", "Put example N into the input"},
		{"/copy [N]", "Copy code block N of the last reply, or the whole reply"},
		{"/reuse [N]", "Put code block N of the last reply, or the whole reply, into the input"},
		{"/health", "Check the backend health"},
		{"/metrics", "Show the live metrics and charts"},
		{"/exit", "End the session"},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range commands {
		fmt.Fprintf(s.out, "  %s %s\n", t.Primary().Sprintf("%-15s", c[0]), t.Subtle().Sprint(c[1]))
	}
}

func (s *Session) editSettings(ctx context.Context) error {
	updated, err := s.editor.Edit(s.ctrl.Settings())
	if err != nil {
		return fmt.Errorf("failed to edit settings: %w", err)
	}
	return s.ctrl.SaveSettings(ctx, updated)
}

func (s *Session) showSettings() {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := theme.NewTable(s.out, s.theme(), "Setting", "Value")
	table.Append([]string{"Max tokens", strconv.Itoa(s.settings.MaxTokens)})
	table.Append([]string{"Temperature", strconv.FormatFloat(s.settings.Temperature, 'f', -1, 64)})
	table.Append([]string{"Top P", strconv.FormatFloat(s.settings.TopP, 'f', -1, 64)})
	table.Render()
}

func (s *Session) showExamples() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.examples) == 0 {
		fmt.Fprintln(s.out, s.theme().Subtle().Sprint("No examples available"))
		return
	}

	table := theme.NewTable(s.out, s.theme(), "#", "Title", "Category", "Prompt")
	for i, e := range s.examples {
		table.Append([]string{strconv.Itoa(i + 1), e.Title, e.Category, e.Prompt})
	}
	table.Render()
	fmt.Fprintln(s.out, s.theme().Subtle().Sprint("Use /example N to put a prompt into the input"))
}

func (s *Session) showMetrics() {
	s.mu.Lock()
	display := s.display
	series := s.series
	ch := s.channel
	s.mu.Unlock()

	if display == nil {
		if ch != nil {
			if err := ch.RequestMetrics(); err != nil {
				s.log.Debug("failed to request metrics", map[string]interface{}{logger.ErrorKey: err})
			}
		}
		s.println(s.theme().Subtle().Sprint("No metrics received yet"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.theme()
	table := theme.NewTable(s.out, s.theme(), "Metric", "Value")
	healthRow := []string{"Health", display.Health}
	if t.IsEnabled() {
		healthColor := tablewriter.Colors{tablewriter.Bold, tablewriter.FgGreenColor}
		if display.Health != "healthy" {
			healthColor = tablewriter.Colors{tablewriter.Bold, tablewriter.FgYellowColor}
		}
		table.Rich(healthRow, []tablewriter.Colors{{}, healthColor})
	} else {
		table.Append(healthRow)
	}
	table.Append([]string{"Active requests", display.ActiveRequests})
	table.Append([]string{"Tokens/sec", display.TokensPerSecond})
	table.Append([]string{"Total requests", display.RequestsTotal})
	table.Append([]string{"Total tokens", display.TokensTotal})
	table.Append([]string{"Avg generation", display.AvgGeneration})
	table.Render()

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, metrics.RenderCharts(series, chartWidth))
}

func healthStyle(t theme.Theme, level Level) *theme.Style {
	switch level {
	case LevelOK:
		return t.Success()
	case LevelWarning:
		return t.Warning()
	default:
		return t.Error()
	}
}

// SetInputEnabled implements View. Input is only read between sends.
func (s *Session) SetInputEnabled(bool) {}

// SetTyping implements View by running the thinking animation
func (s *Session) SetTyping(visible bool) {
	if !s.animate {
		return
	}
	if visible {
		s.startThinking()
		return
	}
	s.stopThinking()
}

func (s *Session) startThinking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.thinkingStop != nil {
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.thinkingStop = stop
	s.thinkingDone = done

	go func() {
		defer close(done)
		dots := []string{".  ", ".. ", "..."}
		ticker := time.NewTicker(thinkingInterval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			s.mu.Lock()
			fmt.Fprint(s.out, s.theme().Warning().Sprintf("\rThinking%s", dots[i%3]))
			s.mu.Unlock()

			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *Session) stopThinking() {
	s.mu.Lock()
	stop, done := s.thinkingStop, s.thinkingDone
	s.thinkingStop, s.thinkingDone = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done

	s.mu.Lock()
	fmt.Fprint(s.out, "\r                \r")
	s.mu.Unlock()
}

// AppendMessage implements View. User messages are already on screen as typed input.
func (s *Session) AppendMessage(m Message) {
	if m.Role == RoleUser {
		return
	}

	t := s.theme()
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.IsError {
		fmt.Fprintln(s.out, t.Assistant().Sprint("Assistant > ")+t.Error().Sprint(render.Sanitize(m.Content)))
		return
	}

	rendered := render.NewTerminal(t.HighlightStyle(), t.IsEnabled()).Render(m.Content)
	fmt.Fprintln(s.out, t.Assistant().Sprint("Assistant > "))
	fmt.Fprintln(s.out, rendered.Text)
	if m.Metadata != nil {
		fmt.Fprintln(s.out, t.Subtle().Sprint(m.Metadata.Text()))
	}
	fmt.Fprintln(s.out)
}

// ResetTranscript implements View
func (s *Session) ResetTranscript(placeholder string) {
	t := s.theme()
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.IsEnabled() {
		fmt.Fprint(s.out, "\033[H\033[2J")
	}
	fmt.Fprintln(s.out, t.Info().Sprint(placeholder))
}

// SetInput implements View. A non-empty text becomes the draft sent on an empty Enter.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
}

// FocusInput implements View. The terminal input always has focus.
func (s *Session) FocusInput() {}

// ScrollToChat implements View. The terminal always shows the latest output.
func (s *Session) ScrollToChat() {}

// ShowSettings implements View
func (s *Session) ShowSettings(settings preferences.Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

// CloseSettings implements View
func (s *Session) CloseSettings() {}

// ShowExamples implements View
func (s *Session) ShowExamples(examples []api.Example) {
	s.mu.Lock()
	s.examples = append([]api.Example(nil), examples...)
	s.mu.Unlock()
}

// SetHealth implements View
func (s *Session) SetHealth(h Health) {
	s.mu.Lock()
	s.health = &h
	s.mu.Unlock()
}

// SetChannelStatus implements View. Only transitions are announced.
func (s *Session) SetChannelStatus(status ChannelStatus) {
	s.mu.Lock()
	changed := s.status == nil || *s.status != status
	s.status = &status
	s.mu.Unlock()

	if !changed {
		return
	}
	t := s.theme()
	s.announce(t.Subtle().Sprint("Live metrics: ") + healthStyle(t, status.Level).Sprint(status.Label))
}

// UpdateMetrics implements View. The latest values are kept for /metrics.
func (s *Session) UpdateMetrics(d metrics.Display, series metrics.Series) {
	s.mu.Lock()
	s.display = &d
	s.series = series
	s.mu.Unlock()
}

// ApplyTheme implements View. The first theme applied is silent.
func (s *Session) ApplyTheme(name preferences.ThemeName, icon string) {
	s.mu.Lock()
	previous := s.themeName
	s.themeName = name
	s.mu.Unlock()

	if previous == "" || previous == name {
		return
	}
	s.announce(s.theme().Info().Sprintf("Switched to the %s theme (%s)", name, icon))
}

// Toast implements View. Terminal notices stay in the scrollback.
func (s *Session) Toast(message string, _ time.Duration) {
	s.announce(s.theme().Success().Sprint(message))
}

// Health returns the last health indicator shown
func (s *Session) Health() (Health, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.health == nil {
		return Health{}, false
	}
	return *s.health, true
}
