package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"parley/internal/chat"
	"parley/internal/completion"
	"parley/internal/prefs"
	"parley/internal/turn"
)

const (
	defaultAppWidth      = 100
	defaultSidebarWidth  = 28
	minimumMessagesWidth = 40
)

// TurnRunner drives one turn against the session store.
type TurnRunner interface {
	SubmitTurn(ctx context.Context, sessionID, text string) turn.Result
}

// Persister receives selection and settings changes worth surviving a
// restart. Session content persistence happens inside the store itself.
type Persister interface {
	SaveActiveID(id string)
	SavePreferences(p prefs.Preferences)
}

// AppConfig configures the root BubbleTea model.
type AppConfig struct {
	Version   string
	ThemeName string
	Store     *chat.Store
	Selector  *chat.Selector
	Runner    TurnRunner
	Prefs     *prefs.Store
	Persister Persister
}

// TurnResultMsg delivers a finished turn back to the UI loop.
type TurnResultMsg struct {
	Result turn.Result
}

// turnStartedMsg triggers a redraw right after the user message landed in
// the store, without waiting for the network round trip.
type turnStartedMsg struct {
	SessionID string
}

// App is the root TUI model: sidebar, message pane, input line and the
// optional settings modal over the session/turn core.
type App struct {
	theme   Theme
	version string

	store     *chat.Store
	selector  *chat.Selector
	runner    TurnRunner
	prefs     *prefs.Store
	persister Persister

	width  int
	height int

	status   StatusModel
	sidebar  SidebarModel
	messages MessagesModel
	input    InputModel

	settings *SettingsModel
	renaming bool
	pending  map[string]bool
}

// NewApp constructs the root TUI model.
func NewApp(cfg AppConfig) *App {
	address := ""
	if cfg.Prefs != nil {
		address = cfg.Prefs.Current().ServerAddress
	}

	model := &App{
		theme:     ResolveTheme(cfg.ThemeName),
		version:   strings.TrimSpace(cfg.Version),
		store:     cfg.Store,
		selector:  cfg.Selector,
		runner:    cfg.Runner,
		prefs:     cfg.Prefs,
		persister: cfg.Persister,
		width:     defaultAppWidth,
		status:    NewStatusModel(cfg.Version, address),
		sidebar:   NewSidebarModel(),
		messages:  NewMessagesModel(),
		input:     NewInputModel(">", "Type message and press Enter"),
		pending:   make(map[string]bool),
	}
	model.refresh()
	return model
}

// Init starts background commands if needed.
func (m *App) Init() tea.Cmd {
	return nil
}

// Update applies state changes from user input and turn results.
func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.messages.SetViewportHeight(m.messagesViewportHeight())
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case turnStartedMsg:
		m.refresh()
		return m, nil

	case TurnResultMsg:
		m.finishTurn(msg.Result)
		return m, nil
	}

	return m, nil
}

// View renders status bar, sidebar plus message pane, and the input line.
func (m *App) View() string {
	width := m.width
	if width <= 0 {
		width = defaultAppWidth
	}

	statusLine := m.status.Render(width, m.theme)
	body := m.renderBody(width)
	inputLine := m.input.Render(width, m.theme)
	return strings.Join([]string{statusLine, body, inputLine}, "\n")
}

func (m *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	if m.settings != nil {
		return m.handleSettingsKey(msg)
	}
	if m.renaming {
		return m.handleRenameKey(msg)
	}

	switch msg.String() {
	case "ctrl+n":
		created := m.store.CreateSession()
		m.selector.Select(created.ID)
		m.persister.SaveActiveID(created.ID)
		m.status.ClearNotice()
		m.refresh()
		return nil
	case "ctrl+x":
		m.deleteActiveSession()
		return nil
	case "ctrl+r":
		return m.startRename()
	case "ctrl+o":
		m.openSettings()
		return nil
	case "tab":
		m.cycleSession(1)
		return nil
	case "shift+tab":
		m.cycleSession(-1)
		return nil
	case "pgup":
		m.messages.PageUp()
		m.rememberViewOffset()
		return nil
	case "pgdown":
		m.messages.PageDown()
		m.rememberViewOffset()
		return nil
	case "end":
		m.messages.ScrollToBottom()
		m.rememberViewOffset()
		return nil
	}

	if submitted := m.input.HandleKey(msg); submitted {
		content := m.input.Value()
		m.input.Clear()
		return m.submit(content)
	}
	return nil
}

func (m *App) submit(content string) tea.Cmd {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	active := m.selector.Active()
	if active == "" {
		m.status.SetNotice("no chat selected, ctrl+n creates one")
		return nil
	}
	if m.pending[active] {
		m.status.SetNotice("waiting for the previous reply")
		return nil
	}

	m.pending[active] = true
	m.status.ClearNotice()
	m.status.SetState("waiting")
	m.sidebar.SetPending(active, true)

	runner := m.runner
	// Two commands: the turn itself, plus an immediate redraw so the user
	// message is visible while the request is in flight.
	return tea.Batch(
		func() tea.Msg {
			return TurnResultMsg{Result: runner.SubmitTurn(context.Background(), active, content)}
		},
		func() tea.Msg {
			return turnStartedMsg{SessionID: active}
		},
	)
}

func (m *App) finishTurn(result turn.Result) {
	delete(m.pending, result.SessionID)
	m.sidebar.SetPending(result.SessionID, false)
	if len(m.pending) == 0 {
		m.status.SetState("idle")
	}

	if result.Status == turn.StatusFailed {
		m.status.SetNotice(failureNotice(result.Err))
	}
	m.refresh()
}

func (m *App) deleteActiveSession() {
	active := m.selector.Active()
	if active == "" {
		return
	}
	m.store.DeleteSession(active)
	m.selector.OnDelete(active)
	m.persister.SaveActiveID(m.selector.Active())
	delete(m.pending, active)
	m.sidebar.SetPending(active, false)
	m.refresh()
}

func (m *App) startRename() tea.Cmd {
	active := m.selector.Active()
	if active == "" {
		return nil
	}
	session, err := m.store.GetSession(active)
	if err != nil {
		return nil
	}
	m.renaming = true
	m.input.SetValue(session.Name)
	m.input.SetPlaceholder("New name, enter to apply, esc to cancel")
	return nil
}

func (m *App) handleRenameKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyEsc {
		m.stopRename()
		return nil
	}
	if submitted := m.input.HandleKey(msg); submitted {
		name := m.input.Value()
		m.store.RenameSession(m.selector.Active(), name)
		m.stopRename()
		m.refresh()
	}
	return nil
}

func (m *App) stopRename() {
	m.renaming = false
	m.input.Clear()
	m.input.SetPlaceholder("Type message and press Enter")
}

func (m *App) openSettings() {
	settings := NewSettingsModel(m.prefs.Current())
	m.settings = &settings
}

func (m *App) handleSettingsKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyEsc {
		m.settings = nil
		return nil
	}
	if submitted := m.settings.HandleKey(msg); !submitted {
		return nil
	}

	values, err := m.settings.Values()
	if err != nil {
		m.settings.SetError(err.Error())
		return nil
	}
	if err := m.prefs.Update(values); err != nil {
		m.settings.SetError(err.Error())
		return nil
	}
	m.persister.SavePreferences(m.prefs.Current())
	m.status.SetAddress(values.ServerAddress)
	m.settings = nil
	return nil
}

func (m *App) cycleSession(step int) {
	summaries := m.store.ListSessions()
	if len(summaries) == 0 {
		return
	}

	active := m.selector.Active()
	index := 0
	for position, summary := range summaries {
		if summary.ID == active {
			index = position + step
			break
		}
	}
	index = (index + len(summaries)) % len(summaries)

	m.rememberViewOffset()
	if m.selector.Select(summaries[index].ID) {
		m.persister.SaveActiveID(summaries[index].ID)
	}
	m.refresh()
	m.messages.SetScrollTop(m.selector.ViewOffset(summaries[index].ID))
}

func (m *App) rememberViewOffset() {
	if active := m.selector.Active(); active != "" {
		m.selector.SetViewOffset(active, m.messages.ScrollTop())
	}
}

// refresh rebuilds the display models from the store, which stays the
// single source of truth for conversation content.
func (m *App) refresh() {
	m.sidebar.SetItems(m.store.ListSessions())
	m.sidebar.SetActive(m.selector.Active())

	active := m.selector.Active()
	if active == "" {
		m.messages.SetMessages(nil)
		return
	}
	session, err := m.store.GetSession(active)
	if err != nil {
		m.messages.SetMessages(nil)
		return
	}
	m.messages.SetMessages(session.Messages)
}

func (m *App) renderBody(width int) string {
	if m.settings != nil {
		return m.settings.Render(width-2, m.theme)
	}

	sidebarWidth := defaultSidebarWidth
	messagesWidth := width - sidebarWidth - 6
	if messagesWidth < minimumMessagesWidth {
		sidebarWidth = 0
	}

	messagesPanel := m.messages.Render(messagesWidth, m.theme)
	if sidebarWidth == 0 {
		return messagesPanel
	}
	sidebarPanel := m.sidebar.Render(sidebarWidth, lipgloss.Height(messagesPanel)-2, m.theme)
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebarPanel, messagesPanel)
}

func (m *App) messagesViewportHeight() int {
	// Status bar, input line, panel borders and padding.
	height := m.height - 6
	if height < 0 {
		height = 0
	}
	return height
}

func failureNotice(err error) string {
	var netErr *completion.NetworkError
	if errors.As(err, &netErr) {
		return "network error: endpoint unreachable"
	}
	var svcErr *completion.ServiceError
	if errors.As(err, &svcErr) {
		return fmt.Sprintf("service error: status %d", svcErr.StatusCode)
	}
	var malformed *completion.MalformedResponseError
	if errors.As(err, &malformed) {
		return "malformed response from endpoint"
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
