package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/iglive/internal/prefs"
	"github.com/five82/iglive/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewFeed View = iota
	ViewLogs
)

// Controls lets the UI start and stop the live session.
type Controls interface {
	Connect(ctx context.Context) error
	Disconnect()
}

// Options configures the UI.
type Options struct {
	Context context.Context
	Store   *state.Store
	Session Controls
	// Target is shown in the header, usually the broadcaster username.
	Target    string
	LogPath   string
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     *state.Store
	session   Controls
	target    string
	logPath   string
	prefsPath string
	pollTick  time.Duration
	keys      keyMap

	// UI state
	theme       Theme
	prefs       prefs.Prefs
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	// Feed state
	feedViewport viewport.Model
	feedFollow   bool
	feedVersion  time.Time

	// Log state
	logViewport viewport.Model
	logState    logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	userPrefs := opts.Prefs
	if userPrefs.Theme == "" {
		userPrefs.Theme = themeOrder[0]
	}

	m := Model{
		ctx:        ctx,
		store:      opts.Store,
		session:    opts.Session,
		target:     strings.TrimPrefix(strings.TrimSpace(opts.Target), "@"),
		logPath:    opts.LogPath,
		prefsPath:  prefsPath,
		pollTick:   pollTick,
		keys:       DefaultKeyMap(),
		theme:      GetTheme(userPrefs.Theme),
		prefs:      userPrefs,
		feedFollow: true,
		logState:   logState{follow: true},

		feedViewport: viewport.New(0, 0),
		logViewport:  viewport.New(0, 0),
	}
	if userPrefs.ShowLogs {
		m.currentView = ViewLogs
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs {
		cmds = append(cmds, m.refreshLogs())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeViewports()
		m.updateFeedViewport(true)
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		changed := !m.snapshot.LastUpdated.Equal(m.feedVersion)
		m.feedVersion = m.snapshot.LastUpdated
		m.updateFeedViewport(changed)
		return m, nil

	case logBatchMsg:
		m.handleLogBatch(msg)
		return m, nil

	case logErrorMsg:
		m.logState.fetching = false
		m.logState.err = msg.err
		return m, nil

	case connectResultMsg:
		// Errors also reach the store; refresh so the header shows them.
		if m.store != nil {
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.updateFeedViewport(true)
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.currentView == ViewFeed {
			return m.switchView(ViewLogs)
		}
		return m.switchView(ViewFeed)

	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.ViewFeed):
		return m.switchView(ViewFeed)

	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)

	case key.Matches(msg, m.keys.Reconnect):
		return m, m.connectCmd()

	case key.Matches(msg, m.keys.Disconnect):
		if m.session != nil {
			m.session.Disconnect()
		}
		if m.store != nil {
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleJoins):
		m.prefs.HideJoins = !m.prefs.HideJoins
		m.savePrefs()
		m.updateFeedViewport(true)
		return m, nil
	}

	switch m.currentView {
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleFeedKey(msg)
	}
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	m.prefs.ShowLogs = v == ViewLogs
	m.savePrefs()
	if v == ViewLogs {
		return m, m.refreshLogs() // Fetch immediately when entering logs
	}
	return m, nil
}

func (m *Model) savePrefs() {
	if m.prefsPath != "" {
		_ = prefs.Save(m.prefsPath, m.prefs)
	}
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	cmds = append(cmds, tickCmd(m.pollTick))

	return m, tea.Batch(cmds...)
}

func (m *Model) resizeViewports() {
	w, h := m.contentSize()
	m.feedViewport.Width, m.feedViewport.Height = w, h
	m.logViewport.Width, m.logViewport.Height = w, h
}

// contentSize returns the viewport size inside the bordered box: header,
// command bar and status line take three rows, the border two more and the
// box title one.
func (m Model) contentSize() (int, int) {
	return max(m.width-4, 1), max(m.height-6, 1)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderFeed())
	}
	return b.String()
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type connectResultMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func (m Model) connectCmd() tea.Cmd {
	if m.session == nil {
		return nil
	}
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return connectResultMsg{err: session.Connect(ctx)}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context ends.
func Run(opts Options) error {
	m := New(opts)
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, programOpts...)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
