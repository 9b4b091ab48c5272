package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/iglive/internal/logtail"
)

// logState holds the log view state.
type logState struct {
	entries []logtail.Entry
	follow  bool
	err     error
	// fetching suppresses overlapping reads of the log file.
	fetching bool
}

type logBatchMsg struct {
	entries []logtail.Entry
}

type logErrorMsg struct {
	err error
}

// refreshLogs returns a command that tails the log file.
func (m *Model) refreshLogs() tea.Cmd {
	if m.logPath == "" || m.logState.fetching {
		return nil
	}
	m.logState.fetching = true
	path := m.logPath
	return func() tea.Msg {
		entries, err := logtail.Tail(path, LogTailLines)
		if err != nil {
			return logErrorMsg{err: err}
		}
		return logBatchMsg{entries: entries}
	}
}

func (m *Model) handleLogBatch(msg logBatchMsg) {
	m.logState.fetching = false
	m.logState.err = nil
	m.logState.entries = msg.entries
	m.updateLogViewport()
}

// updateLogViewport re-renders the log lines.
func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logViewport.SetContent(m.renderLogContent())
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// renderLogContent renders the colorized log lines.
func (m *Model) renderLogContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logViewport.Width

	if len(m.logState.entries) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}

	lines := make([]string, 0, len(m.logState.entries))
	for i, entry := range m.logState.entries {
		lineContent := bg.Render(fmt.Sprintf("%4d │ ", i+1), styles.FaintText) +
			bg.Render(entry.Format(), m.levelStyle(entry.Level, styles))
		lines = append(lines, bg.FillLine(lineContent, width))
	}
	return strings.Join(lines, "\n")
}

// levelStyle colors a line by its log level.
func (m *Model) levelStyle(level string, styles Styles) lipgloss.Style {
	switch strings.ToLower(level) {
	case "error", "fatal", "panic":
		return styles.DangerText
	case "warn", "warning":
		return styles.WarningText
	case "debug", "trace":
		return styles.FaintText
	default:
		return styles.Text
	}
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	_, height := m.contentSize()
	box := m.renderBox("Log "+truncateMiddle(m.logPath, max(m.width-10, 10)), m.logViewport.View(), height)

	autoTail := "off"
	if m.logState.follow {
		autoTail = "on"
	}
	status := fmt.Sprintf("%s • auto-tail %s", countLabel(len(m.logState.entries), "line"), autoTail)
	if m.logState.err != nil {
		status += " • " + m.logState.err.Error()
	}
	return box + "\n" + m.statusLine(status)
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	vp := &m.logViewport
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			vp.GotoBottom()
			return m, m.refreshLogs()
		}
	case key.Matches(msg, m.keys.Up):
		m.logState.follow = false
		vp.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		vp.ScrollDown(1)
	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		vp.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		vp.GotoBottom()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.logState.follow = false
		vp.HalfPageUp()
	case key.Matches(msg, m.keys.HalfPageDown):
		vp.HalfPageDown()
	}
	return m, nil
}
