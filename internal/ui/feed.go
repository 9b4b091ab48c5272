package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/five82/iglive/internal/live"
	"github.com/five82/iglive/internal/state"
)

// updateFeedViewport re-renders the feed when content changed and keeps the
// bottom in view while following.
func (m *Model) updateFeedViewport(changed bool) {
	if !m.ready {
		return
	}
	m.feedViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.Background))
	if changed {
		m.feedViewport.SetContent(m.renderFeedContent())
	}
	if m.feedFollow {
		m.feedViewport.GotoBottom()
	}
}

// visibleFeed returns the feed items the current preferences show.
func (m Model) visibleFeed() []state.FeedItem {
	if !m.prefs.HideJoins {
		return m.snapshot.Feed
	}
	out := make([]state.FeedItem, 0, len(m.snapshot.Feed))
	for _, item := range m.snapshot.Feed {
		if item.Kind != state.FeedJoin {
			out = append(out, item)
		}
	}
	return out
}

func (m Model) renderFeedContent() string {
	bg := NewBgStyle(m.theme.Background)
	styles := m.theme.Styles()
	width := m.feedViewport.Width

	items := m.visibleFeed()
	if len(items) == 0 {
		return bg.FillLine(bg.Render(m.emptyFeedText(), styles.MutedText), width)
	}

	showTime := m.width >= LayoutWideWidth
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, bg.FillLine(m.formatFeedItem(item, showTime, styles, bg), width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) emptyFeedText() string {
	switch m.snapshot.State {
	case live.Connecting:
		return "Connecting..."
	case live.Connected:
		return "Waiting for comments"
	default:
		return "Not connected. Press r to connect."
	}
}

func (m Model) formatFeedItem(item state.FeedItem, showTime bool, styles Styles, bg BgStyle) string {
	var b strings.Builder
	if showTime && !item.Time.IsZero() {
		b.WriteString(bg.Render(item.Time.Local().Format("15:04:05"), styles.FaintText))
		b.WriteString(bg.Space())
	}

	text := strings.Join(strings.Fields(item.Text), " ")
	switch item.Kind {
	case state.FeedJoin:
		joinStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor("join")))
		b.WriteString(bg.Render("→", joinStyle))
		b.WriteString(bg.Space())
		if text == "" && item.Username != "" {
			text = "@" + item.Username + " joined"
		}
		if item.Count > 1 {
			text += " (" + humanize.Comma(item.Count) + ")"
		}
		b.WriteString(bg.Render(text, styles.MutedText))
	case state.FeedSystem:
		sysStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor("system")))
		b.WriteString(bg.Render("•", sysStyle))
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(text, styles.Text.Italic(true)))
	default:
		userStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor("comment"))).Bold(true)
		b.WriteString(bg.Render("@"+item.Username, userStyle))
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(text, styles.Text))
	}
	return b.String()
}

// renderFeed renders the comment feed view.
func (m Model) renderFeed() string {
	_, height := m.contentSize()
	box := m.renderBox(m.feedTitle(), m.feedViewport.View(), height)

	status := countLabel(m.snapshot.CommentCount, "comment") + " • " + countLabel(m.snapshot.JoinCount, "join")
	if m.prefs.HideJoins {
		status += " (joins hidden)"
	}
	if !m.feedFollow {
		status += " • paused"
	}
	return box + "\n" + m.statusLine(status)
}

func (m Model) feedTitle() string {
	if who := m.targetLabel(); who != "" {
		return "Live comments " + who
	}
	return "Live comments"
}

// renderBox draws a rounded box with a title line above content.
func (m Model) renderBox(title, content string, contentHeight int) string {
	styles := m.theme.Styles()
	titleLine := styles.AccentText.Bold(true).Render(truncate(title, max(m.width-4, 1)))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(0, 1).
		Width(max(m.width-2, 1)).
		Height(contentHeight + 1).
		Render(titleLine + "\n" + content)
}

// handleFeedKey processes keyboard input for the feed view.
func (m Model) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	vp := &m.feedViewport
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.feedFollow = !m.feedFollow
		if m.feedFollow {
			vp.GotoBottom()
		}
	case key.Matches(msg, m.keys.Up):
		m.feedFollow = false
		vp.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		vp.ScrollDown(1)
		m.feedFollow = vp.AtBottom()
	case key.Matches(msg, m.keys.Top):
		m.feedFollow = false
		vp.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.feedFollow = true
		vp.GotoBottom()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.feedFollow = false
		vp.HalfPageUp()
	case key.Matches(msg, m.keys.HalfPageDown):
		vp.HalfPageDown()
		m.feedFollow = vp.AtBottom()
	}
	return m, nil
}
