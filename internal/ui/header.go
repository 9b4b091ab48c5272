package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/iglive/internal/live"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(m.buildStatusContent(styles, bg))
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth
	snap := m.snapshot

	parts := []string{bg.Render("iglive", styles.Logo)}
	parts = append(parts, m.stateBadge(styles))

	if who := m.targetLabel(); who != "" {
		parts = append(parts, bg.Render(who, styles.AccentText))
	}

	switch snap.State {
	case live.Connecting:
		parts = append(parts, bg.Render("Connecting...", styles.WarningText.Bold(true)))
	case live.Connected:
		parts = append(parts,
			bg.Render("Viewers:", styles.MutedText)+bg.Space()+
				bg.Render(humanize.Comma(snap.Session.ViewerCount), styles.Text),
		)
		if status := string(snap.Session.BroadcastStatus); status != "" && !compact {
			color := lipgloss.Color(m.theme.StatusColor(status))
			parts = append(parts, bg.Render(status, lipgloss.NewStyle().Foreground(color)))
		}
		parts = append(parts,
			bg.Render("Comments:", styles.MutedText)+bg.Space()+
				bg.Render(humanize.Comma(int64(snap.CommentCount)), styles.Text),
		)
		if !compact {
			parts = append(parts,
				bg.Render("Joins:", styles.MutedText)+bg.Space()+
					bg.Render(humanize.Comma(int64(snap.JoinCount)), styles.Text),
			)
			if !snap.ConnectedAt.IsZero() {
				parts = append(parts,
					bg.Render("Up", styles.MutedText)+bg.Space()+
						bg.Render(humanizeDuration(time.Since(snap.ConnectedAt)), styles.Text),
				)
			}
		}
	}

	if snap.LastError != nil {
		parts = append(parts, m.formatError(compact, styles, bg))
	} else if !compact && !snap.LastUpdated.IsZero() {
		parts = append(parts, bg.Render(humanize.Time(snap.LastUpdated), styles.FaintText))
	}

	return bg.Join(parts, "  ")
}

func (m Model) stateBadge(styles Styles) string {
	label := strings.ToUpper(m.snapshot.State.String())
	return styles.StatusStyle(m.snapshot.State.String()).Render("● " + label)
}

func (m Model) targetLabel() string {
	if m.snapshot.HasSession && m.snapshot.Session.Owner.Username != "" {
		return "@" + m.snapshot.Session.Owner.Username
	}
	if m.target != "" {
		return "@" + m.target
	}
	return ""
}

// formatError renders the last error with a short classification.
func (m Model) formatError(compact bool, styles Styles, bg BgStyle) string {
	label := classifyError(m.snapshot.LastError)
	if compact {
		return bg.Render(label, styles.DangerText)
	}
	limit := max(m.width/3, 20)
	detail := truncate(m.snapshot.LastError.Error(), limit)
	return bg.Render(label, styles.DangerText) + bg.Space() + bg.Render(detail, styles.WarningText)
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"j/k", "Scroll"},
			{"c", "Feed"},
			{"?", "More"},
		}
	default:
		joins := "Hide joins"
		if m.prefs.HideJoins {
			joins = "Show joins"
		}
		followLabel := "Pause"
		if !m.feedFollow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"J", joins},
			{"j/k", "Scroll"},
			{"l", "Logs"},
			{"?", "More"},
		}
	}

	if m.snapshot.State == live.Disconnected {
		commands = append([]cmd{{"r", "Connect"}}, commands...)
	} else if m.snapshot.State == live.Connected {
		commands = append([]cmd{{"d", "Disconnect"}}, commands...)
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	// Theme indicator
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// statusLine renders the single line under the content box.
func (m Model) statusLine(text string) string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Background)
	return bg.FillLine(bg.Render(truncate(text, max(m.width-1, 1)), styles.FaintText), m.width)
}

func countLabel(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), noun)
}
