// Package ui provides the terminal viewer for a live session.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program styled with Lipgloss. It never talks to
// Instagram: it reads state.Store snapshots on a one second tick and sends
// connect and disconnect requests through the Controls interface.
//
// # Package Structure
//
//   - app.go: Model, message loop, key dispatch and Run
//   - header.go: status bar (state badge, target, viewers, counters, last error) and command bar
//   - feed.go: live comment feed viewport with joins and system comments
//   - logs.go: tail of the JSON log file rendered through logtail
//   - help.go, keys.go: key map and help overlay
//   - theme.go, style_helpers.go: palettes and background-safe rendering
//
// # Views
//
//   - Feed: comments as they arrive, with timestamps on wide terminals
//   - Logs: the last lines of iglive.log, colored by level
//
// Both views follow new content until the user scrolls up; Space toggles
// following.
//
// # Preferences
//
// Theme, join visibility and the last view are saved to prefs.toml whenever
// they change.
package ui
