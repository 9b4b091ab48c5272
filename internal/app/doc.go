// Package app provides the orchestration layer for iglive.
//
// # Overview
//
// This package wires together configuration, logging, the Instagram client,
// the live session controller, the UI read model and the TUI. It is the
// composition root: every dependency is built here and handed down.
//
// # Architecture
//
//  1. Load ~/.config/iglive/config.toml and environment overrides
//  2. Apply CLI overrides (target, user id, poll interval)
//  3. Open the JSON log file, plus a console sink in plain mode
//  4. Build instagram.Client and a live.Controller on top of it
//  5. Attach a state.Store to the controller's events
//  6. Connect, then either print events (plain) or run the TUI
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()          Read config + env
//	       ├─────> logging.New()          zerolog root logger
//	       ├─────> instagram.NewClient()  Cookie session + rate limit
//	       ├─────> live.NewController()   Session state machine
//	       ├─────> store.Attach(ctrl)     Events -> snapshot
//	       └─────> runPlain() / ui.Run()  Blocks until done
//
//	Controller polls (own goroutines):
//	┌─────────────────────────────────────────┐
//	│ heartbeat tick / comment tick           │
//	│  ├─> instagram API                      │
//	│  └─> events ──> store.Apply()           │
//	│                 └─> UI reads Snapshot() │
//	└─────────────────────────────────────────┘
//
// # Session Lifetime
//
// Plain mode returns when the broadcast ends (nil, or the error that ended
// it), when the first connect fails, or when ctx is cancelled. The TUI keeps
// running after a session ends so the feed stays readable; the user can
// reconnect from there. Nothing reconnects on its own.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - invalid config file
//   - no target, or no credentials without NoLogin
//   - log file cannot be opened
//   - connect failure in plain mode
//
// Session errors after connect are published as events, logged, and shown
// in the TUI header.
package app
