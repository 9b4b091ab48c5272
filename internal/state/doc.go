// Package state keeps a thread-safe read model of a live session for the UI.
//
// # Overview
//
// The live controller publishes events synchronously on its polling
// goroutines; the TUI renders on its own schedule. Store sits between them:
// Apply folds each event into a Snapshot under a write lock, and Snapshot
// hands the UI an independent copy under a read lock.
//
//	Producer (live.Controller):      Consumer (UI):
//	  event --> store.Apply()   -->    store.Snapshot() --> render
//
// # What is tracked
//
//   - connection state, including Connecting set by the caller
//   - the current session and its latest heartbeat
//   - a bounded feed of user comments, joins and other system comments
//   - comment and join counters for the session lifetime of the store
//   - the last error, kept after disconnect so the UI can show why
//
// Join announcements arrive twice, as a system comment and as a join; the
// feed lists them once, as a join.
package state
