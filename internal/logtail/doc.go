// Package logtail reads the tail of the iglive JSON log for display.
//
// # Overview
//
// Read extracts the last N lines of a file with a ring buffer, so memory
// stays O(N) however large the log grows. Parse and Tail decode the zerolog
// JSON lines the logging package writes into Entry values, and
// Entry.Format renders them as one compact line for the TUI log view.
//
// Lines that are not JSON are kept verbatim, which keeps partially written
// or foreign lines visible instead of dropping them.
package logtail
