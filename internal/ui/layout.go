package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the header drops
	// secondary fields.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show comment timestamps.
	LayoutWideWidth = 80
)

// Log display limits.
const (
	// LogTailLines is the number of log file lines read per refresh.
	LogTailLines = 2000
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second
)

const helpModalWidth = 44
