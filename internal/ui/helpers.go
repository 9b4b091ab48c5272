package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/five82/iglive/internal/instagram"
)

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		h := int(d.Hours())
		if m := int(d.Minutes()) % 60; m > 0 {
			return fmt.Sprintf("%dh %dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
}

// truncate shortens s to max runes with a trailing ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// truncateMiddle keeps both ends of s, favoring the end (file names).
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 5 {
		return string(runes[:max])
	}
	endLen := (max - 3) * 2 / 3
	startLen := max - 3 - endLen
	return string(runes[:startLen]) + "..." + string(runes[len(runes)-endLen:])
}

// classifyError returns a short header label for a session error.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	var (
		authErr *instagram.AuthError
		netErr  *instagram.NetworkError
		apiErr  *instagram.APIError
	)
	switch {
	case errors.Is(err, instagram.ErrUserOffline):
		return "OFFLINE"
	case errors.Is(err, instagram.ErrUnauthenticated):
		return "LOGIN REQUIRED"
	case errors.As(err, &authErr):
		return "AUTH " + strings.ToUpper(authErr.Reason.String())
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	case errors.As(err, &netErr):
		return "NETWORK"
	case errors.As(err, &apiErr):
		return "API"
	default:
		return "ERROR"
	}
}
