package ui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/five82/iglive/internal/instagram"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name string
		in   int64 // seconds
		want string
	}{
		{"negative", -5, "now"},
		{"subsecond", 0, "now"},
		{"seconds", 12, "12s"},
		{"minutes", 61, "1m"},
		{"hours_only", 2*60*60 + 10, "2h"},
		{"hours_minutes", 2*60*60 + 3*60, "2h 3m"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := humanizeDuration(time.Duration(tc.in) * time.Second)
			if got != tc.want {
				t.Fatalf("humanizeDuration(%d) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Fatalf("truncate short = %q, want hello", got)
	}
	if got := truncate("hello world", 8); got != "hello..." {
		t.Fatalf("truncate = %q, want hello...", got)
	}
	if got := truncate("héllo", 2); got != "hé" {
		t.Fatalf("truncate runes = %q, want hé", got)
	}
	if got := truncate("x", 0); got != "" {
		t.Fatalf("truncate zero = %q, want empty", got)
	}
}

func TestTruncateMiddle(t *testing.T) {
	got := truncateMiddle("/home/user/.local/share/iglive/iglive.log", 20)
	if len([]rune(got)) != 20 {
		t.Fatalf("truncateMiddle = %q (%d runes), want 20", got, len([]rune(got)))
	}
	if got[len(got)-len("iglive.log"):] != "iglive.log" {
		t.Fatalf("truncateMiddle should keep the file name, got %q", got)
	}
	if got := truncateMiddle("abcd", 2); got != "ab" {
		t.Fatalf("truncateMiddle tiny = %q, want ab", got)
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"offline", fmt.Errorf("fetch live info: %w", &instagram.UserOfflineError{}), "OFFLINE"},
		{"login wall", &instagram.AuthError{Reason: instagram.AuthUnauthenticated}, "LOGIN REQUIRED"},
		{"bad password", &instagram.AuthError{Reason: instagram.AuthIncorrectPassword}, "AUTH INCORRECT_PASSWORD"},
		{"timeout", &instagram.NetworkError{Op: "fetch heartbeat", Err: context.DeadlineExceeded}, "TIMEOUT"},
		{"network", &instagram.NetworkError{Op: "fetch heartbeat", Err: errors.New("refused")}, "NETWORK"},
		{"api", &instagram.APIError{Op: "fetch comments", Status: "fail"}, "API"},
		{"other", errors.New("boom"), "ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyError(tc.err); got != tc.want {
				t.Fatalf("classifyError = %q, want %q", got, tc.want)
			}
		})
	}
}
