package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_WritesJSONToFileAndPrettyToConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "iglive.log")
	var console bytes.Buffer

	logger, closer, err := New(Options{Level: "debug", FilePath: path, Console: &console})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info().Str("live_id", "17900").Msg("connected")
	logger.Trace().Msg("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("log lines = %d, want 1: %q", len(lines), data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["message"] != "connected" || entry["live_id"] != "17900" || entry["level"] != "info" {
		t.Fatalf("entry = %v", entry)
	}
	if !strings.Contains(console.String(), "connected") {
		t.Fatalf("console output = %q, want it to mention connected", console.String())
	}
}

func TestNew_NoSinksIsNop(t *testing.T) {
	logger, closer, err := New(Options{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if logger.GetLevel() != zerolog.Disabled {
		t.Fatalf("level = %v, want disabled", logger.GetLevel())
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARNING ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in, zerolog.InfoLevel); got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
