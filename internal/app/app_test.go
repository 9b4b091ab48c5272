package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/iglive/internal/config"
	"github.com/five82/iglive/internal/instagram"
	"github.com/five82/iglive/internal/live"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvTarget, config.EnvUsername, config.EnvPassword,
		config.EnvSessionID, config.EnvDeviceID, config.EnvProxyURL,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestRun_PlainModePrintsUntilBroadcastStops(t *testing.T) {
	clearEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/":
			_, _ = w.Write([]byte("<html></html>"))
		case r.URL.Path == "/api/v1/live/web_info/":
			if got := r.URL.Query().Get("target_user_id"); got != "42" {
				t.Errorf("target_user_id = %q, want 42", got)
			}
			if got := r.Header.Get("X-Iglive-Test"); got != "plain" {
				t.Errorf("X-Iglive-Test header = %q, want plain", got)
			}
			writeJSON(w, map[string]any{
				"id":               "17900",
				"status":           "ok",
				"broadcast_status": "active",
				"viewer_count":     3,
				"broadcast_owner":  map[string]any{"username": "host"},
			})
		case strings.HasSuffix(r.URL.Path, "/heartbeat_and_get_viewer_count/"):
			writeJSON(w, map[string]any{"viewer_count": 1200, "broadcast_status": "stopped", "status": "ok"})
		case strings.HasSuffix(r.URL.Path, "/get_comment/"):
			writeJSON(w, map[string]any{"comments": []any{}, "status": "ok"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	cfgPath := writeConfig(t, fmt.Sprintf(`
target_user_id = "42"

[login]
session_id = "sess"

[transport]
base_url = %q
rate_per_sec = 0

[transport.headers]
"X-Iglive-Test" = "plain"

[polling]
comment_fetch_interval_ms = 20
heartbeat_fetch_interval_ms = 20

[logging]
dir = %q
`, server.URL, t.TempDir()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out lockedBuffer
	err := Run(ctx, Options{ConfigPath: cfgPath, Plain: true, Stdout: &out, Stderr: io.Discard})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatalf("Run returned only after the context expired")
	}

	got := out.String()
	for _, want := range []string{"connected to @host live=17900 viewers=3", "viewers=1,200 status=stopped", "disconnected"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRun_StartFailureIsReturned(t *testing.T) {
	clearEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			_, _ = w.Write([]byte("<html></html>"))
		case "/api/v1/live/web_info/":
			writeJSON(w, map[string]any{"status": "fail", "message": "User is not live"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	cfgPath := writeConfig(t, fmt.Sprintf(`
target_user_id = "42"
[login]
session_id = "sess"
[transport]
base_url = %q
[logging]
dir = %q
`, server.URL, t.TempDir()))

	err := Run(context.Background(), Options{ConfigPath: cfgPath, Plain: true, Stdout: io.Discard, Stderr: io.Discard})
	if !errors.Is(err, instagram.ErrUserOffline) {
		t.Fatalf("Run error = %v, want ErrUserOffline", err)
	}
}

func TestRun_ValidatesTargetAndCredentials(t *testing.T) {
	clearEnv(t)
	logDir := t.TempDir()

	cases := []struct {
		name string
		body string
		opts Options
		want string
	}{
		{"no target", "[login]\nsession_id = \"s\"\n", Options{}, "no target"},
		{"no credentials", "target = \"host\"\n", Options{}, "no credentials"},
		{"no-login skips credentials check but still needs a target", "", Options{NoLogin: true}, "no target"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.body+fmt.Sprintf("[logging]\ndir = %q\n", logDir))
			tc.opts.ConfigPath = path
			tc.opts.Plain = true
			err := Run(context.Background(), tc.opts)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Run error = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Target = "fromfile"
	applyOverrides(&cfg, Options{Target: " @cli ", TargetUserID: "99", PollEvery: 2 * time.Second})

	if cfg.Target != "cli" {
		t.Fatalf("Target = %q, want cli", cfg.Target)
	}
	if cfg.TargetUserID != "99" {
		t.Fatalf("TargetUserID = %q, want 99", cfg.TargetUserID)
	}
	if cfg.Polling.CommentFetchInterval != 2*time.Second || cfg.Polling.HeartbeatFetchInterval != 2*time.Second {
		t.Fatalf("intervals = %v/%v, want 2s", cfg.Polling.CommentFetchInterval, cfg.Polling.HeartbeatFetchInterval)
	}

	if got := len(startOptions(cfg, Options{NoLogin: true})); got != 2 {
		t.Fatalf("startOptions len = %d, want 2", got)
	}
	cfg.TargetUserID = ""
	if got := len(startOptions(cfg, Options{})); got != 0 {
		t.Fatalf("startOptions len = %d, want 0", got)
	}
}

func TestFormatEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 13, 4, 5, 0, time.Local)
	join := &instagram.SystemComment{Type: instagram.SystemCommentJoin, Text: "ann joined"}
	pinned := &instagram.SystemComment{Type: "pinned", Text: "pinned\na comment"}

	cases := []struct {
		name string
		in   live.Event
		want string
	}{
		{"connected", live.Event{Kind: live.EventConnected, Session: &live.Session{LiveID: "1", ViewerCount: 12345, Owner: instagram.BroadcastOwner{User: instagram.User{Username: "host"}}}}, "13:04:05 connected to @host live=1 viewers=12,345"},
		{"clean disconnect", live.Event{Kind: live.EventDisconnected}, "13:04:05 disconnected"},
		{"failed disconnect", live.Event{Kind: live.EventDisconnected, Err: errors.New("boom")}, "13:04:05 disconnected: boom"},
		{"error", live.Event{Kind: live.EventError, Err: errors.New("boom")}, "13:04:05 error: boom"},
		{"heartbeat", live.Event{Kind: live.EventFetchHeartbeat, Heartbeat: &instagram.Heartbeat{ViewerCount: 7, BroadcastStatus: instagram.BroadcastActive}}, "13:04:05 viewers=7 status=active"},
		{"comment", live.Event{Kind: live.EventUserComment, Comment: &instagram.UserComment{Text: " hi\nthere ", User: instagram.User{Username: "ann"}}}, "13:04:05 @ann: hi there"},
		{"join", live.Event{Kind: live.EventJoin, SystemComment: join}, "13:04:05 + ann joined"},
		{"join as system comment", live.Event{Kind: live.EventSystemComment, SystemComment: join}, ""},
		{"system comment", live.Event{Kind: live.EventSystemComment, SystemComment: pinned}, "13:04:05 * pinned a comment"},
		{"batch", live.Event{Kind: live.EventFetchComments, Comments: &instagram.CommentBatch{}}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.Time = at
			if got := formatEvent(tc.in); got != tc.want {
				t.Fatalf("formatEvent = %q, want %q", got, tc.want)
			}
		})
	}
}
