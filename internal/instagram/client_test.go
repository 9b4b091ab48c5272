package instagram

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewClient(Options{BaseURL: server.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != DefaultBaseURL {
		t.Fatalf("url = %q, want %q", u.String(), DefaultBaseURL)
	}

	u, err = parseBaseURL("example.com/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" || u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_LoginWithPassword(t *testing.T) {
	var mu sync.Mutex
	var gotForm url.Values
	var gotCSRF, gotAppID, gotDevice string

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.URL.Path {
		case "/":
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok123", Path: "/"})
			_, _ = w.Write([]byte("<html></html>"))
		case loginPath:
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			_ = r.ParseForm()
			gotForm = r.PostForm
			gotCSRF = r.Header.Get("X-CSRFToken")
			gotAppID = r.Header.Get("X-IG-App-ID")
			if ck, err := r.Cookie("ig_did"); err == nil {
				gotDevice = ck.Value
			}
			writeJSON(w, map[string]any{"user": true, "authenticated": true, "status": "ok", "userId": 42})
		default:
			http.NotFound(w, r)
		}
	}))
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	err := c.Login(testContext(t), Credentials{Username: "alice", Password: "secret", DeviceID: "DEV-1"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotForm.Get("username") != "alice" {
		t.Fatalf("username = %q, want alice", gotForm.Get("username"))
	}
	if want := "#PWD_INSTAGRAM_BROWSER:0:1700000000:secret"; gotForm.Get("enc_password") != want {
		t.Fatalf("enc_password = %q, want %q", gotForm.Get("enc_password"), want)
	}
	if gotCSRF != "tok123" {
		t.Fatalf("X-CSRFToken = %q, want tok123", gotCSRF)
	}
	if gotAppID != appID {
		t.Fatalf("X-IG-App-ID = %q, want %q", gotAppID, appID)
	}
	if gotDevice != "DEV-1" {
		t.Fatalf("ig_did cookie = %q, want DEV-1", gotDevice)
	}
	if c.CSRFToken() != "tok123" {
		t.Fatalf("CSRFToken() = %q, want tok123", c.CSRFToken())
	}
}

func TestClient_LoginWithSessionIDSkipsPost(t *testing.T) {
	var posted bool
	var gotSession string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			if ck, err := r.Cookie("sessionid"); err == nil {
				gotSession = ck.Value
			}
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "abc", Path: "/"})
		case loginPath:
			posted = true
		}
	}))

	if err := c.Login(testContext(t), Credentials{SessionID: "sess-9"}); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if posted {
		t.Fatalf("login endpoint was called with a session id")
	}
	if gotSession != "sess-9" {
		t.Fatalf("sessionid cookie = %q, want sess-9", gotSession)
	}
	if c.Cookie("ig_did") == "" {
		t.Fatalf("ig_did cookie not generated")
	}
}

func TestClient_LoginRequiresUsernameAndPassword(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	err := c.Login(testContext(t), Credentials{Username: "alice"})
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Reason != AuthGeneric {
		t.Fatalf("Login error = %v, want generic AuthError", err)
	}
}

func TestLoginResponse_ErrorMapping(t *testing.T) {
	yes, no := true, false
	cases := []struct {
		name    string
		payload loginResponse
		want    AuthReason
		ok      bool
	}{
		{name: "success", payload: loginResponse{Status: "ok", Authenticated: &yes}, ok: true},
		{name: "two factor", payload: loginResponse{Status: "fail", TwoFactorRequired: true}, want: AuthTwoFactorRequired},
		{name: "checkpoint", payload: loginResponse{Status: "fail", CheckpointURL: "/challenge/x"}, want: AuthCheckpointRequired},
		{name: "status fail", payload: loginResponse{Status: "fail", Message: "nope"}, want: AuthGeneric},
		{name: "missing authenticated", payload: loginResponse{Status: "ok"}, want: AuthGeneric},
		{name: "wrong password", payload: loginResponse{Status: "ok", Authenticated: &no, User: true}, want: AuthIncorrectPassword},
		{name: "unknown user", payload: loginResponse{Status: "ok", Authenticated: &no}, want: AuthUsernameNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.err("alice")
			if tc.ok {
				if err != nil {
					t.Fatalf("err = %v, want nil", err)
				}
				return
			}
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("err = %v, want *AuthError", err)
			}
			if authErr.Reason != tc.want {
				t.Fatalf("reason = %v, want %v", authErr.Reason, tc.want)
			}
		})
	}
}

func TestClient_LookupUserID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != profileInfoPath {
			http.NotFound(w, r)
			return
		}
		switch r.URL.Query().Get("username") {
		case "bob":
			_, _ = w.Write([]byte(`{"data":{"user":{"id":"1234","username":"bob"}},"status":"ok"}`))
		case "numeric":
			_, _ = w.Write([]byte(`{"data":{"user":{"id":5678}},"status":"ok"}`))
		default:
			_, _ = w.Write([]byte(`{"data":{"user":null},"status":"ok"}`))
		}
	}))
	ctx := testContext(t)

	id, err := c.LookupUserID(ctx, "bob")
	if err != nil || id != "1234" {
		t.Fatalf("LookupUserID(bob) = %q, %v; want 1234", id, err)
	}
	id, err = c.LookupUserID(ctx, "numeric")
	if err != nil || id != "5678" {
		t.Fatalf("LookupUserID(numeric) = %q, %v; want 5678", id, err)
	}
	_, err = c.LookupUserID(ctx, "ghost")
	var lookupErr *LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("LookupUserID(ghost) error = %v, want *LookupError", err)
	}
}

func TestClient_DetectsLoginWall(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case profileInfoPath:
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><head><title>Login • Instagram</title></head></html>"))
		default:
			w.Header().Set("Location", "https://www.instagram.com/challenge/abc/")
			w.WriteHeader(http.StatusFound)
		}
	}))
	ctx := testContext(t)

	_, err := c.LookupUserID(ctx, "bob")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("LookupUserID error = %v, want ErrUnauthenticated", err)
	}

	_, err = c.FetchHeartbeat(ctx, "live1")
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Reason != AuthChallenge {
		t.Fatalf("FetchHeartbeat error = %v, want challenge AuthError", err)
	}
	if !strings.Contains(authErr.URL, "/challenge/") {
		t.Fatalf("challenge url = %q", authErr.URL)
	}
}

func TestClient_LoginRedirectIsUnauthenticated(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/accounts/login/?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
	}))

	_, err := c.FetchHeartbeat(testContext(t), "live1")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("FetchHeartbeat error = %v, want ErrUnauthenticated", err)
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Reason != AuthUnauthenticated {
		t.Fatalf("FetchHeartbeat error = %v, want unauthenticated AuthError", err)
	}
	if !strings.Contains(authErr.URL, "/accounts/login/") {
		t.Fatalf("redirect url = %q", authErr.URL)
	}
}

func TestClient_NonJSONBodyIsNetworkError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html><body>502 Bad Gateway</body></html>"))
	}))

	_, err := c.FetchComments(testContext(t), "live1", "")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("FetchComments error = %v, want *NetworkError", err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("FetchComments error = %v, should not be an *APIError", err)
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("error = %q, want the http status", err)
	}
}

func TestClient_FetchLiveInfo(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != liveInfoPath {
			http.NotFound(w, r)
			return
		}
		switch r.URL.Query().Get("target_user_id") {
		case "live":
			_, _ = w.Write([]byte(`{"id":"17900","broadcast_status":"active","viewer_count":12.0,
				"broadcast_owner":{"pk":"99","username":"bob"},"status":"ok"}`))
		case "offline":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"User is not live","status":"fail"}`))
		case "noid":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			_, _ = w.Write([]byte(`{"status":"fail","message":"rate limited"}`))
		}
	}))
	ctx := testContext(t)

	info, err := c.FetchLiveInfo(ctx, "live")
	if err != nil {
		t.Fatalf("FetchLiveInfo returned error: %v", err)
	}
	if info.ID != "17900" || info.ViewerCount != 12 || info.BroadcastOwner.Username != "bob" {
		t.Fatalf("FetchLiveInfo payload = %#v", info)
	}

	_, err = c.FetchLiveInfo(ctx, "offline")
	if !errors.Is(err, ErrUserOffline) {
		t.Fatalf("offline error = %v, want ErrUserOffline", err)
	}

	_, err = c.FetchLiveInfo(ctx, "noid")
	var lookupErr *LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("missing id error = %v, want *LookupError", err)
	}

	_, err = c.FetchLiveInfo(ctx, "other")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "rate limited" {
		t.Fatalf("non-ok error = %v, want *APIError", err)
	}
}

func TestClient_FetchHeartbeat(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/live/17900/heartbeat_and_get_viewer_count/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"viewer_count":31,"broadcast_status":"stopped","cobroadcaster_ids":[1,"2"],"status":"ok"}`))
	}))

	hb, err := c.FetchHeartbeat(testContext(t), "17900")
	if err != nil {
		t.Fatalf("FetchHeartbeat returned error: %v", err)
	}
	if hb.ViewerCount != 31 || hb.BroadcastStatus != BroadcastStopped {
		t.Fatalf("heartbeat = %#v", hb)
	}
	if len(hb.CobroadcasterIDs) != 2 || hb.CobroadcasterIDs[0] != "1" || hb.CobroadcasterIDs[1] != "2" {
		t.Fatalf("cobroadcaster ids = %v", hb.CobroadcasterIDs)
	}
}

func TestClient_FetchCommentsEncodesCursorAndDecodesGzip(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/live/17900/get_comment/" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, _ = zw.Write([]byte(`{"comments":[{"pk":"1","text":"hi","user":{"username":"ann"}}],
			"system_comments":[{"pk":"2","type":"multi_user_joined","user_count":3}],"status":"ok"}`))
		_ = zw.Close()
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))

	batch, err := c.FetchComments(testContext(t), "17900", "1700000000")
	if err != nil {
		t.Fatalf("FetchComments returned error: %v", err)
	}
	if gotQuery != "last_comment_ts=1700000000" {
		t.Fatalf("query = %q, want last_comment_ts=1700000000", gotQuery)
	}
	if batch.Len() != 2 {
		t.Fatalf("batch.Len() = %d, want 2", batch.Len())
	}
	if batch.Comments[0].User.Username != "ann" || !batch.SystemComments[0].IsJoin() {
		t.Fatalf("batch = %#v", batch)
	}
}

func TestClient_FetchCommentsWithoutCursorAndDeletedMedia(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"message":"Sorry, this media has been deleted","status":"fail"}`))
	}))

	_, err := c.FetchComments(testContext(t), "17900", "")
	var offline *UserOfflineError
	if !errors.As(err, &offline) || !offline.MediaDeleted {
		t.Fatalf("error = %v, want media-deleted UserOfflineError", err)
	}
	if gotQuery != "" {
		t.Fatalf("query = %q, want empty", gotQuery)
	}
}

func TestClient_CanceledContextIsNetworkError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchHeartbeat(ctx, "1")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error = %v, want *NetworkError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want to wrap context.Canceled", err)
	}
}

func TestClient_HeaderOverrides(t *testing.T) {
	var gotUA, gotExtra string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotExtra = r.Header.Get("X-Extra")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(Options{
		BaseURL:   server.URL,
		UserAgent: "iglive-test",
		Headers:   map[string]string{"X-Extra": "1"},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.FetchHeartbeat(testContext(t), "1"); err != nil {
		t.Fatalf("FetchHeartbeat returned error: %v", err)
	}
	if gotUA != "iglive-test" || gotExtra != "1" {
		t.Fatalf("headers = %q, %q", gotUA, gotExtra)
	}
}
