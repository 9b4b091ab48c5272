package instagram

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// API is the full set of remote operations the live session needs.
// *Client implements it; tests substitute their own.
type API interface {
	Login(ctx context.Context, creds Credentials) error
	LookupUserID(ctx context.Context, username string) (string, error)
	FetchLiveInfo(ctx context.Context, userID string) (*LiveInfo, error)
	FetchHeartbeat(ctx context.Context, liveID string) (*Heartbeat, error)
	FetchComments(ctx context.Context, liveID, lastCommentTS string) (*CommentBatch, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

const (
	// DefaultBaseURL is the web origin all endpoints are resolved against.
	DefaultBaseURL = "https://www.instagram.com"

	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	appID            = "936619743392459"
	requestTimeout   = 15 * time.Second
	maxBodyBytes     = 8 << 20
)

// Options configures a Client. The zero value talks to DefaultBaseURL
// without a proxy, rate limit or login delay.
type Options struct {
	BaseURL   string
	ProxyURL  string
	Timeout   time.Duration
	UserAgent string
	// Headers override or extend the browser-like defaults.
	Headers map[string]string
	// RatePerSec caps outbound requests; zero or negative disables the limit.
	RatePerSec float64
	Burst      int
	// LoginJitter is the upper bound of the random pause before posting a password.
	LoginJitter time.Duration
	Logger      *zerolog.Logger
}

// Client is a cookie-holding session against the Instagram web API.
// One Client carries one identity; it is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	jar     http.CookieJar
	limiter *rate.Limiter
	headers http.Header
	jitter  time.Duration
	log     zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu   sync.RWMutex
	csrf string
}

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Accept-Encoding is sent explicitly, so bodies are decoded by hand.
	transport.DisableCompression = true
	if strings.TrimSpace(opts.ProxyURL) != "" {
		proxy, err := url.Parse(strings.TrimSpace(opts.ProxyURL))
		if err != nil {
			return nil, fmt.Errorf("parse proxy_url %q: %w", opts.ProxyURL, err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}

	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "instagram").Logger()
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Jar:       jar,
			Transport: transport,
			Timeout:   timeout,
			// Redirects are surfaced so challenge locations can be detected.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		jar:     jar,
		limiter: rate.NewLimiter(limit, burst),
		headers: buildHeaders(base, opts),
		jitter:  opts.LoginJitter,
		log:     logger,
		now:     time.Now,
		sleep:   sleepContext,
	}, nil
}

// BaseURL returns the origin requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// SetCookie stores a host cookie for the base URL.
func (c *Client) SetCookie(name, value string) {
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{
		Name:   name,
		Value:  value,
		Path:   "/",
		Secure: c.baseURL.Scheme == "https",
	}})
}

// Cookie returns the current value of a cookie sent to the base URL.
func (c *Client) Cookie(name string) string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// CSRFToken returns the token sent in the X-CSRFToken header.
func (c *Client) CSRFToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrf
}

func (c *Client) refreshCSRF() {
	token := c.Cookie("csrftoken")
	c.mu.Lock()
	c.csrf = token
	c.mu.Unlock()
}

// response is a fully read, decompressed HTTP response.
type response struct {
	statusCode int
	header     http.Header
	body       []byte
}

func (r *response) isJSON() bool {
	trimmed := bytes.TrimSpace(r.body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// checkLogin detects the login wall: a redirect to the login page or to a
// challenge, or an HTML login page in place of JSON.
func (r *response) checkLogin() error {
	if r.statusCode/100 == 3 {
		loc := r.header.Get("Location")
		switch {
		case strings.Contains(loc, "/challenge/"):
			return &AuthError{Reason: AuthChallenge, Message: "user was hit with a challenge", URL: loc}
		case strings.Contains(loc, "/accounts/login"):
			return &AuthError{
				Reason:  AuthUnauthenticated,
				Message: "session expired, redirected to the login page",
				URL:     loc,
			}
		}
	}
	if r.isJSON() {
		return nil
	}
	if bytes.Contains(r.body, []byte("<title>Login")) {
		return &AuthError{
			Reason:  AuthUnauthenticated,
			Message: "user is not authenticated or authentication expired, login first",
		}
	}
	return nil
}

// decode unmarshals a JSON body. Anything that is not JSON, such as a proxy
// error page, is a NetworkError.
func (r *response) decode(op string, dest any) error {
	if !r.isJSON() {
		return &NetworkError{Op: op, Err: fmt.Errorf("unexpected non-JSON response (http %d)", r.statusCode)}
	}
	if err := json.Unmarshal(r.body, dest); err != nil {
		return &APIError{Op: op, StatusCode: r.statusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, op string, rel *url.URL) (*response, error) {
	return c.doURL(ctx, op, http.MethodGet, rel, nil)
}

func (c *Client) postForm(ctx context.Context, op, path string, form url.Values) (*response, error) {
	return c.doURL(ctx, op, http.MethodPost, &url.URL{Path: path}, form)
}

func (c *Client) doURL(ctx context.Context, op, method string, rel *url.URL, form url.Values) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	reqURL := c.baseURL.ResolveReference(rel)
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	for name, values := range c.headers {
		req.Header[name] = append([]string(nil), values...)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token := c.CSRFToken(); token != "" {
		req.Header.Set("X-CSRFToken", token)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := readBody(resp)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	c.log.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", rel.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", c.now().Sub(start)).
		Msg("request complete")
	return &response{statusCode: resp.StatusCode, header: resp.Header, body: data}, nil
}

// readBody reads the body and undoes gzip or deflate content encoding.
func readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	encoding := strings.ToLower(resp.Header.Get("Content-Encoding"))
	switch {
	case len(raw) == 0:
		return raw, nil
	case strings.Contains(encoding, "gzip"):
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gunzip body: %w", err)
		}
		defer func() { _ = zr.Close() }()
		out, err := io.ReadAll(io.LimitReader(zr, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("gunzip body: %w", err)
		}
		return out, nil
	case strings.Contains(encoding, "deflate"):
		// Servers disagree on whether deflate carries the zlib wrapper.
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer func() { _ = zr.Close() }()
			if out, err := io.ReadAll(io.LimitReader(zr, maxBodyBytes)); err == nil {
				return out, nil
			}
		}
		fr := flate.NewReader(bytes.NewReader(raw))
		defer func() { _ = fr.Close() }()
		out, err := io.ReadAll(io.LimitReader(fr, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("inflate body: %w", err)
		}
		return out, nil
	default:
		return raw, nil
	}
}

func buildHeaders(base *url.URL, opts Options) http.Header {
	h := http.Header{}
	h.Set("Accept", "*/*")
	h.Set("Accept-Encoding", "gzip, deflate")
	h.Set("Accept-Language", "en-CA,en;q=0.9")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Dpr", "3")
	h.Set("Sec-Ch-Prefers-Color-Scheme", "dark")
	h.Set("Sec-Ch-Ua", `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`)
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Sec-Ch-Ua-Platform", `"macOS"`)
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Viewport-Width", "499")
	h.Set("X-IG-App-ID", appID)
	h.Set("Origin", base.String())
	h.Set("Referer", base.String()+"/")
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	h.Set("User-Agent", ua)
	for name, value := range opts.Headers {
		h.Set(name, value)
	}
	return h
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base_url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomDelay(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(limit) + 1))
}
