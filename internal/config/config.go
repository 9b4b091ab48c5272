package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything iglive needs to run one session.
type Config struct {
	// Target is the broadcaster username; TargetUserID skips the lookup.
	Target       string
	TargetUserID string

	Login     Login
	Transport Transport
	Polling   Polling
	LogLevel  string
	LogDir    string
}

// Login holds the viewer credentials.
type Login struct {
	Username  string
	Password  string
	SessionID string
	DeviceID  string
}

// Transport configures the HTTP client.
type Transport struct {
	BaseURL     string
	ProxyURL    string
	UserAgent   string
	Timeout     time.Duration
	RatePerSec  float64
	LoginJitter time.Duration
	// Headers override or extend the default request headers.
	Headers map[string]string
}

// Polling holds the poll intervals.
type Polling struct {
	CommentFetchInterval   time.Duration
	HeartbeatFetchInterval time.Duration
}

const (
	defaultConfigPath     = "~/.config/iglive/config.toml"
	defaultLogDir         = "~/.local/share/iglive"
	defaultLogLevel       = "info"
	defaultPollIntervalMS = 5000
	defaultTimeout        = 15 * time.Second
	defaultRatePerSec     = 2
	defaultLoginJitter    = 2 * time.Second
)

// Environment variables that override file values.
const (
	EnvTarget    = "IGLIVE_TARGET"
	EnvUsername  = "INSTAGRAM_USERNAME"
	EnvPassword  = "INSTAGRAM_PASSWORD"
	EnvSessionID = "INSTAGRAM_SESSION_ID"
	EnvDeviceID  = "INSTAGRAM_DEVICE_ID"
	EnvProxyURL  = "IGLIVE_PROXY_URL"
)

type rawConfig struct {
	Target       string `toml:"target"`
	TargetUserID string `toml:"target_user_id"`
	Login        struct {
		Username  string `toml:"username"`
		Password  string `toml:"password"`
		SessionID string `toml:"session_id"`
		DeviceID  string `toml:"device_id"`
	} `toml:"login"`
	Transport struct {
		BaseURL     string            `toml:"base_url"`
		ProxyURL    string            `toml:"proxy_url"`
		UserAgent   string            `toml:"user_agent"`
		Timeout     string            `toml:"timeout"`
		RatePerSec  *float64          `toml:"rate_per_sec"`
		LoginJitter string            `toml:"login_jitter"`
		Headers     map[string]string `toml:"headers"`
	} `toml:"transport"`
	Polling struct {
		CommentFetchIntervalMS   int64 `toml:"comment_fetch_interval_ms"`
		HeartbeatFetchIntervalMS int64 `toml:"heartbeat_fetch_interval_ms"`
	} `toml:"polling"`
	Logging struct {
		Level string `toml:"level"`
		Dir   string `toml:"dir"`
	} `toml:"logging"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Transport: Transport{
			Timeout:     defaultTimeout,
			RatePerSec:  defaultRatePerSec,
			LoginJitter: defaultLoginJitter,
		},
		Polling: Polling{
			CommentFetchInterval:   defaultPollIntervalMS * time.Millisecond,
			HeartbeatFetchInterval: defaultPollIntervalMS * time.Millisecond,
		},
		LogLevel: defaultLogLevel,
		LogDir:   mustExpand(defaultLogDir),
	}
}

// Load parses the config at path, falling back to defaults when the file is
// missing, then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	data, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if data != nil {
		var raw rawConfig
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if err := cfg.apply(raw); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return data, nil
}

func (c *Config) apply(raw rawConfig) error {
	c.Target = strings.TrimSpace(raw.Target)
	c.TargetUserID = strings.TrimSpace(raw.TargetUserID)

	c.Login = Login{
		Username:  strings.TrimSpace(raw.Login.Username),
		Password:  raw.Login.Password,
		SessionID: strings.TrimSpace(raw.Login.SessionID),
		DeviceID:  strings.TrimSpace(raw.Login.DeviceID),
	}

	c.Transport.BaseURL = strings.TrimSpace(raw.Transport.BaseURL)
	c.Transport.ProxyURL = strings.TrimSpace(raw.Transport.ProxyURL)
	c.Transport.UserAgent = strings.TrimSpace(raw.Transport.UserAgent)
	timeout, err := parseDurationOrDefault("transport.timeout", raw.Transport.Timeout, defaultTimeout)
	if err != nil {
		return err
	}
	c.Transport.Timeout = timeout
	if raw.Transport.RatePerSec != nil {
		if *raw.Transport.RatePerSec < 0 {
			return fmt.Errorf("transport.rate_per_sec: must be >= 0")
		}
		c.Transport.RatePerSec = *raw.Transport.RatePerSec
	}
	if strings.TrimSpace(raw.Transport.LoginJitter) != "" {
		jitter, err := parseDuration("transport.login_jitter", raw.Transport.LoginJitter)
		if err != nil {
			return err
		}
		c.Transport.LoginJitter = jitter
	}
	if len(raw.Transport.Headers) > 0 {
		c.Transport.Headers = make(map[string]string, len(raw.Transport.Headers))
		for name, value := range raw.Transport.Headers {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("transport.headers: empty header name")
			}
			c.Transport.Headers[name] = value
		}
	}

	comment, err := intervalMS("polling.comment_fetch_interval_ms", raw.Polling.CommentFetchIntervalMS)
	if err != nil {
		return err
	}
	c.Polling.CommentFetchInterval = comment
	heartbeat, err := intervalMS("polling.heartbeat_fetch_interval_ms", raw.Polling.HeartbeatFetchIntervalMS)
	if err != nil {
		return err
	}
	c.Polling.HeartbeatFetchInterval = heartbeat

	if level := strings.TrimSpace(raw.Logging.Level); level != "" {
		c.LogLevel = strings.ToLower(level)
	}
	if dir := strings.TrimSpace(raw.Logging.Dir); dir != "" {
		c.LogDir = mustExpand(dir)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&c.Target, EnvTarget)
	set(&c.Login.Username, EnvUsername)
	set(&c.Login.Password, EnvPassword)
	set(&c.Login.SessionID, EnvSessionID)
	set(&c.Login.DeviceID, EnvDeviceID)
	set(&c.Transport.ProxyURL, EnvProxyURL)
}

// LogPath returns the JSON log file path.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return filepath.Join(mustExpand(defaultLogDir), "iglive.log")
	}
	return filepath.Join(c.LogDir, "iglive.log")
}

// HasLogin reports whether credentials are configured.
func (c Config) HasLogin() bool {
	return c.Login.SessionID != "" || (c.Login.Username != "" && c.Login.Password != "")
}

func intervalMS(field string, ms int64) (time.Duration, error) {
	switch {
	case ms < 0:
		return 0, fmt.Errorf("%s: must be >= 0", field)
	case ms == 0:
		return defaultPollIntervalMS * time.Millisecond, nil
	default:
		return time.Duration(ms) * time.Millisecond, nil
	}
}

func parseDuration(field, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", field)
	}
	return d, nil
}

func parseDurationOrDefault(field, raw string, def time.Duration) (time.Duration, error) {
	d, err := parseDuration(field, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// DefaultPath returns the config path used when none is given.
func DefaultPath() string { return mustExpand(defaultConfigPath) }

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
