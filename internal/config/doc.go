// Package config loads the iglive configuration file.
//
// # Overview
//
// The configuration is a TOML file naming the broadcaster to watch, the
// viewer credentials used to log in, transport settings and poll
// intervals. Every field is optional; a missing file yields defaults.
//
// # Configuration Discovery
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/iglive/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. Environment variables override file values
//
// # TOML Format
//
//	target = "somebroadcaster"
//	# target_user_id = "1234567"   # skips the username lookup
//
//	[login]
//	username = "viewer"
//	password = "secret"
//	# session_id = "..."           # used instead of username/password
//	# device_id = "..."            # generated when empty
//
//	[transport]
//	proxy_url = ""
//	timeout = "15s"
//	rate_per_sec = 2
//	login_jitter = "2s"
//
//	[polling]
//	comment_fetch_interval_ms = 5000
//	heartbeat_fetch_interval_ms = 5000
//
//	[logging]
//	level = "info"
//	dir = "~/.local/share/iglive"
//
// # Environment
//
//   - IGLIVE_TARGET: target username
//   - INSTAGRAM_USERNAME, INSTAGRAM_PASSWORD: login credentials
//   - INSTAGRAM_SESSION_ID: existing session cookie
//   - INSTAGRAM_DEVICE_ID: device id cookie
//   - IGLIVE_PROXY_URL: HTTP(S) proxy
//
// Empty environment values are ignored.
//
// # Error Handling
//
// Load returns errors for unreadable files, TOML syntax errors, invalid
// durations and negative intervals or rates. A missing file is not an
// error.
package config
