package instagram

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrUnauthenticated = errors.New("instagram: not authenticated")
	ErrUserOffline     = errors.New("instagram: user is offline")
)

// AuthReason classifies an AuthError.
type AuthReason int

const (
	AuthGeneric AuthReason = iota
	AuthTwoFactorRequired
	AuthCheckpointRequired
	AuthIncorrectPassword
	AuthUsernameNotFound
	AuthUnauthenticated
	AuthChallenge
)

func (r AuthReason) String() string {
	switch r {
	case AuthTwoFactorRequired:
		return "two_factor_required"
	case AuthCheckpointRequired:
		return "checkpoint_required"
	case AuthIncorrectPassword:
		return "incorrect_password"
	case AuthUsernameNotFound:
		return "username_not_found"
	case AuthUnauthenticated:
		return "unauthenticated"
	case AuthChallenge:
		return "challenge"
	default:
		return "generic"
	}
}

// AuthError reports a failed login or a request that hit the login wall.
type AuthError struct {
	Reason  AuthReason
	Message string
	// URL carries the checkpoint, challenge or login redirect location.
	URL string
}

func (e *AuthError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("instagram: %s (%s)", e.Message, e.URL)
	}
	return "instagram: " + e.Message
}

// Is reports whether the error means the session is not (or no longer) authenticated.
func (e *AuthError) Is(target error) bool {
	if target != ErrUnauthenticated {
		return false
	}
	return e.Reason == AuthUnauthenticated || e.Reason == AuthChallenge
}

// UserOfflineError reports that the target is not broadcasting. MediaDeleted
// is set when a running broadcast ended and its comment media was removed.
type UserOfflineError struct {
	MediaDeleted bool
}

func (e *UserOfflineError) Error() string {
	if e.MediaDeleted {
		return "instagram: user went offline and the live media was deleted"
	}
	return "instagram: user is not live"
}

func (e *UserOfflineError) Is(target error) bool { return target == ErrUserOffline }

// LookupError reports a response that lacked a field the caller needs.
type LookupError struct {
	Op     string
	Detail string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("instagram: %s: %s", e.Op, e.Detail)
}

// APIError reports a response the client could not interpret as success.
type APIError struct {
	Op         string
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no message"
	}
	if e.Status != "" {
		return fmt.Sprintf("instagram: %s returned status %q (http %d): %s", e.Op, e.Status, e.StatusCode, msg)
	}
	return fmt.Sprintf("instagram: %s returned http %d: %s", e.Op, e.StatusCode, msg)
}

// NetworkError wraps transport failures: dialing, timeouts, cancellation,
// unreadable bodies and bodies that are not JSON at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("instagram: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
