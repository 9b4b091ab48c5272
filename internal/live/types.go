package live

import (
	"time"

	"github.com/five82/iglive/internal/instagram"
)

// State is the connection state of a Controller.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	DefaultCommentFetchInterval   = 5 * time.Second
	DefaultHeartbeatFetchInterval = 5 * time.Second
)

// Config holds the per-session settings of a Controller.
type Config struct {
	// Username is the broadcaster resolved when Start gets no target id.
	Username    string
	Credentials instagram.Credentials

	CommentFetchInterval   time.Duration
	HeartbeatFetchInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.CommentFetchInterval <= 0 {
		c.CommentFetchInterval = DefaultCommentFetchInterval
	}
	if c.HeartbeatFetchInterval <= 0 {
		c.HeartbeatFetchInterval = DefaultHeartbeatFetchInterval
	}
	return c
}

// Session describes the broadcast a connected Controller is polling.
type Session struct {
	TargetUserID    string
	LiveID          string
	BroadcastStatus instagram.BroadcastStatus
	Owner           instagram.BroadcastOwner
	ViewerCount     int64
	// Info is the descriptor fetched at connect time. Treat it as read-only.
	Info *instagram.LiveInfo
}

func newSession(targetID string, info *instagram.LiveInfo) *Session {
	return &Session{
		TargetUserID:    targetID,
		LiveID:          info.ID.String(),
		BroadcastStatus: info.BroadcastStatus,
		Owner:           info.BroadcastOwner,
		ViewerCount:     int64(info.ViewerCount),
		Info:            info,
	}
}

// EventKind names an event published by a Controller.
type EventKind string

const (
	EventConnected      EventKind = "connected"
	EventDisconnected   EventKind = "disconnected"
	EventError          EventKind = "error"
	EventJoin           EventKind = "join"
	EventUserComment    EventKind = "comment"
	EventSystemComment  EventKind = "system_comment"
	EventFetchHeartbeat EventKind = "fetch_heartbeat"
	EventFetchComments  EventKind = "fetch_comments"
)

// EventKinds lists every kind in a stable order.
var EventKinds = []EventKind{
	EventConnected,
	EventDisconnected,
	EventError,
	EventJoin,
	EventUserComment,
	EventSystemComment,
	EventFetchHeartbeat,
	EventFetchComments,
}

// Event is the payload delivered to subscribers. Only the field matching
// Kind is set:
//
//	connected        Session
//	disconnected     Err (nil on a clean end of broadcast or manual stop)
//	error            Err
//	fetch_heartbeat  Heartbeat
//	fetch_comments   Comments
//	comment          Comment
//	system_comment   SystemComment
//	join             SystemComment
type Event struct {
	Kind          EventKind
	Time          time.Time
	Err           error
	Session       *Session
	Heartbeat     *instagram.Heartbeat
	Comments      *instagram.CommentBatch
	Comment       *instagram.UserComment
	SystemComment *instagram.SystemComment
}
