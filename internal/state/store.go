package state

import (
	"sync"
	"time"

	"github.com/five82/iglive/internal/instagram"
	"github.com/five82/iglive/internal/live"
)

// FeedKind tells comment feed entries apart.
type FeedKind int

const (
	FeedComment FeedKind = iota
	FeedJoin
	FeedSystem
)

// FeedItem is one line of the comment feed.
type FeedItem struct {
	Kind     FeedKind
	Time     time.Time
	Username string
	Text     string
	// Count is the number of viewers a join announces.
	Count int64
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	State        live.State
	Session      live.Session
	HasSession   bool
	Heartbeat    instagram.Heartbeat
	HasHeartbeat bool
	Feed         []FeedItem
	CommentCount int
	JoinCount    int
	ConnectedAt  time.Time
	LastError    error
	LastUpdated  time.Time
}

// Source publishes live events.
type Source interface {
	SubscribeAll(fn func(live.Event)) (unsubscribe func())
}

const defaultFeedLimit = 500

// Store coordinates concurrent updates to the snapshot. The zero value keeps
// up to 500 feed items.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	limit    int
}

// NewStore returns a Store keeping at most limit feed items.
func NewStore(limit int) *Store {
	return &Store{limit: limit}
}

// Attach feeds every event from src into the store.
func (s *Store) Attach(src Source) (detach func()) {
	return src.SubscribeAll(s.Apply)
}

// SetState records a state change that has no event, such as Connecting.
func (s *Store) SetState(st live.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.State = st
	s.snapshot.LastUpdated = time.Now()
}

// SetError records an error raised outside the event stream, such as a
// failed start.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
}

// Apply folds one event into the snapshot.
func (s *Store) Apply(e live.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := e.Time
	if at.IsZero() {
		at = time.Now()
	}
	snap := &s.snapshot
	snap.LastUpdated = at

	switch e.Kind {
	case live.EventConnected:
		snap.State = live.Connected
		if e.Session != nil {
			snap.Session = *e.Session
			snap.HasSession = true
		}
		snap.Heartbeat = instagram.Heartbeat{}
		snap.HasHeartbeat = false
		snap.ConnectedAt = at
		snap.LastError = nil
	case live.EventDisconnected:
		snap.State = live.Disconnected
		snap.HasSession = false
		snap.HasHeartbeat = false
		if e.Err != nil {
			snap.LastError = e.Err
		}
	case live.EventError:
		snap.LastError = e.Err
	case live.EventFetchHeartbeat:
		if e.Heartbeat != nil {
			snap.Heartbeat = *e.Heartbeat.Clone()
			snap.HasHeartbeat = true
			snap.Session.ViewerCount = int64(e.Heartbeat.ViewerCount)
			snap.Session.BroadcastStatus = e.Heartbeat.BroadcastStatus
		}
	case live.EventUserComment:
		if e.Comment != nil {
			snap.CommentCount++
			s.appendLocked(FeedItem{
				Kind:     FeedComment,
				Time:     commentTime(int64(e.Comment.CreatedAt), at),
				Username: e.Comment.User.Username,
				Text:     e.Comment.Text,
			})
		}
	case live.EventJoin:
		if e.SystemComment != nil {
			snap.JoinCount++
			s.appendLocked(FeedItem{
				Kind:     FeedJoin,
				Time:     commentTime(int64(e.SystemComment.CreatedAt), at),
				Username: e.SystemComment.User.Username,
				Text:     e.SystemComment.Text,
				Count:    int64(e.SystemComment.UserCount),
			})
		}
	case live.EventSystemComment:
		// Joins arrive again as EventJoin; only other kinds are listed here.
		if e.SystemComment != nil && !e.SystemComment.IsJoin() {
			s.appendLocked(FeedItem{
				Kind:     FeedSystem,
				Time:     commentTime(int64(e.SystemComment.CreatedAt), at),
				Username: e.SystemComment.User.Username,
				Text:     e.SystemComment.Text,
			})
		}
	}
}

func (s *Store) appendLocked(item FeedItem) {
	limit := s.limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	s.snapshot.Feed = append(s.snapshot.Feed, item)
	if over := len(s.snapshot.Feed) - limit; over > 0 {
		s.snapshot.Feed = append([]FeedItem(nil), s.snapshot.Feed[over:]...)
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Feed = cloneFeed(s.snapshot.Feed)
	snap.Heartbeat.CobroadcasterIDs = append([]instagram.ID(nil), s.snapshot.Heartbeat.CobroadcasterIDs...)
	return snap
}

func cloneFeed(items []FeedItem) []FeedItem {
	if len(items) == 0 {
		return nil
	}
	dup := make([]FeedItem, len(items))
	copy(dup, items)
	return dup
}

func commentTime(unix int64, fallback time.Time) time.Time {
	if unix <= 0 {
		return fallback
	}
	return time.Unix(unix, 0)
}
