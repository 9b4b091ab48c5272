package instagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BroadcastStatus mirrors the broadcast_status field of live payloads.
type BroadcastStatus string

const (
	BroadcastActive      BroadcastStatus = "active"
	BroadcastStopped     BroadcastStatus = "stopped"
	BroadcastInterrupted BroadcastStatus = "interrupted"
)

// SystemCommentType identifies a system feed entry.
type SystemCommentType string

// SystemCommentJoin announces viewers joining the broadcast.
const SystemCommentJoin SystemCommentType = "multi_user_joined"

// Credentials authenticate a Client. SessionID alone is enough; otherwise
// Username and Password are posted to the login endpoint.
type Credentials struct {
	Username  string
	Password  string
	SessionID string
	DeviceID  string
}

// HasLogin reports whether the credentials can authenticate at all.
func (c Credentials) HasLogin() bool {
	return c.SessionID != "" || (c.Username != "" && c.Password != "")
}

// ID is an identifier the API sends either as a JSON string or a number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Int is an integer the API sometimes sends as a float or quoted string.
type Int int64

func (n *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*n = 0
			return nil
		}
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*n = Int(v)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("decode integer %q: %w", raw, err)
	}
	*n = Int(math.Trunc(f))
	return nil
}

// User is the profile summary embedded in comments and live payloads.
type User struct {
	PK            ID     `json:"pk"`
	ID            ID     `json:"id"`
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	IsPrivate     bool   `json:"is_private"`
	IsVerified    bool   `json:"is_verified"`
	ProfilePicID  string `json:"profile_pic_id"`
	ProfilePicURL string `json:"profile_pic_url"`
}

// FriendshipStatus describes the viewer's relation to the broadcast owner.
type FriendshipStatus struct {
	Following      bool `json:"following"`
	FollowedBy     bool `json:"followed_by"`
	Blocking       bool `json:"blocking"`
	Muting         bool `json:"muting"`
	IsPrivate      bool `json:"is_private"`
	IsBestie       bool `json:"is_bestie"`
	IsRestricted   bool `json:"is_restricted"`
	IsFeedFavorite bool `json:"is_feed_favorite"`
	Subscribed     bool `json:"subscribed"`
}

// BroadcastOwner is the broadcaster as reported by the live descriptor.
type BroadcastOwner struct {
	User
	LiveBroadcastID         ID               `json:"live_broadcast_id"`
	LiveBroadcastVisibility Int              `json:"live_broadcast_visibility"`
	LiveSubscriptionStatus  string           `json:"live_subscription_status"`
	FriendshipStatus        FriendshipStatus `json:"friendship_status"`
}

// Dimensions of the broadcast video.
type Dimensions struct {
	Height Int `json:"height"`
	Width  Int `json:"width"`
}

// LiveInfo is the live descriptor returned by /api/v1/live/web_info/.
type LiveInfo struct {
	ID                     ID              `json:"id"`
	MediaID                ID              `json:"media_id"`
	PublishedTime          Int             `json:"published_time"`
	BroadcastPrompt        string          `json:"broadcast_prompt"`
	BroadcastMessage       string          `json:"broadcast_message"`
	Dimensions             Dimensions      `json:"dimensions"`
	BroadcastOwner         BroadcastOwner  `json:"broadcast_owner"`
	CoverFrameURL          string          `json:"cover_frame_url"`
	DashPlaybackURL        string          `json:"dash_playback_url"`
	DashABRPlaybackURL     string          `json:"dash_abr_playback_url"`
	VideoDuration          float64         `json:"video_duration"`
	IsViewerCommentAllowed bool            `json:"is_viewer_comment_allowed"`
	Visibility             Int             `json:"visibility"`
	ViewerCount            Int             `json:"viewer_count"`
	BroadcastStatus        BroadcastStatus `json:"broadcast_status"`
	ResponseTimestamp      Int             `json:"response_timestamp"`
	Status                 string          `json:"status"`
	Message                string          `json:"message,omitempty"`
}

// Heartbeat is the viewer count and liveness probe result.
type Heartbeat struct {
	ViewerCount             Int             `json:"viewer_count"`
	BroadcastStatus         BroadcastStatus `json:"broadcast_status"`
	CobroadcasterIDs        []ID            `json:"cobroadcaster_ids"`
	OffsetToVideoStart      Int             `json:"offset_to_video_start"`
	UserPayMaxAmountReached bool            `json:"user_pay_max_amount_reached"`
	Status                  string          `json:"status"`
	Message                 string          `json:"message,omitempty"`
}

// Clone returns a deep copy.
func (h *Heartbeat) Clone() *Heartbeat {
	if h == nil {
		return nil
	}
	cp := *h
	if h.CobroadcasterIDs != nil {
		cp.CobroadcasterIDs = append([]ID(nil), h.CobroadcasterIDs...)
	}
	return &cp
}

// UserComment is a comment written by a viewer.
type UserComment struct {
	PK               ID     `json:"pk"`
	UserID           ID     `json:"user_id"`
	Type             Int    `json:"type"`
	Text             string `json:"text"`
	CreatedAt        Int    `json:"created_at"`
	CreatedAtUTC     Int    `json:"created_at_utc"`
	ContentType      string `json:"content_type"`
	Status           string `json:"status"`
	MediaID          ID     `json:"media_id"`
	User             User   `json:"user"`
	DidReportAsSpam  bool   `json:"did_report_as_spam"`
	IsCovered        bool   `json:"is_covered"`
	HasLikedComment  bool   `json:"has_liked_comment"`
	CommentLikeCount Int    `json:"comment_like_count"`
}

// SystemComment is a feed entry produced by the service itself.
type SystemComment struct {
	PK               ID                `json:"pk"`
	CreatedAt        Int               `json:"created_at"`
	User             User              `json:"user"`
	Text             string            `json:"text"`
	UserCount        Int               `json:"user_count"`
	HasSocialContext bool              `json:"has_social_context"`
	Type             SystemCommentType `json:"type"`
}

// IsJoin reports whether the entry announces joining viewers.
func (s SystemComment) IsJoin() bool { return s.Type == SystemCommentJoin }

// CommentBatch is one page of the live comment feed.
type CommentBatch struct {
	Comments               []UserComment   `json:"comments"`
	CommentCount           Int             `json:"comment_count"`
	SystemComments         []SystemComment `json:"system_comments"`
	Caption                *string         `json:"caption"`
	CommentLikesEnabled    bool            `json:"comment_likes_enabled"`
	HasMoreComments        bool            `json:"has_more_comments"`
	LiveSecondsPerComment  Int             `json:"live_seconds_per_comment"`
	CommentMuted           Int             `json:"comment_muted"`
	IsViewerCommentAllowed bool            `json:"is_viewer_comment_allowed"`
	Status                 string          `json:"status"`
	Message                string          `json:"message,omitempty"`
}

// Len counts user and system comments together.
func (b *CommentBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Comments) + len(b.SystemComments)
}
