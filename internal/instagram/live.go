package instagram

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const (
	liveInfoPath = "/api/v1/live/web_info/"

	offlineMessage      = "User is not live"
	mediaDeletedMessage = "Sorry, this media has been deleted"
)

// FetchLiveInfo returns the live descriptor for a user id. A user who is
// not broadcasting yields *UserOfflineError.
func (c *Client) FetchLiveInfo(ctx context.Context, userID string) (*LiveInfo, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, &LookupError{Op: "fetch live info", Detail: "target user id required"}
	}
	values := url.Values{}
	values.Set("target_user_id", userID)
	resp, err := c.get(ctx, "fetch live info", &url.URL{Path: liveInfoPath, RawQuery: values.Encode()})
	if err != nil {
		return nil, err
	}
	if err := resp.checkLogin(); err != nil {
		return nil, err
	}
	var payload LiveInfo
	if err := resp.decode("fetch live info", &payload); err != nil {
		return nil, err
	}
	if payload.Message == offlineMessage {
		return nil, &UserOfflineError{}
	}
	if payload.Status != "ok" {
		return nil, &APIError{
			Op:         "fetch live info",
			StatusCode: resp.statusCode,
			Status:     payload.Status,
			Message:    payload.Message,
		}
	}
	if payload.ID == "" {
		return nil, &LookupError{Op: "fetch live info", Detail: "missing live id in payload"}
	}
	return &payload, nil
}

// FetchHeartbeat probes a broadcast for its viewer count and status.
func (c *Client) FetchHeartbeat(ctx context.Context, liveID string) (*Heartbeat, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: livePath(liveID, "heartbeat_and_get_viewer_count")}
	resp, err := c.get(ctx, "fetch heartbeat", rel)
	if err != nil {
		return nil, err
	}
	if err := resp.checkLogin(); err != nil {
		return nil, err
	}
	var payload Heartbeat
	if err := resp.decode("fetch heartbeat", &payload); err != nil {
		return nil, err
	}
	if payload.Status == "fail" {
		return nil, &APIError{
			Op:         "fetch heartbeat",
			StatusCode: resp.statusCode,
			Status:     payload.Status,
			Message:    payload.Message,
		}
	}
	return &payload, nil
}

// FetchComments returns comments newer than lastCommentTS, a unix-seconds
// cursor. An empty cursor fetches the most recent page.
func (c *Client) FetchComments(ctx context.Context, liveID, lastCommentTS string) (*CommentBatch, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: livePath(liveID, "get_comment")}
	if lastCommentTS != "" {
		values := url.Values{}
		values.Set("last_comment_ts", lastCommentTS)
		rel.RawQuery = values.Encode()
	}
	resp, err := c.get(ctx, "fetch comments", rel)
	if err != nil {
		return nil, err
	}
	if err := resp.checkLogin(); err != nil {
		return nil, err
	}
	var payload CommentBatch
	if err := resp.decode("fetch comments", &payload); err != nil {
		return nil, err
	}
	if payload.Message == mediaDeletedMessage {
		return nil, &UserOfflineError{MediaDeleted: true}
	}
	if payload.Status == "fail" {
		return nil, &APIError{
			Op:         "fetch comments",
			StatusCode: resp.statusCode,
			Status:     payload.Status,
			Message:    payload.Message,
		}
	}
	return &payload, nil
}

func livePath(liveID, action string) string {
	return "/api/v1/live/" + url.PathEscape(liveID) + "/" + action + "/"
}
