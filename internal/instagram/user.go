package instagram

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const profileInfoPath = "/api/v1/users/web_profile_info/"

type profileInfoResponse struct {
	Data struct {
		User *struct {
			ID       ID     `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	} `json:"data"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// LookupUserID resolves a username to the numeric user id the live
// endpoints expect.
func (c *Client) LookupUserID(ctx context.Context, username string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return "", &LookupError{Op: "lookup user id", Detail: "username required"}
	}

	values := url.Values{}
	values.Set("username", username)
	resp, err := c.get(ctx, "lookup user id", &url.URL{Path: profileInfoPath, RawQuery: values.Encode()})
	if err != nil {
		return "", err
	}
	if err := resp.checkLogin(); err != nil {
		return "", err
	}
	var payload profileInfoResponse
	if err := resp.decode("lookup user id", &payload); err != nil {
		return "", err
	}
	if payload.Data.User == nil || payload.Data.User.ID == "" {
		detail := fmt.Sprintf("no user id for %q (http %d)", username, resp.statusCode)
		if payload.Message != "" {
			detail += ": " + payload.Message
		}
		return "", &LookupError{Op: "lookup user id", Detail: detail}
	}
	return payload.Data.User.ID.String(), nil
}
