package instagram

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const loginPath = "/accounts/login/ajax/"

type loginResponse struct {
	User              bool   `json:"user"`
	Authenticated     *bool  `json:"authenticated"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	UserID            ID     `json:"userId"`
	TwoFactorRequired bool   `json:"two_factor_required"`
	CheckpointURL     string `json:"checkpoint_url"`
}

// Login seeds the session cookies, fetches a CSRF token and, unless a
// session id is supplied, posts the username and password. A missing device
// id is replaced by a generated one.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if creds.DeviceID == "" {
		creds.DeviceID = GenerateDeviceID()
	}
	c.seedCookies(creds)

	if _, err := c.get(ctx, "fetch csrf token", &url.URL{Path: "/"}); err != nil {
		return err
	}
	c.refreshCSRF()

	if creds.SessionID != "" {
		c.log.Info().Msg("using supplied session id")
		return nil
	}
	if creds.Username == "" || creds.Password == "" {
		return &AuthError{
			Reason:  AuthGeneric,
			Message: "username and password are required when no session id is set",
		}
	}

	if err := c.sleep(ctx, randomDelay(c.jitter)); err != nil {
		return &NetworkError{Op: "login", Err: err}
	}

	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("enc_password", browserPassword(creds.Password, c.now()))
	resp, err := c.postForm(ctx, "login", loginPath, form)
	if err != nil {
		return err
	}
	var payload loginResponse
	if err := resp.decode("login", &payload); err != nil {
		return err
	}
	if err := payload.err(creds.Username); err != nil {
		return err
	}

	c.refreshCSRF()
	c.log.Info().Str("user_id", payload.UserID.String()).Msg("logged in")
	return nil
}

func (p loginResponse) err(username string) error {
	switch {
	case p.TwoFactorRequired:
		return &AuthError{Reason: AuthTwoFactorRequired, Message: "two factor authentication required"}
	case p.CheckpointURL != "":
		return &AuthError{
			Reason:  AuthCheckpointRequired,
			Message: "checkpoint required, follow the instructions then retry",
			URL:     p.CheckpointURL,
		}
	case p.Status != "ok":
		msg := fmt.Sprintf("login failed with status %q", p.Status)
		if p.Message != "" {
			msg += fmt.Sprintf(", message %q", p.Message)
		}
		return &AuthError{Reason: AuthGeneric, Message: msg}
	case p.Authenticated == nil:
		return &AuthError{Reason: AuthGeneric, Message: "unexpected login response, this might indicate a blocked IP"}
	case !*p.Authenticated && p.User:
		return &AuthError{Reason: AuthIncorrectPassword, Message: "wrong password, or too many attempts"}
	case !*p.Authenticated:
		return &AuthError{Reason: AuthUsernameNotFound, Message: fmt.Sprintf("user %s does not exist", username)}
	}
	return nil
}

func (c *Client) seedCookies(creds Credentials) {
	c.SetCookie("sessionid", creds.SessionID)
	c.SetCookie("ig_did", creds.DeviceID)
	c.SetCookie("mid", "")
	c.SetCookie("ig_pr", "1")
	c.SetCookie("ig_vw", "1920")
	c.SetCookie("ig_cb", "1")
	c.SetCookie("csrftoken", "")
	c.SetCookie("s_network", "")
	c.SetCookie("db_user_id", "")
}

// browserPassword formats a password the way the web login form submits it
// when client-side encryption is off.
func browserPassword(password string, now time.Time) string {
	return fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", now.Unix(), password)
}
