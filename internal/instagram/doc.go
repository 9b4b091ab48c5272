// Package instagram is an HTTP client for the Instagram web endpoints that
// back live broadcasts.
//
// # Overview
//
// A Client owns one authenticated identity: its cookie jar, CSRF token,
// optional proxy and outbound rate limiter. Nothing is shared between
// clients, so several sessions can run side by side in one process.
//
// # Architecture
//
//   - client.go: Client construction, request execution, body decoding
//   - login.go: cookie seeding, CSRF bootstrap and password login
//   - user.go: username to user id resolution
//   - live.go: live descriptor, heartbeat and comment feed
//   - types.go: payload structs mirroring the API schema
//   - errors.go: the error taxonomy callers switch on
//   - device.go: device id generation
//
// # Client Usage
//
//	client, err := instagram.NewClient(instagram.Options{RatePerSec: 2})
//	if err != nil {
//		return err
//	}
//	if err := client.Login(ctx, instagram.Credentials{SessionID: sid}); err != nil {
//		return err
//	}
//	userID, err := client.LookupUserID(ctx, "someuser")
//	info, err := client.FetchLiveInfo(ctx, userID)
//	hb, err := client.FetchHeartbeat(ctx, info.ID.String())
//
// # Request Handling
//
// Every request carries browser-like headers plus X-IG-App-ID, and the
// X-CSRFToken header once login has obtained a token. Responses are read in
// full and gzip or deflate bodies are decoded by hand because the headers ask
// for them explicitly. Redirects are not followed, which lets the client see
// challenge locations. HTTP status codes are not treated as failures on their
// own: the service reports most conditions in the JSON body.
//
// # Error Handling
//
//   - *AuthError: login failures (two factor, checkpoint, wrong password,
//     unknown user, generic) and login-wall hits. errors.Is(err,
//     ErrUnauthenticated) matches the latter.
//   - *UserOfflineError: the target is not live, or the live media was
//     deleted mid-broadcast. errors.Is(err, ErrUserOffline) matches both.
//   - *LookupError: a required field was missing from a response.
//   - *APIError: a non-JSON body or a non-ok status.
//   - *NetworkError: transport failure, including context cancellation.
package instagram
