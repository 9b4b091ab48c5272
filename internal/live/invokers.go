package live

import (
	"context"
	"errors"

	"github.com/five82/iglive/internal/instagram"
)

// Authenticator establishes the transport session.
type Authenticator interface {
	Login(ctx context.Context, creds instagram.Credentials) error
}

// UserIDLookup resolves a username to a user id.
type UserIDLookup interface {
	LookupUserID(ctx context.Context, username string) (string, error)
}

// LiveInfoFetcher loads the live descriptor for a user id.
type LiveInfoFetcher interface {
	FetchLiveInfo(ctx context.Context, userID string) (*instagram.LiveInfo, error)
}

// HeartbeatFetcher probes viewer count and broadcast status.
type HeartbeatFetcher interface {
	FetchHeartbeat(ctx context.Context, liveID string) (*instagram.Heartbeat, error)
}

// CommentFetcher reads the comment feed after a cursor.
type CommentFetcher interface {
	FetchComments(ctx context.Context, liveID, lastCommentTS string) (*instagram.CommentBatch, error)
}

// Invokers bundles the remote operations a Controller drives.
type Invokers struct {
	Login     Authenticator
	Lookup    UserIDLookup
	LiveInfo  LiveInfoFetcher
	Heartbeat HeartbeatFetcher
	Comments  CommentFetcher
}

// InvokersFor wires every operation to one API implementation.
func InvokersFor(api instagram.API) Invokers {
	return Invokers{
		Login:     api,
		Lookup:    api,
		LiveInfo:  api,
		Heartbeat: api,
		Comments:  api,
	}
}

func (i Invokers) validate() error {
	var errs []error
	if i.Login == nil {
		errs = append(errs, errors.New("login invoker is nil"))
	}
	if i.Lookup == nil {
		errs = append(errs, errors.New("lookup invoker is nil"))
	}
	if i.LiveInfo == nil {
		errs = append(errs, errors.New("live info invoker is nil"))
	}
	if i.Heartbeat == nil {
		errs = append(errs, errors.New("heartbeat invoker is nil"))
	}
	if i.Comments == nil {
		errs = append(errs, errors.New("comments invoker is nil"))
	}
	return errors.Join(errs...)
}

// LoginFunc adapts a function to Authenticator.
type LoginFunc func(ctx context.Context, creds instagram.Credentials) error

func (f LoginFunc) Login(ctx context.Context, creds instagram.Credentials) error {
	return f(ctx, creds)
}

// LookupFunc adapts a function to UserIDLookup.
type LookupFunc func(ctx context.Context, username string) (string, error)

func (f LookupFunc) LookupUserID(ctx context.Context, username string) (string, error) {
	return f(ctx, username)
}

// LiveInfoFunc adapts a function to LiveInfoFetcher.
type LiveInfoFunc func(ctx context.Context, userID string) (*instagram.LiveInfo, error)

func (f LiveInfoFunc) FetchLiveInfo(ctx context.Context, userID string) (*instagram.LiveInfo, error) {
	return f(ctx, userID)
}

// HeartbeatFunc adapts a function to HeartbeatFetcher.
type HeartbeatFunc func(ctx context.Context, liveID string) (*instagram.Heartbeat, error)

func (f HeartbeatFunc) FetchHeartbeat(ctx context.Context, liveID string) (*instagram.Heartbeat, error) {
	return f(ctx, liveID)
}

// CommentsFunc adapts a function to CommentFetcher.
type CommentsFunc func(ctx context.Context, liveID, lastCommentTS string) (*instagram.CommentBatch, error)

func (f CommentsFunc) FetchComments(ctx context.Context, liveID, lastCommentTS string) (*instagram.CommentBatch, error) {
	return f(ctx, liveID, lastCommentTS)
}
