package client

import (
	"context"
	"net/http"
	"time"

	"github.com/webook-dev/webook-client/pkg/notification"
	"github.com/webook-dev/webook-client/pkg/session"
)

// Rotation headers through which the backend pushes renewed credentials
const (
	HeaderAccessToken  = "X-Jwt-Token"
	HeaderRefreshToken = "X-Refresh-Token"
)

// execute runs req through dispatch and the response pipeline. Replayed
// requests never start another refresh.
func (c *Client) execute(ctx context.Context, req *Request, replay bool) (*payload, error) {
	wire, err := c.dispatch(ctx, req)
	if err != nil {
		return nil, c.fail(req, &Error{Kind: KindNoResponse, Message: msgNoResponse, Err: err})
	}
	c.rotate(wire.header)

	if wire.status < 200 || wire.status > 299 {
		closeRaw(wire)
		return c.statusFailure(ctx, req, wire, replay)
	}

	if req.stream {
		return &payload{stream: &Stream{StatusCode: wire.status, Header: wire.header, Body: wire.raw}}, nil
	}

	res := parseEnvelope(wire.status, wire.body)
	if res.OK {
		return &payload{data: res.Data}, nil
	}

	envErr := &Error{Kind: KindEnvelope, StatusCode: wire.status, Code: res.Code, Message: res.failureMessage()}
	if res.Code == http.StatusUnauthorized {
		return nil, c.endSession(req, envErr)
	}
	return nil, c.fail(req, envErr)
}

func (c *Client) statusFailure(ctx context.Context, req *Request, wire *wireResponse, replay bool) (*payload, error) {
	refreshPath := c.isRefreshPath(req.Path)
	msg, act := classifyStatus(wire.status, refreshPath)
	if act == actionRefresh && replay {
		msg, act = msgSessionExpired, actionEndSession
	}

	switch act {
	case actionRefresh:
		return c.recoverUnauthorized(ctx, req, wire.sentWith)
	case actionEndSession:
		return nil, c.endSession(req, &Error{Kind: KindSessionExpired, StatusCode: wire.status, Message: msg})
	default:
		return nil, c.fail(req, &Error{Kind: KindHTTP, StatusCode: wire.status, Message: msg})
	}
}

// rotate persists credentials carried in the rotation headers. Empty values are ignored.
func (c *Client) rotate(header http.Header) {
	pair := session.Pair{
		AccessToken:  header.Get(HeaderAccessToken),
		RefreshToken: header.Get(HeaderRefreshToken),
	}
	if pair.AccessToken == "" && pair.RefreshToken == "" {
		return
	}
	if _, err := c.session.Rotate(pair); err != nil {
		c.log.WithError(err).Warn("Failed to persist rotated credentials")
	}
}

// fail notifies the user about err and returns it, stamped with the request
func (c *Client) fail(req *Request, err *Error) error {
	err.Method, err.Path = req.Method, req.Path
	c.notify(req.Path, err.Message)
	return err
}

// endSession clears the credentials, moves to the login surface and notifies once
func (c *Client) endSession(req *Request, err *Error) error {
	c.clearCredentials()
	return c.announceEnd(req, err)
}

// announceEnd moves to the login surface and notifies about credentials that
// were already cleared
func (c *Client) announceEnd(req *Request, err *Error) error {
	err.Method, err.Path = req.Method, req.Path
	err.SessionEnded = true

	c.log.WithField("path", req.Path).WithField("reason", err.Message).Warn("Session ended")
	c.navigator.ToLogin(req.Path)
	c.notify(req.Path, err.Message)
	return err
}

func (c *Client) clearCredentials() {
	if err := c.session.Clear(); err != nil {
		c.log.WithError(err).Warn("Failed to clear credentials")
	}
}

func (c *Client) notify(path, msg string) {
	c.notifier.Notify(notification.Notification{
		Level:   notification.LevelError,
		Message: msg,
		Path:    path,
		SentAt:  time.Now(),
	})
}

func closeRaw(wire *wireResponse) {
	if wire.raw != nil {
		_ = wire.raw.Close()
	}
}
