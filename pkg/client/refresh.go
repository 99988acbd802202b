package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/webook-dev/webook-client/pkg/session"
)

// pending is one request parked behind a refresh
type pending struct {
	client *Client
	ctx    context.Context
	req    *Request
	done   chan outcome
}

type outcome struct {
	payload *payload
	err     error
}

func (p *pending) Replay() error {
	if err := p.ctx.Err(); err != nil {
		// abandoned by its caller
		failure := &Error{Kind: KindNoResponse, Method: p.req.Method, Path: p.req.Path, Message: msgNoResponse, Err: err}
		p.done <- outcome{err: failure}
		return failure
	}
	res, err := p.client.execute(p.ctx, p.req, true)
	p.done <- outcome{payload: res, err: err}
	return err
}

func (p *pending) Reject(cause error) {
	p.done <- outcome{err: rejection(p.req, cause)}
}

// rejection fails req because the session is already over. It neither
// notifies nor navigates.
func rejection(req *Request, cause error) *Error {
	err := &Error{
		Kind:         KindSessionExpired,
		Method:       req.Method,
		Path:         req.Path,
		Message:      msgSessionExpired,
		SessionEnded: true,
		Err:          cause,
	}
	var apiErr *Error
	if errors.As(cause, &apiErr) {
		err.Message = apiErr.Message
	}
	return err
}

// recoverUnauthorized handles a 401 on an ordinary request: the first caller refreshes,
// everyone parks, and the queue is replayed in arrival order afterwards.
func (c *Client) recoverUnauthorized(ctx context.Context, req *Request, sentWith string) (*payload, error) {
	p := &pending{client: c, ctx: ctx, req: req, done: make(chan outcome, 1)}

	switch c.session.Enqueue(p, sentWith) {
	case session.Stale:
		c.log.WithField("path", req.Path).Debug("Token rotated since request was sent, replaying")
		return c.execute(ctx, req, true)
	case session.Ended:
		c.log.WithField("path", req.Path).Debug("Session ended since request was sent")
		return nil, rejection(req, nil)
	case session.Lead:
		c.runRefresh(ctx, req)
	}

	select {
	case o := <-p.done:
		return o.payload, o.err
	case <-ctx.Done():
		return nil, &Error{Kind: KindNoResponse, Method: req.Method, Path: req.Path, Message: msgNoResponse, Err: ctx.Err()}
	}
}

// runRefresh is called by the leader with the refresh flag held
func (c *Client) runRefresh(ctx context.Context, trigger *Request) {
	log := c.log.WithField("trigger", trigger.Path)
	log.Info("Access token rejected, refreshing")

	queue, err := c.session.CompleteRefresh(func() error {
		return c.refreshOrClear(ctx)
	})
	c.settle(trigger, queue, err)
}

// refreshOrClear runs the refresh call and clears the credentials if it fails,
// so the flag is never released while the dead credentials are still held.
func (c *Client) refreshOrClear(ctx context.Context) error {
	err := c.callRefresh(ctx)
	if err != nil {
		c.clearCredentials()
	}
	return err
}

// settle replays or rejects the drained queue. The credentials are already
// cleared when err is set.
func (c *Client) settle(trigger *Request, queue []session.Pending, err error) {
	if err != nil {
		var apiErr *Error
		if !errors.As(err, &apiErr) {
			apiErr = &Error{Kind: KindSessionExpired, Message: msgSessionExpired, Err: err}
		}
		// One navigation and one notification for the whole queue.
		_ = c.announceEnd(trigger, apiErr)
		for _, p := range queue {
			p.Reject(apiErr)
		}
		return
	}

	c.log.WithField("queued", len(queue)).Info("Credentials refreshed, replaying queued requests")
	for i, p := range queue {
		if err := p.Replay(); errors.Is(err, ErrSessionExpired) {
			// the replay ended the session; the rest would only fail the same way
			for _, rest := range queue[i+1:] {
				rest.Reject(err)
			}
			return
		}
	}
}

// callRefresh exchanges the refresh token for new credentials. It neither
// notifies nor clears; settle does that once for the whole queue.
func (c *Client) callRefresh(ctx context.Context) error {
	req := &Request{Method: http.MethodPost, Path: c.refreshPath, Body: struct{}{}}
	// A cancelled leader must not strand the queue.
	ctx = context.WithoutCancel(ctx)

	wire, err := c.dispatch(ctx, req)
	if err != nil {
		return &Error{Kind: KindNoResponse, Method: req.Method, Path: req.Path, Message: msgNoResponse, Err: err}
	}
	c.rotate(wire.header)

	if wire.status < 200 || wire.status > 299 {
		msg, _ := classifyStatus(wire.status, true)
		kind := KindHTTP
		if wire.status == http.StatusUnauthorized {
			kind = KindSessionExpired
		}
		return &Error{Kind: kind, Method: req.Method, Path: req.Path, StatusCode: wire.status, Message: msg}
	}

	res := parseEnvelope(wire.status, wire.body)
	if !res.OK {
		return &Error{Kind: KindEnvelope, Method: req.Method, Path: req.Path, StatusCode: wire.status, Code: res.Code, Message: res.failureMessage()}
	}
	return nil
}

// Refresh exchanges the refresh token for new credentials outside of the 401
// path. Requests that hit a 401 meanwhile are parked and replayed as usual.
func (c *Client) Refresh(ctx context.Context) error {
	trigger := &Request{Method: http.MethodPost, Path: c.refreshPath}
	queue, err := c.session.WithRefreshLock(func() error {
		return c.refreshOrClear(ctx)
	})
	if errors.Is(err, session.ErrRefreshInProgress) {
		return err
	}
	c.settle(trigger, queue, err)
	return err
}
