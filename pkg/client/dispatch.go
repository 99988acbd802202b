package client

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// wireResponse is what came back from one dispatch
type wireResponse struct {
	status int
	header http.Header
	body   []byte
	// raw is set instead of body for stream requests
	raw io.ReadCloser
	// sentWith is the access token the request carried
	sentWith string
}

// cancelOnClose releases the request context once a streamed body is closed
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

// dispatch sends req once. A returned error always means no response was received.
func (c *Client) dispatch(ctx context.Context, req *Request) (*wireResponse, error) {
	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	refresh := c.isRefreshPath(req.Path)
	token := c.session.AccessToken()
	if refresh {
		token = c.session.RefreshToken()
	}

	requestID := uuid.NewString()
	log := c.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"method":     req.Method,
		"path":       req.Path,
	})

	r := c.rest.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", requestID)
	if token != "" {
		r.SetAuthToken(token)
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	for key, values := range req.Header {
		for _, value := range values {
			r.Header.Add(key, value)
		}
	}

	switch {
	case req.Multipart != nil:
		if len(req.Multipart.Fields) > 0 {
			r.SetMultipartFormData(req.Multipart.Fields)
		}
		for _, f := range req.Multipart.Files {
			r.SetFileReader(f.Param, f.Name, bytes.NewReader(f.Content))
		}
	case req.Body != nil:
		r.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}
	if req.stream {
		r.SetDoNotParseResponse(true)
	}

	log.WithField("authorized", token != "").Debug("Sending request")
	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		cancel()
		log.WithError(err).Debug("No response received")
		return nil, err
	}

	wire := &wireResponse{
		status: resp.StatusCode(),
		header: resp.Header(),
	}
	if !refresh {
		wire.sentWith = token
	}
	if req.stream {
		wire.raw = &cancelOnClose{ReadCloser: resp.RawBody(), cancel: cancel}
	} else {
		wire.body = resp.Body()
		cancel()
	}
	log.WithField("status", wire.status).Debug("Received response")
	return wire, nil
}
