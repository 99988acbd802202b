// Package client implements the authenticated webook API client: bearer
// credentials, rotation headers, envelope normalization and a single
// refresh-and-replay on 401.
package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/webook-dev/webook-client/pkg/logger"
	"github.com/webook-dev/webook-client/pkg/notification"
	"github.com/webook-dev/webook-client/pkg/session"
)

// Client represents a webook API client
type Client struct {
	baseURL     string
	timeout     time.Duration
	refreshPath string

	httpClient *http.Client
	rest       *resty.Client
	session    *session.Manager
	notifier   notification.Notifier
	navigator  Navigator
	log        logrus.FieldLogger
}

// Request describes one API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is marshalled as JSON unless Multipart is set
	Body      interface{}
	Multipart *MultipartForm
	Timeout   time.Duration
	Header    http.Header

	stream bool
}

// MultipartForm is a multipart/form-data body. File contents are held in memory
// so the request can be replayed after a refresh.
type MultipartForm struct {
	Fields map[string]string
	Files  []File
}

// File is one file part of a multipart body
type File struct {
	Param   string
	Name    string
	Content []byte
}

// Stream is an unnormalized response, returned for downloads
type Stream struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// NewClient creates a new webook API client
func NewClient(cfg *Config, sess *session.Manager, opts ...Option) *Client {
	conf := cfg.withDefaults()

	c := &Client{
		baseURL:     strings.TrimRight(conf.BaseURL(), "/"),
		timeout:     conf.Timeout,
		refreshPath: conf.RefreshPath,
		session:     sess,
		notifier:    notification.Discard,
		navigator:   noopNavigator,
		log:         logger.Standard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient != nil {
		c.rest = resty.NewWithClient(c.httpClient)
	} else {
		c.rest = resty.New()
	}
	c.rest.
		SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/json").
		SetLogger(c.log)
	return c
}

// BaseURL returns the resolved base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the session manager holding the credentials
func (c *Client) Session() *session.Manager {
	return c.session
}

// Do executes req and decodes the unwrapped payload into out (which may be nil)
func (c *Client) Do(ctx context.Context, req *Request, out interface{}) error {
	p, err := c.execute(ctx, req, false)
	if err != nil {
		return err
	}
	if p.stream != nil {
		dst, ok := out.(**Stream)
		if !ok {
			_ = p.stream.Body.Close()
			return &Error{Kind: KindDecode, Method: req.Method, Path: req.Path, Message: "stream responses need a **Stream target"}
		}
		*dst = p.stream
		return nil
	}
	if err := decode(p.data, out); err != nil {
		return &Error{Kind: KindDecode, Method: req.Method, Path: req.Path, Message: "failed to decode response", Err: err}
	}
	return nil
}

// Get sends a GET request with query parameters
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}, opts ...CallOption) error {
	return c.Do(ctx, newRequest(http.MethodGet, path, query, nil, opts), out)
}

// Post sends a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, out interface{}, opts ...CallOption) error {
	return c.Do(ctx, newRequest(http.MethodPost, path, nil, body, opts), out)
}

// Put sends a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body, out interface{}, opts ...CallOption) error {
	return c.Do(ctx, newRequest(http.MethodPut, path, nil, body, opts), out)
}

// Delete sends a DELETE request with query parameters
func (c *Client) Delete(ctx context.Context, path string, query url.Values, out interface{}, opts ...CallOption) error {
	return c.Do(ctx, newRequest(http.MethodDelete, path, query, nil, opts), out)
}

// PostMultipart sends a multipart/form-data POST; the transport sets the content type
func (c *Client) PostMultipart(ctx context.Context, path string, form *MultipartForm, out interface{}, opts ...CallOption) error {
	req := newRequest(http.MethodPost, path, nil, nil, opts)
	req.Multipart = form
	return c.Do(ctx, req, out)
}

// Download fetches path without envelope normalization. The caller must close Body.
func (c *Client) Download(ctx context.Context, path string, query url.Values, opts ...CallOption) (*Stream, error) {
	var stream *Stream
	if err := c.Get(ctx, path, query, &stream, append(opts, AsStream())...); err != nil {
		return nil, err
	}
	return stream, nil
}

func newRequest(method, path string, query url.Values, body interface{}, opts []CallOption) *Request {
	req := &Request{
		Method: method,
		Path:   path,
		Query:  query,
		Body:   body,
	}
	for _, opt := range opts {
		opt(req)
	}
	return req
}

func (c *Client) isRefreshPath(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path == c.refreshPath
}

// payload is the successful outcome of one call
type payload struct {
	data   json.RawMessage
	stream *Stream
}
