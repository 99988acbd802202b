package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the failure class of an API call
type Kind int

const (
	// KindNoResponse: the request never produced a response (network failure, timeout, cancellation).
	KindNoResponse Kind = iota + 1
	// KindHTTP: the server answered with a non-2xx status.
	KindHTTP
	// KindEnvelope: HTTP 2xx but the envelope carried a failure code.
	KindEnvelope
	// KindSessionExpired: credentials could not be refreshed; the session is over.
	KindSessionExpired
	// KindDecode: the payload could not be decoded into the caller's type.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNoResponse:
		return "no_response"
	case KindHTTP:
		return "http"
	case KindEnvelope:
		return "envelope"
	case KindSessionExpired:
		return "session_expired"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// ErrSessionExpired matches every error after which the stored credentials were cleared
var ErrSessionExpired = errors.New("session expired")

// User-facing messages
const (
	msgBadRequest     = "invalid request parameters"
	msgSessionExpired = "session expired, please log in again"
	msgForbidden      = "access denied"
	msgNotFound       = "requested resource not found"
	msgServerError    = "internal server error"
	msgNoResponse     = "server did not respond"
	msgRequestFailed  = "request failed"
)

// Error is returned by every failed call
type Error struct {
	Kind       Kind
	Method     string
	Path       string
	StatusCode int
	// Code is the envelope code, zero unless Kind is KindEnvelope
	Code    int
	Message string
	// SessionEnded is set when the failure cleared the stored credentials
	SessionEnded bool
	Err          error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	case KindEnvelope:
		return fmt.Sprintf("%s %s: code %d: %s", e.Method, e.Path, e.Code, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrSessionExpired && (e.SessionEnded || e.Kind == KindSessionExpired)
}

// IsKind reports whether err is an *Error of kind k
func IsKind(err error, k Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == k
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// action is what the response pipeline does with a classified failure
type action int

const (
	actionNotify action = iota
	actionRefresh
	actionEndSession
)

// classifyStatus maps a non-2xx status to its user-facing message and action
func classifyStatus(status int, refreshPath bool) (string, action) {
	switch status {
	case http.StatusBadRequest:
		return msgBadRequest, actionNotify
	case http.StatusUnauthorized:
		if refreshPath {
			return msgSessionExpired, actionEndSession
		}
		return "", actionRefresh
	case http.StatusForbidden:
		return msgForbidden, actionNotify
	case http.StatusNotFound:
		return msgNotFound, actionNotify
	case http.StatusInternalServerError:
		return msgServerError, actionNotify
	default:
		return fmt.Sprintf("%s: %d", msgRequestFailed, status), actionNotify
	}
}
