package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status      int
		refreshPath bool
		wantMsg     string
		wantAction  action
	}{
		{http.StatusBadRequest, false, msgBadRequest, actionNotify},
		{http.StatusUnauthorized, false, "", actionRefresh},
		{http.StatusUnauthorized, true, msgSessionExpired, actionEndSession},
		{http.StatusForbidden, false, msgForbidden, actionNotify},
		{http.StatusNotFound, true, msgNotFound, actionNotify},
		{http.StatusInternalServerError, false, msgServerError, actionNotify},
		{http.StatusServiceUnavailable, false, "request failed: 503", actionNotify},
		{http.StatusMovedPermanently, false, "request failed: 301", actionNotify},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d refresh=%v", tt.status, tt.refreshPath), func(t *testing.T) {
			msg, act := classifyStatus(tt.status, tt.refreshPath)
			assert.Equal(t, tt.wantMsg, msg)
			assert.Equal(t, tt.wantAction, act)
		})
	}
}

func TestError(t *testing.T) {
	t.Run("formats by kind", func(t *testing.T) {
		httpErr := &Error{Kind: KindHTTP, Method: "GET", Path: "/x", StatusCode: 404, Message: msgNotFound}
		assert.Equal(t, "GET /x: HTTP 404: requested resource not found", httpErr.Error())

		envErr := &Error{Kind: KindEnvelope, Method: "POST", Path: "/y", Code: 3, Message: "nope"}
		assert.Equal(t, "POST /y: code 3: nope", envErr.Error())

		netErr := &Error{Kind: KindNoResponse, Method: "GET", Path: "/z", Message: msgNoResponse, Err: context.DeadlineExceeded}
		assert.Equal(t, "GET /z: server did not respond: context deadline exceeded", netErr.Error())
	})

	t.Run("unwraps", func(t *testing.T) {
		err := fmt.Errorf("failed to load: %w", &Error{Kind: KindNoResponse, Err: context.Canceled})
		assert.True(t, errors.Is(err, context.Canceled))
		assert.True(t, IsKind(err, KindNoResponse))
		assert.False(t, IsKind(err, KindHTTP))
		assert.False(t, IsKind(errors.New("plain"), KindHTTP))
	})

	t.Run("session expired matching", func(t *testing.T) {
		assert.True(t, errors.Is(&Error{Kind: KindSessionExpired}, ErrSessionExpired))
		assert.True(t, errors.Is(&Error{Kind: KindEnvelope, SessionEnded: true}, ErrSessionExpired))
		assert.False(t, errors.Is(&Error{Kind: KindHTTP, StatusCode: 403}, ErrSessionExpired))
	})

	t.Run("status code", func(t *testing.T) {
		assert.Equal(t, 500, StatusCode(&Error{Kind: KindHTTP, StatusCode: 500}))
		assert.Zero(t, StatusCode(errors.New("plain")))
	})

	t.Run("kind names", func(t *testing.T) {
		assert.Equal(t, "session_expired", KindSessionExpired.String())
		assert.Equal(t, "unknown", Kind(0).String())
	})
}
