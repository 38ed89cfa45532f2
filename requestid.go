package denly

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	defaultRequestIDHeader = "X-Request-ID"
	maxRequestIDLen        = 128
)

// requestID returns the caller-supplied request ID, or a fresh UUID when the
// header is missing or implausibly long.
func (r *Router) requestID(req *http.Request) string {
	if id := req.Header.Get(r.requestIDHeader); id != "" && len(id) <= maxRequestIDLen {
		return id
	}
	return uuid.NewString()
}

// GetRequestID returns the request ID of the request running in ctx.
func GetRequestID(ctx context.Context) string {
	if c, ok := FromContext(ctx); ok {
		return c.RequestID()
	}
	return ""
}
