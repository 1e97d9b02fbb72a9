package testutil

import (
	"net/http"
	"time"

	"hirefunnel/pkg/requestcontext"
)

// WithRequestID stamps a request ID on the request context, simulating what
// the request-ID middleware would do.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	return req.WithContext(ctx)
}

// WithTime pins the request-scoped clock so handlers under test see a fixed
// time.
func WithTime(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}
