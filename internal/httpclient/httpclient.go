// Package httpclient builds outbound HTTP clients that log every call.
package httpclient

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// loggingTransport logs method, url, status and duration of each outbound
// call and forwards the inbound request id when one is in the context.
type loggingTransport struct {
	inner http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	requestID := middleware.GetReqID(req.Context())
	if requestID != "" && req.Header.Get(middleware.RequestIDHeader) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(middleware.RequestIDHeader, requestID)
	}

	resp, err := t.inner.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		log.Warn().
			Err(err).
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Str("request_id", requestID).
			Dur("duration", duration).
			Msg("outbound request failed")
		return nil, err
	}

	log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("duration", duration).
		Msg("outbound request")
	return resp, nil
}

// New returns an http.Client with the given overall timeout and request logging
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &loggingTransport{inner: http.DefaultTransport},
	}
}
