// Package responder talks to the external inference service that produces
// assistant replies. A document-augmented endpoint is tried first and a plain
// chat endpoint is used as the single fallback hop.
package responder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Rrens/chatdesk/internal/httpclient"
	"github.com/rs/zerolog/log"
)

// FailureNotice is the reply used when neither endpoint answered
const FailureNotice = "AI reply failed, please try again later"

const maxBodySize = 5 * 1024 * 1024

// Status classifies how a reply was obtained
type Status int

const (
	// StatusOK means the primary endpoint answered
	StatusOK Status = iota
	// StatusDegraded means the primary failed and the fallback answered
	StatusDegraded
	// StatusFailed means both failed and Text is FailureNotice
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of one Respond call. Text is always usable.
type Result struct {
	Status Status
	Text   string
	Err    error
}

// HTTPError is returned for non-2xx upstream responses
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("responder request failed: status=%d body=%s", e.StatusCode, e.Body)
}

// Config holds the endpoint layout of the inference service
type Config struct {
	BaseURL      string
	PrimaryPath  string
	FallbackPath string
	Timeout      time.Duration
}

// Client is the inference service client
type Client struct {
	baseURL      string
	primaryPath  string
	fallbackPath string
	httpClient   *http.Client
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// NewClient creates a responder client. Every outbound call is bounded by cfg.Timeout.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		primaryPath:  cfg.PrimaryPath,
		fallbackPath: cfg.FallbackPath,
		httpClient:   httpclient.New(cfg.Timeout),
	}
}

// Respond asks the primary endpoint for a reply and falls back to the basic
// chat endpoint once. It never returns an error to the caller; failures are
// reported through Result.Status and Result.Err.
//
// Cancellation of ctx is deliberately not propagated: the reply is persisted
// even if the inbound request goes away, and each call is bounded by the
// client timeout instead.
func (c *Client) Respond(ctx context.Context, prompt string) Result {
	ctx = context.WithoutCancel(ctx)

	reply, primaryErr := c.call(ctx, c.primaryPath, prompt)
	if primaryErr == nil {
		return Result{Status: StatusOK, Text: reply}
	}
	log.Warn().Err(primaryErr).Str("path", c.primaryPath).Msg("primary responder failed, falling back to basic chat")

	reply, fallbackErr := c.call(ctx, c.fallbackPath, prompt)
	if fallbackErr == nil {
		return Result{Status: StatusDegraded, Text: reply, Err: primaryErr}
	}
	log.Error().Err(fallbackErr).Str("path", c.fallbackPath).Msg("basic chat responder failed")

	return Result{
		Status: StatusFailed,
		Text:   FailureNotice,
		Err:    errors.Join(primaryErr, fallbackErr),
	}
}

// Reply is Respond collapsed to plain text
func (c *Client) Reply(ctx context.Context, prompt string) string {
	return c.Respond(ctx, prompt).Text
}

func (c *Client) call(ctx context.Context, path, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{Message: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if strings.TrimSpace(out.Reply) == "" {
		return "", errors.New("empty reply")
	}

	return out.Reply, nil
}
