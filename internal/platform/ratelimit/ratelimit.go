// Package ratelimit talks to the remote rate-limit proxy that guards the
// interpretation collaborator. The proxy keeps a rolling daily counter per
// caller and resets at UTC midnight; this package only asks it for a decision.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/phrazzld/arcana/internal/platform/logger"
)

var (
	// ErrUnavailable is returned when the proxy cannot be reached or answers unexpectedly.
	ErrUnavailable = errors.New("rate limiter unavailable")

	// ErrRateLimited is returned by callers when a decision denies the call.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Decision is the proxy's answer for one caller.
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// Limiter decides whether a caller may make another collaborator call.
type Limiter interface {
	Check(ctx context.Context, callerID string) (Decision, error)
}

type checkRequest struct {
	CallerID string `json:"caller_id"`
}

// Client is a Limiter backed by the HTTP proxy.
type Client struct {
	client *resty.Client
	logger *slog.Logger
}

var _ Limiter = (*Client)(nil)

// NewClient creates a proxy client for baseURL.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &Client{
		client: c,
		logger: log.With(slog.String("component", "ratelimit_client")),
	}
}

// Check asks the proxy for a decision. A 429 answer is a denial, not an error.
func (c *Client) Check(ctx context.Context, callerID string) (Decision, error) {
	if callerID == "" {
		return Decision{}, fmt.Errorf("%w: caller id cannot be empty", ErrUnavailable)
	}
	log := logger.FromContextOrDefault(ctx, c.logger)

	var decision Decision
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&checkRequest{CallerID: callerID}).
		SetResult(&decision).
		Post("/check")
	if err != nil {
		log.WarnContext(ctx, "rate limit request failed", "error", err)
		return Decision{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return decision, nil
	case http.StatusTooManyRequests:
		denied := Decision{Allowed: false}
		if err := json.Unmarshal(resp.Body(), &denied); err != nil {
			denied = Decision{}
		}
		denied.Allowed = false
		if denied.Remaining < 0 {
			denied.Remaining = 0
		}
		return denied, nil
	default:
		log.WarnContext(ctx, "unexpected rate limit response",
			"status", resp.StatusCode(),
			"body_length", len(resp.Body()))
		return Decision{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}
}

// AllowAll returns a Limiter that permits every call. It is used when no
// proxy URL is configured.
func AllowAll() Limiter {
	return allowAll{}
}

type allowAll struct{}

func (allowAll) Check(context.Context, string) (Decision, error) {
	return Decision{Allowed: true, Remaining: -1}, nil
}
