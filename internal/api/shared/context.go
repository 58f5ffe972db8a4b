package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is the type of request-scoped values set by the API layer.
type ContextKey string

const (
	// PlayerIDContextKey holds the authenticated player's uuid.UUID.
	PlayerIDContextKey ContextKey = "playerID"

	// TraceIDKey holds the request's trace ID.
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of random bytes in a trace ID (32 hex characters).
	TraceIDLength = 16
)

// SetTraceID adds a fresh trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID returns the context's trace ID, or "" when none is set.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// WithPlayerID stores the authenticated player in the context.
func WithPlayerID(ctx context.Context, playerID uuid.UUID) context.Context {
	return context.WithValue(ctx, PlayerIDContextKey, playerID)
}

// PlayerIDFromContext returns the authenticated player, if any.
func PlayerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	playerID, ok := ctx.Value(PlayerIDContextKey).(uuid.UUID)
	if !ok || playerID == uuid.Nil {
		return uuid.Nil, false
	}
	return playerID, true
}

func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if n, err := rand.Read(b); err != nil || n != TraceIDLength {
		slog.Error("failed to generate random trace ID, using uuid fallback",
			slog.Any("error", err),
			slog.Int("bytes_read", n))
		return fallbackTraceID()
	}
	return hex.EncodeToString(b)
}

// fallbackTraceID derives a 32 character hex ID from a time-ordered uuid.
func fallbackTraceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return strings.ReplaceAll(id.String(), "-", "")
}
