package ratelimit_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/arcana/internal/platform/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proxy(t *testing.T, handler http.HandlerFunc) *ratelimit.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return ratelimit.NewClient(srv.URL, time.Second, nil)
}

func TestCheckAllowed(t *testing.T) {
	var gotCaller string
	client := proxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/check", r.URL.Path)
		var body struct {
			CallerID string `json:"caller_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotCaller = body.CallerID

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"allowed":true,"remaining":7}`))
	})

	decision, err := client.Check(context.Background(), "player-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 7, decision.Remaining)
	assert.Equal(t, "player-1", gotCaller)
}

func TestCheckDeniedOnTooManyRequests(t *testing.T) {
	client := proxy(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"allowed":true,"remaining":0,"reset_at":"2026-03-02T00:00:00Z"}`))
	})

	decision, err := client.Check(context.Background(), "player-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), decision.ResetAt.UTC())
}

func TestCheckUnavailable(t *testing.T) {
	client := proxy(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Check(context.Background(), "player-1")
	assert.ErrorIs(t, err, ratelimit.ErrUnavailable)

	_, err = client.Check(context.Background(), "")
	assert.ErrorIs(t, err, ratelimit.ErrUnavailable)

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	_, err = ratelimit.NewClient(closed.URL, 100*time.Millisecond, nil).Check(context.Background(), "player-1")
	assert.ErrorIs(t, err, ratelimit.ErrUnavailable)
}

func TestAllowAll(t *testing.T) {
	decision, err := ratelimit.AllowAll().Check(context.Background(), "anyone")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
