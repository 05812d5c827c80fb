package logging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(level Level, msg string) *Entry {
	return &Entry{
		ID:        "e-1",
		Level:     level,
		Message:   msg,
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		RequestID: "req-42",
	}
}

func TestTrackerSink_PostsJSON(t *testing.T) {
	var got trackerPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sink := NewTrackerSink(srv.URL)
	entry := testEntry(LevelError, "database timeout")
	entry.Metadata = map[string]any{"query": "enrollments"}

	require.NoError(t, sink.Write(context.Background(), entry))

	assert.Equal(t, "database timeout", got.Message)
	assert.Equal(t, "error", got.Level)
	assert.Equal(t, "req-42", got.RequestID)
	assert.Equal(t, "enrollments", got.Metadata["query"])
}

func TestTrackerSink_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewTrackerSink(srv.URL)

	err := sink.Write(context.Background(), testEntry(LevelError, "boom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestTrackerSink_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sink := NewTrackerSink(srv.URL)
	entry := testEntry(LevelError, "boom")

	for i := 0; i < defaultBreakerThreshold; i++ {
		assert.Error(t, sink.Write(context.Background(), entry))
	}
	seen := calls.Load()

	// Breaker is open; further writes fail fast without reaching
	// the server.
	err := sink.Write(context.Background(), entry)
	require.Error(t, err)
	assert.Equal(t, seen, calls.Load())
}

func TestTrackerSink_Unreachable(t *testing.T) {
	sink := NewTrackerSink("http://127.0.0.1:1")

	assert.Error(t, sink.Write(context.Background(), testEntry(LevelError, "boom")))
}

func TestAlertSink_PostsJSON(t *testing.T) {
	var got alertPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewAlertSink(srv.URL)

	require.NoError(t, sink.Write(context.Background(), testEntry(LevelError, "panic in handler")))
	assert.Equal(t, "panic in handler", got.Text)
	assert.Equal(t, "error", got.Level)
}

func TestAlertSink_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	sink := NewAlertSink(srv.URL)

	err := sink.Write(context.Background(), testEntry(LevelError, "boom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
