package registry

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMain(m *testing.M) {
	retryDelay = time.Millisecond
	os.Exit(m.Run())
}

func TestRegister(t *testing.T) {
	var got Registration
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger())
	err := c.Register(context.Background(), Registration{
		Name:    "repolens-mcp",
		Version: "1.0.0",
		Address: "stdio",
		Tools:   []string{"analyze_repository"},
	})
	require.NoError(t, err)
	assert.Equal(t, "repolens-mcp", got.Name)
	assert.Equal(t, []string{"analyze_repository"}, got.Tools)
}

func TestRegister_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger())
	err := c.Register(context.Background(), Registration{Name: "repolens-mcp"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRegister_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger())
	err := c.Register(context.Background(), Registration{Name: "repolens-mcp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRegister_NilClientIsNoop(t *testing.T) {
	var c *Client
	assert.Nil(t, New("", testLogger()))
	assert.NoError(t, c.Register(context.Background(), Registration{}))
}

func TestRegister_CancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(srv.URL, testLogger())
	err := c.Register(ctx, Registration{Name: "repolens-mcp"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
