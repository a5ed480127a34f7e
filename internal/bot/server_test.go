package bot_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/termbot/internal/bot"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServerRoutes(t *testing.T) {
	t.Parallel()

	var healthy atomic.Bool
	pinger := pingerFunc(func(context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("database is closed")
	})
	var webhookHits atomic.Int32
	webhook := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		webhookHits.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(bot.NewServer(":0", discardLogger(), pinger, webhook).Handler())
	t.Cleanup(srv.Close)

	tests := []struct {
		name     string
		method   string
		path     string
		healthy  bool
		status   int
		contains string
	}{
		{"root", http.MethodGet, "/", true, http.StatusOK, `"running"`},
		{"healthy", http.MethodGet, "/health", true, http.StatusOK, `"ok"`},
		{"unhealthy", http.MethodGet, "/health", false, http.StatusServiceUnavailable, "database is closed"},
		{"webhook", http.MethodPost, bot.WebhookPath, true, http.StatusOK, ""},
		{"webhook wrong method", http.MethodGet, bot.WebhookPath, true, http.StatusMethodNotAllowed, ""},
		{"unknown", http.MethodGet, "/nope", true, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			healthy.Store(tt.healthy)
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader("{}"))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tt.contains)
		})
	}
	assert.Equal(t, int32(1), webhookHits.Load())
}

func TestServerWithoutWebhook(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(bot.NewServer(":0", discardLogger(), pingerFunc(func(context.Context) error { return nil }), nil).Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+bot.WebhookPath, "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	s := bot.NewServer("127.0.0.1:0", discardLogger(), pingerFunc(func(context.Context) error { return nil }), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
