package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/lightning-alert-service/internal/config"
	"github.com/couchcryptid/lightning-alert-service/internal/domain"
	"github.com/couchcryptid/lightning-alert-service/internal/observability"
)

const validStrike = `{"countryCode":"SE","pos":{"lat":59.3293,"lon":18.0686},"meta":{"peakCurrent":5400},"time":"2024-06-12T14:03:11Z"}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func feedConfig(serverURL string) *config.Config {
	return &config.Config{
		FeedURL:         "ws" + strings.TrimPrefix(serverURL, "http"),
		FeedUsername:    "user",
		FeedPassword:    "pass",
		FeedDialTimeout: time.Second,
		FeedMaxBackoff:  50 * time.Millisecond,
	}
}

// feedServer upgrades each connection and hands it to serve. It also records
// the Authorization header of the most recent handshake.
func feedServer(t *testing.T, serve func(conn *websocket.Conn, connection int)) (*httptest.Server, *atomic.Value) {
	t.Helper()
	var lastAuth atomic.Value
	var connections atomic.Int64
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serve(conn, int(connections.Add(1)))
	}))
	t.Cleanup(srv.Close)
	return srv, &lastAuth
}

func receiveEvent(t *testing.T, events <-chan domain.StrikeEvent) domain.StrikeEvent {
	t.Helper()
	select {
	case event := <-events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return domain.StrikeEvent{}
	}
}

func TestRun_DeliversEventsWithBasicAuth(t *testing.T) {
	srv, lastAuth := feedServer(t, func(conn *websocket.Conn, _ int) {
		defer conn.Close()
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(validStrike)))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"countryCode":"ZZ"}`)))
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan domain.StrikeEvent, 4)
	client := NewClient(feedConfig(srv.URL), events, discardLogger(), observability.NewMetricsForTesting())

	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	strike := receiveEvent(t, events)
	assert.Equal(t, "SE", strike.CountryCode)
	assert.Equal(t, 5400.0, strike.PeakCurrentKA)
	assert.False(t, strike.ReceivedAt.IsZero())

	heartbeat := receiveEvent(t, events)
	assert.True(t, heartbeat.IsHeartbeat())

	// "user:pass" base64-encoded.
	assert.Equal(t, "Basic dXNlcjpwYXNz", lastAuth.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

func TestRun_DropsMalformedMessages(t *testing.T) {
	srv, _ := feedServer(t, func(conn *websocket.Conn, _ int) {
		defer conn.Close()
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"pos":{"lat":1,"lon":2}}`)))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json at all`)))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(validStrike)))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan domain.StrikeEvent, 4)
	client := NewClient(feedConfig(srv.URL), events, discardLogger(), observability.NewMetricsForTesting())
	go client.Run(ctx) //nolint:errcheck

	// Only the valid message makes it through.
	event := receiveEvent(t, events)
	assert.Equal(t, "SE", event.CountryCode)
	assert.Empty(t, events)
}

func TestRun_ReconnectsAfterConnectionLoss(t *testing.T) {
	srv, _ := feedServer(t, func(conn *websocket.Conn, connection int) {
		defer conn.Close()
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(validStrike)))
		if connection == 1 {
			// Drop the first connection immediately after one message.
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan domain.StrikeEvent, 4)
	client := NewClient(feedConfig(srv.URL), events, discardLogger(), observability.NewMetricsForTesting())
	go client.Run(ctx) //nolint:errcheck

	// One event per connection: delivery continues across the reconnect.
	receiveEvent(t, events)
	receiveEvent(t, events)
}

func TestRun_RetriesWhileServerUnavailable(t *testing.T) {
	cfg := feedConfig("http://127.0.0.1:1")
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	events := make(chan domain.StrikeEvent, 1)
	metrics := observability.NewMetricsForTesting()
	client := NewClient(cfg, events, discardLogger(), metrics)

	// Run keeps retrying until the context expires, then returns nil.
	assert.NoError(t, client.Run(ctx))
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 400*time.Millisecond, nextBackoff(200*time.Millisecond, 30*time.Second))
	assert.Equal(t, 30*time.Second, nextBackoff(20*time.Second, 30*time.Second))
}
