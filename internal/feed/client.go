// Package feed maintains the long-lived connection to the upstream strike
// feed. It is transport only: it authenticates, decodes and validates each
// message, and forwards events in receipt order into a single consumer
// channel. Heartbeat discrimination belongs to the pipeline, not here.
package feed

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/couchcryptid/lightning-alert-service/internal/config"
	"github.com/couchcryptid/lightning-alert-service/internal/domain"
	"github.com/couchcryptid/lightning-alert-service/internal/observability"
)

const initialBackoff = 200 * time.Millisecond

// Client holds one logical connection to the feed, reconnecting with capped
// exponential backoff whenever the connection fails or drops. Malformed
// payloads are dropped and logged, never forwarded.
type Client struct {
	url         string
	authHeader  string
	dialTimeout time.Duration
	maxBackoff  time.Duration

	events  chan<- domain.StrikeEvent
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewClient creates a feed client that delivers decoded events into the
// given channel.
func NewClient(cfg *config.Config, events chan<- domain.StrikeEvent, logger *slog.Logger, metrics *observability.Metrics) *Client {
	credentials := base64.StdEncoding.EncodeToString([]byte(cfg.FeedUsername + ":" + cfg.FeedPassword))
	return &Client{
		url:         cfg.FeedURL,
		authHeader:  "Basic " + credentials,
		dialTimeout: cfg.FeedDialTimeout,
		maxBackoff:  cfg.FeedMaxBackoff,
		events:      events,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run connects and reads until the context is cancelled. Connection failures
// are never fatal: the client retries with backoff and the consumer keeps
// receiving events across reconnects.
func (c *Client) Run(ctx context.Context) error {
	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("feed connect failed", "url", c.url, "error", err, "retry_in", backoff)
			c.metrics.FeedReconnects.Inc()
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, c.maxBackoff)
			continue
		}

		c.logger.Info("feed connected", "url", c.url)
		c.metrics.FeedConnected.Set(1)
		backoff = initialBackoff

		err = c.readLoop(ctx, conn)
		c.metrics.FeedConnected.Set(0)
		conn.Close()

		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("feed connection lost", "error", err, "retry_in", backoff)
		c.metrics.FeedReconnects.Inc()
		if !sleepWithContext(ctx, backoff) {
			return nil
		}
		backoff = nextBackoff(backoff, c.maxBackoff)
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.dialTimeout}
	header := http.Header{}
	header.Set("Authorization", c.authHeader)

	conn, resp, err := dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// readLoop reads messages until the connection errors or the context is
// cancelled. A goroutine closes the connection on cancellation so the
// blocking read unblocks promptly.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.metrics.StrikesReceived.Inc()

		event, err := domain.ParseStrikeMessage(data)
		if err != nil {
			c.logger.Warn("dropping malformed feed message", "error", err)
			c.metrics.DecodeErrors.Inc()
			continue
		}

		select {
		case c.events <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
