package amiws

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Briareos12/amiws-queue/internal/metrics"
)

const (
	// Reconnect backoff
	initialReconnectDelay = 1 * time.Second
	maxReconnectDelay     = 30 * time.Second
)

// Handler consumes raw amiws payloads in arrival order. A *DecodeError
// return means the single message was malformed; the client drops it and
// keeps reading.
type Handler interface {
	Process(raw []byte) error
}

// Client maintains a websocket connection to one amiws endpoint and
// feeds every received frame to the handler. Lost connections are
// re-dialed with exponential backoff.
type Client struct {
	name      string
	url       string
	handler   Handler
	onConnect func()
	logger    zerolog.Logger
}

// NewClient creates a Client for the given endpoint. onConnect, if
// non-nil, runs after every successful dial, before any message is
// processed; the caller uses it to reset state that the endpoint's
// replay will rebuild.
func NewClient(name, url string, handler Handler, onConnect func(), logger zerolog.Logger) *Client {
	return &Client{
		name:      name,
		url:       url,
		handler:   handler,
		onConnect: onConnect,
		logger:    logger.With().Str("component", "amiws").Str("upstream", name).Logger(),
	}
}

// Run dials the endpoint and processes messages until the context is
// cancelled, reconnecting on any failure.
func (c *Client) Run(ctx context.Context) {
	m := metrics.Get()
	reconnectDelay := initialReconnectDelay

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn().Err(err).Dur("retry_in", reconnectDelay).Msg("connection failed, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
			// Exponential backoff
			reconnectDelay *= 2
			if reconnectDelay > maxReconnectDelay {
				reconnectDelay = maxReconnectDelay
			}
			continue
		}

		// Reset backoff on successful connection
		reconnectDelay = initialReconnectDelay
		m.RecordUpstreamConnect()
		c.logger.Info().Str("url", c.url).Msg("connected to amiws")

		if c.onConnect != nil {
			c.onConnect()
		}

		c.readLoop(ctx, conn)
		m.RecordUpstreamDisconnect()
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	// Close the connection when the context is cancelled so ReadMessage
	// unblocks.
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()
	defer close(stop)
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn().Err(err).Msg("connection lost")
			}
			return
		}

		if err := c.handler.Process(raw); err != nil {
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				// Drop the bad message and keep streaming.
				c.logger.Warn().Err(err).Msg("dropping malformed message")
				continue
			}
			c.logger.Error().Err(err).Msg("message processing failed")
		}
	}
}
