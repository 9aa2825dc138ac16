package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/Wyydra/huddle/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// WSOptions are the per-connection limits of the websocket transport.
type WSOptions struct {
	MaxMessageBytes   int64
	MessagesPerSecond float64
	MessageBurst      int
	PingInterval      time.Duration
	PongWait          time.Duration
	WriteWait         time.Duration
	SendQueueSize     int
}

func DefaultWSOptions() WSOptions {
	return WSOptions{
		MaxMessageBytes:   64 * 1024,
		MessagesPerSecond: 50,
		MessageBurst:      100,
		PingInterval:      54 * time.Second,
		PongWait:          60 * time.Second,
		WriteWait:         10 * time.Second,
		SendQueueSize:     256,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// TODO: restrict to the configured frontend origin once it is served separately
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSClient is one websocket connection. Outbound frames go through a buffered
// queue drained by WritePump, so Send never blocks the switchboard loop.
// implements port.Connection
type WSClient struct {
	id   domain.ConnID
	conn *websocket.Conn
	opts WSOptions
	log  zerolog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newWSClient(conn *websocket.Conn, opts WSOptions) *WSClient {
	id := domain.NewConnID()
	return &WSClient{
		id:   id,
		conn: conn,
		opts: opts,
		log:  log.With().Str("conn_id", id.String()).Logger(),
		send: make(chan []byte, opts.SendQueueSize),
	}
}

func (c *WSClient) ID() domain.ConnID {
	return c.id
}

// Send queues ev. A closed connection, or one whose queue is full, reports
// domain.ErrStaleConnection; a full queue also closes the connection.
func (c *WSClient) Send(ev domain.Event) error {
	frame, err := encodeEvent(ev)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrStaleConnection
	}
	select {
	case c.send <- frame:
		return nil
	default:
		c.log.Warn().Str("event", string(ev.Kind())).Msg("Send queue full, dropping slow client")
		c.closeLocked()
		return fmt.Errorf("send queue full: %w", domain.ErrStaleConnection)
	}
}

// Close stops the write pump, which then closes the socket. Safe to call more
// than once.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}

func (c *WSClient) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *WSClient) closeWith(code int, reason string) {
	deadline := time.Now().Add(c.opts.WriteWait)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	c.Close()
}

// ReadPump decodes frames and dispatches them to the switchboard until the
// connection fails. There is at most one reader per connection.
func (c *WSClient) ReadPump(ctx context.Context, dispatch func(context.Context, domain.Command) error, m *metrics.Metrics) {
	c.conn.SetReadLimit(c.opts.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	limiter := rate.NewLimiter(rate.Limit(c.opts.MessagesPerSecond), c.opts.MessageBurst)

	for {
		msgType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("Unexpected close error")
			}
			if errors.Is(err, websocket.ErrReadLimit) {
				m.Inc(metrics.DropMalformed)
			}
			return
		}
		if msgType != websocket.TextMessage {
			m.Inc(metrics.DropMalformed)
			c.log.Debug().Int("type", msgType).Msg("Ignoring non-text frame")
			continue
		}
		if !limiter.Allow() {
			m.Inc(metrics.DropRateLimited)
			c.log.Warn().Msg("Message rate exceeded, closing connection")
			c.closeWith(websocket.ClosePolicyViolation, "rate limit exceeded")
			return
		}

		cmd, err := decodeCommand(frame)
		if err != nil {
			m.Inc(metrics.DropMalformed)
			c.log.Debug().Err(err).Msg("Dropping undecodable frame")
			continue
		}
		if err := dispatch(ctx, cmd); err != nil {
			c.log.Debug().Err(err).Msg("Switchboard unavailable, closing connection")
			return
		}
	}
}

// WritePump drains the send queue into the socket and keeps the connection
// alive with pings. There is at most one writer per connection.
func (c *WSClient) WritePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug().Err(err).Msg("Write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades the request and runs the connection until it closes.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	client := newWSClient(conn, h.ws)
	client.log.Info().Str("remote", r.RemoteAddr).Msg("New client connected")

	ctx := r.Context()
	h.hub.Register(client)
	if err := h.switchboard.Connect(ctx, client.ID()); err != nil {
		client.log.Error().Err(err).Msg("Failed to open session")
		h.hub.Unregister(client)
		client.closeWith(websocket.CloseTryAgainLater, "server shutting down")
		conn.Close()
		return
	}

	go client.WritePump()

	defer func() {
		// the session must be torn down even when the request context is gone
		if err := h.switchboard.Disconnect(context.WithoutCancel(ctx), client.ID()); err != nil {
			client.log.Debug().Err(err).Msg("Disconnect not delivered")
		}
		h.hub.Unregister(client)
		client.Close()
		client.log.Info().Msg("Client disconnected")
	}()

	client.ReadPump(ctx, func(ctx context.Context, cmd domain.Command) error {
		return h.switchboard.Dispatch(ctx, client.ID(), cmd)
	}, h.metrics)
}
