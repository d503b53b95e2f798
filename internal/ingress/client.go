// Package ingress receives relay events over a websocket and hands them to
// the tracker.
package ingress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/practice-tracker/internal/models"
)

// DefaultReconnectDelay is the fixed wait between connection attempts
const DefaultReconnectDelay = 3 * time.Second

// ErrNotConnected is returned by Send while the relay is unreachable
var ErrNotConnected = errors.New("relay not connected")

// Handler consumes decoded relay events
type Handler interface {
	HandleStateSync(ctx context.Context, maps map[string]models.MapRecord)
	HandleGoal(ctx context.Context)
	HandleConnection(connected bool)
}

// Client keeps a websocket connection to the relay open
type Client struct {
	url     string
	delay   time.Duration
	handler Handler
	dialer  *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

// Option configures the client
type Option func(*Client)

// WithReconnectDelay sets the wait between connection attempts
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.delay = d
		}
	}
}

// NewClient creates a relay client
func NewClient(url string, handler Handler, opts ...Option) *Client {
	c := &Client{
		url:     url,
		delay:   DefaultReconnectDelay,
		handler: handler,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run connects and reconnects until ctx is cancelled
func (c *Client) Run(ctx context.Context) {
	slog.Info("relay client started", "url", c.url, "reconnect_delay", c.delay)

	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			slog.Info("relay client stopped")
			return
		}
		slog.Warn("relay connection lost", "error", err, "retry_in", c.delay)

		timer := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("relay client stopped")
			return
		case <-timer.C:
		}
	}
}

// Send writes a frame to the relay. It fails while disconnected.
func (c *Client) Send(msg models.RelayMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send relay message: %w", err)
	}
	return nil
}

// session serves one connection until it fails or ctx ends
func (c *Client) session(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial relay: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	slog.Info("relay connected", "url", c.url)
	c.handler.HandleConnection(true)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	defer func() {
		close(stop)
		wg.Wait()

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()

		c.handler.HandleConnection(false)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read relay message: %w", err)
		}
		c.dispatch(ctx, data)
	}
}

// dispatch decodes one frame. Malformed frames and unknown types are dropped.
func (c *Client) dispatch(ctx context.Context, data []byte) {
	var msg models.RelayMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("ignoring malformed relay frame", "error", err)
		return
	}

	switch msg.Type {
	case models.MessageStateUpdate:
		maps, ok := decodeState(msg.Data)
		if !ok {
			slog.Warn("ignoring malformed state_update")
			return
		}
		c.handler.HandleStateSync(ctx, maps)
	case models.MessageGoalDetected:
		slog.Info("goal detected by relay")
		c.handler.HandleGoal(ctx)
	default:
		slog.Debug("ignoring relay frame", "type", msg.Type)
	}
}

// decodeState extracts valid records from a state_update payload. Each id
// is taken from its key.
func decodeState(raw json.RawMessage) (map[string]models.MapRecord, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var state struct {
		Maps map[string]models.MapRecord `json:"maps"`
	}
	if err := json.Unmarshal(raw, &state); err != nil || state.Maps == nil {
		return nil, false
	}

	maps := make(map[string]models.MapRecord, len(state.Maps))
	for id, rec := range state.Maps {
		rec.ID = id
		if !rec.Valid() {
			slog.Debug("ignoring invalid relay record", "map_id", id)
			continue
		}
		maps[id] = rec
	}
	return maps, true
}
