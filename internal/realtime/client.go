package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrMaxReconnectAttempts is returned by Client.Run once every allowed
// connection attempt in a row has failed.
var ErrMaxReconnectAttempts = errors.New("realtime: max reconnect attempts reached")

const (
	DefaultMaxAttempts    = 5
	DefaultInitialBackoff = time.Second
	DefaultDebounce       = 75 * time.Millisecond
)

// ClientConfig configures a realtime Client
type ClientConfig struct {
	// URL is the WebSocket endpoint, e.g. ws://host/ws?event_id=abc
	URL            string
	Header         http.Header
	MaxAttempts    int
	InitialBackoff time.Duration
	Debounce       time.Duration
	Dialer         *websocket.Dialer
}

// Handlers receive client callbacks. Any of them may be nil.
type Handlers struct {
	OnEvent        func(Event)
	OnNotification func(Notification)
	// OnDataUpdate tells the page to refetch. Bursts of status changes are
	// collapsed into one call.
	OnDataUpdate func()
	OnConnect    func()
	OnDisconnect func(error)
	// OnRetry is called before waiting to reconnect
	OnRetry func(attempt int, delay time.Duration)
}

// Client keeps a WebSocket connection to the API open, reconnecting with
// doubling backoff.
type Client struct {
	cfg       ClientConfig
	handlers  Handlers
	debouncer *Debouncer
	log       zerolog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient creates a client. Zero config values take the defaults.
func NewClient(cfg ClientConfig, handlers Handlers, log zerolog.Logger) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}

	c := &Client{
		cfg:      cfg,
		handlers: handlers,
		log:      log.With().Str("component", "realtime_client").Logger(),
	}
	c.debouncer = NewDebouncer(cfg.Debounce, c.dataUpdate)
	return c
}

// Run connects and dispatches events until ctx is cancelled or the
// reconnect budget is spent. A successful connection resets the budget.
func (c *Client) Run(ctx context.Context) error {
	defer c.debouncer.Stop()

	failures := 0
	backoff := c.cfg.InitialBackoff
	for {
		conn, _, err := c.cfg.Dialer.DialContext(ctx, c.cfg.URL, c.cfg.Header)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			c.log.Warn().Err(err).Int("attempt", failures).Msg("Realtime connection failed")
			if failures >= c.cfg.MaxAttempts {
				return fmt.Errorf("%w (%d attempts): %v", ErrMaxReconnectAttempts, failures, err)
			}
			if err := c.wait(ctx, failures, backoff); err != nil {
				return err
			}
			backoff *= 2
			continue
		}

		failures = 0
		backoff = c.cfg.InitialBackoff
		c.setConn(conn)
		if c.handlers.OnConnect != nil {
			c.handlers.OnConnect()
		}

		err = c.readLoop(ctx, conn)
		c.setConn(nil)
		conn.Close()
		if c.handlers.OnDisconnect != nil {
			c.handlers.OnDisconnect(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Info().Err(err).Msg("Realtime connection lost, reconnecting")
		if err := c.wait(ctx, 0, backoff); err != nil {
			return err
		}
	}
}

func (c *Client) wait(ctx context.Context, attempt int, delay time.Duration) error {
	if c.handlers.OnRetry != nil {
		c.handlers.OnRetry(attempt, delay)
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

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
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.Warn().Err(err).Msg("Ignoring malformed realtime message")
			continue
		}
		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev Event) {
	if c.handlers.OnEvent != nil {
		c.handlers.OnEvent(ev)
	}
	if c.handlers.OnNotification != nil {
		if n, ok := Describe(ev); ok {
			c.handlers.OnNotification(n)
		}
	}

	switch ev.Type {
	case ArtistStatusChanged:
		c.debouncer.Trigger()
	case ArtistRegistered, ArtistAssigned, CueUpdated, ShowOrderUpdated, EmergencyAlert, EmergencyClear:
		c.dataUpdate()
	}
}

func (c *Client) dataUpdate() {
	if c.handlers.OnDataUpdate != nil {
		c.handlers.OnDataUpdate()
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// Connected reports whether a connection is currently open
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}
