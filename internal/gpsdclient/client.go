// Package gpsdclient keeps a session in step with a remote gpsd: it asks for
// a watch policy, then merges every JSON object the server streams.
package gpsdclient

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"gpsd-ng/internal/gps"
	"gpsd-ng/internal/gpsjson"
)

type Config struct {
	Name string
	Addr string

	ReconnectDelay time.Duration
	MaxLineBytes   int

	// DialTimeout is used for the initial TCP connect.
	DialTimeout time.Duration

	// Policy is sent as ?WATCH= after each connect. JSON is always on.
	Policy gps.Policy
}

// UpdateFunc is called after each merged object with the groups it changed.
type UpdateFunc func(mask gps.Mask) error

type Client struct {
	cfg     Config
	session *gps.Session
	logger  *log.Logger

	started atomic.Bool
	closed  atomic.Bool

	mu       sync.RWMutex
	state    string
	lastErr  string
	lastSeen time.Time
	count    uint64
	rejected uint64

	cancel context.CancelFunc
	done   chan struct{}
}

type Snapshot struct {
	Name        string `json:"name"`
	Addr        string `json:"addr"`
	State       string `json:"state"`
	LastError   string `json:"last_error,omitempty"`
	LastSeenUTC string `json:"last_seen_utc,omitempty"`
	Objects     uint64 `json:"objects"`
	Rejected    uint64 `json:"rejected"`
}

// New returns a client merging into session and logging through the
// session's logger.
func New(cfg Config, session *gps.Session) (*Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("gpsdclient: addr is required")
	}
	if session == nil {
		return nil, fmt.Errorf("gpsdclient: session is required")
	}
	if cfg.Name == "" {
		cfg.Name = "gpsd"
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 1 * time.Second
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = 256 * 1024
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	cfg.Policy.Watcher = true
	cfg.Policy.JSON = true

	return &Client{
		cfg:     cfg,
		session: session,
		logger:  session.Logger(),
		state:   "stopped",
		done:    make(chan struct{}),
	}, nil
}

// Start connects and streams in the background until ctx is done or Close
// is called. onUpdate may be nil; it runs on the reader goroutine.
func (c *Client) Start(ctx context.Context, onUpdate UpdateFunc) error {
	if c.closed.Load() {
		return fmt.Errorf("gpsdclient: closed")
	}
	if c.started.Swap(true) {
		return fmt.Errorf("gpsdclient: already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.setState("connecting", "")

	go func() {
		defer close(c.done)
		c.runLoop(runCtx, onUpdate)
	}()
	return nil
}

// Close stops the client and waits for the reader to exit.
func (c *Client) Close() {
	if c.closed.Swap(true) {
		return
	}
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
}

func (c *Client) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := Snapshot{
		Name:      c.cfg.Name,
		Addr:      c.cfg.Addr,
		State:     c.state,
		LastError: c.lastErr,
		Objects:   c.count,
		Rejected:  c.rejected,
	}
	if !c.lastSeen.IsZero() {
		out.LastSeenUTC = c.lastSeen.UTC().Format(time.RFC3339Nano)
	}
	return out
}

func (c *Client) runLoop(ctx context.Context, onUpdate UpdateFunc) {
	dialer := &net.Dialer{Timeout: c.cfg.DialTimeout}

	for {
		if ctx.Err() != nil {
			c.setState("stopped", "")
			return
		}

		c.setState("connecting", "")
		conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr)
		if err != nil {
			c.setState("error", err.Error())
			if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
				c.setState("stopped", "")
				return
			}
			continue
		}
		c.logger.Printf("gpsdclient: %s: connected to %s", c.cfg.Name, c.cfg.Addr)

		c.stream(ctx, conn, onUpdate)

		if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
			c.setState("stopped", "")
			return
		}
	}
}

// stream runs one connection until it fails or ctx is done.
func (c *Client) stream(ctx context.Context, conn net.Conn, onUpdate UpdateFunc) {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	if _, err := conn.Write(gpsjson.Watch(c.cfg.Policy)); err != nil {
		c.setState("disconnected", "watch: "+err.Error())
		return
	}
	c.setState("connected", "")

	reader := bufio.NewReaderSize(conn, 64*1024)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			switch {
			case ctx.Err() != nil:
				c.setState("stopped", "")
			case errors.Is(err, net.ErrClosed):
				c.setState("disconnected", "")
			default:
				c.setState("disconnected", err.Error())
			}
			return
		}
		if len(line) > c.cfg.MaxLineBytes {
			// gpsd objects are well under the limit; anything larger is noise.
			c.setState("error", fmt.Sprintf("line too large (%d bytes)", len(line)))
			continue
		}
		line = bytes.TrimSpace(line)
		// NMEA and raw passthrough share the stream.
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		c.handle(line, onUpdate)
	}
}

func (c *Client) handle(line []byte, onUpdate UpdateFunc) {
	in, mask, err := gpsjson.UnpackPartial(line)
	if err == nil {
		_, err = c.session.Apply(in, mask)
	}
	if err != nil {
		c.mu.Lock()
		c.rejected++
		c.lastErr = err.Error()
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.lastSeen = time.Now().UTC()
	c.count++
	c.mu.Unlock()

	if onUpdate != nil && !mask.IsEmpty() {
		if err := onUpdate(mask); err != nil {
			c.setLastError("handler: " + err.Error())
		}
	}
}

func (c *Client) setState(state string, lastErr string) {
	c.mu.Lock()
	c.state = state
	if lastErr != "" {
		c.lastErr = lastErr
	} else if state == "connected" || state == "connecting" || state == "stopped" {
		// A healthy state supersedes the last failure.
		c.lastErr = ""
	}
	c.mu.Unlock()
}

func (c *Client) setLastError(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
