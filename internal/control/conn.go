package control

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

// Conn is a Querier over a TCP connection to a gpsd server.
type Conn struct {
	conn    net.Conn
	r       *bufio.Reader
	timeout time.Duration
}

// Dial connects to addr. Each Query waits at most timeout for its reply
// unless the context carries an earlier deadline.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Conn, error) {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("control: dial %s: %w", addr, err)
	}
	return &Conn{conn: conn, r: bufio.NewReader(conn), timeout: timeout}, nil
}

// Query writes request and returns the first GPSD reply line. Streamed lines
// of other kinds are skipped.
func (c *Conn) Query(ctx context.Context, request string) (string, error) {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return "", err
	}
	if _, err := c.conn.Write([]byte(request)); err != nil {
		return "", err
	}
	for {
		line, err := c.r.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, responsePrefix+",") {
			return line, nil
		}
	}
}

func (c *Conn) Close() error { return c.conn.Close() }
