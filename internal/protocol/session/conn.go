package session

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/danmuck/shiftctl/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

var (
	ErrConnClosed        = errors.New("session: connection closed")
	ErrNotResponse       = errors.New("session: answer is not a response frame")
	ErrMessageIDMismatch = errors.New("session: answer does not echo message_id")
)

// Conn is the client end of a session. Round trips are serialized; a broken
// connection is redialed on the next call.
type Conn struct {
	cfg  Config
	addr string
	rng  *rand.Rand

	mu     sync.Mutex
	conn   net.Conn
	nextID uint64
	closed bool
}

// Dial connects to addr, retrying with backoff up to cfg.MaxConnectAttempts
// (0 retries forever).
func Dial(ctx context.Context, addr string, cfg Config) (*Conn, error) {
	if err := cfg.ValidateClientTransport(); err != nil {
		return nil, err
	}
	c := &Conn{
		cfg:  cfg,
		addr: addr,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	conn, err := c.dialWithRetry(ctx)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *Conn) dialWithRetry(ctx context.Context) (net.Conn, error) {
	for attempt := 1; ; attempt++ {
		conn, err := c.dialOnce(ctx)
		if err == nil {
			return conn, nil
		}
		if c.cfg.MaxConnectAttempts > 0 && attempt >= c.cfg.MaxConnectAttempts {
			return nil, fmt.Errorf("session: dial %s after %d attempts: %w", c.addr, attempt, err)
		}
		log.Debug().Err(err).Int("attempt", attempt).Str("addr", c.addr).Msg("session.Dial retry")
		if err := c.cfg.Backoff.wait(ctx, attempt, c.rng); err != nil {
			return nil, err
		}
	}
}

func (c *Conn) dialOnce(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	raw, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, err
	}
	if !c.cfg.TLS.Enabled {
		return raw, nil
	}
	tlsCfg, err := c.cfg.clientTLSConfig(c.addr)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	conn := tls.Client(raw, tlsCfg)
	hctx := ctx
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}
	if err := conn.HandshakeContext(hctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return conn, nil
}

// RoundTrip stamps a fresh message id on f, sends it and returns the answer.
// Any transport or correlation failure discards the connection.
func (c *Conn) RoundTrip(ctx context.Context, f frame.Frame) (frame.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return frame.Frame{}, ErrConnClosed
	}
	if c.conn == nil {
		conn, err := c.dialWithRetry(ctx)
		if err != nil {
			return frame.Frame{}, err
		}
		c.conn = conn
	}

	c.nextID++
	f.Header.MessageID = c.nextID
	f.Header.Flags &^= frame.FlagIsResponse | frame.FlagIsError

	resp, err := c.exchange(ctx, f)
	if err != nil {
		_ = c.conn.Close()
		c.conn = nil
		return frame.Frame{}, err
	}
	return resp, nil
}

func (c *Conn) exchange(ctx context.Context, f frame.Frame) (frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return frame.Frame{}, err
	}
	conn := c.conn
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	limits := c.cfg.Limits
	if limits == (frame.Limits{}) {
		limits = frame.DefaultLimits()
	}
	_ = conn.SetWriteDeadline(c.deadline(ctx, c.cfg.WriteTimeout))
	if err := frame.WriteFrame(conn, f, limits); err != nil {
		return frame.Frame{}, c.ctxErr(ctx, err)
	}
	_ = conn.SetReadDeadline(c.deadline(ctx, c.cfg.ReadTimeout))
	resp, err := frame.ReadFrame(conn, limits)
	if err != nil {
		return frame.Frame{}, c.ctxErr(ctx, err)
	}
	if !resp.Header.IsResponse() {
		return frame.Frame{}, ErrNotResponse
	}
	if resp.Header.MessageID != f.Header.MessageID {
		return frame.Frame{}, fmt.Errorf("%w: sent=%d got=%d", ErrMessageIDMismatch, f.Header.MessageID, resp.Header.MessageID)
	}
	return resp, nil
}

// deadline is the earlier of ctx's deadline and now+timeout. Zero means none.
func (c *Conn) deadline(ctx context.Context, timeout time.Duration) time.Time {
	var dl time.Time
	if timeout > 0 {
		dl = time.Now().Add(timeout)
	}
	if ctxDL, ok := ctx.Deadline(); ok && (dl.IsZero() || ctxDL.Before(dl)) {
		dl = ctxDL
	}
	return dl
}

func (c *Conn) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
