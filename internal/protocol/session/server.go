package session

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/danmuck/shiftctl/internal/observability"
	"github.com/danmuck/shiftctl/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// Handler answers one request frame. Returning an error closes the
// connection without a reply.
type Handler interface {
	ServeFrame(ctx context.Context, f frame.Frame) (frame.Frame, error)
}

type HandlerFunc func(ctx context.Context, f frame.Frame) (frame.Frame, error)

func (fn HandlerFunc) ServeFrame(ctx context.Context, f frame.Frame) (frame.Frame, error) {
	return fn(ctx, f)
}

// Server accepts connections and serves frames to a Handler.
type Server struct {
	cfg     Config
	handler Handler

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func NewServer(cfg Config, handler Handler) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Listen opens a TCP or TLS listener according to the transport policy.
func (s *Server) Listen(addr string) (net.Listener, error) {
	if err := s.cfg.ValidateServerTransport(); err != nil {
		return nil, err
	}
	if !s.cfg.TLS.Enabled {
		return net.Listen("tcp", addr)
	}
	tlsCfg, err := s.cfg.serverTLSConfig()
	if err != nil {
		return nil, err
	}
	return tls.Listen("tcp", addr, tlsCfg)
}

// Serve runs the accept loop until ctx is cancelled or ln fails. Open
// connections are closed and drained before it returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.wg.Wait()
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
		s.closeAllConns()
	})
	defer stop()

	log.Info().Str("addr", ln.Addr().String()).Msg("session.Server.Serve listening")
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.trackConn(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	observability.SessionOpened()
	defer observability.SessionClosed()
	defer s.untrackConn(conn)
	remote := conn.RemoteAddr().String()
	log.Debug().Str("remote", remote).Msg("session.Server.handleConn open")

	limits := s.limits()
	for {
		if s.cfg.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		req, err := frame.ReadFrame(conn, limits)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Warn().Err(err).Str("remote", remote).Msg("session.Server.handleConn read")
			}
			return
		}
		if req.Header.IsResponse() {
			log.Warn().Str("remote", remote).Msg("session.Server.handleConn response frame from client")
			return
		}

		resp, err := s.handler.ServeFrame(ctx, req)
		if err != nil {
			log.Warn().Err(err).Str("remote", remote).Uint64("message_id", req.Header.MessageID).Msg("session.Server.handleConn dropping connection")
			return
		}
		if s.cfg.WriteTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		}
		if err := frame.WriteFrame(conn, resp, limits); err != nil {
			log.Warn().Err(err).Str("remote", remote).Msg("session.Server.handleConn write")
			return
		}
	}
}

func (s *Server) limits() frame.Limits {
	if s.cfg.Limits == (frame.Limits{}) {
		return frame.DefaultLimits()
	}
	return s.cfg.Limits
}

func (s *Server) trackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrackConn(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Server) closeAllConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}

// ActiveConns reports the number of open connections.
func (s *Server) ActiveConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
