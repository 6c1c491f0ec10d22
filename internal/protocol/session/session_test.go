package session

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danmuck/shiftctl/internal/protocol"
	"github.com/danmuck/shiftctl/internal/protocol/frame"
	"github.com/danmuck/shiftctl/internal/testutil/testlog"
	"github.com/danmuck/shiftctl/internal/testutil/tlstest"
)

// echo answers every request with its own payload under tag+0x8000.
var echo = HandlerFunc(func(_ context.Context, f frame.Frame) (frame.Frame, error) {
	if string(f.Payload) == "drop" {
		return frame.Frame{}, errors.New("drop requested")
	}
	return frame.Frame{
		Header: frame.Header{
			MessageID:   f.Header.MessageID,
			MessageType: f.Header.MessageType | 0x8000,
			Flags:       frame.FlagIsResponse,
		},
		Payload: append([]byte(string(f.Auth)+":"), f.Payload...),
	}, nil
})

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ReadTimeout = 2 * time.Second
	cfg.WriteTimeout = 2 * time.Second
	cfg.MaxConnectAttempts = 3
	cfg.Backoff = BackoffConfig{InitialDelay: 10 * time.Millisecond, Multiplier: 2}
	return cfg
}

func startServer(t *testing.T, cfg Config, h Handler) (string, *Server) {
	t.Helper()
	srv := NewServer(cfg, h)
	ln, err := srv.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	})
	return ln.Addr().String(), srv
}

func TestRoundTripStampsMessageIDs(t *testing.T) {
	testlog.Start(t)
	addr, _ := startServer(t, testConfig(), echo)
	conn, err := Dial(context.Background(), addr, testConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for i := 1; i <= 3; i++ {
		resp, err := conn.RoundTrip(context.Background(), frame.Frame{
			Header:  frame.Header{MessageType: 0x0101},
			Auth:    []byte("tok"),
			Payload: []byte("hi"),
		})
		if err != nil {
			t.Fatalf("round trip %d: %v", i, err)
		}
		if resp.Header.MessageID != uint64(i) {
			t.Fatalf("message id: got=%d want=%d", resp.Header.MessageID, i)
		}
		if resp.Header.MessageType != 0x8101 || string(resp.Payload) != "tok:hi" {
			t.Fatalf("unexpected answer: %+v %q", resp.Header, resp.Payload)
		}
	}
}

func TestHandlerErrorDropsConnectionAndClientRedials(t *testing.T) {
	testlog.Start(t)
	addr, _ := startServer(t, testConfig(), echo)
	conn, err := Dial(context.Background(), addr, testConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_, err = conn.RoundTrip(context.Background(), frame.Frame{Header: frame.Header{MessageType: 1}, Payload: []byte("drop")})
	if err == nil {
		t.Fatalf("expected dropped connection")
	}
	resp, err := conn.RoundTrip(context.Background(), frame.Frame{Header: frame.Header{MessageType: 1}, Payload: []byte("again")})
	if err != nil {
		t.Fatalf("redial round trip: %v", err)
	}
	if string(resp.Payload) != ":again" {
		t.Fatalf("unexpected payload %q", resp.Payload)
	}
}

func TestMismatchedEchoRejected(t *testing.T) {
	testlog.Start(t)
	wrongID := HandlerFunc(func(ctx context.Context, f frame.Frame) (frame.Frame, error) {
		out, err := echo(ctx, f)
		out.Header.MessageID += 100
		return out, err
	})
	addr, _ := startServer(t, testConfig(), wrongID)
	conn, err := Dial(context.Background(), addr, testConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_, err = conn.RoundTrip(context.Background(), frame.Frame{Header: frame.Header{MessageType: 1}})
	if !errors.Is(err, ErrMessageIDMismatch) {
		t.Fatalf("expected ErrMessageIDMismatch, got %v", err)
	}
}

func TestNonResponseAnswerRejected(t *testing.T) {
	testlog.Start(t)
	noFlag := HandlerFunc(func(ctx context.Context, f frame.Frame) (frame.Frame, error) {
		out, err := echo(ctx, f)
		out.Header.Flags = 0
		return out, err
	})
	addr, _ := startServer(t, testConfig(), noFlag)
	conn, err := Dial(context.Background(), addr, testConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_, err = conn.RoundTrip(context.Background(), frame.Frame{Header: frame.Header{MessageType: 1}})
	if !errors.Is(err, ErrNotResponse) {
		t.Fatalf("expected ErrNotResponse, got %v", err)
	}
}

func TestRoundTripHonorsContext(t *testing.T) {
	testlog.Start(t)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	stall := HandlerFunc(func(ctx context.Context, f frame.Frame) (frame.Frame, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return frame.Frame{}, errors.New("stalled")
	})
	addr, _ := startServer(t, testConfig(), stall)
	conn, err := Dial(context.Background(), addr, testConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = conn.RoundTrip(ctx, frame.Frame{Header: frame.Header{MessageType: 1}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDialGivesUpAfterMaxAttempts(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	start := time.Now()
	_, err = Dial(context.Background(), addr, testConfig())
	if err == nil {
		t.Fatalf("expected dial failure")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("dial retried too long: %v", time.Since(start))
	}
}

func TestClosedConnRejectsRoundTrip(t *testing.T) {
	testlog.Start(t)
	addr, _ := startServer(t, testConfig(), echo)
	conn, err := Dial(context.Background(), addr, testConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := conn.RoundTrip(context.Background(), frame.Frame{}); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("expected ErrConnClosed, got %v", err)
	}
}

func TestRouterDispatchesByTag(t *testing.T) {
	testlog.Start(t)
	var v1Calls, v2Calls atomic.Int32
	counting := func(n *atomic.Int32) Handler {
		return HandlerFunc(func(ctx context.Context, f frame.Frame) (frame.Frame, error) {
			n.Add(1)
			return echo(ctx, f)
		})
	}
	r := NewRouter()
	if err := r.Handle("v1", []uint32{0x0101, 0x0201}, counting(&v1Calls)); err != nil {
		t.Fatalf("route v1: %v", err)
	}
	if err := r.Handle("v2", []uint32{0x1001}, counting(&v2Calls)); err != nil {
		t.Fatalf("route v2: %v", err)
	}
	if err := r.Handle("dup", []uint32{0x1001}, echo); err == nil {
		t.Fatalf("expected duplicate route rejection")
	}

	for _, mt := range []uint32{0x0101, 0x0201, 0x1001} {
		if _, err := r.ServeFrame(context.Background(), frame.Frame{Header: frame.Header{MessageType: mt}}); err != nil {
			t.Fatalf("serve %#04x: %v", mt, err)
		}
	}
	if v1Calls.Load() != 2 || v2Calls.Load() != 1 {
		t.Fatalf("unexpected routing: v1=%d v2=%d", v1Calls.Load(), v2Calls.Load())
	}
	_, err := r.ServeFrame(context.Background(), frame.Frame{Header: frame.Header{MessageType: 0x7777}})
	if !errors.Is(err, protocol.ErrMalformed) {
		t.Fatalf("expected ErrMalformed for unrouted tag, got %v", err)
	}
	if got := r.Schemas(); got["v1"] != 2 || got["v2"] != 1 {
		t.Fatalf("unexpected schemas: %+v", got)
	}
}

func TestMutualTLSRoundTrip(t *testing.T) {
	testlog.Start(t)
	files := tlstest.Loopback(t)

	serverCfg := testConfig()
	serverCfg.SecurityMode = SecurityModeProduction
	serverCfg.TLS = TLSConfig{Enabled: true, Mutual: true, CertFile: files.ServerCert, KeyFile: files.ServerKey, CAFile: files.CA}
	addr, _ := startServer(t, serverCfg, echo)

	clientCfg := testConfig()
	clientCfg.SecurityMode = SecurityModeProduction
	clientCfg.TLS = TLSConfig{Enabled: true, Mutual: true, CertFile: files.ClientCert, KeyFile: files.ClientKey, CAFile: files.CA}
	conn, err := Dial(context.Background(), addr, clientCfg)
	if err != nil {
		t.Fatalf("dial tls: %v", err)
	}
	defer conn.Close()
	resp, err := conn.RoundTrip(context.Background(), frame.Frame{Header: frame.Header{MessageType: 2}, Payload: []byte("x")})
	if err != nil {
		t.Fatalf("tls round trip: %v", err)
	}
	if string(resp.Payload) != ":x" {
		t.Fatalf("unexpected payload %q", resp.Payload)
	}
}

func TestBackoffDelayDeterministicNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{InitialDelay: 250 * time.Millisecond, Multiplier: 2.0, MaxDelay: 5 * time.Second}
	want := map[int]time.Duration{1: 250 * time.Millisecond, 2: 500 * time.Millisecond, 3: time.Second, 6: 5 * time.Second}
	for attempt, d := range want {
		if got := cfg.Delay(attempt, nil); got != d {
			t.Fatalf("attempt%d got=%v want=%v", attempt, got, d)
		}
	}
}

func TestBackoffDelayJitterRange(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{InitialDelay: 250 * time.Millisecond, Multiplier: 2.0, MaxDelay: 5 * time.Second, Jitter: true}
	rng := rand.New(rand.NewSource(7))
	got := cfg.Delay(2, rng)
	if got < 250*time.Millisecond || got > 750*time.Millisecond {
		t.Fatalf("jitter out of range: %v", got)
	}
}

func TestValidateTransportProductionRules(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.SecurityMode = SecurityModeProduction
	if err := cfg.ValidateClientTransport(); !errors.Is(err, ErrTLSRequired) {
		t.Fatalf("expected ErrTLSRequired, got %v", err)
	}
	cfg.TLS.Enabled = true
	if err := cfg.ValidateServerTransport(); !errors.Is(err, ErrMTLSRequired) {
		t.Fatalf("expected ErrMTLSRequired, got %v", err)
	}
	cfg.TLS.InsecureSkipVerify = true
	if err := cfg.ValidateClientTransport(); !errors.Is(err, ErrTLSInsecureSkipNotAllow) {
		t.Fatalf("expected ErrTLSInsecureSkipNotAllow, got %v", err)
	}
	cfg.SecurityMode = "staging"
	if err := cfg.ValidateClientTransport(); !errors.Is(err, ErrInvalidSecurityMode) {
		t.Fatalf("expected ErrInvalidSecurityMode, got %v", err)
	}
}

func TestValidateClientTransportMutualRequiresCertKeyCA(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.TLS.Enabled = true
	cfg.TLS.Mutual = true
	if err := cfg.ValidateClientTransport(); !errors.Is(err, ErrTLSCAFileRequired) {
		t.Fatalf("expected ErrTLSCAFileRequired, got %v", err)
	}
	cfg.TLS.CAFile = "/tmp/ca.pem"
	if err := cfg.ValidateClientTransport(); !errors.Is(err, ErrTLSCertFileRequired) {
		t.Fatalf("expected ErrTLSCertFileRequired, got %v", err)
	}
	cfg.TLS.CertFile = "/tmp/client.pem"
	if err := cfg.ValidateClientTransport(); !errors.Is(err, ErrTLSKeyFileRequired) {
		t.Fatalf("expected ErrTLSKeyFileRequired, got %v", err)
	}
	cfg.TLS.KeyFile = "/tmp/client.key"
	if err := cfg.ValidateClientTransport(); err != nil {
		t.Fatalf("expected valid transport config, got %v", err)
	}
}
