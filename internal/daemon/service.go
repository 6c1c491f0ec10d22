// Package daemon assembles shiftd: the memory store, the schema dispatchers
// behind one session listener and the optional admin HTTP endpoint.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/shiftctl/internal/auth"
	"github.com/danmuck/shiftctl/internal/config"
	"github.com/danmuck/shiftctl/internal/memstore"
	"github.com/danmuck/shiftctl/internal/protocol"
	"github.com/danmuck/shiftctl/internal/protocol/session"
	v1 "github.com/danmuck/shiftctl/internal/protocol/v1"
	v2 "github.com/danmuck/shiftctl/internal/protocol/v2"
	"github.com/danmuck/shiftctl/internal/server"
	"github.com/rs/zerolog/log"
)

type Service struct {
	cfg      config.ServerConfig
	store    *memstore.Store
	sessions *session.Server
	admin    *server.Server
}

// NewService builds the store, bootstraps the admin user and routes every
// configured schema. payroll may be nil.
func NewService(cfg config.ServerConfig, payroll memstore.Payroll) (*Service, error) {
	if err := config.ValidateServerConfig(cfg); err != nil {
		return nil, err
	}
	issuer, err := auth.NewIssuer([]byte(cfg.TokenSecret), cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	store, err := memstore.New(memstore.Options{Issuer: issuer, Payroll: payroll, BcryptCost: cfg.BcryptCost})
	if err != nil {
		return nil, err
	}
	boot := cfg.Bootstrap
	if _, err := store.Bootstrap(memstore.User{Login: boot.Login, Name: boot.Name, IsAdmin: true}, boot.Password); err != nil {
		return nil, fmt.Errorf("daemon: bootstrap admin: %w", err)
	}

	router := session.NewRouter()
	var schemas []server.Schema
	for _, name := range cfg.Schemas {
		var (
			types   []uint32
			handler session.Handler
			desc    server.Schema
		)
		switch name {
		case config.SchemaV1:
			types, handler = v1.RequestTypes(), v1.NewDispatcher(store.V1())
			desc = server.Schema{Name: name, User: v1.OperationNames(protocol.TierUser), Admin: v1.OperationNames(protocol.TierAdmin)}
		case config.SchemaV2:
			types, handler = v2.RequestTypes(), v2.NewDispatcher(store.V2())
			desc = server.Schema{Name: name, User: v2.OperationNames(protocol.TierUser), Admin: v2.OperationNames(protocol.TierAdmin)}
		default:
			return nil, fmt.Errorf("daemon: unknown schema %q", name)
		}
		if err := router.Handle(name, types, handler); err != nil {
			return nil, err
		}
		schemas = append(schemas, desc)
	}

	svc := &Service{
		cfg:      cfg,
		store:    store,
		sessions: session.NewServer(cfg.Session, router),
	}
	if strings.TrimSpace(cfg.AdminAddr) != "" {
		var guard auth.Validator
		if cfg.AdminToken != "" {
			guard = auth.StaticToken{Token: cfg.AdminToken}
		}
		svc.admin = server.New(server.Options{
			Name:           "shiftd",
			CorsOrigins:    cfg.CorsOrigins,
			Guard:          guard,
			Schemas:        schemas,
			ActiveSessions: svc.sessions.ActiveConns,
		})
	}
	if payroll == nil {
		log.Warn().Msg("daemon.NewService payroll not configured, salary requests answer Unknown")
	}
	log.Info().Strs("schemas", cfg.Schemas).Str("addr", cfg.Addr).Msg("daemon.NewService")
	return svc, nil
}

func (s *Service) Store() *memstore.Store {
	return s.store
}

// Run serves until SIGINT or SIGTERM.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.ListenAndServe(ctx)
}

// Listen opens the session listener on the configured addr.
func (s *Service) Listen() (net.Listener, error) {
	return s.sessions.Listen(s.cfg.Addr)
}

// ListenAndServe opens the configured listeners and serves until ctx ends.
func (s *Service) ListenAndServe(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	var adminLn net.Listener
	if s.admin != nil {
		adminLn, err = net.Listen("tcp", s.cfg.AdminAddr)
		if err != nil {
			_ = ln.Close()
			return err
		}
	}
	return s.Serve(ctx, ln, adminLn)
}

// Serve runs the session listener and, when adminLn is non-nil, the admin
// endpoint. Either one failing stops both.
func (s *Service) Serve(ctx context.Context, ln, adminLn net.Listener) error {
	if adminLn != nil && s.admin == nil {
		return errors.New("daemon: admin listener given but admin_addr not configured")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	running := 1
	go func() { errs <- s.sessions.Serve(ctx, ln) }()
	if adminLn != nil {
		running++
		go func() { errs <- s.admin.Serve(ctx, adminLn) }()
	}

	var first error
	for range running {
		if err := <-errs; err != nil && first == nil {
			first = err
		}
		cancel()
	}
	return first
}
