// Package server is the optional admin HTTP endpoint of shiftd: liveness,
// readiness, Prometheus metrics and the schemas being served.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/shiftctl/internal/auth"
	"github.com/danmuck/shiftctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

// Schema describes one served protocol revision.
type Schema struct {
	Name  string   `json:"name"`
	User  []string `json:"user"`
	Admin []string `json:"admin"`
}

type Options struct {
	Name        string
	CorsOrigins []string
	// Guard protects every route except /health and /ready. Nil leaves them
	// open.
	Guard   auth.Validator
	Schemas []Schema
	// ActiveSessions reports open protocol connections.
	ActiveSessions func() int
}

type Server struct {
	opts     Options
	router   *gin.Engine
	appeared time.Time
}

func New(opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "shiftd"
	}
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(observability.Logger("admin-http")))
	r.Use(observability.RequestMetricsMiddleware(opts.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(opts.CorsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{opts: opts, router: r, appeared: time.Now()}
	s.registerRoutes()
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"service": s.opts.Name,
			"version": version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":    true,
			"uptime":   time.Since(s.appeared).String(),
			"service":  s.opts.Name,
			"sessions": s.activeSessions(),
		})
	})

	guarded := s.router.Group("/", s.requireToken())
	guarded.GET("/metrics", gin.WrapH(promhttp.Handler()))
	guarded.GET("/schemas", func(c *gin.Context) {
		names := make([]string, 0, len(s.opts.Schemas))
		for _, sc := range s.opts.Schemas {
			names = append(names, sc.Name)
		}
		c.Set(observability.KeySchemas, names)
		c.JSON(http.StatusOK, gin.H{"schemas": s.opts.Schemas})
	})
}

func (s *Server) activeSessions() int {
	if s.opts.ActiveSessions == nil {
		return 0
	}
	return s.opts.ActiveSessions()
}

// requireToken checks a bearer token against the guard.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.opts.Guard == nil {
			c.Set(observability.KeyAuth, observability.AuthOpen)
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || s.opts.Guard.Validate(strings.TrimSpace(token)) != nil {
			c.Set(observability.KeyAuth, observability.AuthDenied)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(observability.KeyAuth, observability.AuthBearer)
		c.Next()
	}
}

// Serve runs the admin endpoint on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("server.Serve shutdown")
		}
	})
	defer stop()

	log.Info().Str("addr", ln.Addr().String()).Msg("server.Serve admin http listening")
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}
	}
	return out
}
