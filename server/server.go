package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/execkit/config"
	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/observability"
	"github.com/kbukum/execkit/process"
	"github.com/kbukum/execkit/resilience"
	"github.com/kbukum/execkit/server/middleware"
)

const shutdownTimeout = 5 * time.Second

// Server is the execkit HTTP API backed by Gin, served over HTTP/1.1 and
// cleartext HTTP/2.
type Server struct {
	cfg         config.ServerConfig
	executorCfg config.ExecutorConfig
	execOpts    []process.Option

	engine      *gin.Engine
	handler     http.Handler
	httpServer  *http.Server
	registry    *Registry
	running     *resilience.Bulkhead
	submissions *resilience.RateLimiter
	httpMetrics *observability.HTTPMetrics
	baseLog     *logger.Logger
	log         *logger.Logger

	mu       sync.Mutex
	listener net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.baseLog = l
		}
	}
}

// WithExecutorOptions appends options to every executor the server builds.
// Request overrides are still applied last.
func WithExecutorOptions(opts ...process.Option) Option {
	return func(s *Server) { s.execOpts = append(s.execOpts, opts...) }
}

// WithHTTPMetrics records request metrics.
func WithHTTPMetrics(m *observability.HTTPMetrics) Option {
	return func(s *Server) { s.httpMetrics = m }
}

// New creates a Server from cfg. Defaults must already be applied.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:         cfg.Server,
		executorCfg: cfg.Executor,
		registry:    NewRegistry(cfg.Server.MaxExecutions, cfg.Server.Retention),
		baseLog:     logger.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.baseLog.WithComponent("server")

	s.running = resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "running",
		MaxConcurrent: cfg.Server.MaxRunning,
	})
	if cfg.Server.SubmitRate > 0 {
		s.submissions = resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Name:  "submissions",
			Rate:  cfg.Server.SubmitRate,
			Burst: cfg.Server.SubmitBurst,
			OnLimit: func(name string) {
				s.log.Warn("submission rate limited", map[string]interface{}{"limiter": name})
			},
		})
	}

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	s.engine = gin.New()
	s.engine.Use(middleware.Metrics(s.httpMetrics))
	s.routes()

	chain := middleware.Chain(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.RequestLogger(s.log),
		middleware.BodySizeLimit(middleware.DefaultMaxBodySize),
	)
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}
	s.handler = h2c.NewHandler(chain(s.engine), h2s)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.NoRoute(func(c *gin.Context) {
		RespondWithError(c, notFoundRoute(c.Request.URL.Path))
	})
	s.engine.GET("/health", s.health)
	s.engine.GET("/version", s.versionInfo)

	v1 := s.engine.Group("/v1")
	v1.POST("/executions", s.createExecution)
	v1.GET("/executions/:id", s.getExecution)
	v1.DELETE("/executions/:id", s.deleteExecution)
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Registry returns the execution registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a goroutine.
func (s *Server) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("Server error", logger.ErrorFields("serve", err))
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{
		"addr": listener.Addr().String(),
	})
	return nil
}

// Stop shuts down the HTTP server and terminates running executions, with a
// 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", logger.ErrorFields("shutdown", err))
		return fmt.Errorf("server shutdown error: %w", err)
	}
	if err := s.registry.TerminateAll(shutdownCtx); err != nil {
		return fmt.Errorf("terminating executions: %w", err)
	}

	s.log.Info("HTTP server shut down successfully")
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
