package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"MandiPulse/pkg/http/middleware"
	"MandiPulse/pkg/logger"
)

// Handler registers its routes on the server.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

type ServerOption func(*ServerConfig)

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	SlowRequest     time.Duration
	CORS            bool
	CORSOrigins     []string

	Logger   *logger.Logger
	Registry *prometheus.Registry
}

// Server wraps an Echo instance with the standard middleware chain and /metrics.
type Server struct {
	echo   *echo.Echo
	config *ServerConfig
	errCh  chan error
}

func NewServer(handler Handler, opts ...ServerOption) *Server {
	cfg := &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		SlowRequest:     2 * time.Second,
		CORS:            true,
		CORSOrigins:     []string{"*"},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	var reg prometheus.Registerer
	if cfg.Registry != nil {
		reg = cfg.Registry
	}

	e.Use(middleware.Recover(cfg.Logger))
	e.Use(middleware.NewHTTPMetrics(reg).Middleware(cfg.Logger, cfg.SlowRequest))
	e.Use(middleware.RequestLogging(cfg.Logger))
	if cfg.CORS {
		e.Use(middleware.CORS(middleware.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	if handler != nil {
		handler.RegisterRoutes(e)
	}

	if cfg.Registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	} else {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	return &Server{echo: e, config: cfg, errCh: make(chan error, 1)}
}

// Start listens in the background. A listener failure is delivered on Errors.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	if s.config.Logger != nil {
		s.config.Logger.Info("http server listening", logger.String("addr", addr))
	}
	go func() {
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	return nil
}

// Errors yields at most one fatal listener error.
func (s *Server) Errors() <-chan error { return s.errCh }

// Stop drains in-flight requests for up to ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	if s.config.Logger != nil {
		s.config.Logger.Info("http server stopped")
	}
	return nil
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func WithHost(host string) ServerOption {
	return func(c *ServerConfig) { c.Host = host }
}

func WithPort(port int) ServerOption {
	return func(c *ServerConfig) { c.Port = port }
}

func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.ReadTimeout = read
		c.WriteTimeout = write
		c.ShutdownTimeout = shutdown
	}
}

// WithCORS enables CORS for the given origins; no origins disables it.
func WithCORS(origins ...string) ServerOption {
	return func(c *ServerConfig) {
		c.CORS = len(origins) > 0
		c.CORSOrigins = origins
	}
}

func WithLogger(l *logger.Logger) ServerOption {
	return func(c *ServerConfig) { c.Logger = l }
}

// WithRegistry serves /metrics from reg and registers HTTP collectors on it.
func WithRegistry(reg *prometheus.Registry) ServerOption {
	return func(c *ServerConfig) { c.Registry = reg }
}

func WithSlowRequest(d time.Duration) ServerOption {
	return func(c *ServerConfig) { c.SlowRequest = d }
}
