package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"MandiPulse/pkg/config"
	xhttp "MandiPulse/pkg/http"
	applogger "MandiPulse/pkg/logger"
)

// App owns the HTTP server lifecycle. Infrastructure clients are closed by the
// cleanup function returned alongside the App by the DI layer.
type App struct {
	cfg        *config.Config
	handler    xhttp.Handler
	registry   *prometheus.Registry
	l          *applogger.Logger
	httpServer *xhttp.Server
}

func New(cfg *config.Config, handler xhttp.Handler, registry *prometheus.Registry, l *applogger.Logger) *App {
	return &App{cfg: cfg, handler: handler, registry: registry, l: l}
}

// Server builds the HTTP server on first use.
func (a *App) Server() *xhttp.Server {
	if a.httpServer == nil {
		a.httpServer = xhttp.NewServer(a.handler,
			xhttp.WithHost(a.cfg.Server.Host),
			xhttp.WithPort(a.cfg.Server.Port),
			xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
			xhttp.WithSlowRequest(a.cfg.Server.SlowRequest),
			xhttp.WithCORS(a.cfg.Server.CORSOrigins...),
			xhttp.WithLogger(a.l.With("http")),
			xhttp.WithRegistry(a.registry),
		)
	}
	return a.httpServer
}

// Run serves until ctx is cancelled, SIGINT/SIGTERM arrives or the listener fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := a.Server()
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case runErr = <-srv.Errors():
		a.l.Error("http server failed", applogger.Error(runErr))
	}

	if err := srv.Stop(context.Background()); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	a.l.Info("shutdown complete")
	return runErr
}
