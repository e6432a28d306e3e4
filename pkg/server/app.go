package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	domrepo "EdgeDesk/internal/domain/repository"
	"EdgeDesk/internal/handler/ws"
	"EdgeDesk/internal/service/ratelimit"
	"EdgeDesk/internal/usecase"
	pkgch "EdgeDesk/pkg/clickhouse"
	"EdgeDesk/pkg/config"
	xhttp "EdgeDesk/pkg/http"
	applogger "EdgeDesk/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	limiter     *ratelimit.Limiter
	scanner     *usecase.FlowScanner
	hub         *ws.Hub
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server

	collector *usecase.StreamCollector
	stream    domrepo.FeedStream
	publisher domrepo.EventPublisher
	chClient  *pkgch.Client
}

// New creates a new App instance with the always-on dependencies.
func New(
	cfg *config.Config,
	limiter *ratelimit.Limiter,
	scanner *usecase.FlowScanner,
	hub *ws.Hub,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		limiter:     limiter,
		scanner:     scanner,
		hub:         hub,
		httpHandler: httpHandler,
	}
}

// SetStream attaches the optional upstream feed and its collector.
func (a *App) SetStream(stream domrepo.FeedStream, collector *usecase.StreamCollector) {
	a.stream = stream
	a.collector = collector
}

// SetPublisher attaches the optional event publisher so shutdown can close it.
func (a *App) SetPublisher(p domrepo.EventPublisher) { a.publisher = p }

// SetClickHouse attaches the optional ClickHouse client for shutdown.
func (a *App) SetClickHouse(c *pkgch.Client) { a.chClient = c }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := applogger.New(&applogger.Config{
		Level:  a.cfg.Logger.Level,
		Format: a.cfg.Logger.Format,
		Output: a.cfg.Logger.Output,
	})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.cfg.Metrics.Path),
		xhttp.WithLogger(l),
	)

	a.limiter.Start(ctx)

	a.scanner.Start(ctx)
	l.Info("flow scanner started",
		applogger.Duration("interval", a.cfg.Scanner.Interval),
		applogger.Duration("retention", a.cfg.Scanner.Retention))

	if a.collector != nil {
		go func() {
			if err := a.collector.Run(ctx); err != nil && ctx.Err() == nil {
				l.Error("stream collector stopped", applogger.Error(err))
			}
		}()
		l.Info("stream collector started", applogger.String("url", a.cfg.Stream.URL))
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	cancel()
	return a.shutdown(l)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(l *applogger.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.stream != nil {
		if err := a.stream.Close(); err != nil {
			l.Warn("stream close error", applogger.Error(err))
		}
	}

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	a.hub.Close()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			l.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
