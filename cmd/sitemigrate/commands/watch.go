package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitemigrate/internal/metrics"
	"git.home.luguber.info/inful/sitemigrate/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	NoMetrics bool `help:"Do not serve Prometheus metrics"`
}

func (c *WatchCmd) Run(g *Global, root *CLI) error {
	e, err := root.newEnv(g, envOptions{history: true, notify: true, metrics: true})
	if err != nil {
		return err
	}
	defer func() { _ = e.close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var srv *http.Server
	mc := e.cfg.Monitoring.Metrics
	if mc.Enabled && !c.NoMetrics {
		mux := http.NewServeMux()
		mux.Handle(mc.Path, metrics.HTTPHandler(e.registry))
		srv = &http.Server{Addr: mc.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				e.logger.Error("Metrics server failed", slog.String("error", err.Error()))
			}
		}()
		e.logger.Info("Serving metrics", slog.String("addr", mc.Listen), slog.String("path", mc.Path))
	}

	w := watch.New(e.store, e.runner, watch.Config{
		Schedule: e.cfg.Watch.Schedule,
		Debounce: e.cfg.DebounceDuration(),
		Workers:  e.cfg.Watch.Workers,
	}, e.logger)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	<-ctx.Done()
	e.logger.Info("Shutdown signal received, stopping watcher...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if srv != nil {
		_ = srv.Shutdown(stopCtx)
	}
	if err := w.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	e.logger.Info("Watcher stopped")
	return nil
}
