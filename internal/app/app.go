// Package app provides the top-level application lifecycle: it wires the
// concrete dependencies from configuration and runs the HTTP server alongside
// the background maintenance loops.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arbiterlabs/surescan/internal/config"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies and blocks until the context is cancelled or a
// component fails. The HTTP server and the background loops run in one
// errgroup; the first hard failure tears everything down.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.Int("port", a.cfg.Server.Port),
		slog.Bool("redis", a.cfg.RedisEnabled()),
		slog.Bool("postgres", a.cfg.PostgresEnabled()),
		slog.Bool("s3", a.cfg.S3Enabled()),
		slog.Bool("advisor", a.cfg.AdvisorEnabled()),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return deps.Server.Shutdown(shutdownCtx)
	})

	if deps.MemDedup != nil {
		interval := time.Duration(a.cfg.Dedup.SweepIntervalMinutes) * time.Minute
		g.Go(func() error {
			return ignoreCancel(deps.MemDedup.RunSweep(gctx, interval, a.logger))
		})
	}

	if deps.HeatStore != nil {
		interval := time.Duration(a.cfg.Postgres.FlushIntervalMinutes) * time.Minute
		g.Go(func() error {
			return ignoreCancel(a.runHeatFlush(gctx, deps, interval))
		})
	}

	if deps.Archiver != nil {
		g.Go(func() error {
			return ignoreCancel(deps.Archiver.RunDaily(gctx))
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: %w", err)
	}
	return nil
}

// runHeatFlush snapshots the heat ledger into the store on an interval, and
// once more on shutdown so accumulated heat survives a restart.
func (a *App) runHeatFlush(ctx context.Context, deps *Dependencies, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	flush := func(fctx context.Context) {
		if err := deps.HeatStore.UpsertAll(fctx, deps.Ledger.All()); err != nil {
			a.logger.Error("heat flush failed", slog.String("error", err.Error()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			fctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			flush(fctx)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			flush(ctx)
		}
	}
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// ignoreCancel maps context cancellation to a clean exit for loops that end
// with the application.
func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
