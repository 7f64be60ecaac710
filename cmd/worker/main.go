package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"articlegen/internal/article"
	"articlegen/internal/bootstrap"
	"articlegen/internal/infra"
)

type sweeper interface {
	ReconcileInFlight(ctx context.Context, batch, concurrency int) (article.SweepStats, error)
}

type reconcileWorker struct {
	svc         sweeper
	logger      infra.Logger
	interval    time.Duration
	batch       int
	concurrency int
}

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to initialise runtime")
	}
	defer rt.Close()

	w := &reconcileWorker{
		svc:         rt.Service,
		logger:      logger,
		interval:    cfg.WorkerPollInterval,
		batch:       cfg.WorkerBatchSize,
		concurrency: cfg.WorkerConcurrency,
	}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// Run sweeps in-flight articles once per interval until ctx is done.
func (w *reconcileWorker) Run(ctx context.Context) error {
	w.logger.Info().
		Dur("interval", w.interval).
		Int("batch", w.batch).
		Int("concurrency", w.concurrency).
		Msg("worker: started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.sweep(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *reconcileWorker) sweep(ctx context.Context) {
	stats, err := w.svc.ReconcileInFlight(ctx, w.batch, w.concurrency)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("worker: sweep failed")
		}
		return
	}
	if stats.Scanned == 0 {
		return
	}
	w.logger.Info().
		Int("scanned", stats.Scanned).
		Int("updated", stats.Updated).
		Int("failed", stats.Failed).
		Msg("worker: sweep finished")
}
