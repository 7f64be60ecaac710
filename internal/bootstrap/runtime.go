// Package bootstrap assembles the article service and its infrastructure for
// the binaries under cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"articlegen/internal/adapter/cache"
	"articlegen/internal/adapter/repo"
	"articlegen/internal/article"
	"articlegen/internal/db"
	"articlegen/internal/domain"
	"articlegen/internal/infra"
	"articlegen/internal/infra/credentials"
	"articlegen/internal/providers/giselle"
	"articlegen/internal/quota"
)

// Runtime holds the long-lived resources a binary needs.
type Runtime struct {
	Config      *infra.Config
	Logger      infra.Logger
	Pool        *pgxpool.Pool
	SQL         *infra.SQLRunner
	Redis       *redis.Client
	Credentials *credentials.Store
	Articles    *repo.ArticleRepositoryPG
	Ledger      *quota.Ledger
	Service     *article.Service
}

// Open connects to PostgreSQL and, when configured, Redis, then builds the
// article service. Migrations run first when cfg.AutoMigrate is set.
func Open(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*Runtime, error) {
	if cfg.AutoMigrate {
		if err := db.MigrateURL(ctx, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		logger.Info().Msg("migrations applied")
	}

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Config: cfg, Logger: logger, Pool: pool}
	rt.SQL = infra.NewSQLRunner(pool, logger)
	rt.Credentials = credentials.NewStore(rt.SQL)
	rt.Articles = repo.NewArticleRepository(rt.SQL)

	rt.Redis, err = infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, reconcile gate disabled")
		rt.Redis = nil
	}

	apiKey := ResolveAPIKey(ctx, cfg.GenerationAPIKey, rt.Credentials, logger)
	client, err := giselle.NewClient(giselle.Options{
		APIKey:         apiKey,
		BaseURL:        cfg.GenerationBaseURL,
		Logger:         &logger,
		RequestTimeout: max(cfg.DispatchTimeout, cfg.ReconcileTimeout),
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("configure generation client: %w", err)
	}
	if !client.HasCredentials() {
		logger.Warn().Str("base_url", cfg.GenerationBaseURL).Msg("generation api key missing, requests are unauthenticated")
	}

	var gate domain.ReconcileGate
	if rt.Redis != nil {
		g, err := cache.NewRedisReconcileGate(rt.Redis, cfg.ReconcileGateTTL)
		if err != nil {
			rt.Close()
			return nil, err
		}
		gate = g
	}

	rt.Ledger = quota.NewLedger(rt.Articles, quota.WithLimit(cfg.QuotaLimit), quota.WithWindow(cfg.QuotaWindow))
	rt.Service, err = article.NewService(article.Options{
		Repo:             rt.Articles,
		Generator:        client,
		Ledger:           rt.Ledger,
		Gate:             gate,
		Logger:           logger,
		DispatchTimeout:  cfg.DispatchTimeout,
		ReconcileTimeout: cfg.ReconcileTimeout,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// Close releases the connections opened by Open.
func (rt *Runtime) Close() {
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
	if rt.Pool != nil {
		rt.Pool.Close()
	}
}

// KeySource provides a stored provider API key.
type KeySource interface {
	GenerationAPIKey(ctx context.Context) (string, error)
}

// ResolveAPIKey prefers the configured key and falls back to the stored one.
// A failing store yields "" and a warning.
func ResolveAPIKey(ctx context.Context, configured string, store KeySource, logger infra.Logger) string {
	if key := strings.TrimSpace(configured); key != "" {
		return key
	}
	if store == nil {
		return ""
	}
	key, err := store.GenerationAPIKey(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load generation api key from store")
		return ""
	}
	return key
}
