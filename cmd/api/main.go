package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"articlegen/internal/bootstrap"
	"articlegen/internal/http/handlers"
	httpapi "articlegen/internal/http/httpapi"
	"articlegen/internal/infra"
)

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
		logger.Fatal().Err(err).Msg("failed to initialise runtime")
	}
	defer rt.Close()

	app := handlers.NewApp(rt.Service, logger)
	app.Ready = rt.Pool.Ping
	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		RateLimitPerMin: cfg.RateLimitPerMin,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		Logger:          logger,
	})

	server := infra.NewHTTPServer(cfg, router)
	logger.Info().Str("addr", server.Addr()).Msg("API listening")
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}
