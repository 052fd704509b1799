package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"voxhire/pkg/bus"
	gos3 "voxhire/pkg/s3"
	"voxhire/pkg/telemetry"
	"voxhire/services/api"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("service", "voxhire-api").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := api.Load(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	shutdownTracing, traceMW, err := telemetry.Init(ctx, "voxhire-api", cfg.OTLPEndpoint, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	store, err := api.NewStore(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer store.Close()

	var eventBus *bus.Bus
	if cfg.NATSUrl != "" {
		eventBus, err = bus.New(cfg.NATSUrl)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect nats")
		}
		defer eventBus.Close()
	} else {
		logger.Warn().Msg("NATS_URL not set, lifecycle events disabled")
	}

	var archive *gos3.Client
	if cfg.ArchiveBucket != "" {
		archive, err = gos3.NewClientFromEnv()
		if err != nil {
			logger.Fatal().Err(err).Msg("init transcript archive")
		}
	}

	app, err := api.New(cfg, logger, store, eventBus, archive)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire api")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Routes(traceMW),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("serve")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
