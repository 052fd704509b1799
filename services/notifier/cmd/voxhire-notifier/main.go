package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"voxhire/pkg/bus"
	"voxhire/services/notifier"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("service", "voxhire-notifier").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := notifier.Load(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	eventBus, err := bus.New(cfg.NATSUrl)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect nats")
	}
	defer eventBus.Close()

	if err := notifier.New(cfg, logger).Run(ctx, eventBus); err != nil {
		logger.Fatal().Err(err).Msg("notifier")
	}

	logger.Info().Msg("notifier stopped")
}
