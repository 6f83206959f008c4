package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/openvenue/matchd/config"
	"github.com/openvenue/matchd/pkg/core"
	"github.com/openvenue/matchd/pkg/logging"
	"github.com/openvenue/matchd/pkg/messaging"
	"github.com/openvenue/matchd/pkg/messaging/kafka"
	"github.com/openvenue/matchd/pkg/otel"
	"github.com/openvenue/matchd/pkg/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.Setup(logging.Config{
		Level:  cfg.Server.LogLevel,
		Pretty: cfg.Server.LogFormat == "pretty",
		Output: os.Stdout,
	})
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.Server.LogFormat == "pretty" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if cfg.Otel.Enabled {
		cleanup, err := otel.Init(otel.Config{
			ServiceName:    "matchd",
			ServiceVersion: "1.0.0",
			Endpoint:       cfg.Otel.Endpoint,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize OpenTelemetry")
		}
		defer cleanup()
	}

	book := core.NewOrderBook(
		core.WithCutoffHour(cfg.Engine.CutoffHour),
		core.WithLogger(logger.With().Str("component", "orderbook").Logger()),
	)
	defer book.Close()

	var sender messaging.TradeSender
	if cfg.Kafka.Enabled {
		kafkaSender, err := kafka.NewKafkaTradeSender(cfg.Kafka.BrokerAddr, cfg.Kafka.Topic)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create Kafka trade sender")
		}
		defer kafkaSender.Close()
		sender = kafkaSender
		logger.Info().
			Str("broker", cfg.Kafka.BrokerAddr).
			Str("topic", cfg.Kafka.Topic).
			Msg("Publishing trades to Kafka")
	}

	srv := server.NewServer(book, sender)
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: srv.Routes(),
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.HTTPAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("Shutdown complete")
}
