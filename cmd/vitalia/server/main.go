package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"vitalia"
	"vitalia/codec"
	"vitalia/coordinator"
	"vitalia/provider"
	"vitalia/server"
	"vitalia/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("SETUP: No .env file loaded", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var providerConfig vitalia.ProviderConfig
	if err := envdecode.Decode(&providerConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var retryConfig vitalia.RetryConfig
	if err := envdecode.Decode(&retryConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var appConfig vitalia.AppConfig
	if err := envdecode.Decode(&appConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	tracerProvider, meterProvider, otelShutdown, err := vitalia.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	gen, closeGen, err := provider.New(ctx, providerConfig, retryConfig, nil)
	if err != nil {
		slog.Error("SETUP: Failed to create provider", "error", err)
		return
	}
	defer closeGen()

	cd, err := codec.New(codec.WithLenientJSON(provider.LenientJSON(providerConfig.Name)))
	if err != nil {
		slog.Error("SETUP: Failed to create codec", "error", err)
		return
	}

	coord, err := coordinator.New(gen, cd, vitalia.NewStdoutExchangeLogger(),
		tracerProvider.Tracer(vitalia.TracerNameCoordinator),
		meterProvider.Meter(vitalia.TracerNameCoordinator))
	if err != nil {
		slog.Error("SETUP: Failed to create coordinator", "error", err)
		return
	}

	session := coordinator.NewSession(coord)
	if appConfig.ArtifactsPantryPath != "" {
		names, err := storage.LoadIngredients(ctx, storage.NewFilePantryState(appConfig.ArtifactsPantryPath))
		if err != nil {
			slog.Error("SETUP: Failed to load pantry", "error", err)
			return
		}
		for _, n := range names {
			session.AddIngredient(n)
		}
		slog.Info("SETUP: Pantry loaded", "ingredients_count", len(names))
	}

	srv := server.New(session, cd.Registry(), appConfig.ListenAddr)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("SERVER: Stopped", "error", err)
		}
	case <-ctx.Done():
		slog.Info("SERVER: Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("SERVER: Shutdown failed", "error", err)
		}
	}
}
