package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/reshetovitsme/patchnotes-feed/internal/di"
	pipelineService "github.com/reshetovitsme/patchnotes-feed/internal/modules/pipeline/service"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/config"
	httpServer "github.com/reshetovitsme/patchnotes-feed/internal/transport/http"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	// Setup dependency injection
	injector, err := di.Setup()
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		os.Exit(1)
	}

	// Configuration errors are the only fatal condition
	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	runner, err := do.Invoke[*pipelineService.Runner](injector)
	if err != nil {
		slog.Error("Failed to build ingestion pipeline", "error", err)
		os.Exit(1)
	}
	scheduler := do.MustInvoke[*pipelineService.Scheduler](injector)
	server := do.MustInvoke[*httpServer.Server](injector)

	defer func() {
		if err := di.Shutdown(injector); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runner.LoadMarker(ctx)

	// Start HTTP server
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "error", err)
		}
	}()

	// Start ingestion schedule
	scheduler.Start(ctx)

	slog.Info("Application started",
		"destination", cfg.Destination,
		"channel_id", cfg.ChannelID,
		"sources", len(cfg.FeedSources),
		"interval", cfg.Interval(),
		"port", cfg.HTTPPort,
	)
	slog.Info("Press Ctrl+C to stop")

	<-ctx.Done()
	slog.Info("Shutting down...")
}

// newLogger fans out to a text handler on stdout and a JSON error stream on
// stderr in production. Other environments log text only.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	if cfg.AppEnv != config.AppEnvProduction {
		return slog.New(textHandler)
	}

	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	// Use Fanout to send logs to both handlers
	return slog.New(slogmulti.Fanout(textHandler, jsonHandler))
}
