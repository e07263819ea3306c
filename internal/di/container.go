package di

import (
	"context"
	"log/slog"

	deliveryDomain "github.com/reshetovitsme/patchnotes-feed/internal/modules/delivery/domain"
	deliveryService "github.com/reshetovitsme/patchnotes-feed/internal/modules/delivery/service"
	feedService "github.com/reshetovitsme/patchnotes-feed/internal/modules/feed/service"
	markerRepo "github.com/reshetovitsme/patchnotes-feed/internal/modules/marker/repository"
	markerService "github.com/reshetovitsme/patchnotes-feed/internal/modules/marker/service"
	markupService "github.com/reshetovitsme/patchnotes-feed/internal/modules/markup/service"
	messageRepo "github.com/reshetovitsme/patchnotes-feed/internal/modules/message/repository"
	messageService "github.com/reshetovitsme/patchnotes-feed/internal/modules/message/service"
	pipelineService "github.com/reshetovitsme/patchnotes-feed/internal/modules/pipeline/service"
	selectionService "github.com/reshetovitsme/patchnotes-feed/internal/modules/selection/service"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/config"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/errors"
	discordClient "github.com/reshetovitsme/patchnotes-feed/internal/transport/discord"
	httpServer "github.com/reshetovitsme/patchnotes-feed/internal/transport/http"
	telegramSender "github.com/reshetovitsme/patchnotes-feed/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Marker Repository
	do.Provide(injector, func(i do.Injector) (markerRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)

		var (
			repo markerRepo.Repository
			err  error
		)
		switch cfg.MarkerBackend {
		case config.MarkerBackendSqlite:
			repo, err = markerRepo.NewSQLiteStorage(cfg.StoragePath)
		case config.MarkerBackendFile:
			repo, err = markerRepo.NewFileStorage(cfg.StoragePath)
		default:
			return nil, oops.Code(errors.CodeConfig).With("marker_backend", cfg.MarkerBackend).Wrap(errors.ErrUnknownMarkerBackend)
		}
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "backend", cfg.MarkerBackend, "context", "failed to initialize marker repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Message Repository
	do.Provide(injector, func(i do.Injector) (messageRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := messageRepo.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize message repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Message Service (publish journal)
	do.Provide(injector, func(i do.Injector) (*messageService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[messageRepo.Repository](i)
		return messageService.New(repo, cfg.PublisherName), nil
	})

	// Register Fetcher
	do.Provide(injector, func(i do.Injector) (*feedService.Fetcher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return feedService.NewFetcher(cfg.Timeout(), cfg.UserAgent), nil
	})

	// Register Feed Adapters
	do.Provide(injector, func(i do.Injector) ([]feedService.Adapter, error) {
		cfg := do.MustInvoke[*config.Config](i)
		fetcher := do.MustInvoke[*feedService.Fetcher](i)
		adapters, err := feedService.NewAdapters(cfg, fetcher)
		if err != nil {
			return nil, oops.With("context", "failed to build feed adapters").Wrap(err)
		}
		return adapters, nil
	})

	// Register Normalizer
	do.Provide(injector, func(i do.Injector) (*markupService.Normalizer, error) {
		return markupService.New(), nil
	})

	// Register Selector
	do.Provide(injector, func(i do.Injector) (*selectionService.Selector, error) {
		cfg := do.MustInvoke[*config.Config](i)
		selector, err := selectionService.New(cfg.UpdatePattern, cfg.NewsPattern, cfg.Keywords, cfg.ProductName)
		if err != nil {
			return nil, oops.With("context", "failed to build update selector").Wrap(err)
		}
		return selector, nil
	})

	// Register Sender and History Reader for the configured destination
	do.Provide(injector, func(i do.Injector) (deliveryDomain.Sender, error) {
		cfg := do.MustInvoke[*config.Config](i)
		switch cfg.Destination {
		case config.DestinationDiscord:
			client, err := do.Invoke[*discordClient.Client](i)
			if err != nil {
				return nil, err
			}
			return client, nil
		case config.DestinationTelegram:
			sender, err := telegramSender.New(cfg.TelegramBotToken, cfg.TelegramAPIURL, cfg.ChannelID)
			if err != nil {
				return nil, oops.With("context", "failed to create telegram sender").Wrap(err)
			}
			return sender, nil
		default:
			return nil, oops.Code(errors.CodeConfig).With("destination", cfg.Destination).Wrap(errors.ErrUnknownDestination)
		}
	})

	do.Provide(injector, func(i do.Injector) (*discordClient.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		client, err := discordClient.New(cfg.DiscordBotToken, cfg.DiscordAPIURL, cfg.ChannelID)
		if err != nil {
			return nil, oops.With("context", "failed to create discord client").Wrap(err)
		}
		return client, nil
	})

	// Telegram bots cannot read channel history, so the journal stands in
	do.Provide(injector, func(i do.Injector) (deliveryDomain.HistoryReader, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.Destination == config.DestinationDiscord {
			client, err := do.Invoke[*discordClient.Client](i)
			if err != nil {
				return nil, err
			}
			return client, nil
		}
		return do.MustInvoke[*messageService.Service](i), nil
	})

	// Register Dedup Gate
	do.Provide(injector, func(i do.Injector) (*markerService.Gate, error) {
		cfg := do.MustInvoke[*config.Config](i)
		history := do.MustInvoke[deliveryDomain.HistoryReader](i)
		identifier := markerService.NewIdentifier(cfg.HostAliases)
		if cfg.ForcePost {
			slog.Warn("Force post enabled, the next selected announcement bypasses deduplication")
		}
		return markerService.NewGate(identifier, history, cfg.HistoryDepth, cfg.ForcePost), nil
	})

	// Register Publisher
	do.Provide(injector, func(i do.Injector) (*deliveryService.Publisher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		sender := do.MustInvoke[deliveryDomain.Sender](i)
		return deliveryService.NewPublisher(sender, cfg.Pacing()), nil
	})

	// Register Pipeline Runner
	do.Provide(injector, func(i do.Injector) (*pipelineService.Runner, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return pipelineService.NewRunner(
			do.MustInvoke[[]feedService.Adapter](i),
			do.MustInvoke[*selectionService.Selector](i),
			do.MustInvoke[*markerService.Gate](i),
			do.MustInvoke[*markupService.Normalizer](i),
			do.MustInvoke[*deliveryService.Publisher](i),
			do.MustInvoke[markerRepo.Repository](i),
			do.MustInvoke[*messageService.Service](i),
			pipelineService.Settings{
				ProductName:      cfg.ProductName,
				MessageLimit:     cfg.MessageLimit,
				MinContentLength: cfg.MinContentLength,
			},
		), nil
	})

	// Register Scheduler
	do.Provide(injector, func(i do.Injector) (*pipelineService.Scheduler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		runner := do.MustInvoke[*pipelineService.Runner](i)
		return pipelineService.NewScheduler(runner, cfg.Interval()), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		runner := do.MustInvoke[*pipelineService.Runner](i)
		journal := do.MustInvoke[*messageService.Service](i)
		server := httpServer.New(cfg, runner, journal)
		server.SetLogger(slog.Default())
		return server, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	ctx := context.Background()

	// Scheduler stops before the stores close
	if scheduler, err := do.Invoke[*pipelineService.Scheduler](injector); err == nil && scheduler != nil {
		scheduler.Stop()
	}

	if server, err := do.Invoke[*httpServer.Server](injector); err == nil && server != nil {
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Failed to stop HTTP server", "error", err)
		}
	}

	if repo, err := do.Invoke[markerRepo.Repository](injector); err == nil && repo != nil {
		if err := repo.Close(); err != nil {
			return oops.With("context", "failed to close marker repository").Wrap(err)
		}
	}

	return nil
}
