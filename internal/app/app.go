package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"SignalFeed/internal/classify"
	"SignalFeed/internal/config"
	"SignalFeed/internal/dedup"
	"SignalFeed/internal/infrastructure/scheduler"
	"SignalFeed/internal/infrastructure/sources"
	"SignalFeed/internal/infrastructure/telegram"
	"SignalFeed/internal/logging"
	"SignalFeed/internal/normalize"
	"SignalFeed/internal/ports"
	"SignalFeed/internal/source"
	"SignalFeed/internal/storage"
	"SignalFeed/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	store     *storage.SQLite
	scheduler *usecase.Scheduler
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging)
	}

	store, err := storage.NewSQLite(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	adapters, err := buildAdapters(cfg, baseLogger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources:    adapters,
		Normalizer: normalize.New(),
		Classifier: classify.New(cfg.Classifier),
		Reconciler: dedup.New(store),
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	driver := scheduler.NewIntervalScheduler(cfg.Scheduler.Interval(), cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, pipeline, baseLogger.With("component", "scheduler"))

	return &Application{cfg: cfg, store: store, scheduler: sched}, nil
}

func buildAdapters(cfg config.Config, logger *slog.Logger) ([]ports.SourceAdapter, error) {
	registry := source.NewRegistry()
	registry.Register("arxiv", func(sc config.SourceConfig, log *slog.Logger) (ports.SourceAdapter, error) {
		return sources.NewArxiv(sc, nil, log)
	})
	registry.Register("github", func(sc config.SourceConfig, log *slog.Logger) (ports.SourceAdapter, error) {
		return sources.NewGitHub(sc, http.DefaultClient, log)
	})
	registry.Register("hackernews", func(sc config.SourceConfig, log *slog.Logger) (ports.SourceAdapter, error) {
		return sources.NewHackerNews(sc, nil, log)
	})
	registry.Register("reddit", func(sc config.SourceConfig, log *slog.Logger) (ports.SourceAdapter, error) {
		return sources.NewReddit(sc, nil, log)
	})

	return registry.Build(cfg.Sources, logger)
}

// Run starts scheduled cycles and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	stopCtx := context.Background()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return a.store.Close()
}
