package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/api"
	"github.com/newthinker/sentinel/internal/api/stream"
	"github.com/newthinker/sentinel/internal/app"
	"github.com/newthinker/sentinel/internal/cache"
	"github.com/newthinker/sentinel/internal/config"
	"github.com/newthinker/sentinel/internal/metrics"
	"github.com/newthinker/sentinel/internal/notifier"
	"github.com/newthinker/sentinel/internal/notifier/kafka"
	"github.com/newthinker/sentinel/internal/notifier/webhook"
	"github.com/newthinker/sentinel/internal/router"
	"github.com/newthinker/sentinel/internal/storage/archive"
	sigstore "github.com/newthinker/sentinel/internal/storage/signal"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the monitoring loop and HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, fromFile, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	if !fromFile {
		log.Warn("no config file specified, using defaults")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := newCollector(cfg.Collector)
	if err != nil {
		return fmt.Errorf("creating collector: %w", err)
	}

	store, err := openStore(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer store.Close()

	archiveStorage, err := archive.New(cfg.Storage.Archive)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}

	analysisCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}
	defer analysisCache.Close()

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	hub := stream.NewHub(log.Named("stream"))
	go hub.Run(ctx)

	sinks, closeSinks, err := newNotifiers(cfg.Events, hub)
	if err != nil {
		return err
	}
	defer closeSinks()

	a := app.New(cfg, src,
		app.WithLogger(log),
		app.WithStore(store),
		app.WithArchiver(archive.NewArchiver(archiveStorage, log.Named("archive"))),
		app.WithCache(analysisCache),
		app.WithMetrics(reg),
		app.WithSink(router.New(cfg.Events.Config, sinks, reg, log.Named("events"))),
	)

	restored, err := a.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restoring signals: %w", err)
	}
	interval := klineInterval(cfg.Collector.Interval)
	a.Warm(ctx, interval, cfg.Trading.WindowSize)

	server, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: cfg.Metrics.Path,
	}, api.Dependencies{App: a, Stream: hub, Metrics: reg}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	log.Info("starting sentinel",
		zap.String("addr", cfg.Server.Addr()),
		zap.Strings("watchlist", a.Watchlist()),
		zap.String("collector", src.Name()),
		zap.String("storage", cfg.Storage.Driver),
		zap.Int("restored_signals", restored),
		zap.String("warm_interval", interval),
	)

	errs := make(chan error, 2)
	go func() { errs <- server.Start() }()
	go func() { errs <- a.Start(ctx) }()

	select {
	case <-ctx.Done():
	case err := <-errs:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("component stopped", zap.Error(err))
		}
	}
	stop()
	a.Stop()

	log.Info("shutting down sentinel")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (sigstore.Store, error) {
	switch cfg.Driver {
	case "postgres":
		store, err := sigstore.NewPostgresStore(ctx, cfg.DSN, log.Named("store"))
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrating postgres: %w", err)
		}
		return store, nil
	default:
		return sigstore.NewMemoryStore(cfg.MaxSignals), nil
	}
}

// newNotifiers registers the stream hub plus every enabled external sink.
// The returned func closes the sinks that hold connections.
func newNotifiers(cfg config.EventsConfig, hub *stream.Hub) (*notifier.Registry, func(), error) {
	registry := notifier.NewRegistry()
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if err := registry.Register(hub); err != nil {
		return nil, nil, err
	}
	if cfg.Webhook.Enabled {
		w, err := webhook.New(cfg.Webhook)
		if err != nil {
			return nil, nil, fmt.Errorf("creating webhook: %w", err)
		}
		if err := registry.Register(w); err != nil {
			return nil, nil, err
		}
	}
	if cfg.Kafka.Enabled {
		p, err := kafka.New(cfg.Kafka)
		if err != nil {
			return nil, nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		closers = append(closers, p.Close)
		if err := registry.Register(p); err != nil {
			closeAll()
			return nil, nil, err
		}
	}
	return registry, closeAll, nil
}
