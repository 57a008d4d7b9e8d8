package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/nDmitry/stackfeed/internal/analytics"
	"github.com/nDmitry/stackfeed/internal/api/rest"
	"github.com/nDmitry/stackfeed/internal/app"
	"github.com/nDmitry/stackfeed/internal/cache"
	"github.com/nDmitry/stackfeed/internal/client"
	"github.com/nDmitry/stackfeed/internal/config"
	"github.com/nDmitry/stackfeed/internal/crawler"
	"github.com/nDmitry/stackfeed/internal/entity"
	"github.com/nDmitry/stackfeed/internal/feed"
	"github.com/nDmitry/stackfeed/internal/metrics"
)

func main() {
	logger := app.Logger()
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Args[1:])

	if err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}

		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	if err := app.SetLevel(cfg.LogLevel); err != nil {
		logger.Error("Failed to set log level", "error", err)
		os.Exit(1)
	}

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Received first shutdown signal, starting graceful shutdown...")
		cancel()

		// If we receive a second signal, exit immediately
		<-sigChan
		logger.Info("Received second shutdown signal, exiting immediately...")
		os.Exit(1)
	}()

	responses := cache.NewMemoryCache(cfg.CacheMaxEntries, cfg.CacheTTL.Std(), func(string) {
		metrics.CacheEvictions.Inc()
	})
	defer responses.Close()

	// Rendered feeds carry their own TTL per request
	feeds := cache.NewMemoryCache(cfg.FeedCacheEntries, entity.FeedCacheTTLMax*time.Minute, nil)
	defer feeds.Close()

	httpClient := client.New(responses, client.Options{
		UserAgent:      cfg.UserAgent,
		MinInterval:    cfg.MinInterval.Std(),
		CacheTTL:       cfg.CacheTTL.Std(),
		RequestTimeout: cfg.RequestTimeout.Std(),
		Logger:         logger,
	})

	endpoints, err := client.NewEndpoints(cfg.URLTemplate)

	if err != nil {
		logger.Error("Invalid URL template", "error", err)
		os.Exit(1)
	}

	orchestrator := crawler.New(
		client.NewRetrier(httpClient, cfg.RetryAttempts, 0, logger),
		endpoints,
		analytics.New(cfg.KeywordCount),
		crawler.Options{Workers: cfg.Workers, Logger: logger},
	)

	if cfg.WarmHandle != "" {
		go warm(ctx, orchestrator, cfg.WarmHandle, logger)
	}

	server := rest.NewServer(orchestrator, &feed.Generator{}, feeds, rest.Health{
		MinInterval: httpClient.MinInterval(),
		CacheTTL:    httpClient.CacheTTL(),
	}, cfg.Port)

	if err := server.Run(ctx); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exited gracefully")
}

// warm crawls one publication so its upstream responses are cached before
// the first request
func warm(ctx context.Context, o *crawler.Orchestrator, handle string, logger *slog.Logger) {
	result, err := o.Crawl(ctx, entity.CrawlParams{
		Handle:       handle,
		PostLimit:    entity.PostLimitDefault,
		NoteLimit:    entity.NoteLimitDefault,
		RunAnalytics: true,
	})

	if err != nil {
		logger.Warn("Warm-up crawl failed", "handle", handle, "error", err)
		return
	}

	logger.Info("Warm-up crawl finished", "handle", handle, "posts", len(result.Posts), "cadence", result.Cadence.Status)
}
