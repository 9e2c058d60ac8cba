// Package app wires every service together and runs the process: the
// follow-the-sun refresh loop plus the HTTP server, with graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"threatmap/internal/cache"
	"threatmap/internal/classify"
	"threatmap/internal/config"
	"threatmap/internal/geocode"
	"threatmap/internal/llm"
	"threatmap/internal/logger"
	"threatmap/internal/metrics"
	"threatmap/internal/normalize"
	"threatmap/internal/pipeline"
	"threatmap/internal/retry"
	"threatmap/internal/scheduler"
	"threatmap/internal/search"
	"threatmap/internal/server"
	"threatmap/internal/storage"
	"threatmap/internal/summary"
	"threatmap/internal/translate"
)

func Run() error {
	// Missing .env is fine, real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init()
	logger.Info("starting threatmap", "provider", cfg.LLMProvider, "port", cfg.Port)

	provider, err := buildLLM(cfg)
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}
	if provider != nil {
		checkLLM(provider, cfg.LLMTimeout)
	}

	m := metrics.New()

	geoCache := cache.New(cfg.GeocodeCacheTTL)
	defer geoCache.Close()
	geocoder := geocode.New(geocode.NewClient(cfg.GeocodeBaseURL, cfg.GeocodeTimeout), geoCache, m)

	normalizer := normalize.New(normalize.LoadFilters(cfg.FiltersConfigPath))
	translator := translate.New(provider)
	classifier := classify.New(provider, geocoder, m)

	providers, err := buildProviders(cfg)
	if err != nil {
		return err
	}

	seen, err := buildSeenStore(cfg)
	if err != nil {
		return fmt.Errorf("seen store: %w", err)
	}
	if seen != nil {
		defer seen.Close()
	}

	sched := scheduler.New(
		scheduler.LoadBands(cfg.BandsConfigPath),
		cfg.FallbackThreshold,
		cfg.FallbackMaxBands,
		cfg.FallbackWindow,
	)

	pipe := pipeline.New(pipeline.Params{
		Providers:   providers,
		Scheduler:   sched,
		Normalizer:  normalizer,
		Translator:  translator,
		Classifier:  classifier,
		Seen:        seen,
		Metrics:     m,
		Retry:       retry.Config{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true},
		MaxPerQuery: cfg.MaxPerQuery,
		Concurrency: cfg.FetchConcurrency,
	})

	var archive server.Archive
	if pg, ok := seen.(*storage.PostgresStore); ok {
		archive = pg
	}

	srv := server.New(summary.New(provider), m, archive, cfg.ReportTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sched.Run(ctx, func(cycleCtx context.Context) {
		report := pipe.Run(cycleCtx)
		srv.SetReport(report)
		if len(report.Errors) > 0 {
			m.SetError(report.Errors[0].Err)
		}
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}

	logger.Info("stopped")
	return nil
}

func buildLLM(cfg *config.Config) (llm.Provider, error) {
	if cfg.LLMProvider == "none" {
		logger.Warn("no llm provider configured, using keyword classification only")
		return nil, nil
	}
	return llm.NewProvider(llm.Settings{
		Provider:    cfg.LLMProvider,
		BaseURL:     cfg.LLMBaseURL,
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	})
}

// checkLLM probes the provider's model listing. A failed probe is logged
// and ignored: the pipeline degrades to keyword classification per call.
func checkLLM(provider llm.Provider, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	models, err := provider.ListModels(ctx)
	if err != nil {
		logger.Warn("llm connectivity check failed", "provider", provider.Name(), "error", err)
		return
	}
	logger.Info("llm provider ready", "provider", provider.Name(), "models", len(models))
}

func buildProviders(cfg *config.Config) ([]search.Provider, error) {
	var providers []search.Provider

	if cfg.SearchBaseURL != "" {
		providers = append(providers, search.NewClient(cfg.SearchBaseURL, cfg.SearchTimeout, cfg.RegionalTimeout))
	}

	feeds, err := search.LoadFeeds(cfg.FeedsConfigPath)
	if err != nil {
		logger.Warn("feeds config not loaded", "path", cfg.FeedsConfigPath, "error", err)
	}
	if len(feeds) > 0 {
		providers = append(providers, search.NewRSSProvider(feeds, cfg.SearchTimeout))
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no sources configured: set SEARCH_BASE_URL or provide %s", cfg.FeedsConfigPath)
	}
	return providers, nil
}

// buildSeenStore picks the cross-run dedup backend: postgres when
// DATABASE_URL is set, redis when REDIS_ADDR is set, a local file otherwise.
func buildSeenStore(cfg *config.Config) (storage.SeenStore, error) {
	switch {
	case cfg.DatabaseURL != "":
		store, err := storage.NewPostgresStore(cfg.DatabaseURL, cfg.CacheTTLHours)
		if err != nil {
			return nil, err
		}
		logger.Info("seen store: postgres")
		return store, nil
	case cfg.RedisAddr != "":
		store, err := storage.NewRedisStore(cfg.RedisAddr, cfg.CacheTTLHours)
		if err != nil {
			return nil, err
		}
		logger.Info("seen store: redis", "addr", cfg.RedisAddr)
		return store, nil
	default:
		store := storage.NewFileStore(cfg.CacheFilePath, cfg.CacheTTLHours)
		if err := store.Load(); err != nil {
			logger.Warn("seen store file not loaded", "path", cfg.CacheFilePath, "error", err)
		}
		logger.Info("seen store: file", "path", cfg.CacheFilePath)
		return store, nil
	}
}
