package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/geomag-gtf-service/internal/adapter/activitycache"
	"github.com/couchcryptid/geomag-gtf-service/internal/adapter/gfz"
	httpadapter "github.com/couchcryptid/geomag-gtf-service/internal/adapter/http"
	"github.com/couchcryptid/geomag-gtf-service/internal/adapter/igrf"
	kafkaadapter "github.com/couchcryptid/geomag-gtf-service/internal/adapter/kafka"
	"github.com/couchcryptid/geomag-gtf-service/internal/config"
	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
	"github.com/couchcryptid/geomag-gtf-service/internal/observability"
	"github.com/couchcryptid/geomag-gtf-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	model, err := config.LoadModel(cfg.ModelConfig)
	if err != nil {
		logger.Error("failed to load model", "path", cfg.ModelConfig, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	field := igrf.NewCachedProvider(
		igrf.NewClient(cfg.IGRFBaseURL, cfg.IGRFAPIKey, cfg.IGRFTimeout, metrics, logger),
		cfg.IGRFCacheSize, metrics)
	if cfg.IGRFAPIKey == "" {
		logger.Warn("IGRF_API_KEY is not set; field model requests will likely be rejected")
	}

	calc, err := domain.NewCalculator(field, model)
	if err != nil {
		logger.Error("failed to create calculator", "error", err)
		os.Exit(1)
	}

	ready := httpadapter.ReadinessChecks{}

	// Kp lookups are optional (feature-flagged via KP_ENABLED).
	var activity domain.ActivitySource
	if cfg.KpEnabled {
		store, closeStore, err := newKpStore(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to create kp cache", "backend", cfg.KpCacheBackend, "error", err)
			os.Exit(1)
		}
		defer closeStore()
		if r, ok := store.(*activitycache.Redis); ok {
			ready = append(ready, httpadapter.ReadinessFunc(r.Ping))
		}
		client := gfz.NewClient(cfg.KpBaseURL, cfg.KpTimeout, metrics, logger)
		activity = activitycache.NewCachedSource(client, store, metrics, logger)
		logger.Info("kp index enabled", "cache", cfg.KpCacheBackend, "ttl", cfg.KpCacheTTL)
	} else {
		logger.Info("kp index disabled", "fallback", cfg.KpFallback)
	}

	assessor := pipeline.NewAssessor(calc, activity, cfg.KpFallback, clockwork.NewRealClock(), metrics, logger)

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		p      *pipeline.Pipeline
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p = pipeline.New(reader, pipeline.NewTransformer(assessor, logger), writer, logger, metrics, cfg.BatchSize)
		ready = append(ready, p)
	} else {
		logger.Info("kafka pipeline disabled; serving http only")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, assessor, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start pipeline.
	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func newKpStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (activitycache.Store, func(), error) {
	if cfg.KpCacheBackend == config.CacheBackendRedis {
		r, err := activitycache.NewRedis(ctx, activitycache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.KpCacheTTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, func() {
			if err := r.Close(); err != nil {
				logger.Error("redis close error", "error", err)
			}
		}, nil
	}
	return activitycache.NewMemory(cfg.KpCacheTTL, clockwork.NewRealClock()), func() {}, nil
}
