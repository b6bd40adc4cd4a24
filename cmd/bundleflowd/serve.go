package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/bundleflow/api"
	"github.com/BaSui01/bundleflow/cache"
	"github.com/BaSui01/bundleflow/config"
	"github.com/BaSui01/bundleflow/fetch"
	"github.com/BaSui01/bundleflow/internal/metrics"
	"github.com/BaSui01/bundleflow/internal/server"
	"github.com/BaSui01/bundleflow/internal/telemetry"
	"github.com/BaSui01/bundleflow/loader"
	"github.com/BaSui01/bundleflow/registry"
	"github.com/BaSui01/bundleflow/runtime"
)

// Server wires the loader stack behind the admin HTTP surface.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager *server.Manager
	bundles     *loader.Loader
	resolver    *registry.GormResolver
	providers   *telemetry.Providers

	rateLimiterCancel context.CancelFunc
}

// NewServer creates an unstarted server.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Start builds all components and begins serving. It returns once the
// listener is accepting connections.
func (s *Server) Start() error {
	providers, err := telemetry.Init(s.cfg.Telemetry, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	s.providers = providers

	db, err := registry.Open(registry.Config{
		Driver:          s.cfg.Registry.Driver,
		DSN:             s.cfg.Registry.DSN,
		MaxIdleConns:    s.cfg.Registry.MaxIdleConns,
		MaxOpenConns:    s.cfg.Registry.MaxOpenConns,
		ConnMaxLifetime: s.cfg.Registry.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	s.resolver, err = registry.NewGormResolver(db, s.logger)
	if err != nil {
		return fmt.Errorf("create resolver: %w", err)
	}

	disk, err := cache.NewDiskCache(s.cfg.Cache.Dir, s.logger)
	if err != nil {
		return fmt.Errorf("open disk cache: %w", err)
	}

	fetcher, err := s.buildFetcher()
	if err != nil {
		return err
	}
	materializer, err := s.buildMaterializer()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector("bundleflow", reg, s.logger)

	s.bundles, err = loader.New(s.resolver, cache.NewMemoryCache(s.logger), disk,
		fetcher, materializer,
		loader.WithLogger(s.logger),
		loader.WithMetrics(collector),
		loader.WithPreloadConcurrency(s.cfg.Preload.Concurrency),
	)
	if err != nil {
		return fmt.Errorf("create loader: %w", err)
	}

	mux := api.NewMux(s.bundles, s.resolver, s.logger)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	rateLimiterCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		Tracing(),
		RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst),
	)

	s.httpManager = server.NewManager(handler, server.Config{
		Addr:            s.cfg.Server.Addr,
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     s.cfg.Server.IdleTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}
	s.logger.Info("HTTP server started", zap.String("addr", s.httpManager.Addr()))

	if len(s.cfg.Preload.Keys) > 0 {
		go func() {
			result := s.bundles.PreloadPackages(context.Background(), s.cfg.Preload.Keys)
			s.logger.Info("startup preload finished",
				zap.Int("succeeded", result.Succeeded),
				zap.Int("failed", result.Failed))
		}()
	}

	return nil
}

func (s *Server) buildFetcher() (fetch.Fetcher, error) {
	httpFetcher := fetch.NewHTTPFetcher(fetch.HTTPConfig{
		Timeout:        s.cfg.Fetch.Timeout,
		MaxBundleBytes: s.cfg.Fetch.MaxBundleBytes,
		RatePerSecond:  s.cfg.Fetch.RatePerSecond,
		RateBurst:      s.cfg.Fetch.RateBurst,
	}, s.logger)

	mux := fetch.NewSchemeMux()
	mux.Register("http", httpFetcher)
	mux.Register("https", httpFetcher)

	if s.cfg.Fetch.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     s.cfg.Fetch.Redis.Addr,
			Password: s.cfg.Fetch.Redis.Password,
			DB:       s.cfg.Fetch.Redis.DB,
		})
		mux.Register("redis", fetch.NewRedisFetcher(client, s.logger))
		s.logger.Info("redis bundle store enabled", zap.String("addr", s.cfg.Fetch.Redis.Addr))
	}
	return mux, nil
}

func (s *Server) buildMaterializer() (runtime.Materializer, error) {
	switch s.cfg.Runtime.Format {
	case "plugin":
		return runtime.NewPluginMaterializer(s.cfg.Runtime.LibDir, s.logger)
	default:
		return runtime.NewManifestMaterializer(s.logger), nil
	}
}

// WaitForShutdown blocks until a shutdown signal arrives, then cleans up.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops all components in reverse start order.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")
	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if s.providers != nil {
		if err := s.providers.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
