package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"planpro/internal/cache"
	"planpro/internal/config"
	"planpro/internal/geo"
	"planpro/internal/handler"
	"planpro/internal/hub"
	"planpro/internal/importer"
	"planpro/internal/ingestor"
	"planpro/internal/middleware"
	"planpro/internal/store"
	"planpro/pkg/planpro"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	version, err := planpro.ParseVersion(cfg.PlanProVersion)
	if err != nil {
		logger.Error("invalid PlanPro version", "error", err)
		os.Exit(1)
	}

	opts := importer.Options{
		Version:           version,
		CoordinateSystem:  cfg.CoordinateSystem,
		SkipDanglingEdges: cfg.SkipDanglingEdges,
	}
	if cfg.GeoDensify {
		opts.Converter = geo.NewArcDensifier(cfg.GeoDensifySpacing)
	}

	metrics := importer.NewMetrics()
	loader := planpro.NewLoader(cfg.LoadTimeout, logger)
	imp := importer.New(loader, opts, metrics, logger)

	if !cfg.Serve {
		os.Exit(runOnce(cfg, imp, logger))
	}

	os.Exit(serve(cfg, loader, imp, metrics, logger))
}

// runOnce imports the configured file and prints the result summary.
func runOnce(cfg *config.Config, imp *importer.Importer, logger *slog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := imp.Import(ctx, cfg.PlanProFile)
	if err != nil {
		logger.Error("import failed", "file", cfg.PlanProFile, "error", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("failed to write result", "error", err)
		return 1
	}
	return 0
}

func serve(cfg *config.Config, loader *planpro.Loader, imp *importer.Importer, metrics *importer.Metrics, logger *slog.Logger) int {
	logger.Info("starting planpro server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"file", cfg.PlanProFile,
		"reload_interval", cfg.ReloadInterval,
		"redis_enabled", cfg.RedisEnabled,
	)

	topologyStore := store.New(cfg.GridCellSize)
	wsHub := hub.NewHub(logger)
	ing := ingestor.New(cfg.PlanProFile, loader, imp, topologyStore, cfg.ReloadInterval, logger)
	ing.SetPublisher(wsHub)

	healthHandler := handler.NewHealthHandler(ing, topologyStore)

	if cfg.RedisEnabled {
		redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Warn("redis unavailable, running without snapshot cache", "error", err)
		} else {
			defer redisCache.Close()
			ing.SetCache(countingCache{cache.NewSnapshotCache(redisCache, cfg.CacheTTL, logger)})
			healthHandler.SetCache(redisCache)
		}
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerWindow, cfg.RateLimitWindow, cfg.RateLimitWhitelist, logger)

	httpHandler := handler.NewHTTPHandler(topologyStore)
	wsHandler := handler.NewWSHandler(wsHub, topologyStore, cfg.CORSOrigins, logger)
	statsHandler := handler.NewStatsHandler(topologyStore, wsHub, limiter)

	api := http.NewServeMux()
	api.HandleFunc("GET /v1/topology", httpHandler.GetTopology)
	api.HandleFunc("GET /v1/nodes", httpHandler.ListNodes)
	api.HandleFunc("GET /v1/nodes/{id}", httpHandler.GetNode)
	api.HandleFunc("GET /v1/edges", httpHandler.ListEdges)
	api.HandleFunc("GET /v1/edges/{id}", httpHandler.GetEdge)
	api.HandleFunc("GET /v1/signals", httpHandler.ListSignals)
	api.HandleFunc("GET /v1/signals/{id}", httpHandler.GetSignal)
	api.HandleFunc("GET /v1/routes", httpHandler.ListRoutes)
	api.HandleFunc("GET /v1/routes/{id}", httpHandler.GetRoute)
	api.HandleFunc("GET /v1/diagnostics", httpHandler.ListDiagnostics)
	api.HandleFunc("GET /v1/export.geojson", httpHandler.ExportGeoJSON)
	api.HandleFunc("GET /v1/export.msgpack", httpHandler.ExportMsgpack)
	api.HandleFunc("GET /v1/stats", statsHandler.GetStats)

	cors := handler.CORSMiddleware(cfg.CORSOrigins)

	mux := http.NewServeMux()
	mux.Handle("/v1/", handler.CountRequests(cors(limiter.Middleware(handler.GzipMiddleware(api)))))
	mux.HandleFunc("/v1/ws", wsHandler.ServeWS)
	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go wsHub.Run(ctx)
	go limiter.Run(ctx)
	go ing.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	code := 0
	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("HTTP server error", "error", err)
		code = 1
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return code
}

// countingCache feeds snapshot cache hits and misses into the server stats.
type countingCache struct {
	*cache.SnapshotCache
}

func (c countingCache) Load(ctx context.Context, fingerprint string) (*importer.Result, bool, error) {
	result, ok, err := c.SnapshotCache.Load(ctx, fingerprint)
	if ok {
		handler.ServerStats.IncCacheHits()
	} else if err == nil {
		handler.ServerStats.IncCacheMisses()
	}
	return result, ok, err
}
