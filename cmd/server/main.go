package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/flashdeck/internal/api"
	"github.com/vytor/flashdeck/internal/config"
	"github.com/vytor/flashdeck/internal/db"
	"github.com/vytor/flashdeck/internal/jobs"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/multimedia"
	"github.com/vytor/flashdeck/internal/repository"
	"github.com/vytor/flashdeck/internal/repository/redis"
	"github.com/vytor/flashdeck/internal/repository/sqlite"
	"github.com/vytor/flashdeck/internal/scheduler"
	"github.com/vytor/flashdeck/internal/services"
	"github.com/vytor/flashdeck/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("FlashDeck Server Starting")
	log.Info("===========================================")
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("cache_ttl=%s", cfg.CacheTTL)
	log.Debug("cache_purge_interval=%s", cfg.CachePurgeInterval)
	log.Debug("redis_enabled=%t", cfg.RedisAddr != "")
	log.Debug("multimedia_timeout=%s", cfg.MultimediaTimeout)
	log.Debug("pixabay_configured=%t", cfg.PixabayAPIKey != "")
	log.Debug("prefetch_worker_count=%d", cfg.PrefetchWorkers)
	log.Debug("prefetch_queue_size=%d", cfg.PrefetchQueueSize)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	cacheStore, closeCache, err := openCacheStore(cfg, database)
	if err != nil {
		log.Error("failed to open cache store: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeCache(); err != nil {
			log.Warn("failed to close cache store: %v", err)
		}
	}()

	// Initialize services
	deckService := services.NewDeckProgressService(sqlite.NewTabularStore(database.DB))
	multimediaCache := services.NewMultimediaCache(cacheStore, cfg.CacheTTL)
	multimediaService := services.NewMultimediaService(multimedia.New(multimedia.Config{
		DictionaryURL: cfg.DictionaryAPIURL,
		PixabayURL:    cfg.PixabayAPIURL,
		PixabayKey:    cfg.PixabayAPIKey,
		Timeout:       cfg.MultimediaTimeout,
	}), multimediaCache)

	prefetchPool := worker.NewPool(cfg.PrefetchWorkers, cfg.PrefetchQueueSize)
	purger := scheduler.New(multimediaCache, cfg.CachePurgeInterval)

	srv := &api.Server{
		Decks:      deckService,
		Multimedia: multimediaService,
		Jobs:       jobs.NewWorkerQueue(prefetchPool, multimediaService),
		Health:     database,
		IsAdmin:    cfg.IsAdmin,
	}

	ctx, cancel := context.WithCancel(context.Background())
	prefetchPool.Start(ctx)
	if err := purger.Start(); err != nil {
		log.Error("failed to start scheduler: %v", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping scheduler")
	purger.Stop()

	log.Debug("stopping prefetch pool")
	cancel()
	prefetchPool.Stop()

	log.Info("===========================================")
	log.Info("FlashDeck Server Stopped")
	log.Info("===========================================")
}

// openCacheStore uses Redis when REDIS_ADDR is set and the SQLite cache table
// otherwise.
func openCacheStore(cfg config.Config, database *db.DB) (repository.CacheStore, func() error, error) {
	if cfg.RedisAddr != "" {
		logger.Default().Info("using redis cache store at %s", cfg.RedisAddr)
		return redis.NewCacheStore(cfg.RedisAddr, cfg.CacheTTL)
	}
	return sqlite.NewCacheStore(database.DB), func() error { return nil }, nil
}
