package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"readwatch/internal/cache"
	"readwatch/internal/config"
	"readwatch/internal/database"
	"readwatch/internal/handler"
	"readwatch/internal/logger"
	"readwatch/internal/metrics"
	"readwatch/internal/redis"
	"readwatch/internal/repository"
	"readwatch/internal/service"
	"readwatch/internal/summarizer"
)

// Run loads configuration, wires every dependency and serves until SIGINT or
// SIGTERM, then drains in-flight requests.
func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.PrettyLog)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database and apply migrations
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// 3. Optional Redis for the in-flight ingest guard
	var guard service.InflightGuard
	if cfg.RedisURL != "" {
		rdb, err := redis.Open(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, in-flight guard disabled", logger.Error(err))
		} else {
			defer rdb.Close()
			guard = cache.NewInflightGuard(rdb, cfg.InflightGuardTTL, log)
			log.Info("in-flight guard enabled", logger.Duration("ttl", cfg.InflightGuardTTL))
		}
	}

	metrics.Init()

	// 4. Repositories, services, handlers
	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewItemRepository(db)
	followRepo := repository.NewFollowRepository(db)

	userService := service.NewUserService(userRepo, followRepo)
	itemService := service.NewItemService(itemRepo, userRepo, log)
	followService := service.NewFollowService(followRepo, userRepo, log)
	feedService := service.NewFeedService(followService, itemRepo)
	ingestService := service.NewIngestService(itemRepo, newSummarizer(cfg, log), guard, cfg.InflightGuardWait, log)

	exportService, err := service.NewExportService(ctx, cfg, itemService, userService)
	if err != nil {
		return fmt.Errorf("failed to init export storage: %w", err)
	}
	if !exportService.Enabled() {
		log.Info("R2 not configured, POST /me/export disabled")
	}

	router := NewRouter(RouterConfig{
		ItemHandler:   handler.NewItemHandler(ingestService, itemService, userService, cfg.IngestRequireAuth, log),
		UserHandler:   handler.NewUserHandler(userService, log),
		FollowHandler: handler.NewFollowHandler(followService, userService, log),
		FeedHandler:   handler.NewFeedHandler(feedService, log),
		ExportHandler: handler.NewExportHandler(exportService, log),
		JWTSecret:     cfg.JWTSecret,
		Logger:        log,
		Ping:          db.PingContext,
	})

	// 5. Serve
	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	log.Info("server stopped cleanly")
	return nil
}

func newSummarizer(cfg *config.Config, log logger.Logger) summarizer.Summarizer {
	if cfg.SummarizerProvider == config.ProviderCohere {
		log.Info("summarizer: cohere", logger.String("model", cfg.CohereModel))
		return summarizer.NewCohereClient(cfg.CohereAPIKey, cfg.CohereModel, "", cfg.SummarizerTimeout, log)
	}

	var extractor *summarizer.Extractor
	if cfg.SummarizerExtractContent {
		extractor = summarizer.NewExtractor(nil, cfg.SummarizerExtractTimeout)
	}
	log.Info("summarizer: worker",
		logger.String("url", cfg.SummarizerURL),
		logger.Bool("extract_content", extractor != nil))
	return summarizer.NewWorkerClient(cfg.SummarizerURL, cfg.SummarizerTimeout, extractor, log)
}
