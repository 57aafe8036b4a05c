package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"todo-list/internal/config"
	"todo-list/internal/featureflag"
	"todo-list/internal/httpapi"
	"todo-list/internal/middleware"
	"todo-list/internal/repository"
	"todo-list/internal/service"
	"todo-list/internal/storage"
	"todo-list/internal/theme"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg.ConfigureLogging()

	// Spans are sampled and carry trace ids; no exporter is attached.
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("tracer provider shutdown failed")
		}
	}()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis url: %v", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	taskRepo, categoryRepo, closeStore := openRepositories(cfg, rdb)
	defer closeStore()

	taskSvc := service.NewTaskService(taskRepo)
	categorySvc := service.NewCategoryService(categoryRepo)

	flags := featureflag.NewService(flagSource(cfg, rdb), featureflag.Settings{
		FetchTimeout:     cfg.FlagFetchTimeout,
		MinFetchInterval: cfg.FlagMinFetchInterval,
	})
	doc := theme.NewMemoryDocument()
	coordinator := theme.NewCoordinator(doc, theme.StaticPreference(cfg.SystemColorScheme), flags.DarkMode(), flags)
	defer coordinator.Close()

	// The theme follows the flag as soon as the first fetch settles.
	go flags.Initialize(ctx)

	scheduler := service.NewSchedulerService(time.Local)
	if cfg.FlagRefreshInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.FlagRefreshInterval, func() {
			if !flags.Refresh(ctx) {
				log.Debug("scheduled remote config refresh did not update flags")
			}
		}); err != nil {
			log.Fatalf("schedule flag refresh: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Options{
			Tasks:      taskSvc,
			Categories: categorySvc,
			Flags:      flags,
			Theme:      coordinator,
			Document:   doc,
			Limiter:    middleware.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
			Logger:     log.StandardLogger(),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"addr": cfg.HTTPAddr, "backend": cfg.StorageBackend}).Info("todo service started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped with error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("Shutdown complete.")
}

// openRepositories picks the repository implementation for the configured
// backend. The returned func releases the underlying store.
func openRepositories(cfg config.Config, rdb *redis.Client) (repository.TaskStore, repository.CategoryStore, func()) {
	switch cfg.StorageBackend {
	case config.BackendRemote:
		return repository.NewRedisTaskRepository(rdb, cfg.RedisPrefix),
			repository.NewRedisCategoryRepository(rdb, cfg.RedisPrefix),
			func() {}
	case config.BackendMemory:
		store := storage.NewMemoryStore()
		return repository.NewTaskRepository(store), repository.NewCategoryRepository(store), func() {}
	}

	db, err := storage.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	closeDB := func() {}
	if sqlDB, err := db.DB(); err == nil {
		closeDB = func() { _ = sqlDB.Close() }
	}
	store := storage.NewSQLiteStore(db)
	return repository.NewTaskRepository(store), repository.NewCategoryRepository(store), closeDB
}

func flagSource(cfg config.Config, rdb *redis.Client) featureflag.Source {
	switch {
	case cfg.RemoteConfigRedisKey != "" && rdb != nil:
		return featureflag.NewRedisSource(rdb, cfg.RemoteConfigRedisKey)
	case cfg.RemoteConfigURL != "":
		return featureflag.NewHTTPSource(cfg.RemoteConfigURL, &http.Client{})
	}
	log.Info("no remote config source configured")
	return featureflag.UnsupportedSource{}
}
