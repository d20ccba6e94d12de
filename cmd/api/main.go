package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arizkuren/skillbluff/internal/api"
	"github.com/arizkuren/skillbluff/internal/config"
	"github.com/arizkuren/skillbluff/internal/logger"
	"github.com/arizkuren/skillbluff/internal/repository"
	"github.com/arizkuren/skillbluff/internal/service"
	"github.com/arizkuren/skillbluff/internal/storage"
	"github.com/redis/go-redis/v9"
)

func main() {
	log := logger.NewDefault()
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("Failed to get database handle")
	}
	defer sqlDB.Close()

	skillRepo := repository.NewSkillRepository(db)
	voteRepo := repository.NewVoteRepository(db)

	ctx := context.Background()

	limiter, redisClient, err := newRateLimiter(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize vote rate limiter")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	objectStorage, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}
	if objectStorage != nil {
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			log.WithError(err).Fatal("Failed to ensure storage bucket")
		}
		log.WithField("bucket", cfg.Storage.Bucket).Info("Transcript archiving enabled")
	}

	generator, err := service.NewLLMGenerator(&service.GeneratorConfig{
		Provider:    cfg.Generation.Provider,
		Model:       cfg.Generation.Model,
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Timeout:     cfg.Generation.Timeout,
		Temperature: cfg.Generation.Temperature,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize generator")
	}
	log.WithFields(logger.Fields{
		"provider": cfg.Generation.Provider,
		"model":    generator.Model(),
	}).Info("Generator configured")

	skillService := service.NewSkillService(service.SkillServiceConfig{
		Store:     skillRepo,
		Generator: generator,
		Archive:   service.NewTranscriptArchive(objectStorage),
	})
	voteService := service.NewVoteService(voteRepo, limiter)

	router := api.SetupRouter(api.Dependencies{
		Skills: skillService,
		Votes:  voteService,
		DB:     sqlDB,
		Logger: log,
	}, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}

// newRateLimiter picks the vote limiter backend. The returned client is nil
// for the memory backend.
func newRateLimiter(ctx context.Context, cfg *config.Config) (service.RateLimiter, *redis.Client, error) {
	switch cfg.RateLimit.Backend {
	case "redis":
		client, err := service.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		return service.NewRedisRateLimiter(client, cfg.RateLimit.Window, cfg.RateLimit.Prefix), client, nil
	case "memory", "":
		return service.NewMemoryRateLimiter(cfg.RateLimit.Window), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported rate limit backend %q", cfg.RateLimit.Backend)
	}
}
