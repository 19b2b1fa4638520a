package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fedor-K/Freelanly2-sub002/internal/api"
	"github.com/Fedor-K/Freelanly2-sub002/internal/classifier"
	"github.com/Fedor-K/Freelanly2-sub002/internal/config"
	"github.com/Fedor-K/Freelanly2-sub002/internal/logger"
	"github.com/Fedor-K/Freelanly2-sub002/internal/repository"
	"github.com/Fedor-K/Freelanly2-sub002/internal/service"
	"github.com/Fedor-K/Freelanly2-sub002/internal/source"
	"github.com/Fedor-K/Freelanly2-sub002/internal/source/generic"
	"github.com/Fedor-K/Freelanly2-sub002/internal/source/lever"
	"github.com/Fedor-K/Freelanly2-sub002/internal/source/linkedin"
	"github.com/Fedor-K/Freelanly2-sub002/internal/storage"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(db); err != nil {
			appLogger.WithError(err).Fatal("Failed to run migrations")
		}
	}

	// Initialize repositories
	sourceRepo := repository.NewSourceRepository(db)
	jobRepo := repository.NewJobRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	logRepo := repository.NewImportLogRepository(db)

	// Initialize feed snapshot archive (supports MinIO, R2, S3)
	var archive storage.Archive = storage.NoopArchive{}
	if cfg.Storage.Enabled {
		s3Archive, err := storage.NewS3Archive(&storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		archive = s3Archive
	}

	// Initialize classifiers
	aiClassifier := classifier.NewOpenAIClassifier(&classifier.Config{
		Provider: cfg.Classifier.Provider,
		Model:    cfg.Classifier.Model,
		APIKey:   cfg.Classifier.APIKey,
		BaseURL:  cfg.Classifier.BaseURL,
	})
	heuristic := classifier.NewHeuristicClassifier()

	// Initialize source fetchers
	fetchers := source.NewRegistry(
		lever.NewAdapter(),
		linkedin.NewAdapter(cfg.Sources.LinkedIn.ScrapeDir),
		generic.NewAdapter(),
	)

	// Initialize services
	queue := service.NewImportQueue(taskRepo, &service.QueueConfig{
		MaxRetries:   cfg.Importer.MaxRetries,
		StuckTimeout: time.Duration(cfg.Importer.StuckTimeoutMins) * time.Minute,
	})
	scorer := service.NewScorerService(sourceRepo, logRepo)
	processor := service.NewProcessorService(
		sourceRepo,
		jobRepo,
		logRepo,
		fetchers,
		aiClassifier,
		heuristic,
		archive,
		&service.ProcessorConfig{
			CallDelay: time.Duration(cfg.Classifier.CallDelayMs) * time.Millisecond,
		},
	)
	runner := service.NewRunnerService(queue, taskRepo, sourceRepo, processor, scorer)

	// Setup router
	router := api.SetupRouter(cfg, sourceRepo, queue, runner, scorer)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
