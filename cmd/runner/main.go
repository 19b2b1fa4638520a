package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

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

// One runner tick per invocation, for cron deployments that cannot reach the
// HTTP trigger. With -ticks > 1 it loops, pausing -interval between ticks.
func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "freelanly-runner",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	ticks := flag.Int("ticks", 1, "Number of ticks to run before exiting")
	interval := flag.Duration("interval", 5*time.Second, "Pause between ticks")
	enqueueAll := flag.Bool("enqueue-all", false, "Enqueue every active source before ticking")
	rescore := flag.Bool("rescore", false, "Recalculate all source scores and exit")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

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

	// Initialize feed snapshot archive
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
		source.NewRegistry(
			lever.NewAdapter(),
			linkedin.NewAdapter(cfg.Sources.LinkedIn.ScrapeDir),
			generic.NewAdapter(),
		),
		classifier.NewOpenAIClassifier(&classifier.Config{
			Provider: cfg.Classifier.Provider,
			Model:    cfg.Classifier.Model,
			APIKey:   cfg.Classifier.APIKey,
			BaseURL:  cfg.Classifier.BaseURL,
		}),
		classifier.NewHeuristicClassifier(),
		archive,
		&service.ProcessorConfig{
			CallDelay: time.Duration(cfg.Classifier.CallDelayMs) * time.Millisecond,
		},
	)
	runner := service.NewRunnerService(queue, taskRepo, sourceRepo, processor, scorer)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	if *rescore {
		counts, err := scorer.RecalculateAll(ctx)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to recalculate scores")
		}
		appLogger.WithFields(logger.Fields{
			"high":   counts.High,
			"medium": counts.Medium,
			"low":    counts.Low,
			"failed": counts.Failed,
		}).Info("Score recalculation completed")
		return
	}

	if *enqueueAll {
		sources, err := sourceRepo.List(ctx, true)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to list sources")
		}
		created := 0
		for _, src := range sources {
			if _, ok, err := queue.Enqueue(ctx, src.ID, 0, false); err != nil {
				appLogger.WithError(err).WithField("source_id", src.ID).Error("Failed to enqueue source")
			} else if ok {
				created++
			}
		}
		appLogger.WithFields(logger.Fields{
			"sources": len(sources),
			"created": created,
		}).Info("Enqueued active sources")
	}

	for i := 0; i < *ticks; i++ {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(*interval):
			}
			if ctx.Err() != nil {
				break
			}
		}

		result, err := runner.RunTick(ctx)
		if err != nil {
			appLogger.WithError(err).Fatal("Tick failed")
		}
		if result.Task == nil {
			appLogger.WithField("pending", result.Queue.Pending).Info("No pending tasks")
			continue
		}
		entry := appLogger.WithFields(logger.Fields{
			"task_id": result.Task.ID,
			"status":  result.Task.Status,
		})
		if result.Success {
			entry.WithFields(logger.Fields{
				"total":   result.Stats.Total,
				"created": result.Stats.Created,
				"skipped": result.Stats.Skipped,
				"failed":  result.Stats.Failed,
			}).Info("Tick completed")
		} else {
			entry.WithField("error", result.Error).Error("Tick failed")
		}
	}
}
