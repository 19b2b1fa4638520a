package api

import (
	"github.com/Fedor-K/Freelanly2-sub002/internal/api/handler"
	"github.com/Fedor-K/Freelanly2-sub002/internal/api/middleware"
	"github.com/Fedor-K/Freelanly2-sub002/internal/config"
	"github.com/Fedor-K/Freelanly2-sub002/internal/repository"
	"github.com/Fedor-K/Freelanly2-sub002/internal/service"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	cfg *config.Config,
	sourceRepo *repository.SourceRepository,
	queue *service.ImportQueue,
	runner *service.RunnerService,
	scorer *service.ScorerService,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	sourceHandler := handler.NewSourceHandler(sourceRepo, scorer, queue)
	runnerHandler := handler.NewRunnerHandler(runner, queue, scorer)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Sources
		v1.GET("/sources", sourceHandler.List)
		v1.POST("/sources", sourceHandler.Create)
		v1.GET("/sources/:id", sourceHandler.Get)
		v1.PATCH("/sources/:id", sourceHandler.Update)
		v1.POST("/sources/:id/enqueue", sourceHandler.Enqueue)
		v1.POST("/sources/:id/recalculate", sourceHandler.Recalculate)

		// Scheduler-facing endpoints behind the shared secret
		internal := v1.Group("/internal", middleware.CronAuth(cfg.Cron.Secret))
		{
			internal.POST("/import/run", runnerHandler.RunTick)
			internal.GET("/import/status", runnerHandler.QueueStatus)
			internal.POST("/scores/recalculate", runnerHandler.RecalculateScores)
		}
	}

	return r
}
