package handler

import (
	"net/http"

	"github.com/Fedor-K/Freelanly2-sub002/internal/logger"
	"github.com/Fedor-K/Freelanly2-sub002/internal/service"
	"github.com/gin-gonic/gin"
)

// RunnerHandler exposes the task runner and scorer to the external scheduler.
type RunnerHandler struct {
	runner *service.RunnerService
	queue  *service.ImportQueue
	scorer *service.ScorerService
}

// NewRunnerHandler creates a new runner handler.
// Parameters:
//   - runner: runner service executing one tick per invocation.
//   - queue: import queue for the read-only status endpoint.
//   - scorer: scorer service for bulk recalculation.
// Returns:
//   - *RunnerHandler: initialized handler.
func NewRunnerHandler(
	runner *service.RunnerService,
	queue *service.ImportQueue,
	scorer *service.ScorerService,
) *RunnerHandler {
	return &RunnerHandler{
		runner: runner,
		queue:  queue,
		scorer: scorer,
	}
}

// RunTick executes one runner tick.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *RunnerHandler) RunTick(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.runner.RunTick(ctx)
	if err != nil {
		logger.CtxError(ctx, "Runner tick failed: error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// QueueStatus returns import task counts without side effects.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *RunnerHandler) QueueStatus(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.queue.Stats(ctx)
	if err != nil {
		logger.CtxError(ctx, "Failed to read queue stats: error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"queue": stats})
}

// RecalculateScores runs a bulk scoring pass over every source.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *RunnerHandler) RecalculateScores(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.scorer.RecalculateAll(ctx)
	if err != nil {
		logger.CtxError(ctx, "Score recalculation failed: error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "tiers": counts})
}
