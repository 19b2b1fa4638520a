package handler

import (
	"errors"
	"net/http"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"github.com/Fedor-K/Freelanly2-sub002/internal/logger"
	"github.com/Fedor-K/Freelanly2-sub002/internal/repository"
	"github.com/Fedor-K/Freelanly2-sub002/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SourceHandler implements the source admin endpoints.
type SourceHandler struct {
	sourceRepo *repository.SourceRepository
	scorer     *service.ScorerService
	queue      *service.ImportQueue
}

// NewSourceHandler creates a new source handler.
// Parameters:
//   - sourceRepo: data source repository.
//   - scorer: scorer service for per-source recalculation.
//   - queue: import queue for manual enqueue.
// Returns:
//   - *SourceHandler: initialized handler.
func NewSourceHandler(
	sourceRepo *repository.SourceRepository,
	scorer *service.ScorerService,
	queue *service.ImportQueue,
) *SourceHandler {
	return &SourceHandler{
		sourceRepo: sourceRepo,
		scorer:     scorer,
		queue:      queue,
	}
}

type createSourceRequest struct {
	Name     string              `json:"name" binding:"required"`
	Type     domain.SourceType   `json:"type" binding:"required"`
	Config   domain.SourceConfig `json:"config"`
	Tags     []string            `json:"tags"`
	IsActive *bool               `json:"is_active"`
}

type updateSourceRequest struct {
	Name     *string              `json:"name"`
	Config   *domain.SourceConfig `json:"config"`
	Tags     *[]string            `json:"tags"`
	IsActive *bool                `json:"is_active"`
}

type enqueueRequest struct {
	Priority int  `json:"priority"`
	Force    bool `json:"force"`
}

// List returns all registered data sources.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SourceHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	activeOnly := c.Query("active") == "true"

	sources, err := h.sourceRepo.List(ctx, activeOnly)
	if err != nil {
		logger.CtxError(ctx, "Failed to list sources: error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sources": sources, "count": len(sources)})
}

// Create registers a new data source.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SourceHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req createSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Type {
	case domain.SourceTypeLever, domain.SourceTypeLinkedIn, domain.SourceTypeGenericATS:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported source type: " + string(req.Type)})
		return
	}

	src := &domain.DataSource{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Type:          req.Type,
		Config:        req.Config,
		Tags:          req.Tags,
		QualityStatus: domain.QualityUnscored,
		IsActive:      true,
	}
	if req.IsActive != nil {
		src.IsActive = *req.IsActive
	}

	if err := h.sourceRepo.Create(ctx, src); err != nil {
		logger.CtxError(ctx, "Failed to create source: name=%s, error=%v", req.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.CtxInfo(ctx, "Source created: id=%s, name=%s, type=%s", src.ID, src.Name, src.Type)
	c.JSON(http.StatusCreated, src)
}

// Get returns one data source by ID.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SourceHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	src, err := h.sourceRepo.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
			return
		}
		logger.CtxError(ctx, "Failed to get source: error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, src)
}

// Update applies a partial update to a data source. Counter and score fields
// are not writable here; only the scorer and the run bookkeeping touch them.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SourceHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	var req updateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src, err := h.sourceRepo.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		src.Name = *req.Name
	}
	if req.Config != nil {
		src.Config = *req.Config
	}
	if req.Tags != nil {
		src.Tags = *req.Tags
	}
	if req.IsActive != nil {
		src.IsActive = *req.IsActive
	}

	if err := h.sourceRepo.Update(ctx, src); err != nil {
		logger.CtxError(ctx, "Failed to update source: id=%s, error=%v", src.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, src)
}

// Enqueue creates an import task for a source. Without force, an existing
// pending task for the same source is returned instead of creating another.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SourceHandler) Enqueue(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.sourceRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	task, created, err := h.queue.Enqueue(ctx, id, req.Priority, req.Force)
	if err != nil {
		logger.CtxError(ctx, "Failed to enqueue import task: source_id=%s, error=%v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"task": task, "created": created})
}

// Recalculate recomputes the quality score for one source.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SourceHandler) Recalculate(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	result, err := h.scorer.RecalculateSource(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
			return
		}
		logger.CtxError(ctx, "Failed to recalculate score: source_id=%s, error=%v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
