package service

import (
	"context"
	"time"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"github.com/Fedor-K/Freelanly2-sub002/internal/logger"
	"github.com/Fedor-K/Freelanly2-sub002/internal/repository"
	"github.com/google/uuid"
)

// DefaultStuckTimeout is how long a task may sit in PROCESSING before the
// watchdog reaps it back to PENDING.
const DefaultStuckTimeout = 30 * time.Minute

// QueueStats holds import task counts grouped by status.
type QueueStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// ImportQueue is the durable, priority-ordered queue of import tasks.
type ImportQueue struct {
	taskRepo     *repository.TaskRepository
	maxRetries   int
	stuckTimeout time.Duration
}

// QueueConfig holds configuration for the import queue.
type QueueConfig struct {
	MaxRetries   int
	StuckTimeout time.Duration
}

// NewImportQueue creates a new import queue.
// Parameters:
//   - taskRepo: task repository.
//   - cfg: queue configuration; nil uses defaults.
// Returns:
//   - *ImportQueue: initialized queue.
func NewImportQueue(taskRepo *repository.TaskRepository, cfg *QueueConfig) *ImportQueue {
	maxRetries := domain.DefaultMaxRetries
	stuckTimeout := DefaultStuckTimeout
	if cfg != nil {
		if cfg.MaxRetries > 0 {
			maxRetries = cfg.MaxRetries
		}
		if cfg.StuckTimeout > 0 {
			stuckTimeout = cfg.StuckTimeout
		}
	}
	return &ImportQueue{
		taskRepo:     taskRepo,
		maxRetries:   maxRetries,
		stuckTimeout: stuckTimeout,
	}
}

// Enqueue schedules an import task for a source. An existing PENDING task for
// the same source is returned instead of creating a duplicate, unless force
// is set; duplicate scheduling would only burn runner ticks on the same feed.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: data source ID.
//   - priority: scheduling priority, higher runs sooner.
//   - force: create a new task even when one is already pending.
// Returns:
//   - *domain.ImportTask: the created or coalesced task.
//   - bool: true if a new task was created.
//   - error: non-nil if persistence fails.
func (q *ImportQueue) Enqueue(ctx context.Context, sourceID string, priority int, force bool) (*domain.ImportTask, bool, error) {
	if !force {
		existing, err := q.taskRepo.FindPendingBySource(ctx, sourceID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			logger.CtxDebug(ctx, "Coalesced enqueue onto pending task: source_id=%s, task_id=%s",
				sourceID, existing.ID)
			return existing, false, nil
		}
	}

	task := &domain.ImportTask{
		ID:         uuid.New().String(),
		SourceID:   sourceID,
		Status:     domain.TaskStatusPending,
		Priority:   priority,
		MaxRetries: q.maxRetries,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := q.taskRepo.Create(ctx, task); err != nil {
		return nil, false, err
	}

	logger.CtxInfo(ctx, "Enqueued import task: source_id=%s, task_id=%s, priority=%d",
		sourceID, task.ID, priority)

	return task, true, nil
}

// PeekNext returns the next runnable task without claiming it, or nil when
// the queue is empty.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *domain.ImportTask: next task or nil.
//   - error: non-nil if the query fails.
func (q *ImportQueue) PeekNext(ctx context.Context) (*domain.ImportTask, error) {
	return q.taskRepo.NextPending(ctx)
}

// ClaimNext picks the next runnable task and atomically transitions it to
// PROCESSING. Returns nil when the queue is empty. A lost claim race simply
// moves on to the next candidate.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *domain.ImportTask: the claimed task with StartedAt set, or nil.
//   - error: non-nil if a query fails.
func (q *ImportQueue) ClaimNext(ctx context.Context) (*domain.ImportTask, error) {
	for {
		task, err := q.taskRepo.NextPending(ctx)
		if err != nil {
			return nil, err
		}
		if task == nil {
			return nil, nil
		}

		now := time.Now()
		claimed, err := q.taskRepo.Claim(ctx, task.ID, now)
		if err != nil {
			return nil, err
		}
		if !claimed {
			// Another tick took it between peek and claim; try the next one.
			continue
		}

		task.Status = domain.TaskStatusProcessing
		task.StartedAt = &now
		return task, nil
	}
}

// ReapStuck resets tasks stuck in PROCESSING beyond the configured timeout.
// Runs at the start of every tick so no task can wedge the queue.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - int64: number of tasks reset.
//   - error: non-nil if the update fails.
func (q *ImportQueue) ReapStuck(ctx context.Context) (int64, error) {
	reaped, err := q.taskRepo.ResetStuck(ctx, q.stuckTimeout)
	if err != nil {
		return 0, err
	}
	if reaped > 0 {
		logger.CtxWarn(ctx, "Reaped stuck tasks back to pending: count=%d", reaped)
	}
	return reaped, nil
}

// Stats returns import task counts grouped by status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *QueueStats: counts by status.
//   - error: non-nil if the query fails.
func (q *ImportQueue) Stats(ctx context.Context) (*QueueStats, error) {
	counts, err := q.taskRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &QueueStats{
		Pending:    counts[domain.TaskStatusPending],
		Processing: counts[domain.TaskStatusProcessing],
		Completed:  counts[domain.TaskStatusCompleted],
		Failed:     counts[domain.TaskStatusFailed],
	}, nil
}
