package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"github.com/Fedor-K/Freelanly2-sub002/internal/logger"
	"github.com/Fedor-K/Freelanly2-sub002/internal/repository"
)

// SourceProcessor runs the import pipeline for one source. Satisfied by
// ProcessorService; narrowed to an interface so runner tests can stub it.
type SourceProcessor interface {
	ProcessSource(ctx context.Context, sourceID string) (*ProcessStats, error)
}

// Scorer recomputes a source's quality score after a completed run.
// Satisfied by ScorerService.
type Scorer interface {
	RecalculateSource(ctx context.Context, sourceID string) (*ScoreResult, error)
}

// TaskInfo describes the task a tick acted on.
type TaskInfo struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Status     string `json:"status"`
	RetryCount int    `json:"retry_count,omitempty"`
}

// TickResult is the structured outcome of one runner tick.
type TickResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Task    *TaskInfo     `json:"task,omitempty"`
	Stats   *ProcessStats `json:"stats,omitempty"`
	Error   string        `json:"error,omitempty"`
	Queue   *QueueStats   `json:"queue"`
}

// StatusPendingRetry reports a failed task that remains eligible for re-pick.
const StatusPendingRetry = "PENDING_RETRY"

// RunnerService executes one import task per tick: reap, claim, process,
// record the outcome. An external scheduler invokes it on a fixed interval;
// within one tick processing is strictly sequential.
type RunnerService struct {
	queue      *ImportQueue
	taskRepo   *repository.TaskRepository
	sourceRepo *repository.SourceRepository
	processor  SourceProcessor
	scorer     Scorer
}

// NewRunnerService creates a new runner service.
// Parameters:
//   - queue: import task queue.
//   - taskRepo: task repository for outcome writes.
//   - sourceRepo: data source repository for error bookkeeping.
//   - processor: source processor invoked per task.
//   - scorer: scorer triggered after completed runs; may be nil.
// Returns:
//   - *RunnerService: initialized runner.
func NewRunnerService(
	queue *ImportQueue,
	taskRepo *repository.TaskRepository,
	sourceRepo *repository.SourceRepository,
	processor SourceProcessor,
	scorer Scorer,
) *RunnerService {
	return &RunnerService{
		queue:      queue,
		taskRepo:   taskRepo,
		sourceRepo: sourceRepo,
		processor:  processor,
		scorer:     scorer,
	}
}

// RunTick executes one tick of the task state machine. Processor failures are
// contained: they become the retry/FAILED transition and a structured result,
// never an error from this method. Only queue/storage access errors return err.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *TickResult: structured tick outcome.
//   - error: non-nil only when the queue itself is unreachable.
func (r *RunnerService) RunTick(ctx context.Context) (*TickResult, error) {
	start := time.Now()

	if _, err := r.queue.ReapStuck(ctx); err != nil {
		return nil, fmt.Errorf("failed to reap stuck tasks: %w", err)
	}

	task, err := r.queue.ClaimNext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to claim next task: %w", err)
	}
	if task == nil {
		stats, err := r.queue.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read queue stats: %w", err)
		}
		return &TickResult{
			Success: true,
			Message: "No pending tasks",
			Queue:   stats,
		}, nil
	}

	ctx = logger.SetTaskID(ctx, task.ID)
	ctx = logger.SetSourceID(ctx, task.SourceID)
	logger.CtxInfo(ctx, "Processing import task: priority=%d, retry_count=%d",
		task.Priority, task.RetryCount)

	stats, procErr := r.process(ctx, task.SourceID)

	var result *TickResult
	if procErr != nil {
		result = r.recordFailure(ctx, task, procErr)
	} else {
		result = r.recordSuccess(ctx, task, stats)
	}

	queueStats, err := r.queue.Stats(ctx)
	if err != nil {
		logger.CtxError(ctx, "Failed to read queue stats after tick: error=%v", err)
		queueStats = &QueueStats{}
	}
	result.Queue = queueStats

	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		logger.FieldStatus:     result.Task.Status,
	}).Info(ctx, "Tick completed: task_id=%s", task.ID)

	return result, nil
}

// process invokes the source processor, converting panics into errors so a
// misbehaving fetcher cannot crash the tick.
func (r *RunnerService) process(ctx context.Context, sourceID string) (stats *ProcessStats, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			stats = nil
			err = fmt.Errorf("processor panicked: %v", rec)
		}
	}()
	return r.processor.ProcessSource(ctx, sourceID)
}

// recordSuccess transitions the task to COMPLETED with the run counters and
// triggers a scoring pass for the source.
func (r *RunnerService) recordSuccess(ctx context.Context, task *domain.ImportTask, stats *ProcessStats) *TickResult {
	now := time.Now()
	task.Status = domain.TaskStatusCompleted
	task.CompletedAt = &now
	task.Error = ""
	task.TotalJobs = stats.Total
	task.ProcessedJobs = stats.Created + stats.Skipped + stats.Failed
	task.CreatedJobs = stats.Created
	task.SkippedJobs = stats.Skipped
	if err := r.taskRepo.Update(ctx, task); err != nil {
		logger.CtxError(ctx, "Failed to persist completed task: error=%v", err)
	}

	if r.scorer != nil {
		if _, err := r.scorer.RecalculateSource(ctx, task.SourceID); err != nil {
			// Scoring is deferred to the next bulk pass on failure.
			logger.CtxWarn(ctx, "Post-run scoring failed: error=%v", err)
		}
	}

	return &TickResult{
		Success: true,
		Task: &TaskInfo{
			ID:     task.ID,
			Source: task.SourceID,
			Status: string(task.Status),
		},
		Stats: stats,
	}
}

// recordFailure applies the retry/FAILED transition: the task returns to
// PENDING while retries remain, otherwise terminates in FAILED. The owning
// source's error count is incremented either way.
func (r *RunnerService) recordFailure(ctx context.Context, task *domain.ImportTask, procErr error) *TickResult {
	task.RetryCount++
	task.Error = procErr.Error()

	status := StatusPendingRetry
	if task.RetryCount >= task.MaxRetries {
		now := time.Now()
		task.Status = domain.TaskStatusFailed
		task.CompletedAt = &now
		status = string(domain.TaskStatusFailed)
	} else {
		task.Status = domain.TaskStatusPending
	}

	if err := r.taskRepo.Update(ctx, task); err != nil {
		logger.CtxError(ctx, "Failed to persist failed task: error=%v", err)
	}
	if err := r.sourceRepo.IncrementErrorCount(ctx, task.SourceID); err != nil {
		logger.CtxError(ctx, "Failed to increment source error count: error=%v", err)
	}

	logger.CtxError(ctx, "Import task failed: status=%s, retry_count=%d, error=%v",
		status, task.RetryCount, procErr)

	return &TickResult{
		Success: false,
		Task: &TaskInfo{
			ID:         task.ID,
			Source:     task.SourceID,
			Status:     status,
			RetryCount: task.RetryCount,
		},
		Error: procErr.Error(),
	}
}
