package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"gorm.io/gorm"
)

// TaskRepository handles import task records.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *TaskRepository: repository instance bound to db.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new import task record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - task: import task record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *TaskRepository) Create(ctx context.Context, task *domain.ImportTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByID retrieves an import task by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: import task ID.
// Returns:
//   - *domain.ImportTask: record if found.
//   - error: non-nil if lookup fails.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.ImportTask, error) {
	var task domain.ImportTask
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// NextPending returns the next runnable task: pending, with retries left,
// highest priority first and oldest within a priority. Returns nil when the
// queue is empty.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *domain.ImportTask: next task or nil.
//   - error: non-nil if the query fails.
func (r *TaskRepository) NextPending(ctx context.Context) (*domain.ImportTask, error) {
	var task domain.ImportTask
	err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < max_retries", domain.TaskStatusPending).
		Order("priority DESC").
		Order("created_at ASC").
		First(&task).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// Claim transitions a task from PENDING to PROCESSING with a conditional
// update, so two overlapping runner ticks cannot both take it. Returns false
// when the task was already claimed or is no longer pending.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: import task ID.
//   - startedAt: processing start timestamp to record.
// Returns:
//   - bool: true if this caller won the claim.
//   - error: non-nil if the update fails.
func (r *TaskRepository) Claim(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.ImportTask{}).
		Where("id = ? AND status = ?", id, domain.TaskStatusPending).
		Updates(map[string]interface{}{
			"status":     domain.TaskStatusProcessing,
			"started_at": startedAt,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ResetStuck reaps tasks stuck in PROCESSING longer than the timeout back to
// PENDING, incrementing retry_count and recording an explanatory error. This
// is a cooperative watchdog: a genuinely hung processor call is not killed,
// only its bookkeeping is reset. Reaped tasks whose retry budget is spent are
// finalized as FAILED instead of lingering as unclaimable pending rows.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - timeout: how long a task may stay in PROCESSING.
// Returns:
//   - int64: number of tasks reset or finalized.
//   - error: non-nil if the update fails.
func (r *TaskRepository) ResetStuck(ctx context.Context, timeout time.Duration) (int64, error) {
	cutoff := time.Now().Add(-timeout)
	msg := fmt.Sprintf("Task timed out after %d minutes", int(timeout.Minutes()))
	res := r.db.WithContext(ctx).Model(&domain.ImportTask{}).
		Where("status = ? AND started_at < ?", domain.TaskStatusProcessing, cutoff).
		Updates(map[string]interface{}{
			"status":      domain.TaskStatusPending,
			"retry_count": gorm.Expr("retry_count + 1"),
			"error":       msg,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	fin := r.db.WithContext(ctx).Model(&domain.ImportTask{}).
		Where("status = ? AND retry_count >= max_retries", domain.TaskStatusPending).
		Updates(map[string]interface{}{
			"status":       domain.TaskStatusFailed,
			"completed_at": time.Now(),
			"updated_at":   time.Now(),
		})
	if fin.Error != nil {
		return 0, fin.Error
	}
	return res.RowsAffected, nil
}

// Update saves an existing import task record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - task: record with updated fields.
// Returns:
//   - error: non-nil if the update fails.
func (r *TaskRepository) Update(ctx context.Context, task *domain.ImportTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// FindPendingBySource returns the oldest runnable pending task for a source,
// or nil. Used by the queue to coalesce duplicate scheduling; tasks with a
// spent retry budget are never coalesce targets.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: data source ID.
// Returns:
//   - *domain.ImportTask: pending task or nil.
//   - error: non-nil if the query fails.
func (r *TaskRepository) FindPendingBySource(ctx context.Context, sourceID string) (*domain.ImportTask, error) {
	var task domain.ImportTask
	err := r.db.WithContext(ctx).
		Where("source_id = ? AND status = ? AND retry_count < max_retries", sourceID, domain.TaskStatusPending).
		Order("created_at ASC").
		First(&task).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// CountByStatus counts import tasks grouped by status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - map[domain.TaskStatus]int64: counts keyed by status.
//   - error: non-nil if the query fails.
func (r *TaskRepository) CountByStatus(ctx context.Context) (map[domain.TaskStatus]int64, error) {
	type row struct {
		Status domain.TaskStatus
		N      int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&domain.ImportTask{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[domain.TaskStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.N
	}
	return counts, nil
}
