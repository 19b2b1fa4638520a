package repository

import (
	"context"
	"time"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"gorm.io/gorm"
)

// ImportLogRepository handles per-run import log records.
type ImportLogRepository struct {
	db *gorm.DB
}

// NewImportLogRepository creates a new ImportLogRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *ImportLogRepository: repository instance bound to db.
func NewImportLogRepository(db *gorm.DB) *ImportLogRepository {
	return &ImportLogRepository{db: db}
}

// Create inserts a new import log record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - log: import log record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *ImportLogRepository) Create(ctx context.Context, log *domain.ImportLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// Update saves an existing import log record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - log: record with updated fields.
// Returns:
//   - error: non-nil if the update fails.
func (r *ImportLogRepository) Update(ctx context.Context, log *domain.ImportLog) error {
	return r.db.WithContext(ctx).Save(log).Error
}

// SumNewSince sums total_new over completed runs for a source since the
// given time. The scorer uses a 7-day window to derive weekly volume.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: data source ID.
//   - since: start of the window.
// Returns:
//   - int: summed created-job count.
//   - error: non-nil if the query fails.
func (r *ImportLogRepository) SumNewSince(ctx context.Context, sourceID string, since time.Time) (int, error) {
	var total *int
	err := r.db.WithContext(ctx).Model(&domain.ImportLog{}).
		Select("SUM(total_new)").
		Where("source_id = ? AND status = ? AND started_at >= ?",
			sourceID, domain.ImportLogCompleted, since).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// ListBySource retrieves recent import logs for a source, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: data source ID.
//   - limit: maximum number of records to return.
// Returns:
//   - []domain.ImportLog: matching records.
//   - error: non-nil if the query fails.
func (r *ImportLogRepository) ListBySource(ctx context.Context, sourceID string, limit int) ([]domain.ImportLog, error) {
	var logs []domain.ImportLog
	if err := r.db.WithContext(ctx).
		Where("source_id = ?", sourceID).
		Order("started_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
