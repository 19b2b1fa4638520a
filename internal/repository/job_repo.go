package repository

import (
	"context"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"gorm.io/gorm"
)

// JobRepository handles job posting records.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *JobRepository: repository instance bound to db.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// ExistsBySourceURL checks whether a job with the given source URL exists.
// This is the pipeline's deduplication check.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceURL: posting URL used as the dedup key.
// Returns:
//   - bool: true if a record exists.
//   - error: non-nil if the lookup fails.
func (r *JobRepository) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Job{}).
		Where("source_url = ?", sourceURL).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByID retrieves a job by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - *domain.Job: record if found.
//   - error: non-nil if lookup fails.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	var job domain.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// CountBySource counts jobs created from a given source type.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceType: source type to count.
// Returns:
//   - int64: number of matching records.
//   - error: non-nil if the query fails.
func (r *JobRepository) CountBySource(ctx context.Context, sourceType domain.SourceType) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Job{}).
		Where("source_type = ?", sourceType).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
