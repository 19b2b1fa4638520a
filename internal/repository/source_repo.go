package repository

import (
	"context"
	"time"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"gorm.io/gorm"
)

// SourceRepository handles data source records.
type SourceRepository struct {
	db *gorm.DB
}

// NewSourceRepository creates a new SourceRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *SourceRepository: repository instance bound to db.
func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// Create inserts a new data source record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - src: data source record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *SourceRepository) Create(ctx context.Context, src *domain.DataSource) error {
	return r.db.WithContext(ctx).Create(src).Error
}

// GetByID retrieves a data source by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: data source ID.
// Returns:
//   - *domain.DataSource: record if found.
//   - error: non-nil if lookup fails.
func (r *SourceRepository) GetByID(ctx context.Context, id string) (*domain.DataSource, error) {
	var src domain.DataSource
	if err := r.db.WithContext(ctx).First(&src, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &src, nil
}

// List retrieves data sources, optionally only active ones.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - activeOnly: when true, filter to is_active sources.
// Returns:
//   - []domain.DataSource: matching records.
//   - error: non-nil if the query fails.
func (r *SourceRepository) List(ctx context.Context, activeOnly bool) ([]domain.DataSource, error) {
	var sources []domain.DataSource
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("created_at ASC").Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

// Update saves an existing data source record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - src: record with updated fields.
// Returns:
//   - error: non-nil if the update fails.
func (r *SourceRepository) Update(ctx context.Context, src *domain.DataSource) error {
	return r.db.WithContext(ctx).Save(src).Error
}

// RecordRunCounts applies the counters from one completed processor run:
// lifetime imports grow by created, last_fetched reflects the latest raw
// feed size, and error_count resets because the run was clean.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: data source ID.
//   - fetched: raw items seen on this run.
//   - created: jobs created on this run.
// Returns:
//   - error: non-nil if the update fails.
func (r *SourceRepository) RecordRunCounts(ctx context.Context, id string, fetched, created int) error {
	return r.db.WithContext(ctx).Model(&domain.DataSource{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_imported": gorm.Expr("total_imported + ?", created),
			"last_fetched":   fetched,
			"error_count":    0,
			"updated_at":     time.Now(),
		}).Error
}

// IncrementErrorCount bumps the consecutive-failure tally for a source.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: data source ID.
// Returns:
//   - error: non-nil if the update fails.
func (r *SourceRepository) IncrementErrorCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.DataSource{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"error_count": gorm.Expr("error_count + 1"),
			"updated_at":  time.Now(),
		}).Error
}

// UpdateQuality writes the outcome of a scoring pass. This is the only
// write path for score, conversion_rate and quality_status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: data source ID.
//   - score: computed 0-100 score.
//   - conversionRate: computed 0-100 conversion rate.
//   - status: quality tier derived from score.
//   - weeklyImported: trailing-7-day created count.
// Returns:
//   - error: non-nil if the update fails.
func (r *SourceRepository) UpdateQuality(
	ctx context.Context,
	id string,
	score int,
	conversionRate float64,
	status domain.QualityStatus,
	weeklyImported int,
) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.DataSource{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"score":           score,
			"conversion_rate": conversionRate,
			"quality_status":  status,
			"weekly_imported": weeklyImported,
			"last_score_at":   now,
			"updated_at":      now,
		}).Error
}
