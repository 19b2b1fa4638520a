package service

import (
	"context"
	"math"
	"time"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"github.com/Fedor-K/Freelanly2-sub002/internal/logger"
	"github.com/Fedor-K/Freelanly2-sub002/internal/repository"
)

// Weights and saturation points of the quality formula.
const (
	conversionWeight = 0.4
	activityWeight   = 0.3
	stabilityWeight  = 0.3

	// weeklySaturation is the weekly created-job count at which the
	// activity component maxes out.
	weeklySaturation = 50

	// errorPenalty is the stability cost per recorded error.
	errorPenalty = 20

	highThreshold   = 70
	mediumThreshold = 40

	weeklyWindow = 7 * 24 * time.Hour
)

// ScoreResult is the outcome of one score computation.
type ScoreResult struct {
	Score          int
	ConversionRate float64
	QualityStatus  domain.QualityStatus
}

// CalculateScore computes a source quality score from accumulated statistics.
// Pure: same inputs always produce the same result.
//
// When lastFetched is zero the conversion component falls back to 50 for any
// source that has imported at least one job. The asymmetry is deliberate: it
// gives sources without fetch-count telemetry a neutral conversion grade
// instead of zeroing them out.
// Parameters:
//   - totalImported: lifetime count of jobs created from the source.
//   - lastFetched: raw items seen on the most recent run.
//   - weeklyImported: jobs created in the trailing 7 days.
//   - errorCount: recorded error tally.
// Returns:
//   - ScoreResult: score, conversion rate and quality tier.
func CalculateScore(totalImported, lastFetched, weeklyImported, errorCount int) ScoreResult {
	var conversionRate float64
	switch {
	case lastFetched > 0:
		conversionRate = math.Min(100, float64(totalImported)/float64(lastFetched)*100)
	case totalImported > 0:
		conversionRate = 50
	default:
		conversionRate = 0
	}

	activityScore := math.Min(100, float64(weeklyImported)/weeklySaturation*100)
	stabilityScore := math.Max(0, 100-float64(errorCount)*errorPenalty)

	score := int(math.Round(
		conversionRate*conversionWeight +
			activityScore*activityWeight +
			stabilityScore*stabilityWeight,
	))

	var status domain.QualityStatus
	switch {
	case score >= highThreshold:
		status = domain.QualityHigh
	case score >= mediumThreshold:
		status = domain.QualityMedium
	default:
		status = domain.QualityLow
	}

	return ScoreResult{
		Score:          score,
		ConversionRate: conversionRate,
		QualityStatus:  status,
	}
}

// ScorerService recomputes source quality scores from persisted statistics.
type ScorerService struct {
	sourceRepo *repository.SourceRepository
	logRepo    *repository.ImportLogRepository
}

// NewScorerService creates a new scorer service.
// Parameters:
//   - sourceRepo: data source repository.
//   - logRepo: import log repository for the weekly volume query.
// Returns:
//   - *ScorerService: initialized scorer.
func NewScorerService(
	sourceRepo *repository.SourceRepository,
	logRepo *repository.ImportLogRepository,
) *ScorerService {
	return &ScorerService{
		sourceRepo: sourceRepo,
		logRepo:    logRepo,
	}
}

// RecalculateSource recomputes one source's score and persists the result.
// weeklyImported is derived from completed import logs in the trailing 7 days.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: data source ID.
// Returns:
//   - *ScoreResult: persisted score outcome.
//   - error: non-nil if loading or persisting fails.
func (s *ScorerService) RecalculateSource(ctx context.Context, sourceID string) (*ScoreResult, error) {
	src, err := s.sourceRepo.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	weekly, err := s.logRepo.SumNewSince(ctx, sourceID, time.Now().Add(-weeklyWindow))
	if err != nil {
		return nil, err
	}

	result := CalculateScore(src.TotalImported, src.LastFetched, weekly, src.ErrorCount)

	if err := s.sourceRepo.UpdateQuality(
		ctx, sourceID,
		result.Score, result.ConversionRate, result.QualityStatus, weekly,
	); err != nil {
		return nil, err
	}

	logger.CtxDebug(ctx, "Recalculated source score: source_id=%s, score=%d, status=%s",
		sourceID, result.Score, result.QualityStatus)

	return &result, nil
}

// TierCounts aggregates sources by quality tier after a bulk scoring pass.
type TierCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Failed int `json:"failed"`
}

// RecalculateAll rescores every source. Per-source failures are logged and
// counted but do not stop the pass.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *TierCounts: counts by resulting quality tier.
//   - error: non-nil only if the source list itself cannot be loaded.
func (s *ScorerService) RecalculateAll(ctx context.Context) (*TierCounts, error) {
	sources, err := s.sourceRepo.List(ctx, false)
	if err != nil {
		return nil, err
	}

	counts := &TierCounts{}
	for _, src := range sources {
		result, err := s.RecalculateSource(ctx, src.ID)
		if err != nil {
			counts.Failed++
			logger.CtxError(ctx, "Failed to rescore source: source_id=%s, error=%v", src.ID, err)
			continue
		}
		switch result.QualityStatus {
		case domain.QualityHigh:
			counts.High++
		case domain.QualityMedium:
			counts.Medium++
		default:
			counts.Low++
		}
	}

	logger.CtxInfo(ctx, "Score recalculation completed: total=%d, high=%d, medium=%d, low=%d, failed=%d",
		len(sources), counts.High, counts.Medium, counts.Low, counts.Failed)

	return counts, nil
}
