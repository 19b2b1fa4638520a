package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"github.com/Fedor-K/Freelanly2-sub002/internal/repository"
)

func TestCalculateScore(t *testing.T) {
	tests := []struct {
		name           string
		totalImported  int
		lastFetched    int
		weeklyImported int
		errorCount     int
		wantScore      int
		wantConversion float64
		wantStatus     domain.QualityStatus
	}{
		{
			name:           "healthy source",
			totalImported:  40,
			lastFetched:    100,
			weeklyImported: 50,
			errorCount:     0,
			wantScore:      76,
			wantConversion: 40,
			wantStatus:     domain.QualityHigh,
		},
		{
			name:       "empty unscored source",
			wantScore:  30, // stability alone
			wantStatus: domain.QualityLow,
		},
		{
			name:           "conversion capped at 100",
			totalImported:  500,
			lastFetched:    100,
			wantScore:      70,
			wantConversion: 100,
			wantStatus:     domain.QualityHigh,
		},
		{
			name:           "no fetch telemetry gets neutral conversion",
			totalImported:  10,
			lastFetched:    0,
			wantScore:      50,
			wantConversion: 50,
			wantStatus:     domain.QualityMedium,
		},
		{
			name:           "weekly activity saturates",
			weeklyImported: 120,
			wantScore:      60,
			wantStatus:     domain.QualityMedium,
		},
		{
			name:       "errors erase stability",
			errorCount: 5,
			wantScore:  0,
			wantStatus: domain.QualityLow,
		},
		{
			name:       "stability floor at zero",
			errorCount: 50,
			wantScore:  0,
			wantStatus: domain.QualityLow,
		},
		{
			name:           "fractional score rounds",
			totalImported:  1,
			lastFetched:    3,
			wantScore:      43, // 0.4*33.33 + 0.3*100
			wantConversion: 100.0 / 3.0,
			wantStatus:     domain.QualityMedium,
		},
		{
			name:           "just below high threshold",
			totalImported:  975,
			lastFetched:    1000,
			wantScore:      69, // 0.4*97.5 + 0.3*100
			wantConversion: 97.5,
			wantStatus:     domain.QualityMedium,
		},
		{
			name:           "exactly medium threshold",
			totalImported:  100,
			lastFetched:    100,
			errorCount:     5,
			wantScore:      40, // conversion alone
			wantConversion: 100,
			wantStatus:     domain.QualityMedium,
		},
		{
			name:           "just below medium threshold",
			totalImported:  10,
			lastFetched:    0,
			weeklyImported: 32,
			errorCount:     5,
			wantScore:      39, // 0.4*50 + 0.3*64
			wantStatus:     domain.QualityLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateScore(tt.totalImported, tt.lastFetched, tt.weeklyImported, tt.errorCount)

			if got.Score != tt.wantScore {
				t.Errorf("expected score %d, got %d", tt.wantScore, got.Score)
			}
			if got.QualityStatus != tt.wantStatus {
				t.Errorf("expected status %s, got %s", tt.wantStatus, got.QualityStatus)
			}
			if tt.wantConversion != 0 && math.Abs(got.ConversionRate-tt.wantConversion) > 0.001 {
				t.Errorf("expected conversion %.3f, got %.3f", tt.wantConversion, got.ConversionRate)
			}
		})
	}
}

func TestCalculateScore_Deterministic(t *testing.T) {
	first := CalculateScore(37, 80, 12, 2)
	for i := 0; i < 10; i++ {
		if got := CalculateScore(37, 80, 12, 2); got != first {
			t.Fatalf("expected identical results, got %+v and %+v", first, got)
		}
	}
}

func TestScorerService_RecalculateSource(t *testing.T) {
	db := newTestDB(t)
	sourceRepo := repository.NewSourceRepository(db)
	logRepo := repository.NewImportLogRepository(db)
	scorer := NewScorerService(sourceRepo, logRepo)
	ctx := context.Background()

	src := newTestSource(t, db, func(s *domain.DataSource) {
		s.TotalImported = 40
		s.LastFetched = 100
	})

	// Two runs inside the weekly window, one outside, one failed.
	newCompletedLog(t, db, src.ID, 30, time.Now().Add(-24*time.Hour))
	newCompletedLog(t, db, src.ID, 20, time.Now().Add(-48*time.Hour))
	newCompletedLog(t, db, src.ID, 99, time.Now().Add(-10*24*time.Hour))
	failedLog := &domain.ImportLog{
		ID:        "failed-log",
		SourceID:  src.ID,
		Status:    domain.ImportLogFailed,
		TotalNew:  7,
		StartedAt: time.Now().Add(-time.Hour),
	}
	if err := db.Create(failedLog).Error; err != nil {
		t.Fatalf("failed to create failed log: %v", err)
	}

	result, err := scorer.RecalculateSource(ctx, src.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// weekly = 30 + 20; conversion 40, activity 100, stability 100.
	if result.Score != 76 {
		t.Errorf("expected score 76, got %d", result.Score)
	}
	if result.QualityStatus != domain.QualityHigh {
		t.Errorf("expected high status, got %s", result.QualityStatus)
	}

	persisted, err := sourceRepo.GetByID(ctx, src.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if persisted.Score != 76 {
		t.Errorf("expected persisted score 76, got %d", persisted.Score)
	}
	if persisted.WeeklyImported != 50 {
		t.Errorf("expected weekly imported 50, got %d", persisted.WeeklyImported)
	}
	if persisted.QualityStatus != domain.QualityHigh {
		t.Errorf("expected persisted status high, got %s", persisted.QualityStatus)
	}
	if persisted.LastScoreAt == nil {
		t.Error("expected last_score_at to be set")
	}
}

func TestScorerService_RecalculateSource_Unknown(t *testing.T) {
	db := newTestDB(t)
	scorer := NewScorerService(repository.NewSourceRepository(db), repository.NewImportLogRepository(db))

	if _, err := scorer.RecalculateSource(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestScorerService_RecalculateAll(t *testing.T) {
	db := newTestDB(t)
	sourceRepo := repository.NewSourceRepository(db)
	logRepo := repository.NewImportLogRepository(db)
	scorer := NewScorerService(sourceRepo, logRepo)
	ctx := context.Background()

	high := newTestSource(t, db, func(s *domain.DataSource) {
		s.TotalImported = 100
		s.LastFetched = 100
	})
	newCompletedLog(t, db, high.ID, 60, time.Now().Add(-time.Hour))

	newTestSource(t, db, func(s *domain.DataSource) {
		s.TotalImported = 10 // neutral conversion, nothing else
	})

	newTestSource(t, db, func(s *domain.DataSource) {
		s.ErrorCount = 5
	})

	counts, err := scorer.RecalculateAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if counts.High != 1 {
		t.Errorf("expected 1 high source, got %d", counts.High)
	}
	if counts.Medium != 1 {
		t.Errorf("expected 1 medium source, got %d", counts.Medium)
	}
	if counts.Low != 1 {
		t.Errorf("expected 1 low source, got %d", counts.Low)
	}
	if counts.Failed != 0 {
		t.Errorf("expected 0 failed sources, got %d", counts.Failed)
	}
}
