package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func TestSourceRepository_RunCountBookkeeping(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepository(db)
	ctx := context.Background()

	src := &domain.DataSource{
		ID:            "src-1",
		Name:          "Acme",
		Type:          domain.SourceTypeLever,
		QualityStatus: domain.QualityUnscored,
		IsActive:      true,
	}
	if err := repo.Create(ctx, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Failures accumulate.
	for i := 0; i < 3; i++ {
		if err := repo.IncrementErrorCount(ctx, src.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	got, err := repo.GetByID(ctx, src.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ErrorCount != 3 {
		t.Errorf("expected error count 3, got %d", got.ErrorCount)
	}

	// A clean run accumulates totals and clears the error tally.
	if err := repo.RecordRunCounts(ctx, src.ID, 50, 12); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.RecordRunCounts(ctx, src.ID, 40, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err = repo.GetByID(ctx, src.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TotalImported != 20 {
		t.Errorf("expected total imported 20, got %d", got.TotalImported)
	}
	if got.LastFetched != 40 {
		t.Errorf("expected last fetched 40 (latest run, not a sum), got %d", got.LastFetched)
	}
	if got.ErrorCount != 0 {
		t.Errorf("expected error count reset to 0, got %d", got.ErrorCount)
	}
}

func TestSourceRepository_ListActiveOnly(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepository(db)
	ctx := context.Background()

	active := &domain.DataSource{ID: "a", Name: "A", Type: domain.SourceTypeLever, IsActive: true}
	inactive := &domain.DataSource{ID: "b", Name: "B", Type: domain.SourceTypeLever, IsActive: false}
	for _, s := range []*domain.DataSource{active, inactive} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := repo.List(ctx, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 sources, got %d", len(all))
	}

	activeOnly, err := repo.List(ctx, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(activeOnly) != 1 || activeOnly[0].ID != "a" {
		t.Errorf("expected only the active source, got %v", activeOnly)
	}
}

func TestJobRepository_ExistsBySourceURL(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	job := &domain.Job{
		ID:         "job-1",
		Slug:       "backend-engineer-acme-abc12345",
		SourceType: domain.SourceTypeLever,
		SourceURL:  "https://jobs.example.com/1",
		Title:      "Backend Engineer",
		IsActive:   true,
	}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exists, err := repo.ExistsBySourceURL(ctx, job.SourceURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected existing URL to be found")
	}

	exists, err = repo.ExistsBySourceURL(ctx, "https://jobs.example.com/other")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected unknown URL to be absent")
	}

	// The unique index backs the dedup contract.
	dup := &domain.Job{
		ID:         "job-2",
		Slug:       "backend-engineer-acme-def67890",
		SourceType: domain.SourceTypeLever,
		SourceURL:  job.SourceURL,
		Title:      "Backend Engineer",
	}
	if err := repo.Create(ctx, dup); err == nil {
		t.Error("expected unique index violation for duplicate source URL")
	}
}
