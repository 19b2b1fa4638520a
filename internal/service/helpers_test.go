package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"github.com/Fedor-K/Freelanly2-sub002/internal/repository"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a throwaway SQLite database for one test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestSource(t *testing.T, db *gorm.DB, mutate func(*domain.DataSource)) *domain.DataSource {
	t.Helper()

	src := &domain.DataSource{
		ID:            uuid.New().String(),
		Name:          "test source",
		Type:          domain.SourceTypeLever,
		Config:        domain.SourceConfig{"company": "acme"},
		QualityStatus: domain.QualityUnscored,
		IsActive:      true,
	}
	if mutate != nil {
		mutate(src)
	}
	if err := db.Create(src).Error; err != nil {
		t.Fatalf("failed to create test source: %v", err)
	}
	return src
}

func newCompletedLog(t *testing.T, db *gorm.DB, sourceID string, totalNew int, startedAt time.Time) {
	t.Helper()

	log := &domain.ImportLog{
		ID:        uuid.New().String(),
		SourceID:  sourceID,
		Status:    domain.ImportLogCompleted,
		TotalNew:  totalNew,
		StartedAt: startedAt,
	}
	if err := db.Create(log).Error; err != nil {
		t.Fatalf("failed to create test import log: %v", err)
	}
}
