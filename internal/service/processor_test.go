package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Fedor-K/Freelanly2-sub002/internal/classifier"
	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"github.com/Fedor-K/Freelanly2-sub002/internal/repository"
	"github.com/Fedor-K/Freelanly2-sub002/internal/source"
	"github.com/Fedor-K/Freelanly2-sub002/internal/storage"
	"gorm.io/gorm"
)

type stubFetcher struct {
	postings []source.Posting
	raw      []byte
	err      error
}

func (f *stubFetcher) Type() domain.SourceType { return domain.SourceTypeLever }

func (f *stubFetcher) Fetch(_ context.Context, _ *domain.DataSource) ([]source.Posting, []byte, error) {
	return f.postings, f.raw, f.err
}

// stubClassifier errs on titles listed in failOn and otherwise applies a
// simple keyword rule.
type stubClassifier struct {
	failOn map[string]bool
	calls  int
}

func (c *stubClassifier) Classify(_ context.Context, title, _ string) (classifier.Verdict, error) {
	c.calls++
	if c.failOn[title] {
		return "", errors.New("classifier unavailable")
	}
	if strings.Contains(strings.ToLower(title), "pyramid") {
		return classifier.VerdictIrrelevant, nil
	}
	return classifier.VerdictRelevant, nil
}

func (c *stubClassifier) ExtractFields(_ context.Context, title, _ string) (*classifier.Extraction, error) {
	if c.failOn[title] {
		return nil, errors.New("classifier unavailable")
	}
	return &classifier.Extraction{
		Summary:      []string{"summary line"},
		Requirements: []string{},
		Benefits:     []string{},
		Category:     "engineering",
	}, nil
}

type memoryArchive struct {
	objects map[string][]byte
	err     error
}

func (a *memoryArchive) Put(_ context.Context, key string, data []byte, _ string) error {
	if a.err != nil {
		return a.err
	}
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[key] = data
	return nil
}

func (a *memoryArchive) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := a.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (a *memoryArchive) Exists(_ context.Context, key string) (bool, error) {
	_, ok := a.objects[key]
	return ok, nil
}

func newTestProcessor(t *testing.T, fetcher source.Fetcher, ai, fallback classifier.Classifier, archive storage.Archive) (*ProcessorService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	proc := NewProcessorService(
		repository.NewSourceRepository(db),
		repository.NewJobRepository(db),
		repository.NewImportLogRepository(db),
		source.NewRegistry(fetcher),
		ai,
		fallback,
		archive,
		&ProcessorConfig{CallDelay: time.Millisecond},
	)
	return proc, db
}

func feedPostings() []source.Posting {
	return []source.Posting{
		{URL: "https://jobs.example.com/1", Title: "Backend Engineer", Company: "Acme", Description: "Go services"},
		{URL: "https://jobs.example.com/2", Title: "Pyramid Scheme Associate", Company: "Shady", Description: "commission only"},
		{URL: "https://jobs.example.com/3", Title: "Product Designer", Company: "Acme", Description: "Figma"},
	}
}

func TestProcessorService_ProcessSource(t *testing.T) {
	fetcher := &stubFetcher{postings: feedPostings(), raw: []byte(`[{"feed":true}]`)}
	ai := &stubClassifier{}
	archive := &memoryArchive{}
	proc, db := newTestProcessor(t, fetcher, ai, classifier.NewHeuristicClassifier(), archive)
	ctx := context.Background()

	src := newTestSource(t, db, nil)

	stats, err := proc.ProcessSource(ctx, src.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Total != 3 {
		t.Errorf("expected total 3, got %d", stats.Total)
	}
	if stats.Created != 2 {
		t.Errorf("expected 2 created, got %d", stats.Created)
	}
	if stats.Skipped != 1 {
		t.Errorf("expected 1 skipped (irrelevant), got %d", stats.Skipped)
	}
	if stats.Failed != 0 {
		t.Errorf("expected 0 failed, got %d", stats.Failed)
	}

	// Jobs persisted with slugs and extraction output.
	var jobs []domain.Job
	if err := db.Order("source_url ASC").Find(&jobs).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if !strings.HasPrefix(jobs[0].Slug, "backend-engineer-acme-") {
		t.Errorf("unexpected slug %q", jobs[0].Slug)
	}
	if jobs[0].Category != "engineering" {
		t.Errorf("expected engineering category, got %q", jobs[0].Category)
	}

	// Run log finalized with counters and a snapshot key.
	var logs []domain.ImportLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 import log, got %d", len(logs))
	}
	if logs[0].Status != domain.ImportLogCompleted {
		t.Errorf("expected completed log, got %s", logs[0].Status)
	}
	if logs[0].TotalFound != 3 || logs[0].TotalNew != 2 || logs[0].TotalSkipped != 1 {
		t.Errorf("unexpected log counters: %+v", logs[0])
	}
	if logs[0].SnapshotKey == "" {
		t.Error("expected snapshot key on log")
	}
	if _, ok := archive.objects[logs[0].SnapshotKey]; !ok {
		t.Errorf("expected snapshot stored under %q", logs[0].SnapshotKey)
	}

	// Source counters: run was clean, error count reset path applies.
	updated, err := repository.NewSourceRepository(db).GetByID(ctx, src.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.TotalImported != 2 {
		t.Errorf("expected total imported 2, got %d", updated.TotalImported)
	}
	if updated.LastFetched != 3 {
		t.Errorf("expected last fetched 3, got %d", updated.LastFetched)
	}
	if updated.ErrorCount != 0 {
		t.Errorf("expected error count reset, got %d", updated.ErrorCount)
	}
}

func TestProcessorService_SecondRunDeduplicates(t *testing.T) {
	fetcher := &stubFetcher{postings: feedPostings()}
	proc, db := newTestProcessor(t, fetcher, &stubClassifier{}, classifier.NewHeuristicClassifier(), nil)
	ctx := context.Background()

	src := newTestSource(t, db, nil)

	if _, err := proc.ProcessSource(ctx, src.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats, err := proc.ProcessSource(ctx, src.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Created != 0 {
		t.Errorf("expected 0 created on rerun, got %d", stats.Created)
	}
	if stats.Skipped != 3 {
		t.Errorf("expected 3 skipped on rerun, got %d", stats.Skipped)
	}

	var count int64
	if err := db.Model(&domain.Job{}).Count(&count).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected job count unchanged at 2, got %d", count)
	}
}

func TestProcessorService_FetchFailureIsFatal(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	proc, db := newTestProcessor(t, fetcher, &stubClassifier{}, classifier.NewHeuristicClassifier(), nil)
	ctx := context.Background()

	src := newTestSource(t, db, nil)

	if _, err := proc.ProcessSource(ctx, src.ID); err == nil {
		t.Fatal("expected fetch failure to propagate")
	}

	var logs []domain.ImportLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 import log, got %d", len(logs))
	}
	if logs[0].Status != domain.ImportLogFailed {
		t.Errorf("expected failed log, got %s", logs[0].Status)
	}
	if len(logs[0].Errors) == 0 || !strings.Contains(logs[0].Errors[0], "connection refused") {
		t.Errorf("expected fetch error recorded, got %v", logs[0].Errors)
	}
}

func TestProcessorService_UnknownSourceType(t *testing.T) {
	fetcher := &stubFetcher{}
	proc, db := newTestProcessor(t, fetcher, &stubClassifier{}, classifier.NewHeuristicClassifier(), nil)

	src := newTestSource(t, db, func(s *domain.DataSource) {
		s.Type = domain.SourceTypeLinkedIn // registry only holds the lever stub
	})

	if _, err := proc.ProcessSource(context.Background(), src.ID); err == nil {
		t.Fatal("expected error for unregistered source type")
	}
}

func TestProcessorService_HeuristicFallbackOnAIFailure(t *testing.T) {
	fetcher := &stubFetcher{postings: []source.Posting{
		{URL: "https://jobs.example.com/1", Title: "Backend Engineer", Company: "Acme", Description: "Go"},
	}}
	ai := &stubClassifier{failOn: map[string]bool{"Backend Engineer": true}}
	proc, db := newTestProcessor(t, fetcher, ai, classifier.NewHeuristicClassifier(), nil)
	ctx := context.Background()

	src := newTestSource(t, db, nil)

	stats, err := proc.ProcessSource(ctx, src.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// AI failed, heuristic accepted the engineering title.
	if stats.Created != 1 {
		t.Errorf("expected 1 created via fallback, got %d", stats.Created)
	}
	if ai.calls == 0 {
		t.Error("expected the AI classifier to be tried first")
	}

	var job domain.Job
	if err := db.First(&job).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Category != "engineering" {
		t.Errorf("expected heuristic category, got %q", job.Category)
	}
}

func TestProcessorService_PerItemFailuresAreCounted(t *testing.T) {
	fetcher := &stubFetcher{postings: []source.Posting{
		{URL: "https://jobs.example.com/1", Title: "Backend Engineer", Company: "Acme"},
		{URL: "https://jobs.example.com/2", Title: "Broken Posting", Company: "Acme"},
	}}
	// Both tiers fail for the second posting.
	failing := &stubClassifier{failOn: map[string]bool{"Broken Posting": true}}
	proc, db := newTestProcessor(t, fetcher, failing, failing, nil)
	ctx := context.Background()

	src := newTestSource(t, db, nil)

	stats, err := proc.ProcessSource(ctx, src.ID)
	if err != nil {
		t.Fatalf("expected per-item failure to stay non-fatal, got %v", err)
	}
	if stats.Created != 1 {
		t.Errorf("expected 1 created, got %d", stats.Created)
	}
	if stats.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", stats.Failed)
	}

	var log domain.ImportLog
	if err := db.First(&log).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log.TotalFailed != 1 {
		t.Errorf("expected 1 failure in log, got %d", log.TotalFailed)
	}
	if len(log.Errors) != 1 || !strings.Contains(log.Errors[0], "https://jobs.example.com/2") {
		t.Errorf("expected per-item error keyed by URL, got %v", log.Errors)
	}
}

func TestProcessorService_ArchiveFailureIsBestEffort(t *testing.T) {
	fetcher := &stubFetcher{
		postings: []source.Posting{{URL: "https://jobs.example.com/1", Title: "Backend Engineer", Company: "Acme"}},
		raw:      []byte(`[]`),
	}
	archive := &memoryArchive{err: errors.New("bucket gone")}
	proc, db := newTestProcessor(t, fetcher, &stubClassifier{}, classifier.NewHeuristicClassifier(), archive)
	ctx := context.Background()

	src := newTestSource(t, db, nil)

	stats, err := proc.ProcessSource(ctx, src.ID)
	if err != nil {
		t.Fatalf("expected archive failure to stay non-fatal, got %v", err)
	}
	if stats.Created != 1 {
		t.Errorf("expected 1 created, got %d", stats.Created)
	}

	var log domain.ImportLog
	if err := db.First(&log).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log.SnapshotKey != "" {
		t.Errorf("expected no snapshot key after archive failure, got %q", log.SnapshotKey)
	}
}
