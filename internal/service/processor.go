package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Fedor-K/Freelanly2-sub002/internal/classifier"
	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"github.com/Fedor-K/Freelanly2-sub002/internal/logger"
	"github.com/Fedor-K/Freelanly2-sub002/internal/repository"
	"github.com/Fedor-K/Freelanly2-sub002/internal/source"
	"github.com/Fedor-K/Freelanly2-sub002/internal/storage"
	"github.com/google/uuid"
)

// ProcessStats holds counters for one processor run against a source.
type ProcessStats struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ProcessorService runs the fetch → dedup → classify → persist pipeline for
// one source at a time.
type ProcessorService struct {
	sourceRepo *repository.SourceRepository
	jobRepo    *repository.JobRepository
	logRepo    *repository.ImportLogRepository
	fetchers   source.Registry
	ai         classifier.Classifier
	fallback   classifier.Classifier
	archive    storage.Archive
	callDelay  time.Duration
}

// ProcessorConfig holds configuration for the processor service.
type ProcessorConfig struct {
	// CallDelay is the fixed pause between classifier calls, respecting
	// upstream quotas.
	CallDelay time.Duration
}

// NewProcessorService creates a new processor service.
// Parameters:
//   - sourceRepo: data source repository.
//   - jobRepo: job repository.
//   - logRepo: import log repository.
//   - fetchers: registry of source-type fetchers.
//   - ai: primary AI classifier.
//   - fallback: deterministic classifier used when the AI path fails.
//   - archive: raw feed snapshot store.
//   - cfg: processor configuration; nil uses defaults.
// Returns:
//   - *ProcessorService: initialized processor.
func NewProcessorService(
	sourceRepo *repository.SourceRepository,
	jobRepo *repository.JobRepository,
	logRepo *repository.ImportLogRepository,
	fetchers source.Registry,
	ai classifier.Classifier,
	fallback classifier.Classifier,
	archive storage.Archive,
	cfg *ProcessorConfig,
) *ProcessorService {
	callDelay := 300 * time.Millisecond
	if cfg != nil && cfg.CallDelay > 0 {
		callDelay = cfg.CallDelay
	}
	if archive == nil {
		archive = storage.NoopArchive{}
	}
	return &ProcessorService{
		sourceRepo: sourceRepo,
		jobRepo:    jobRepo,
		logRepo:    logRepo,
		fetchers:   fetchers,
		ai:         ai,
		fallback:   fallback,
		archive:    archive,
		callDelay:  callDelay,
	}
}

// ProcessSource fetches, deduplicates, classifies and persists postings for
// one source. A fetch failure is fatal to the run and propagates; per-item
// classification or persistence failures are counted and never abort the run.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: data source ID to process.
// Returns:
//   - *ProcessStats: run counters.
//   - error: non-nil only for run-fatal failures (unknown source, fetch error).
func (s *ProcessorService) ProcessSource(ctx context.Context, sourceID string) (*ProcessStats, error) {
	src, err := s.sourceRepo.GetByID(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source: %w", err)
	}

	fetcher, ok := s.fetchers[src.Type]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for source type %s", src.Type)
	}

	runLog := &domain.ImportLog{
		ID:        uuid.New().String(),
		SourceID:  src.ID,
		Status:    domain.ImportLogRunning,
		Errors:    domain.StringArray{},
		StartedAt: time.Now(),
	}
	if err := s.logRepo.Create(ctx, runLog); err != nil {
		return nil, fmt.Errorf("failed to create import log: %w", err)
	}

	postings, raw, err := fetcher.Fetch(ctx, src)
	if err != nil {
		s.closeRunLog(ctx, runLog, domain.ImportLogFailed, nil, err.Error())
		return nil, fmt.Errorf("failed to fetch source feed: %w", err)
	}

	if len(raw) > 0 {
		key := fmt.Sprintf("feeds/%s/%d.json", src.ID, runLog.StartedAt.Unix())
		if archiveErr := s.archive.Put(ctx, key, raw, "application/json"); archiveErr != nil {
			// Archival is best effort; the run proceeds without a snapshot.
			logger.CtxWarn(ctx, "Failed to archive feed snapshot: source_id=%s, error=%v",
				src.ID, archiveErr)
		} else {
			runLog.SnapshotKey = key
		}
	}

	stats := &ProcessStats{Total: len(postings)}
	var itemErrors domain.StringArray

	for i := range postings {
		if ctx.Err() != nil {
			break
		}

		posting := &postings[i]
		created, err := s.processPosting(ctx, src, posting)
		if err != nil {
			stats.Failed++
			itemErrors = append(itemErrors, fmt.Sprintf("%s: %v", posting.URL, err))
			logger.CtxError(ctx, "Failed to process posting: source_id=%s, url=%s, error=%v",
				src.ID, posting.URL, err)
			continue
		}
		if created {
			stats.Created++
		} else {
			stats.Skipped++
		}
	}

	runLog.TotalFound = stats.Total
	runLog.TotalNew = stats.Created
	runLog.TotalSkipped = stats.Skipped
	runLog.TotalFailed = stats.Failed
	s.closeRunLog(ctx, runLog, domain.ImportLogCompleted, itemErrors, "")

	if err := s.sourceRepo.RecordRunCounts(ctx, src.ID, stats.Total, stats.Created); err != nil {
		logger.CtxError(ctx, "Failed to record run counts: source_id=%s, error=%v", src.ID, err)
	}

	logger.With(logger.Fields{
		logger.FieldCount: stats.Created,
	}).Info(ctx, "Source processed: source_id=%s, total=%d, created=%d, skipped=%d, failed=%d",
		src.ID, stats.Total, stats.Created, stats.Skipped, stats.Failed)

	return stats, nil
}

// processPosting handles one posting: dedup, classify, extract, persist.
// Returns true when a job was created, false when the posting was skipped.
func (s *ProcessorService) processPosting(ctx context.Context, src *domain.DataSource, posting *source.Posting) (bool, error) {
	exists, err := s.jobRepo.ExistsBySourceURL(ctx, posting.URL)
	if err != nil {
		return false, fmt.Errorf("failed dedup check: %w", err)
	}
	if exists {
		return false, nil
	}

	verdict, err := s.classify(ctx, posting.Title, posting.Description)
	if err != nil {
		return false, err
	}
	if verdict == classifier.VerdictIrrelevant {
		return false, nil
	}

	extraction := s.extract(ctx, posting.Title, posting.Description)

	now := time.Now()
	job := &domain.Job{
		ID:           uuid.New().String(),
		Slug:         slugify(posting.Title, posting.Company),
		SourceType:   src.Type,
		SourceURL:    posting.URL,
		Title:        posting.Title,
		Company:      posting.Company,
		Description:  posting.Description,
		Summary:      extraction.Summary,
		Requirements: extraction.Requirements,
		Benefits:     extraction.Benefits,
		Skills:       posting.Skills,
		SalaryMin:    posting.SalaryMin,
		SalaryMax:    posting.SalaryMax,
		Level:        posting.Level,
		Location:     posting.Location,
		Country:      posting.Country,
		Category:     extraction.Category,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return false, fmt.Errorf("failed to persist job: %w", err)
	}

	return true, nil
}

// classify runs the two-tier relevance strategy: AI classifier first, the
// deterministic heuristic on any call or parse failure. The fixed inter-call
// delay applies only to the AI path.
func (s *ProcessorService) classify(ctx context.Context, title, description string) (classifier.Verdict, error) {
	if s.ai != nil {
		s.pace(ctx)
		verdict, err := s.ai.Classify(ctx, title, description)
		if err == nil {
			return verdict, nil
		}
		logger.CtxWarn(ctx, "AI classification failed, using heuristic fallback: title=%q, error=%v",
			title, err)
	}
	return s.fallback.Classify(ctx, title, description)
}

// extract runs field extraction with the same two-tier fallback. Extraction
// failure is never fatal to the posting; the heuristic result is category-only.
func (s *ProcessorService) extract(ctx context.Context, title, description string) *classifier.Extraction {
	if s.ai != nil {
		s.pace(ctx)
		extraction, err := s.ai.ExtractFields(ctx, title, description)
		if err == nil {
			if extraction.Category == "" {
				extraction.Category = classifier.CategoryFromTitle(title)
			}
			return extraction
		}
		logger.CtxWarn(ctx, "AI extraction failed, using heuristic fallback: title=%q, error=%v",
			title, err)
	}
	extraction, _ := s.fallback.ExtractFields(ctx, title, description)
	return extraction
}

// pace blocks for the configured inter-call delay or until ctx is done.
func (s *ProcessorService) pace(ctx context.Context) {
	timer := time.NewTimer(s.callDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// closeRunLog finalizes an import log record; persistence failures here are
// logged but never surfaced, the run outcome already stands.
func (s *ProcessorService) closeRunLog(
	ctx context.Context,
	runLog *domain.ImportLog,
	status domain.ImportLogStatus,
	itemErrors domain.StringArray,
	fatal string,
) {
	now := time.Now()
	runLog.Status = status
	runLog.CompletedAt = &now
	if itemErrors != nil {
		runLog.Errors = itemErrors
	}
	if fatal != "" {
		runLog.Errors = append(runLog.Errors, fatal)
	}
	if err := s.logRepo.Update(ctx, runLog); err != nil {
		logger.CtxError(ctx, "Failed to finalize import log: log_id=%s, error=%v", runLog.ID, err)
	}
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// slugify builds a URL slug from title and company with a short random
// suffix so collisions between identical titles stay unique.
func slugify(title, company string) string {
	base := strings.ToLower(strings.TrimSpace(title + " " + company))
	base = slugStrip.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if len(base) > 80 {
		base = base[:80]
		base = strings.Trim(base, "-")
	}
	suffix := uuid.New().String()[:8]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
