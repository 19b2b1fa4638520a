package linkedin

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"github.com/Fedor-K/Freelanly2-sub002/internal/source"
)

// ScrapeFileName is the JSONL file holding scraped LinkedIn postings for a
// source's staging directory.
const ScrapeFileName = "postings.jsonl"

// scrapeRecord is one line of a staged LinkedIn scrape file. Scraping itself
// runs out of process; this adapter only reads its output.
type scrapeRecord struct {
	PostURL     string   `json:"post_url"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Country     string   `json:"country"`
	Skills      []string `json:"skills"`
}

// Adapter implements the Fetcher interface for staged LinkedIn scrapes.
// Source config keys: "path" (required staging directory).
type Adapter struct {
	basePath string
}

// NewAdapter creates a new LinkedIn staging adapter.
// Parameters:
//   - basePath: base directory prepended to each source's configured path.
// Returns:
//   - *Adapter: initialized adapter.
func NewAdapter(basePath string) *Adapter {
	return &Adapter{basePath: basePath}
}

// Type returns the source type this fetcher serves.
func (a *Adapter) Type() domain.SourceType {
	return domain.SourceTypeLinkedIn
}

// Fetch reads the staged scrape file for the source.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - src: data source whose config names the staging path.
// Returns:
//   - []source.Posting: postings parsed from the scrape file.
//   - []byte: raw file contents for archival.
//   - error: non-nil if the file is missing or unreadable.
func (a *Adapter) Fetch(ctx context.Context, src *domain.DataSource) ([]source.Posting, []byte, error) {
	dir := src.Config.GetString("path")
	if dir == "" {
		return nil, nil, fmt.Errorf("linkedin source %s missing path config", src.ID)
	}

	filePath := filepath.Join(a.basePath, dir, ScrapeFileName)
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read scrape file: %w", err)
	}

	var postings []source.Posting
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec scrapeRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			// Malformed lines are skipped, not fatal; the scraper
			// occasionally truncates its last line.
			continue
		}
		if rec.PostURL == "" {
			continue
		}

		postings = append(postings, source.Posting{
			URL:         rec.PostURL,
			Title:       rec.Title,
			Company:     rec.Company,
			Description: rec.Description,
			Location:    rec.Location,
			Country:     rec.Country,
			Skills:      rec.Skills,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to scan scrape file: %w", err)
	}

	return postings, raw, nil
}
