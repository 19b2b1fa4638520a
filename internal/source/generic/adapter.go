package generic

import (
	"context"
	"fmt"
	"time"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"github.com/Fedor-K/Freelanly2-sub002/internal/source"
	"github.com/go-resty/resty/v2"
)

// Adapter implements the Fetcher interface for generic ATS JSON endpoints.
// Source config keys: "url" (required), "auth_header" (optional bearer token).
type Adapter struct {
	client *resty.Client
}

// NewAdapter creates a new generic ATS adapter.
// Parameters: none.
// Returns:
//   - *Adapter: initialized adapter with a shared HTTP client.
func NewAdapter() *Adapter {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("Accept", "application/json")
	return &Adapter{client: client}
}

// Type returns the source type this fetcher serves.
func (a *Adapter) Type() domain.SourceType {
	return domain.SourceTypeGenericATS
}

// atsPosting covers the common field names across the generic boards we pull.
type atsPosting struct {
	URL         string   `json:"url"`
	AbsoluteURL string   `json:"absolute_url"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Country     string   `json:"country"`
	Skills      []string `json:"skills"`
}

type atsFeed struct {
	Jobs []atsPosting `json:"jobs"`
}

// Fetch pulls the current feed from the configured ATS endpoint.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - src: data source whose config names the endpoint URL.
// Returns:
//   - []source.Posting: postings from the feed.
//   - []byte: raw response body for archival.
//   - error: non-nil if the HTTP call fails or the config is invalid.
func (a *Adapter) Fetch(ctx context.Context, src *domain.DataSource) ([]source.Posting, []byte, error) {
	url := src.Config.GetString("url")
	if url == "" {
		return nil, nil, fmt.Errorf("generic ATS source %s missing url config", src.ID)
	}

	req := a.client.R().SetContext(ctx)
	if auth := src.Config.GetString("auth_header"); auth != "" {
		req.SetHeader("Authorization", auth)
	}

	var feed atsFeed
	resp, err := req.SetResult(&feed).Get(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch ATS feed: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, nil, fmt.Errorf("ATS feed returned HTTP %d", resp.StatusCode())
	}

	postings := make([]source.Posting, 0, len(feed.Jobs))
	for _, p := range feed.Jobs {
		url := p.URL
		if url == "" {
			url = p.AbsoluteURL
		}
		if url == "" {
			continue
		}
		postings = append(postings, source.Posting{
			URL:         url,
			Title:       p.Title,
			Company:     p.Company,
			Description: p.Description,
			Location:    p.Location,
			Country:     p.Country,
			Skills:      p.Skills,
		})
	}

	return postings, resp.Body(), nil
}
