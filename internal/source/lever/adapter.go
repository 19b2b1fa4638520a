package lever

import (
	"context"
	"fmt"
	"time"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
	"github.com/Fedor-K/Freelanly2-sub002/internal/source"
	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.lever.co/v0/postings"

// Adapter implements the Fetcher interface for Lever job boards.
// Source config keys: "company" (required Lever site slug), "base_url"
// (optional override for testing).
type Adapter struct {
	client *resty.Client
}

// NewAdapter creates a new Lever adapter.
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
	return domain.SourceTypeLever
}

// leverPosting mirrors the fields of the Lever postings API we consume.
type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	HostedURL  string `json:"hostedUrl"`
	Categories struct {
		Team       string `json:"team"`
		Location   string `json:"location"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
	DescriptionPlain string `json:"descriptionPlain"`
	Country          string `json:"country"`
	Lists            []struct {
		Text    string `json:"text"`
		Content string `json:"content"`
	} `json:"lists"`
}

// Fetch pulls the current postings feed for a Lever company site.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - src: data source whose config names the company slug.
// Returns:
//   - []source.Posting: postings from the feed.
//   - []byte: raw response body for archival.
//   - error: non-nil if the HTTP call fails or the config is invalid.
func (a *Adapter) Fetch(ctx context.Context, src *domain.DataSource) ([]source.Posting, []byte, error) {
	company := src.Config.GetString("company")
	if company == "" {
		return nil, nil, fmt.Errorf("lever source %s missing company config", src.ID)
	}

	baseURL := src.Config.GetString("base_url")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	var feed []leverPosting
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("mode", "json").
		SetResult(&feed).
		Get(fmt.Sprintf("%s/%s", baseURL, company))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch lever feed: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, nil, fmt.Errorf("lever feed returned HTTP %d", resp.StatusCode())
	}

	postings := make([]source.Posting, 0, len(feed))
	for _, p := range feed {
		if p.HostedURL == "" {
			continue
		}
		postings = append(postings, source.Posting{
			URL:         p.HostedURL,
			Title:       p.Text,
			Company:     company,
			Description: p.DescriptionPlain,
			Location:    p.Categories.Location,
			Country:     p.Country,
		})
	}

	return postings, resp.Body(), nil
}
