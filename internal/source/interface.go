package source

import (
	"context"

	"github.com/Fedor-K/Freelanly2-sub002/internal/domain"
)

// Posting represents one raw job posting pulled from an external source
// before classification and normalization.
type Posting struct {
	URL         string   // Canonical posting URL, used as the dedup key
	Title       string
	Company     string
	Description string
	Location    string
	Country     string
	Skills      []string
	SalaryMin   int
	SalaryMax   int
	Level       string
}

// Fetcher defines the interface for source-type-specific feed access.
type Fetcher interface {
	// Type returns the source type this fetcher serves.
	// Parameters: none.
	// Returns:
	//   - domain.SourceType: serviced source type.
	Type() domain.SourceType

	// Fetch pulls the current raw feed for a configured source.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - src: data source whose Config directs the fetch.
	// Returns:
	//   - postings: raw postings found in the feed.
	//   - raw: raw payload bytes for archival, may be nil.
	//   - err: non-nil if the feed is unreachable; fatal to the run.
	Fetch(ctx context.Context, src *domain.DataSource) (postings []Posting, raw []byte, err error)
}

// Registry maps source types to their fetchers.
type Registry map[domain.SourceType]Fetcher

// NewRegistry builds a registry from the given fetchers.
// Parameters:
//   - fetchers: fetcher implementations to register.
// Returns:
//   - Registry: lookup table keyed by source type.
func NewRegistry(fetchers ...Fetcher) Registry {
	reg := make(Registry, len(fetchers))
	for _, f := range fetchers {
		reg[f.Type()] = f
	}
	return reg
}
