package classifier

import (
	"context"
	"strings"
)

// HeuristicClassifier is a deterministic keyword classifier used when the AI
// classifier is unavailable or returns unparseable output. It is intentionally
// conservative: only clearly off-domain postings are rejected.
type HeuristicClassifier struct{}

// NewHeuristicClassifier creates the fallback classifier.
// Parameters: none.
// Returns:
//   - *HeuristicClassifier: stateless classifier instance.
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

// irrelevantMarkers flag postings that do not belong on a remote-job board.
var irrelevantMarkers = []string{
	"on-site only",
	"onsite only",
	"no remote",
	"mlm",
	"multi-level marketing",
	"commission only",
	"unpaid",
	"door to door",
	"door-to-door",
}

// categoryKeywords maps category names to title keywords, checked in order.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"engineering", []string{"engineer", "developer", "programmer", "devops", "sre", "architect", "qa", "tester"}},
	{"data", []string{"data scientist", "data analyst", "data engineer", "machine learning", "analytics"}},
	{"design", []string{"designer", "ux", "ui", "illustrator", "motion"}},
	{"product", []string{"product manager", "product owner", "pm "}},
	{"marketing", []string{"marketing", "seo", "content", "growth", "copywriter", "social media"}},
	{"sales", []string{"sales", "account executive", "business development", "bdr", "sdr"}},
	{"support", []string{"support", "customer success", "helpdesk", "help desk"}},
	{"operations", []string{"operations", "recruiter", "hr ", "people ops", "finance", "accountant"}},
}

// Classify returns a relevance verdict using keyword matching only.
// Parameters:
//   - ctx: unused, present to satisfy the Classifier interface.
//   - title: posting title.
//   - description: posting description, may be empty.
// Returns:
//   - Verdict: deterministic relevance decision.
//   - error: always nil.
func (h *HeuristicClassifier) Classify(_ context.Context, title, description string) (Verdict, error) {
	text := strings.ToLower(title + " " + description)
	for _, marker := range irrelevantMarkers {
		if strings.Contains(text, marker) {
			return VerdictIrrelevant, nil
		}
	}
	if CategoryFromTitle(title) == "" {
		// Title matches no known job category; treat as off-domain.
		return VerdictIrrelevant, nil
	}
	return VerdictRelevant, nil
}

// ExtractFields returns an empty extraction with a keyword-derived category.
// The heuristic path cannot summarize free text, so the arrays stay empty.
// Parameters:
//   - ctx: unused, present to satisfy the Classifier interface.
//   - title: posting title.
//   - description: unused.
// Returns:
//   - *Extraction: category-only extraction.
//   - error: always nil.
func (h *HeuristicClassifier) ExtractFields(_ context.Context, title, _ string) (*Extraction, error) {
	return &Extraction{
		Summary:      []string{},
		Requirements: []string{},
		Benefits:     []string{},
		Category:     CategoryFromTitle(title),
	}, nil
}

// CategoryFromTitle maps a job title to a category by keyword, or returns
// empty when no keyword matches. Deterministic by construction.
// Parameters:
//   - title: posting title.
// Returns:
//   - string: category name or empty.
func CategoryFromTitle(title string) string {
	lower := strings.ToLower(title)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return ""
}
