package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Fedor-K/Freelanly2-sub002/internal/prompts"
	"github.com/go-resty/resty/v2"
)

// Verdict is the relevance decision for one posting.
type Verdict string

const (
	VerdictRelevant   Verdict = "RELEVANT"
	VerdictIrrelevant Verdict = "IRRELEVANT"
)

// maxExtractionInput bounds the description text sent to extraction prompts.
const maxExtractionInput = 8000

// Extraction holds the structured fields pulled from a posting's free text.
// Arrays are empty, never nil, when extraction finds nothing.
type Extraction struct {
	Summary      []string `json:"summary"`
	Requirements []string `json:"requirements"`
	Benefits     []string `json:"benefits"`
	Category     string   `json:"category"`
}

// Classifier decides relevance and extracts structured fields from postings.
type Classifier interface {
	// Classify returns a relevance verdict for a posting.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - title: posting title.
	//   - description: posting description, may be empty.
	// Returns:
	//   - Verdict: relevance decision.
	//   - error: non-nil if the decision could not be made.
	Classify(ctx context.Context, title, description string) (Verdict, error)

	// ExtractFields extracts structured fields from posting text.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - title: posting title.
	//   - description: posting description.
	// Returns:
	//   - *Extraction: extracted fields, arrays empty when not extractable.
	//   - error: non-nil if the call or parse failed.
	ExtractFields(ctx context.Context, title, description string) (*Extraction, error)
}

// providerBaseURLs maps provider names to their OpenAI-compatible endpoints.
// All providers speak the same chat-completions wire format; only the base
// URL differs.
var providerBaseURLs = map[string]string{
	"openai":   "https://api.openai.com/v1",
	"deepseek": "https://api.deepseek.com/v1",
	"zai":      "https://api.z.ai/api/paas/v4",
}

// Config holds configuration for the OpenAI-compatible classifier.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string // overrides the provider default when set
}

// OpenAIClassifier calls an OpenAI-compatible chat completions API.
type OpenAIClassifier struct {
	client   *resty.Client
	model    string
	endpoint string
}

// NewOpenAIClassifier creates a classifier for an OpenAI-compatible provider.
// Parameters:
//   - cfg: provider, model and credentials.
// Returns:
//   - *OpenAIClassifier: initialized classifier.
func NewOpenAIClassifier(cfg *Config) *OpenAIClassifier {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(60 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if u, ok := providerBaseURLs[cfg.Provider]; ok {
			baseURL = u
		} else {
			baseURL = providerBaseURLs["openai"]
		}
	}

	return &OpenAIClassifier{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
	}
}

// GetModel returns the model name being used.
// Parameters: none.
// Returns:
//   - string: model identifier.
func (c *OpenAIClassifier) GetModel() string {
	return c.model
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// complete sends one chat completion request and returns the content string.
func (c *OpenAIClassifier) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: 0,
	}

	var resp chatResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to call classifier API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d", httpResp.StatusCode())
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return "", fmt.Errorf("classifier API returned error: %s", errorMsg)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("classifier API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from classifier API (status: %d)", httpResp.StatusCode())
	}

	return resp.Choices[0].Message.Content, nil
}

// Classify returns a relevance verdict for a posting.
// Unrecognized model output is an error so the caller can fall back to the
// heuristic classifier rather than guess.
func (c *OpenAIClassifier) Classify(ctx context.Context, title, description string) (Verdict, error) {
	user := "Title: " + title
	if description != "" {
		user += "\n\nDescription:\n" + truncate(description, maxExtractionInput)
	}

	content, err := c.complete(ctx, prompts.RelevanceSystemPrompt, user, 10)
	if err != nil {
		return "", err
	}

	return ParseVerdict(content)
}

// ExtractFields extracts structured fields from posting text.
func (c *OpenAIClassifier) ExtractFields(ctx context.Context, title, description string) (*Extraction, error) {
	user := "Title: " + title + "\n\nDescription:\n" + truncate(description, maxExtractionInput)

	content, err := c.complete(ctx, prompts.ExtractionSystemPrompt, user, 600)
	if err != nil {
		return nil, err
	}

	return ParseExtraction(content)
}

// ParseVerdict parses a single-token relevance verdict from model output,
// tolerating surrounding whitespace and punctuation but nothing else.
// Parameters:
//   - content: raw model output.
// Returns:
//   - Verdict: parsed verdict.
//   - error: non-nil if the output is not a recognizable verdict.
func ParseVerdict(content string) (Verdict, error) {
	token := strings.ToUpper(strings.Trim(strings.TrimSpace(content), ".!\"'"))
	switch token {
	case string(VerdictRelevant):
		return VerdictRelevant, nil
	case string(VerdictIrrelevant):
		return VerdictIrrelevant, nil
	}
	return "", fmt.Errorf("unparseable verdict %q", content)
}

// ParseExtraction defensively parses the extraction JSON from model output.
// Markdown fences and leading prose are stripped before decoding; a result
// that still fails to decode is an error, never a partial guess.
// Parameters:
//   - content: raw model output.
// Returns:
//   - *Extraction: parsed fields with nil arrays normalized to empty.
//   - error: non-nil if no JSON object could be decoded.
func ParseExtraction(content string) (*Extraction, error) {
	payload := stripToJSONObject(content)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in extraction output")
	}

	var ext Extraction
	if err := json.Unmarshal([]byte(payload), &ext); err != nil {
		return nil, fmt.Errorf("failed to parse extraction output: %w", err)
	}

	if ext.Summary == nil {
		ext.Summary = []string{}
	}
	if ext.Requirements == nil {
		ext.Requirements = []string{}
	}
	if ext.Benefits == nil {
		ext.Benefits = []string{}
	}
	ext.Category = strings.ToLower(strings.TrimSpace(ext.Category))

	return &ext, nil
}

// stripToJSONObject isolates the outermost {...} span from model output.
func stripToJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return content[start : end+1]
}

// truncate caps s at max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
