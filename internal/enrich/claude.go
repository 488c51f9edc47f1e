package enrich

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"github.com/aktagon/newsletter-wrapper/internal/page"
)

const (
	DefaultClaudeModel      = "claude-sonnet-4-20250514"
	defaultContentMaxTokens = 4000
)

// promptFunc sends one prompt to the model and returns the first text block.
type promptFunc func(systemPrompt, userPrompt string, settings types.RequestSettings) (string, error)

// Claude summarizes articles by fetching the page and asking Anthropic's API for a summary.
// The page fetch counts against the worker budget; the model call goes through llmkit.
type Claude struct {
	APIKey           string
	Model            string
	MaxTokens        int
	Temperature      float64
	ContentMaxTokens int

	prompt promptFunc
}

// NewClaude creates a summarizer with default model settings.
func NewClaude(apiKey string) *Claude {
	c := &Claude{
		APIKey:           apiKey,
		Model:            DefaultClaudeModel,
		MaxTokens:        defaultSummaryMaxTokens,
		Temperature:      0.2,
		ContentMaxTokens: defaultContentMaxTokens,
	}
	c.prompt = c.callAnthropic
	return c
}

func (c *Claude) Name() string { return "claude" }

func (c *Claude) Summarize(ctx context.Context, client *http.Client, req SummaryRequest) (string, error) {
	content, err := page.NewFetcher(client).Fetch(ctx, req.URL)
	if err != nil {
		return "", fmt.Errorf("fetching article: %w", err)
	}
	if strings.TrimSpace(content.Text) == "" {
		return "", fmt.Errorf("no article text at %s", req.URL)
	}

	userPrompt := fmt.Sprintf(`Summarize the news article at this URL: %s

Source content:
%s`, req.URL, limitContentTokens(content.Text, c.ContentMaxTokens))
	if req.Context != "" {
		userPrompt = fmt.Sprintf("%s\n\nThe newsletter cites it like this:\n%s", userPrompt, req.Context)
	}

	settings := types.RequestSettings{
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}
	prompt := c.prompt
	if prompt == nil {
		prompt = c.callAnthropic
	}
	text, err := prompt(summarySystemPrompt, userPrompt, settings)
	if err != nil {
		return "", fmt.Errorf("summary agent failed: %w", err)
	}
	return CleanSummary(text)
}

func (c *Claude) callAnthropic(systemPrompt, userPrompt string, settings types.RequestSettings) (string, error) {
	response, err := anthropic.PromptWithSettings(systemPrompt, userPrompt, "", c.APIKey, settings)
	if err != nil {
		return "", err
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return response.Content[0].Text, nil
}

// limitContentTokens limits content to approximately N tokens (using 4 chars ≈ 1 token)
func limitContentTokens(content string, maxTokens int) string {
	if maxTokens <= 0 {
		return content
	}
	maxChars := maxTokens * 4
	if len(content) <= maxChars {
		return content
	}
	return content[:maxChars] + "..."
}
