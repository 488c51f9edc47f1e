package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	DefaultPerplexityEndpoint = "https://api.perplexity.ai/chat/completions"
	DefaultPerplexityModel    = "sonar"
	defaultSummaryMaxTokens   = 250
)

// Perplexity summarizes articles with Perplexity's search-backed chat completions API.
type Perplexity struct {
	APIKey    string
	Endpoint  string
	Model     string
	MaxTokens int
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
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
}

// NewPerplexity creates a summarizer with the default endpoint and model.
func NewPerplexity(apiKey string) *Perplexity {
	return &Perplexity{
		APIKey:    apiKey,
		Endpoint:  DefaultPerplexityEndpoint,
		Model:     DefaultPerplexityModel,
		MaxTokens: defaultSummaryMaxTokens,
	}
}

func (p *Perplexity) Name() string { return "perplexity" }

func (p *Perplexity) Summarize(ctx context.Context, client *http.Client, req SummaryRequest) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.Model,
		Messages: []chatMessage{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: summaryUserPrompt + req.URL},
		},
		MaxTokens: p.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encoding perplexity request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building perplexity request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("perplexity API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("perplexity API %d: %s", resp.StatusCode, string(b))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decoding perplexity response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty perplexity response")
	}
	return CleanSummary(cr.Choices[0].Message.Content)
}
