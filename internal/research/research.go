// Package research fetches current-events context for a topic through the
// Perplexity chat completions API before article generation begins.
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"newsstand/internal/core"
)

const defaultBaseURL = "https://api.perplexity.ai"

// Client is a Perplexity API client.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a research client. Model defaults to "sonar" and
// timeout to two minutes when zero values are passed.
func NewClient(apiKey, model, baseURL string, timeout time.Duration) *Client {
	if model == "" {
		model = "sonar"
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
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

// Fetch returns a research summary of the top trending story for the topic.
// It makes a single attempt; any transport, API or empty-content failure is
// returned as an error so the caller can abort the run early.
func (c *Client) Fetch(ctx context.Context, topic string, style core.WritingStyle) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("perplexity API key not configured")
	}
	if topic == "" {
		return "", fmt.Errorf("research topic is empty")
	}

	prompt := fmt.Sprintf("summarize the top trending news story regarding: %s", topic)
	if style != "" {
		prompt += fmt.Sprintf("\n\nThe summary will feed a %s article, so surface the angles that suit that treatment.", style)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a research assistant. Provide a factual, well-sourced summary of current news."},
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal research request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create research request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("research request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read research response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("research API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse research response: %w", err)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("research API returned no content")
	}

	return chatResp.Choices[0].Message.Content, nil
}
