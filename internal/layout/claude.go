package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newsstand/internal/article"
	"newsstand/internal/core"
)

const (
	defaultAnthropicURL = "https://api.anthropic.com"
	anthropicVersion    = "2023-06-01"
)

// ClaudeFormatter is the AI layout strategy: the whole draft plus image
// URLs go to the Anthropic messages API, which returns a finished page.
type ClaudeFormatter struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

// NewClaudeFormatter creates the AI strategy.
func NewClaudeFormatter(apiKey, model, baseURL string, maxTokens int, timeout time.Duration) *ClaudeFormatter {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if baseURL == "" {
		baseURL = defaultAnthropicURL
	}
	if maxTokens == 0 {
		maxTokens = 20000
	}
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	return &ClaudeFormatter{
		apiKey:    apiKey,
		model:     model,
		baseURL:   baseURL,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type messagesRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	System    string           `json:"system"`
	Messages  []messageContent `json:"messages"`
}

type messageContent struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Assemble asks the model for a complete HTML document. Any failure or
// empty result is an error; the orchestrator falls back to the template
// strategy without aborting the run.
func (f *ClaudeFormatter) Assemble(ctx context.Context, in Input) (string, error) {
	if f.apiKey == "" {
		return "", fmt.Errorf("anthropic api key not configured")
	}
	if in.Draft == nil {
		return "", fmt.Errorf("no draft to assemble")
	}

	reqBody := messagesRequest{
		Model:     f.model,
		MaxTokens: f.maxTokens,
		System:    layoutSystemPrompt,
		Messages: []messageContent{
			{Role: "user", Content: buildLayoutPrompt(in)},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal layout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", f.baseURL+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create layout request: %w", err)
	}
	req.Header.Set("x-api-key", f.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("layout request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read layout response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("layout API returned status %d: %s", resp.StatusCode, string(body))
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("failed to parse layout response: %w", err)
	}

	var text string
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	result := article.StripFences(text)
	if result == "" {
		return "", fmt.Errorf("layout API returned empty document")
	}
	return result, nil
}

const layoutSystemPrompt = `You are a magazine layout engine. You receive a semantic HTML article, image URLs and brand colors, and you return one complete standalone HTML document styled like a premium print magazine. Requirements:
- All presentation must use inline style attributes; no <style> blocks, no external CSS.
- Remove the article's h1 and render the title over the hero image instead.
- Each section h2 with a matching image becomes a full-width header with that image as background-image.
- Render the executive summary as a branded band below the hero.
- Insert the provided components at their anchors with distinctive treatments.
- Return only the HTML document, no commentary and no markdown fences.`

func buildLayoutPrompt(in Input) string {
	colors := in.Colors
	if colors.Primary == "" {
		colors = core.DefaultBrandColors()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Brand colors: primary %s, accent %s\n", colors.Primary, colors.Accent)
	fmt.Fprintf(&b, "Hero image URL: %s\n", in.HeroImageURL)
	b.WriteString("Section images:\n")
	for _, img := range in.SectionImages {
		fmt.Fprintf(&b, "- %q: %s\n", img.Heading, img.URL)
	}

	fmt.Fprintf(&b, "\nTitle: %s\n", in.Draft.Title)
	fmt.Fprintf(&b, "\nExecutive summary intro: %s\n", in.Draft.ExecutiveSummary.Intro)
	for _, stat := range in.Draft.ExecutiveSummary.KeyStats {
		fmt.Fprintf(&b, "- %s: %s\n", stat.Number, stat.Description)
	}

	if len(in.Draft.Components) > 0 {
		b.WriteString("\nComponents:\n")
		for _, component := range in.Draft.Components {
			if encoded, err := core.EncodeComponent(component); err == nil {
				b.WriteString(string(encoded))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\nArticle body:\n")
	b.WriteString(in.Draft.HTML)
	b.WriteString("\n\nHere is an example of the expected output quality:\n")
	b.WriteString(premiumLayoutExample)
	return b.String()
}

// premiumLayoutExample anchors the model on the expected structure without
// dictating exact markup.
const premiumLayoutExample = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Example Feature</title></head>
<body style="margin: 0; background-color: #f4f4f4; font-family: Georgia, serif;">
<div style="max-width: 800px; margin: 0 auto; background-color: #ffffff;">
<div style="background-image: url('HERO_URL'); background-size: cover; padding: 140px 40px 50px;">
<h1 style="background-color: rgba(0,0,0,0.6); color: #ffffff; display: inline-block; padding: 18px 26px;">Example Feature</h1>
</div>
<div style="background-color: PRIMARY; color: #ffffff; padding: 30px 40px;">Executive summary band with key stats</div>
<div style="padding: 30px 40px;">
<div style="background-image: url('SECTION_URL'); background-size: cover; padding: 70px 40px;">
<h2 style="background-color: rgba(0,0,0,0.55); color: #ffffff; display: inline-block; padding: 12px 20px;">Section Heading</h2>
</div>
<p style="font-size: 17px; line-height: 1.7; color: #333333;">Body text...</p>
</div>
</div>
</body>
</html>`
