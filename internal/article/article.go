// Package article turns a research summary into a structured magazine
// article draft using the OpenAI chat completions API.
package article

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"newsstand/internal/core"
	"newsstand/internal/logger"
)

// Generator produces structured article drafts.
type Generator struct {
	model     string
	maxTokens int64
	opts      []option.RequestOption
}

// NewGenerator creates an article generator. Extra request options are
// appended after the API key, so tests can override the base URL.
func NewGenerator(apiKey, model string, maxTokens int64, extra ...option.RequestOption) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key missing")
	}
	if model == "" {
		model = "gpt-4o-2024-08-06"
	}
	if maxTokens == 0 {
		maxTokens = 8000
	}
	opts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, extra...)
	return &Generator{model: model, maxTokens: maxTokens, opts: opts}, nil
}

// Request carries everything the generator needs for one draft.
type Request struct {
	Topic           string
	ResearchSummary string
	Style           core.WritingStyle
	WordCountLow    int
	WordCountHigh   int
}

// Generate asks the model for a structured article document and parses it.
// A malformed response gets exactly one repair round trip: the bad output is
// sent back with a corrective instruction. Failure after that returns a
// ParseError.
func (g *Generator) Generate(ctx context.Context, req Request) (*core.ArticleDraft, error) {
	if req.ResearchSummary == "" {
		return nil, fmt.Errorf("research summary is empty")
	}
	if req.WordCountLow == 0 {
		req.WordCountLow = 1500
	}
	if req.WordCountHigh == 0 {
		req.WordCountHigh = 2500
	}

	client := openai.NewClient(g.opts...)

	systemPrompt := buildSystemPrompt(req)
	userPrompt := buildUserPrompt(req)

	raw, err := g.complete(ctx, &client, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userPrompt),
	})
	if err != nil {
		return nil, err
	}

	draft, skipped, parseErr := parseDraft(raw)
	if parseErr != nil {
		logger.Warn("article response malformed, requesting repair", "reason", parseErr.Error())
		raw, err = g.complete(ctx, &client, []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
			openai.ChatCompletionMessageParamOfAssistant(raw),
			openai.UserMessage(repairPrompt(parseErr.(*ParseError))),
		})
		if err != nil {
			return nil, err
		}
		draft, skipped, parseErr = parseDraft(raw)
		if parseErr != nil {
			return nil, parseErr
		}
	}

	for _, reason := range skipped {
		logger.Warn("dropped article component", "reason", reason)
	}

	return draft, nil
}

func (g *Generator) complete(ctx context.Context, client *openai.Client, msgs []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(g.model),
		Messages:            msgs,
		MaxCompletionTokens: openai.Int(g.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("article completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("article completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildSystemPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are an expert magazine writer producing long-form feature articles.\n")
	b.WriteString(req.Style.WritingGuidance())
	b.WriteString("\n\nRespond with a single JSON object and nothing else. The object has exactly these keys:\n")
	b.WriteString(`- "title": the article headline` + "\n")
	b.WriteString(`- "html": the article body as semantic HTML only (h1, h2, h3, p, ul, ol, li). No class attributes, no style attributes, no <style> blocks. Open with an <h1>, then 4 to 6 <h2> sections.` + "\n")
	b.WriteString(`- "executive_summary": {"intro": one paragraph, "key_stats": [{"number", "description"} x 3-4]}` + "\n")
	b.WriteString(`- "components": array of magazine components. Each is an object with a "type" of "pull_quote", "stat_highlight", "case_study" or "sidebar", the fields for that type, and either "insert_after_paragraph" (1-based paragraph number) or "insert_after_heading" (exact h2 text) to place it.` + "\n")
	return b.String()
}

func buildUserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %d-%d word magazine article", req.WordCountLow, req.WordCountHigh)
	if req.Topic != "" {
		fmt.Fprintf(&b, " about %s", req.Topic)
	}
	b.WriteString(", grounded in this research:\n\n")
	b.WriteString(req.ResearchSummary)
	b.WriteString("\n\nInclude 2-4 components. Remember: JSON object only.")
	return b.String()
}

func repairPrompt(parseErr *ParseError) string {
	return fmt.Sprintf(
		"Your previous response could not be used: %s. Resend the complete article as one valid JSON object with the keys title, html, executive_summary and components. Do not wrap it in markdown fences and do not add commentary.",
		parseErr.Reason,
	)
}
