package imageprompt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"newsstand/internal/article"
	"newsstand/internal/core"
)

// textModel is the slice of the Gemini API the generator needs; tests
// substitute a fake.
type textModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Generator asks Gemini for photographic prompts matched to the article's
// content and writing style.
type Generator struct {
	model textModel
}

// NewGenerator creates a prompt generator backed by the Gemini API.
func NewGenerator(ctx context.Context, apiKey, modelName string, temperature float32) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key missing")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	if temperature > 0 {
		model.SetTemperature(temperature)
	}

	return &Generator{model: &geminiModel{model: model}}, nil
}

// newGeneratorWithModel wires a custom model, used by tests.
func newGeneratorWithModel(m textModel) *Generator {
	return &Generator{model: m}
}

type geminiModel struct {
	model *genai.GenerativeModel
}

func (g *geminiModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("gemini returned non-text content")
	}
	return string(text), nil
}

// promptDocument is the wire shape of the model's response.
type promptDocument struct {
	HeroPrompt     string `json:"hero_prompt"`
	SectionPrompts []struct {
		SectionHeading string `json:"section_heading"`
		Prompt         string `json:"prompt"`
	} `json:"section_prompts"`
}

// Generate returns a hero prompt plus exactly one prompt per article
// section. A count mismatch between request and response is an error here;
// the orchestrator decides how to compensate.
func (g *Generator) Generate(ctx context.Context, draft *core.ArticleDraft, style core.WritingStyle) (*core.ImagePromptSet, error) {
	sections, err := ExtractSections(draft.HTML)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("article has no sections to illustrate")
	}

	raw, err := g.model.GenerateText(ctx, buildPrompt(draft.Title, sections, style))
	if err != nil {
		return nil, err
	}

	cleaned := article.StripFences(raw)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in image prompt response")
	}

	var doc promptDocument
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse image prompt response: %w", err)
	}

	if doc.HeroPrompt == "" {
		return nil, fmt.Errorf("image prompt response missing hero prompt")
	}

	set := &core.ImagePromptSet{HeroPrompt: doc.HeroPrompt}
	for i, sp := range doc.SectionPrompts {
		heading := sp.SectionHeading
		if heading == "" && i < len(sections) {
			heading = sections[i].Heading
		}
		set.SectionPrompts = append(set.SectionPrompts, core.SectionPrompt{
			SectionHeading: heading,
			Prompt:         sp.Prompt,
		})
	}

	if len(doc.SectionPrompts) != len(sections) {
		return nil, &CountMismatchError{Want: len(sections), Got: len(doc.SectionPrompts), Partial: set}
	}

	return set, nil
}

// CountMismatchError reports a response whose section prompt count does not
// match the article. The partial set rides along so the orchestrator can pad
// or truncate instead of discarding the usable prompts.
type CountMismatchError struct {
	Want    int
	Got     int
	Partial *core.ImagePromptSet
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("expected %d section prompts, got %d", e.Want, e.Got)
}

func buildPrompt(title string, sections []Section, style core.WritingStyle) string {
	var b strings.Builder
	b.WriteString("You are an art director briefing a photographer for a magazine feature.\n")
	fmt.Fprintf(&b, "Article title: %s\n", title)
	if guidance := style.VisualGuidance(); guidance != "" {
		fmt.Fprintf(&b, "Visual direction: %s\n", guidance)
	}
	fmt.Fprintf(&b, "\nThe article has %d sections:\n", len(sections))
	for i, s := range sections {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, s.Heading, s.TextPreview)
	}
	b.WriteString("\nWrite detailed photographic prompts: one dramatic hero image for the whole article and one image per section. ")
	b.WriteString("Every prompt must describe a single photorealistic scene with concrete subjects, setting, lighting and mood. No text overlays, no logos.\n")
	fmt.Fprintf(&b, "Respond with only a JSON object: {\"hero_prompt\": \"...\", \"section_prompts\": [{\"section_heading\": \"...\", \"prompt\": \"...\"}]} with exactly %d section prompts in article order.", len(sections))
	return b.String()
}
