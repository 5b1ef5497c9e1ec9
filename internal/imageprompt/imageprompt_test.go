package imageprompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"newsstand/internal/core"
)

const articleHTML = `<h1>Deep Sea Mining</h1>
<p>Opening paragraph about the seabed rush.</p>
<h2>The Machines</h2>
<p>Robotic harvesters crawl the abyssal plain collecting nodules.</p>
<p>Each weighs as much as a school bus.</p>
<h2>The Stakes</h2>
<p>Battery metals versus untouched ecosystems.</p>`

func TestExtractSections(t *testing.T) {
	sections, err := ExtractSections(articleHTML)
	if err != nil {
		t.Fatalf("ExtractSections failed: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Heading != "The Machines" {
		t.Errorf("unexpected heading %q", sections[0].Heading)
	}
	if !strings.Contains(sections[0].TextPreview, "Robotic harvesters") {
		t.Errorf("preview missing section text: %q", sections[0].TextPreview)
	}
	if strings.Contains(sections[0].TextPreview, "Battery metals") {
		t.Error("preview leaked into next section")
	}
	if sections[1].Heading != "The Stakes" {
		t.Errorf("unexpected heading %q", sections[1].Heading)
	}
}

func TestExtractSectionsTruncatesPreview(t *testing.T) {
	long := "<h2>Long</h2><p>" + strings.Repeat("word ", 200) + "</p>"
	sections, err := ExtractSections(long)
	if err != nil {
		t.Fatalf("ExtractSections failed: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if len(sections[0].TextPreview) > maxPreviewLen {
		t.Errorf("preview length %d exceeds cap", len(sections[0].TextPreview))
	}
}

func TestExtractSectionsNoHeadings(t *testing.T) {
	sections, err := ExtractSections("<p>just a paragraph</p>")
	if err != nil {
		t.Fatalf("ExtractSections failed: %v", err)
	}
	if len(sections) != 0 {
		t.Errorf("expected no sections, got %d", len(sections))
	}
}

type fakeModel struct {
	response string
	err      error
	prompt   string
}

func (f *fakeModel) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func draft() *core.ArticleDraft {
	return &core.ArticleDraft{Title: "Deep Sea Mining", HTML: articleHTML}
}

func TestGenerateSuccess(t *testing.T) {
	model := &fakeModel{response: "```json\n" + `{
		"hero_prompt": "Aerial view of a mining vessel at dawn",
		"section_prompts": [
			{"section_heading": "The Machines", "prompt": "Robotic harvester on the seabed"},
			{"section_heading": "The Stakes", "prompt": "Split view of nodule field and reef"}
		]
	}` + "\n```"}

	set, err := newGeneratorWithModel(model).Generate(context.Background(), draft(), core.StyleInvestigative)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if set.HeroPrompt != "Aerial view of a mining vessel at dawn" {
		t.Errorf("unexpected hero prompt %q", set.HeroPrompt)
	}
	if len(set.SectionPrompts) != 2 {
		t.Fatalf("expected 2 section prompts, got %d", len(set.SectionPrompts))
	}
	if set.SectionPrompts[1].SectionHeading != "The Stakes" {
		t.Errorf("unexpected heading %q", set.SectionPrompts[1].SectionHeading)
	}

	if !strings.Contains(model.prompt, "documentary-style imagery") {
		t.Error("visual guidance missing from prompt")
	}
	if !strings.Contains(model.prompt, "exactly 2 section prompts") {
		t.Error("section count missing from prompt")
	}
}

func TestGenerateCountMismatch(t *testing.T) {
	model := &fakeModel{response: `{
		"hero_prompt": "hero",
		"section_prompts": [{"section_heading": "The Machines", "prompt": "only one"}]
	}`}

	_, err := newGeneratorWithModel(model).Generate(context.Background(), draft(), "")
	if err == nil {
		t.Fatal("expected count mismatch error")
	}
	var mismatch *CountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected CountMismatchError, got %T", err)
	}
	if mismatch.Want != 2 || mismatch.Got != 1 {
		t.Errorf("unexpected counts %+v", mismatch)
	}
	if mismatch.Partial == nil || len(mismatch.Partial.SectionPrompts) != 1 {
		t.Error("partial set not carried on mismatch")
	}
}

func TestGenerateMalformedResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  string
	}{
		{"prose", "cannot comply", "no JSON object"},
		{"missing hero", `{"section_prompts": [{"prompt": "a"}, {"prompt": "b"}]}`, "missing hero"},
		{"bad json", `{"hero_prompt": `, "no JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{response: tt.response}
			_, err := newGeneratorWithModel(model).Generate(context.Background(), draft(), "")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestGenerateModelError(t *testing.T) {
	model := &fakeModel{err: fmt.Errorf("quota exhausted")}
	_, err := newGeneratorWithModel(model).Generate(context.Background(), draft(), "")
	if err == nil || !strings.Contains(err.Error(), "quota exhausted") {
		t.Errorf("expected model error to propagate, got %v", err)
	}
}

func TestGenerateNoSections(t *testing.T) {
	d := &core.ArticleDraft{Title: "t", HTML: "<p>no headings</p>"}
	_, err := newGeneratorWithModel(&fakeModel{}).Generate(context.Background(), d, "")
	if err == nil || !strings.Contains(err.Error(), "no sections") {
		t.Errorf("expected no-sections error, got %v", err)
	}
}
