package layout

import (
	"strings"
	"testing"

	"newsstand/internal/core"
)

func layoutInput() Input {
	return Input{
		Draft: &core.ArticleDraft{
			Title: "The Quiet Rise of Grid Batteries",
			HTML: `<h1>The Quiet Rise of Grid Batteries</h1>
<p>First paragraph.</p>
<p>Second paragraph.</p>
<h2>Why Now</h2>
<p>Section body.</p>
<h2>What Comes Next</h2>
<p>Closing body.</p>`,
			ExecutiveSummary: core.ExecutiveSummary{
				Intro:    "Storage crossed a threshold.",
				KeyStats: []core.KeyStat{{Number: "40%", Description: "cost decline"}},
			},
			Components: []core.Component{
				core.PullQuote{Content: "Storage is the new peaker.", At: core.Anchor{AfterParagraph: 1}},
				core.StatHighlight{Number: "11 GW", Description: "installed", At: core.Anchor{AfterHeading: "Why Now"}},
			},
		},
		HeroImageURL: "https://img.example/hero.jpg",
		SectionImages: []core.SectionImage{
			{Heading: "Why Now", URL: "https://img.example/s1.jpg"},
		},
		Colors: core.DefaultBrandColors(),
	}
}

func TestAssembleStructure(t *testing.T) {
	out, err := NewTemplateAssembler().Assemble(layoutInput())
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Error("missing doctype")
	}
	if strings.Count(out, "<h1") != 1 {
		t.Error("draft h1 should be dropped in favor of the hero title")
	}
	if !strings.Contains(out, "background-image: url('https://img.example/hero.jpg')") {
		t.Error("hero image missing")
	}
	if !strings.Contains(out, "background-image: url('https://img.example/s1.jpg')") {
		t.Error("section image missing")
	}
	if !strings.Contains(out, "Executive Summary") || !strings.Contains(out, "Storage crossed a threshold.") {
		t.Error("executive summary missing")
	}
	if !strings.Contains(out, "#08b2c6") || !strings.Contains(out, "#ff6b11") {
		t.Error("brand colors missing")
	}
	if !strings.Contains(out, "Storage is the new peaker.") {
		t.Error("pull quote missing")
	}
	if !strings.Contains(out, "11 GW") {
		t.Error("stat highlight missing")
	}
	// The heading without an image still gets a styled band.
	if !strings.Contains(out, "What Comes Next") {
		t.Error("unmatched heading lost")
	}
}

func TestAssembleComponentPlacement(t *testing.T) {
	out, err := NewTemplateAssembler().Assemble(layoutInput())
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	first := strings.Index(out, "First paragraph.")
	quote := strings.Index(out, "Storage is the new peaker.")
	second := strings.Index(out, "Second paragraph.")
	if !(first < quote && quote < second) {
		t.Errorf("pull quote not between paragraphs: first=%d quote=%d second=%d", first, quote, second)
	}

	heading := strings.Index(out, "Why Now")
	stat := strings.Index(out, "11 GW")
	next := strings.Index(out, "What Comes Next")
	if !(heading < stat && stat < next) {
		t.Errorf("stat highlight not after its heading: heading=%d stat=%d next=%d", heading, stat, next)
	}
}

func TestAssembleDeterministic(t *testing.T) {
	a := NewTemplateAssembler()
	first, err := a.Assemble(layoutInput())
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	second, err := a.Assemble(layoutInput())
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if first != second {
		t.Error("identical input produced different output")
	}
}

func TestAssembleDanglingAnchorsDropped(t *testing.T) {
	in := layoutInput()
	in.Draft.Components = []core.Component{
		core.PullQuote{Content: "orphan by paragraph", At: core.Anchor{AfterParagraph: 99}},
		core.PullQuote{Content: "orphan by heading", At: core.Anchor{AfterHeading: "No Such Section"}},
		core.PullQuote{Content: "orphan with no anchor"},
		core.Sidebar{Title: "Kept", Content: "<p>still here</p>", At: core.Anchor{AfterParagraph: 2}},
	}

	out, err := NewTemplateAssembler().Assemble(in)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if strings.Contains(out, "orphan by paragraph") || strings.Contains(out, "orphan by heading") || strings.Contains(out, "orphan with no anchor") {
		t.Error("dangling component should be dropped")
	}
	if !strings.Contains(out, "still here") {
		t.Error("valid component lost")
	}
}

func TestAssembleDefaultColors(t *testing.T) {
	in := layoutInput()
	in.Colors = core.BrandColors{}
	out, err := NewTemplateAssembler().Assemble(in)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if !strings.Contains(out, "#08b2c6") {
		t.Error("default primary color not applied")
	}
}

func TestAssembleNilDraft(t *testing.T) {
	if _, err := NewTemplateAssembler().Assemble(Input{}); err == nil {
		t.Error("expected error for nil draft")
	}
}

func TestRenderComponentCaseStudy(t *testing.T) {
	snippet := renderComponent(core.CaseStudy{
		Title:     "Plant Retrofit",
		Profile:   "Mid-size utility",
		Challenge: "Peak shaving",
		Solution:  "Grid batteries",
		Results:   []string{"30% cost cut", "Zero outages"},
		Quote:     "It paid for itself.",
	}, core.DefaultBrandColors())

	for _, want := range []string{"Case Study", "Plant Retrofit", "Mid-size utility", "30% cost cut", "It paid for itself."} {
		if !strings.Contains(snippet, want) {
			t.Errorf("case study snippet missing %q", want)
		}
	}
}
