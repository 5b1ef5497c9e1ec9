// Package layout turns a plain article draft plus generated images into a
// finished magazine page. Two strategies exist: an AI formatter and a
// deterministic template assembler used as its fallback.
package layout

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newsstand/internal/core"
	"newsstand/internal/logger"
)

// Input carries everything a strategy needs to build the final page.
type Input struct {
	Draft         *core.ArticleDraft
	HeroImageURL  string
	SectionImages []core.SectionImage
	Colors        core.BrandColors
}

// TemplateAssembler builds the page deterministically: identical input
// yields byte-identical output.
type TemplateAssembler struct{}

// NewTemplateAssembler creates the deterministic strategy.
func NewTemplateAssembler() *TemplateAssembler {
	return &TemplateAssembler{}
}

// Assemble produces a complete HTML document with all presentation inline.
func (a *TemplateAssembler) Assemble(in Input) (string, error) {
	if in.Draft == nil {
		return "", fmt.Errorf("no draft to assemble")
	}
	colors := in.Colors
	if colors.Primary == "" {
		colors = core.DefaultBrandColors()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in.Draft.HTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse article html: %w", err)
	}

	body := doc.Find("body")

	// The title renders in the hero block instead.
	body.Find("h1").Remove()

	insertComponents(body, in.Draft.Components, colors)
	styleSections(body, in.SectionImages, colors)
	styleProse(body, colors)

	bodyHTML, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render article body: %w", err)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(in.Draft.Title))
	b.WriteString("</head>\n")
	b.WriteString(`<body style="margin: 0; padding: 0; background-color: #f4f4f4; font-family: Georgia, 'Times New Roman', serif;">` + "\n")
	b.WriteString(`<div style="max-width: 800px; margin: 0 auto; background-color: #ffffff;">` + "\n")
	b.WriteString(heroBlock(in.Draft.Title, in.HeroImageURL, colors))
	b.WriteString(summaryBlock(in.Draft.ExecutiveSummary, colors))
	fmt.Fprintf(&b, "<div style=\"padding: 30px 40px;\">\n%s\n</div>\n", strings.TrimSpace(bodyHTML))
	b.WriteString("</div>\n</body>\n</html>\n")

	return b.String(), nil
}

// insertComponents places each component at its anchor. Anchors are resolved
// against a snapshot of the original paragraphs and headings so earlier
// insertions cannot shift later ones. Dangling anchors are logged and the
// component dropped.
func insertComponents(body *goquery.Selection, components []core.Component, colors core.BrandColors) {
	paragraphs := body.ChildrenFiltered("p")
	headings := body.Find("h2")

	for _, component := range components {
		snippet := renderComponent(component, colors)
		if snippet == "" {
			continue
		}

		anchor := component.Anchor()
		switch {
		case anchor.AfterParagraph > 0:
			target := paragraphs.Eq(anchor.AfterParagraph - 1)
			if target.Length() == 0 {
				logger.Warn("component anchor beyond last paragraph, dropping",
					"kind", string(component.Kind()), "paragraph", anchor.AfterParagraph)
				continue
			}
			target.AfterHtml(snippet)
		case anchor.AfterHeading != "":
			target := headings.FilterFunction(func(_ int, s *goquery.Selection) bool {
				return strings.TrimSpace(s.Text()) == anchor.AfterHeading
			})
			if target.Length() == 0 {
				logger.Warn("component anchor heading not found, dropping",
					"kind", string(component.Kind()), "heading", anchor.AfterHeading)
				continue
			}
			target.First().AfterHtml(snippet)
		default:
			logger.Warn("component has no anchor, dropping", "kind", string(component.Kind()))
		}
	}
}

func renderComponent(c core.Component, colors core.BrandColors) string {
	switch v := c.(type) {
	case core.PullQuote:
		return fmt.Sprintf(
			`<div style="border-left: 4px solid %s; margin: 30px 0; padding: 10px 25px; font-size: 24px; font-style: italic; color: %s;">%s</div>`,
			colors.Accent, colors.Primary, html.EscapeString(v.Content))
	case core.StatHighlight:
		return fmt.Sprintf(
			`<div style="background-color: %s; color: #ffffff; text-align: center; margin: 30px 0; padding: 25px;"><div style="font-size: 42px; font-weight: bold;">%s</div><div style="font-size: 16px;">%s</div></div>`,
			colors.Primary, html.EscapeString(v.Number), html.EscapeString(v.Description))
	case core.CaseStudy:
		var results strings.Builder
		for _, r := range v.Results {
			fmt.Fprintf(&results, `<li style="margin-bottom: 6px;">%s</li>`, html.EscapeString(r))
		}
		quote := ""
		if v.Quote != "" {
			quote = fmt.Sprintf(`<p style="font-style: italic; color: %s; margin-bottom: 0;">&ldquo;%s&rdquo;</p>`, colors.Primary, html.EscapeString(v.Quote))
		}
		return fmt.Sprintf(
			`<div style="border: 2px solid %s; margin: 30px 0; padding: 25px;"><div style="color: %s; font-size: 14px; font-weight: bold; text-transform: uppercase; letter-spacing: 1px;">Case Study</div><h3 style="margin: 10px 0; color: %s;">%s</h3><p><strong>Profile:</strong> %s</p><p><strong>Challenge:</strong> %s</p><p><strong>Solution:</strong> %s</p><ul style="padding-left: 20px;">%s</ul>%s</div>`,
			colors.Primary, colors.Accent, colors.Primary,
			html.EscapeString(v.Title), html.EscapeString(v.Profile),
			html.EscapeString(v.Challenge), html.EscapeString(v.Solution),
			results.String(), quote)
	case core.Sidebar:
		return fmt.Sprintf(
			`<div style="background-color: #f7f7f7; border-top: 3px solid %s; margin: 30px 0; padding: 25px;"><h3 style="margin-top: 0; color: %s;">%s</h3><div style="font-size: 15px;">%s</div></div>`,
			colors.Accent, colors.Primary, html.EscapeString(v.Title), v.Content)
	}
	return ""
}

// styleSections replaces each h2 with a section header div. Headings with a
// matching generated image get it as a background; the rest get a solid
// brand band.
func styleSections(body *goquery.Selection, images []core.SectionImage, colors core.BrandColors) {
	imageByHeading := make(map[string]string, len(images))
	for _, img := range images {
		if img.URL != "" {
			imageByHeading[img.Heading] = img.URL
		}
	}

	body.Find("h2").Each(func(_ int, h *goquery.Selection) {
		heading := strings.TrimSpace(h.Text())
		escaped := html.EscapeString(heading)

		if url, ok := imageByHeading[heading]; ok {
			h.ReplaceWithHtml(fmt.Sprintf(
				`<div style="background-image: url('%s'); background-size: cover; background-position: center; margin: 40px -40px 20px; padding: 70px 40px;"><h2 style="background-color: rgba(0, 0, 0, 0.55); color: #ffffff; display: inline-block; margin: 0; padding: 12px 20px; font-size: 28px;">%s</h2></div>`,
				url, escaped))
			return
		}

		h.ReplaceWithHtml(fmt.Sprintf(
			`<div style="border-bottom: 3px solid %s; margin: 40px 0 20px;"><h2 style="color: %s; margin: 0 0 8px; font-size: 28px;">%s</h2></div>`,
			colors.Accent, colors.Primary, escaped))
	})
}

func styleProse(body *goquery.Selection, colors core.BrandColors) {
	body.ChildrenFiltered("p").SetAttr("style", "font-size: 17px; line-height: 1.7; color: #333333; margin: 0 0 18px;")
	body.Find("h3").Each(func(_ int, h *goquery.Selection) {
		if _, exists := h.Attr("style"); !exists {
			h.SetAttr("style", fmt.Sprintf("color: %s; font-size: 21px; margin: 28px 0 12px;", colors.Primary))
		}
	})
}

func heroBlock(title, heroURL string, colors core.BrandColors) string {
	return fmt.Sprintf(
		`<div style="background-image: url('%s'); background-size: cover; background-position: center; padding: 140px 40px 50px;"><h1 style="background-color: rgba(0, 0, 0, 0.6); color: #ffffff; display: inline-block; margin: 0; padding: 18px 26px; font-size: 38px; line-height: 1.2;">%s</h1><div style="height: 6px; width: 120px; background-color: %s; margin-top: 14px;"></div></div>`+"\n",
		heroURL, html.EscapeString(title), colors.Accent)
}

func summaryBlock(summary core.ExecutiveSummary, colors core.BrandColors) string {
	if summary.Intro == "" && len(summary.KeyStats) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<div style="background-color: %s; color: #ffffff; padding: 30px 40px;">`, colors.Primary)
	b.WriteString(`<div style="font-size: 14px; font-weight: bold; text-transform: uppercase; letter-spacing: 2px; margin-bottom: 12px;">Executive Summary</div>`)
	if summary.Intro != "" {
		fmt.Fprintf(&b, `<p style="font-size: 18px; line-height: 1.6; margin: 0 0 20px;">%s</p>`, html.EscapeString(summary.Intro))
	}
	if len(summary.KeyStats) > 0 {
		b.WriteString(`<table style="width: 100%; border-collapse: collapse;"><tr>`)
		for _, stat := range summary.KeyStats {
			fmt.Fprintf(&b,
				`<td style="text-align: center; padding: 10px; border-top: 2px solid %s;"><div style="font-size: 30px; font-weight: bold;">%s</div><div style="font-size: 13px;">%s</div></td>`,
				colors.Accent, html.EscapeString(stat.Number), html.EscapeString(stat.Description))
		}
		b.WriteString(`</tr></table>`)
	}
	b.WriteString("</div>\n")
	return b.String()
}
