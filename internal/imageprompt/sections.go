// Package imageprompt derives photographic image prompts from an article
// draft: one hero prompt plus one prompt for each h2-delimited section.
package imageprompt

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxPreviewLen caps the section text sent to the model. Enough to convey
// the subject without burning tokens on whole sections.
const maxPreviewLen = 300

// Section is one h2-delimited block of the article body.
type Section struct {
	Heading     string
	TextPreview string
}

// ExtractSections parses the article body and returns its h2 sections in
// document order. The preview holds the text between the heading and the
// next h2, truncated to 300 characters.
func ExtractSections(html string) ([]Section, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article html: %w", err)
	}

	var sections []Section
	doc.Find("h2").Each(func(_ int, h *goquery.Selection) {
		heading := strings.TrimSpace(h.Text())
		if heading == "" {
			return
		}

		var preview strings.Builder
		for node := h.Next(); node.Length() > 0; node = node.Next() {
			if goquery.NodeName(node) == "h2" {
				break
			}
			text := strings.TrimSpace(node.Text())
			if text == "" {
				continue
			}
			if preview.Len() > 0 {
				preview.WriteString(" ")
			}
			preview.WriteString(text)
			if preview.Len() >= maxPreviewLen {
				break
			}
		}

		text := preview.String()
		if len(text) > maxPreviewLen {
			text = text[:maxPreviewLen]
		}

		sections = append(sections, Section{Heading: heading, TextPreview: text})
	})

	return sections, nil
}
