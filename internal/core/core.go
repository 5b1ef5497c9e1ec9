package core

import "time"

// ArticleDraft is the structured output of the article generation stage.
// HTML is semantic-only markup (h1/h2/h3, p, ul/ol/li) with no classes or
// inline styles; all presentation is added later by the layout assembler.
type ArticleDraft struct {
	Title            string           `json:"title"`
	HTML             string           `json:"html"`
	ExecutiveSummary ExecutiveSummary `json:"executive_summary"`
	Components       []Component      `json:"components"`
}

// ExecutiveSummary is the lead-in block rendered above the article body.
type ExecutiveSummary struct {
	Intro    string    `json:"intro"`
	KeyStats []KeyStat `json:"key_stats"`
}

// KeyStat is a single headline metric shown in the executive summary grid.
type KeyStat struct {
	Number      string `json:"number"`
	Description string `json:"description"`
}

// ImagePromptSet holds the photographic prompts generated for one article:
// a single hero prompt plus one prompt per h2-delimited section.
type ImagePromptSet struct {
	HeroPrompt     string          `json:"hero_prompt"`
	SectionPrompts []SectionPrompt `json:"section_prompts"`
}

// SectionPrompt ties an image prompt to the section heading it illustrates.
type SectionPrompt struct {
	SectionHeading string `json:"section_heading"`
	Prompt         string `json:"prompt"`
}

// GeneratedImage is one slot in an image generation batch. RemoteURL is
// empty when the slot failed; the URL itself is ephemeral (the provider
// expires it roughly an hour after creation) and must be persisted before
// delivery.
type GeneratedImage struct {
	Prompt      string `json:"prompt"`
	RemoteURL   string `json:"remote_url"`
	AspectRatio string `json:"aspect_ratio"`
}

// Failed reports whether this slot produced no usable image.
func (g GeneratedImage) Failed() bool { return g.RemoteURL == "" }

// SectionImage maps a persisted image URL to the section heading it belongs to.
type SectionImage struct {
	Heading string `json:"heading"`
	URL     string `json:"url"`
}

// FinalArticle is the pipeline's terminal output: fully styled HTML with
// images embedded or linked, ready for delivery.
type FinalArticle struct {
	Title            string           `json:"title"`
	ContentHTML      string           `json:"content_html"`
	HeroImageURL     string           `json:"hero_image_url"`
	SectionImageURLs []string         `json:"section_image_urls"`
	AllImages        []string         `json:"all_images"`
	Summary          ExecutiveSummary `json:"summary"`
	Prompts          ImagePromptSet   `json:"prompts"`
	Components       []Component      `json:"components"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// BrandColors carries the per-site palette applied by the layout assembler.
type BrandColors struct {
	Primary string `json:"primary"`
	Accent  string `json:"accent"`
}

// DefaultBrandColors returns the stock palette used when a site has not
// configured its own.
func DefaultBrandColors() BrandColors {
	return BrandColors{Primary: "#08b2c6", Accent: "#ff6b11"}
}

// Hero and section aspect ratios requested from the image provider.
const (
	HeroAspectRatio    = "16:9"
	SectionAspectRatio = "4:3"
)
