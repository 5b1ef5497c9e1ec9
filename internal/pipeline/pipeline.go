// Package pipeline orchestrates the end-to-end article generation run:
// research, drafting, image prompts, image rendering, layout assembly,
// validation and delivery, with disk backups at every stage transition.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsstand/internal/article"
	"newsstand/internal/core"
	"newsstand/internal/imageprompt"
	"newsstand/internal/layout"
	"newsstand/internal/logger"
)

// Pipeline coordinates all stage components.
type Pipeline struct {
	research  ResearchFetcher
	articles  ArticleGenerator
	prompts   ImagePromptGenerator
	images    ImageGenerator
	persister ImagePersister
	aiLayout  AIAssembler // optional
	template  TemplateRenderer
	deliverer Deliverer
	notifier  Notifier    // optional
	backups   BackupWriter
	recorder  RunRecorder // optional
	colors    core.BrandColors
}

// Deps bundles the pipeline's collaborators.
type Deps struct {
	Research  ResearchFetcher
	Articles  ArticleGenerator
	Prompts   ImagePromptGenerator
	Images    ImageGenerator
	Persister ImagePersister
	AILayout  AIAssembler
	Template  TemplateRenderer
	Deliverer Deliverer
	Notifier  Notifier
	Backups   BackupWriter
	Recorder  RunRecorder
	Colors    core.BrandColors
}

// New creates a pipeline. Research, article, prompt, image, persister,
// template, deliverer and backup components are required; the AI layout,
// notifier and recorder are optional.
func New(deps Deps) (*Pipeline, error) {
	switch {
	case deps.Research == nil:
		return nil, fmt.Errorf("research fetcher is required")
	case deps.Articles == nil:
		return nil, fmt.Errorf("article generator is required")
	case deps.Prompts == nil:
		return nil, fmt.Errorf("image prompt generator is required")
	case deps.Images == nil:
		return nil, fmt.Errorf("image generator is required")
	case deps.Persister == nil:
		return nil, fmt.Errorf("image persister is required")
	case deps.Template == nil:
		return nil, fmt.Errorf("template renderer is required")
	case deps.Deliverer == nil:
		return nil, fmt.Errorf("deliverer is required")
	case deps.Backups == nil:
		return nil, fmt.Errorf("backup writer is required")
	}

	colors := deps.Colors
	if colors.Primary == "" {
		colors = core.DefaultBrandColors()
	}

	return &Pipeline{
		research:  deps.Research,
		articles:  deps.Articles,
		prompts:   deps.Prompts,
		images:    deps.Images,
		persister: deps.Persister,
		aiLayout:  deps.AILayout,
		template:  deps.Template,
		deliverer: deps.Deliverer,
		notifier:  deps.Notifier,
		backups:   deps.Backups,
		recorder:  deps.Recorder,
		colors:    colors,
	}, nil
}

// Options configures one run.
type Options struct {
	Topic         string
	Style         core.WritingStyle
	WordCountLow  int
	WordCountHigh int
}

// Result is the outcome of a successful run.
type Result struct {
	RunID      string
	Title      string
	Receipt    *Receipt
	ImageCount int
	Warnings   []string
	BackupPath string
	Duration   time.Duration
}

// Run executes the full pipeline. On failure it returns a *StageError whose
// code tells the caller whether the run consumed billable work.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	startTime := time.Now()
	runID := uuid.New().String()
	var warnings []string

	// Step 1: Research
	fmt.Printf("🔍 Step 1/8: Researching %q...\n", opts.Topic)
	summary, err := p.research.Fetch(ctx, opts.Topic, opts.Style)
	if err != nil {
		return nil, p.fail(ctx, stageErr("research", classify(err, CodeConfig), err), "", "")
	}
	fmt.Printf("   ✓ Research summary ready (%d chars)\n\n", len(summary))

	// Step 2: Article generation
	fmt.Printf("✍️  Step 2/8: Generating article draft...\n")
	draft, err := p.articles.Generate(ctx, article.Request{
		Topic:           opts.Topic,
		ResearchSummary: summary,
		Style:           opts.Style,
		WordCountLow:    opts.WordCountLow,
		WordCountHigh:   opts.WordCountHigh,
	})
	if err != nil {
		code := classify(err, CodeConfig)
		var parseErr *article.ParseError
		if errors.As(err, &parseErr) {
			code = CodeParse
		}
		return nil, p.fail(ctx, stageErr("article", code, err), "", "")
	}
	p.backups.SaveStage("raw_draft", draft.HTML)
	fmt.Printf("   ✓ Draft %q with %d components\n\n", draft.Title, len(draft.Components))

	sections, err := imageprompt.ExtractSections(draft.HTML)
	if err != nil {
		return nil, p.fail(ctx, stageErr("article", CodeParse, err), draft.Title, draft.HTML)
	}

	// Step 3: Image prompts
	fmt.Printf("🎨 Step 3/8: Generating image prompts...\n")
	promptSet, err := p.prompts.Generate(ctx, draft, opts.Style)
	if err != nil {
		var mismatch *imageprompt.CountMismatchError
		if errors.As(err, &mismatch) {
			fmt.Printf("   ⚠️  Prompt count mismatch (%d/%d), padding with fallbacks\n", mismatch.Got, mismatch.Want)
			warnings = append(warnings, fmt.Sprintf("image prompts padded: %v", err))
			promptSet = mismatch.Partial
		} else {
			return nil, p.fail(ctx, stageErr("image_prompts", classify(err, CodeConfig), err), draft.Title, draft.HTML)
		}
	}
	promptSet = reconcilePrompts(promptSet, sections, draft.Title)
	fmt.Printf("   ✓ 1 hero + %d section prompts\n\n", len(promptSet.SectionPrompts))

	// Step 4: Image generation
	fmt.Printf("🖼️  Step 4/8: Rendering %d images...\n", 1+len(promptSet.SectionPrompts))
	heroImages, err := p.images.GenerateImages(ctx, []string{promptSet.HeroPrompt}, core.HeroAspectRatio)
	if err != nil {
		return nil, p.fail(ctx, stageErr("images", classify(err, CodeTimeout), err), draft.Title, draft.HTML)
	}

	sectionPrompts := make([]string, len(promptSet.SectionPrompts))
	for i, sp := range promptSet.SectionPrompts {
		sectionPrompts[i] = sp.Prompt
	}
	sectionImages, err := p.images.GenerateImages(ctx, sectionPrompts, core.SectionAspectRatio)
	if err != nil {
		return nil, p.fail(ctx, stageErr("images", classify(err, CodeTimeout), err), draft.Title, draft.HTML)
	}

	if heroImages[0].Failed() {
		err := fmt.Errorf("hero image generation failed")
		return nil, p.fail(ctx, stageErr("images", CodePartial, err), draft.Title, draft.HTML)
	}
	failed := 0
	for _, img := range sectionImages {
		if img.Failed() {
			failed++
		}
	}
	if failed > 0 {
		warnings = append(warnings, fmt.Sprintf("%d section images failed", failed))
		fmt.Printf("   ⚠️  %d of %d section images failed, continuing without them\n", failed, len(sectionImages))
	}
	fmt.Printf("   ✓ Images rendered\n\n")

	// Step 5: Persist images to durable storage
	fmt.Printf("💾 Step 5/8: Persisting images...\n")
	allImages := append([]core.GeneratedImage{heroImages[0]}, sectionImages...)
	urls, heroMediaID, err := p.persister.Persist(ctx, allImages)
	if err != nil {
		p.backups.SaveEmergency(draft.HTML)
		return nil, p.fail(ctx, stageErr("persist_images", CodeDelivery, err), draft.Title, draft.HTML)
	}
	heroURL := urls[0]
	sectionURLs := urls[1:]
	fmt.Printf("   ✓ Images persisted\n\n")

	// Step 6: Layout assembly
	fmt.Printf("📐 Step 6/8: Assembling magazine layout...\n")
	layoutInput := layout.Input{
		Draft:        draft,
		HeroImageURL: heroURL,
		Colors:       p.colors,
	}
	for i, sp := range promptSet.SectionPrompts {
		if i < len(sectionURLs) && sectionURLs[i] != "" {
			layoutInput.SectionImages = append(layoutInput.SectionImages, core.SectionImage{
				Heading: sp.SectionHeading,
				URL:     sectionURLs[i],
			})
		}
	}

	finalHTML, usedFallback := p.assemble(ctx, layoutInput, heroURL, sectionURLs)
	if usedFallback != "" {
		warnings = append(warnings, usedFallback)
	}
	if finalHTML == "" {
		tmplHTML, tmplErr := p.template.Assemble(layoutInput)
		if tmplErr != nil {
			p.backups.SaveEmergency(draft.HTML)
			return nil, p.fail(ctx, stageErr("assemble_layout", CodePartial, tmplErr), draft.Title, draft.HTML)
		}
		finalHTML = tmplHTML
	}
	p.backups.SaveStage("formatted", finalHTML)
	fmt.Printf("   ✓ Layout complete (%d bytes)\n\n", len(finalHTML))

	// Step 7: Validation gate
	fmt.Printf("🔎 Step 7/8: Validating layout...\n")
	softWarnings, hardErr := validateLayout(finalHTML, heroURL, sectionURLs)
	warnings = append(warnings, softWarnings...)
	if hardErr != nil {
		p.backups.SaveEmergency(finalHTML)
		return nil, p.fail(ctx, stageErr("validate", CodePartial, hardErr), draft.Title, finalHTML)
	}
	fmt.Printf("   ✓ Validation passed\n\n")

	// Step 8: Delivery
	fmt.Printf("🚚 Step 8/8: Delivering article...\n")
	result := &core.FinalArticle{
		Title:            draft.Title,
		ContentHTML:      finalHTML,
		HeroImageURL:     heroURL,
		SectionImageURLs: sectionURLs,
		AllImages:        urls,
		Summary:          draft.ExecutiveSummary,
		Prompts:          *promptSet,
		Components:       draft.Components,
		GeneratedAt:      time.Now().UTC(),
	}

	receipt, err := p.deliverer.Deliver(ctx, result, finalHTML, heroMediaID)
	if err != nil {
		backupPath := p.backups.SaveEmergency(finalHTML)
		stageError := stageErr("deliver", CodeDelivery, err)
		stageError.Reason = fmt.Sprintf("%s (article saved to %s)", stageError.Reason, backupPath)
		return nil, p.fail(ctx, stageError, draft.Title, finalHTML)
	}
	fmt.Printf("   ✓ Delivered via %s\n\n", receipt.Mode)

	if p.notifier != nil {
		if err := p.notifier.NotifySuccess(ctx, result, receipt); err != nil {
			logger.Warn("success notification failed", "error", err.Error())
			warnings = append(warnings, "success notification failed")
		}
	}

	backupPath := p.backups.SaveStage("delivered", finalHTML)
	if p.recorder != nil {
		if err := p.recorder.RecordRun(result, receipt, opts.Topic, string(opts.Style), backupPath); err != nil {
			logger.Warn("failed to record run", "error", err.Error())
		}
	}

	return &Result{
		RunID:      runID,
		Title:      draft.Title,
		Receipt:    receipt,
		ImageCount: countImages(urls),
		Warnings:   warnings,
		BackupPath: backupPath,
		Duration:   time.Since(startTime),
	}, nil
}

// assemble tries the AI strategy first. Any AI failure falls back to the
// deterministic template without failing the run. Returns the HTML (empty
// when the template still needs to run) and a warning string.
func (p *Pipeline) assemble(ctx context.Context, in layout.Input, heroURL string, sectionURLs []string) (string, string) {
	if p.aiLayout == nil {
		return "", ""
	}

	html, err := p.aiLayout.Assemble(ctx, in)
	if err != nil {
		fmt.Printf("   ⚠️  AI layout failed, using template: %v\n", err)
		return "", fmt.Sprintf("AI layout failed, used template fallback: %v", err)
	}
	if _, hardErr := validateLayout(html, heroURL, sectionURLs); hardErr != nil {
		fmt.Printf("   ⚠️  AI layout invalid, using template: %v\n", hardErr)
		return "", fmt.Sprintf("AI layout invalid, used template fallback: %v", hardErr)
	}
	return html, ""
}

// fail sends the failure notification before handing the error up.
func (p *Pipeline) fail(ctx context.Context, stageError *StageError, title, articleHTML string) error {
	logger.Error("pipeline run failed", stageError, "stage", stageError.Stage, "code", stageError.Code)
	if p.notifier != nil {
		if err := p.notifier.NotifyFailure(ctx, title, stageError, articleHTML); err != nil {
			logger.Warn("failure notification failed", "error", err.Error())
		}
	}
	return stageError
}

// classify maps context errors to the timeout code, everything else to the
// provided default.
func classify(err error, fallback string) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CodeTimeout
	}
	return fallback
}

// reconcilePrompts forces the prompt set to exactly one prompt per section,
// padding shortfalls with generic prompts built from the article title and
// truncating excess.
func reconcilePrompts(set *core.ImagePromptSet, sections []imageprompt.Section, title string) *core.ImagePromptSet {
	out := &core.ImagePromptSet{HeroPrompt: set.HeroPrompt}
	if out.HeroPrompt == "" {
		out.HeroPrompt = fallbackPrompt(title, "")
	}

	for i, section := range sections {
		if i < len(set.SectionPrompts) && set.SectionPrompts[i].Prompt != "" {
			sp := set.SectionPrompts[i]
			sp.SectionHeading = section.Heading
			out.SectionPrompts = append(out.SectionPrompts, sp)
			continue
		}
		out.SectionPrompts = append(out.SectionPrompts, core.SectionPrompt{
			SectionHeading: section.Heading,
			Prompt:         fallbackPrompt(title, section.Heading),
		})
	}
	return out
}

func fallbackPrompt(title, heading string) string {
	subject := title
	if heading != "" {
		subject = fmt.Sprintf("%s, focusing on %s", title, heading)
	}
	return fmt.Sprintf("Photorealistic editorial magazine photograph illustrating %s. Natural lighting, professional composition, no text.", subject)
}

// validateLayout is the delivery gate. Hard failures: no inline styling at
// all, or a missing hero image. Missing section images only warn.
func validateLayout(html, heroURL string, sectionURLs []string) ([]string, error) {
	if !strings.Contains(html, `style="`) {
		return nil, fmt.Errorf("formatted article has no inline styles")
	}
	if !strings.Contains(html, "background-image") {
		return nil, fmt.Errorf("formatted article has no background images")
	}
	if heroURL == "" || !strings.Contains(html, heroURL) {
		return nil, fmt.Errorf("hero image missing from formatted article")
	}

	var warnings []string
	for i, url := range sectionURLs {
		if url == "" {
			continue
		}
		if !strings.Contains(html, url) {
			warnings = append(warnings, fmt.Sprintf("section image %d missing from formatted article", i+1))
		}
	}
	return warnings, nil
}

func countImages(urls []string) int {
	n := 0
	for _, u := range urls {
		if u != "" {
			n++
		}
	}
	return n
}
