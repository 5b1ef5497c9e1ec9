package pipeline

import (
	"context"

	"newsstand/internal/article"
	"newsstand/internal/core"
	"newsstand/internal/layout"
)

// ResearchFetcher retrieves current-events context for a topic
type ResearchFetcher interface {
	// Fetch returns a research summary; a single attempt, fail fast
	Fetch(ctx context.Context, topic string, style core.WritingStyle) (string, error)
}

// ArticleGenerator turns research into a structured article draft
type ArticleGenerator interface {
	Generate(ctx context.Context, req article.Request) (*core.ArticleDraft, error)
}

// ImagePromptGenerator derives photographic prompts from the draft
type ImagePromptGenerator interface {
	Generate(ctx context.Context, draft *core.ArticleDraft, style core.WritingStyle) (*core.ImagePromptSet, error)
}

// ImageGenerator renders one image per prompt, returning exactly
// len(prompts) slots with empty URLs for failed jobs
type ImageGenerator interface {
	GenerateImages(ctx context.Context, prompts []string, aspectRatio string) ([]core.GeneratedImage, error)
}

// ImagePersister moves ephemeral provider URLs to durable storage before
// layout. Slot 0 is the hero. Returns one URL per slot (empty where the
// slot had no image) and the hero's attachment id when the backend has one.
type ImagePersister interface {
	Persist(ctx context.Context, images []core.GeneratedImage) ([]string, int, error)
}

// AIAssembler is the first-choice layout strategy
type AIAssembler interface {
	Assemble(ctx context.Context, in layout.Input) (string, error)
}

// TemplateRenderer is the deterministic fallback layout strategy
type TemplateRenderer interface {
	Assemble(in layout.Input) (string, error)
}

// Deliverer hands the finished article to its destination
type Deliverer interface {
	Deliver(ctx context.Context, result *core.FinalArticle, html string, heroMediaID int) (*Receipt, error)
}

// Receipt describes where a delivered article ended up
type Receipt struct {
	Mode       string
	PostID     int
	PostLink   string
	EditLink   string
	Attachment string
}

// Notifier reports the run outcome to a human
type Notifier interface {
	NotifySuccess(ctx context.Context, result *core.FinalArticle, receipt *Receipt) error
	NotifyFailure(ctx context.Context, title string, stageErr *StageError, articleHTML string) error
}

// BackupWriter saves stage snapshots to disk
type BackupWriter interface {
	SaveStage(stage, html string) string
	SaveEmergency(html string) string
}

// RunRecorder persists metadata about a completed run
type RunRecorder interface {
	RecordRun(result *core.FinalArticle, receipt *Receipt, topic, style, backupPath string) error
}
