package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"newsstand/internal/core"
	"newsstand/internal/email"
	"newsstand/internal/logger"
	"newsstand/internal/publish"
	"newsstand/internal/store"
	"newsstand/internal/wordpress"
)

// PassthroughPersister keeps provider URLs as-is. Used in local mode, where
// durability comes from base64 inlining at delivery instead.
type PassthroughPersister struct{}

// Persist returns the remote URLs unchanged.
func (PassthroughPersister) Persist(_ context.Context, images []core.GeneratedImage) ([]string, int, error) {
	urls := make([]string, len(images))
	for i, img := range images {
		urls[i] = img.RemoteURL
	}
	return urls, 0, nil
}

// WordPressPersister downloads each provider image and re-uploads it to the
// WordPress media library, trading ephemeral URLs for durable ones.
type WordPressPersister struct {
	client     *wordpress.Client
	httpClient *http.Client
}

// NewWordPressPersister creates the WordPress-backed persister.
func NewWordPressPersister(client *wordpress.Client) *WordPressPersister {
	return &WordPressPersister{
		client: client,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Persist uploads every non-failed slot. Slot 0 is the hero; its upload
// failure is an error because the layout cannot proceed without it. Other
// slot failures keep the slot empty.
func (p *WordPressPersister) Persist(ctx context.Context, images []core.GeneratedImage) ([]string, int, error) {
	urls := make([]string, len(images))
	heroMediaID := 0

	for i, img := range images {
		if img.Failed() {
			continue
		}

		data, contentType, err := p.download(ctx, img.RemoteURL)
		if err == nil {
			var media *wordpress.Media
			media, err = p.client.UploadMedia(ctx, fmt.Sprintf("article-image-%d.jpg", i), contentType, data)
			if err == nil {
				urls[i] = media.SourceURL
				if i == 0 {
					heroMediaID = media.ID
				}
				continue
			}
		}

		if i == 0 {
			return nil, 0, fmt.Errorf("failed to persist hero image: %w", err)
		}
		logger.Warn("failed to persist section image, slot dropped", "slot", i, "error", err.Error())
	}

	return urls, heroMediaID, nil
}

func (p *WordPressPersister) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("image download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}

// WordPressDeliverer creates a draft post on the configured site.
type WordPressDeliverer struct {
	client *wordpress.Client
}

// NewWordPressDeliverer creates the remote-mode deliverer.
func NewWordPressDeliverer(client *wordpress.Client) *WordPressDeliverer {
	return &WordPressDeliverer{client: client}
}

// Deliver creates the draft and returns its links.
func (d *WordPressDeliverer) Deliver(ctx context.Context, result *core.FinalArticle, html string, heroMediaID int) (*Receipt, error) {
	post, err := d.client.CreateDraft(ctx, result.Title, html, heroMediaID)
	if err != nil {
		return nil, fmt.Errorf("failed to create wordpress draft: %w", err)
	}
	return &Receipt{
		Mode:     "wordpress",
		PostID:   post.ID,
		PostLink: post.Link,
		EditLink: d.client.EditURL(post.ID),
	}, nil
}

// LocalDeliverer inlines the images as data URIs and emails the resulting
// self-contained document as an attachment.
type LocalDeliverer struct {
	inliner   *publish.Inliner
	sender    *email.Sender
	recipient string
}

// NewLocalDeliverer creates the local-mode deliverer.
func NewLocalDeliverer(inliner *publish.Inliner, sender *email.Sender, recipient string) *LocalDeliverer {
	return &LocalDeliverer{inliner: inliner, sender: sender, recipient: recipient}
}

// Deliver builds and sends the local-mode email. The inliner treats a hero
// download failure as fatal, which aborts delivery.
func (d *LocalDeliverer) Deliver(ctx context.Context, result *core.FinalArticle, html string, _ int) (*Receipt, error) {
	selfContained, err := d.inliner.Inline(ctx, html, result.HeroImageURL, result.SectionImageURLs)
	if err != nil {
		return nil, err
	}

	filename := slugify(result.Title) + ".html"
	body, err := email.RenderLocal(email.LocalData{
		Title:      result.Title,
		Date:       email.Today(),
		ImageCount: len(result.AllImages),
		Attachment: filename,
	}, nil)
	if err != nil {
		return nil, err
	}

	err = d.sender.Send(d.recipient, email.SubjectFor("local", result.Title), body, []email.Attachment{
		{Filename: filename, ContentType: "text/html", Data: []byte(selfContained)},
	})
	if err != nil {
		return nil, err
	}

	return &Receipt{Mode: "local", Attachment: filename}, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "article"
	}
	return slug
}

// EmailNotifier sends outcome notifications over SMTP.
type EmailNotifier struct {
	sender    *email.Sender
	recipient string
}

// NewEmailNotifier creates the notifier.
func NewEmailNotifier(sender *email.Sender, recipient string) *EmailNotifier {
	return &EmailNotifier{sender: sender, recipient: recipient}
}

// NotifySuccess sends the draft-ready email for remote publishes. Local
// runs already delivered the article by email, so they are skipped.
func (n *EmailNotifier) NotifySuccess(_ context.Context, result *core.FinalArticle, receipt *Receipt) error {
	if receipt.Mode == "local" {
		return nil
	}

	body, err := email.RenderSuccess(email.SuccessData{
		Title:      result.Title,
		Date:       email.Today(),
		PostLink:   receipt.PostLink,
		EditLink:   receipt.EditLink,
		ImageCount: len(result.AllImages),
	}, nil)
	if err != nil {
		return err
	}
	return n.sender.Send(n.recipient, email.SubjectFor("success", result.Title), body, nil)
}

// NotifyFailure sends the diagnostic email, attaching the article when any
// of it survived the failure.
func (n *EmailNotifier) NotifyFailure(_ context.Context, title string, stageError *StageError, articleHTML string) error {
	body, err := email.RenderFailure(email.FailureData{
		Title:      title,
		Date:       email.Today(),
		Stage:      stageError.Stage,
		Reason:     stageError.Reason,
		Steps:      resolutionSteps(stageError),
		HasArticle: articleHTML != "",
	}, nil)
	if err != nil {
		return err
	}

	var attachments []email.Attachment
	if articleHTML != "" {
		attachments = append(attachments, email.Attachment{
			Filename:    "rescued-article.html",
			ContentType: "text/html",
			Data:        []byte(articleHTML),
		})
	}
	return n.sender.Send(n.recipient, email.SubjectFor("failure", title), body, attachments)
}

func resolutionSteps(stageError *StageError) []string {
	switch stageError.Code {
	case CodeConfig:
		return []string{
			"Check that all API keys are set and valid",
			"Verify the provider dashboards for account problems",
		}
	case CodeParse:
		return []string{
			"Re-run the generation; model formatting failures are usually transient",
			"If it persists, try a different article model",
		}
	case CodeTimeout:
		return []string{
			"Re-run the generation; the image provider may be under load",
			"Consider raising the job timeout in configuration",
		}
	case CodeDelivery:
		return []string{
			"Check the WordPress credentials and site availability",
			"The formatted article was saved to the backup directory and can be published manually",
		}
	default:
		return []string{"Re-run the generation and check the logs for details"}
	}
}

// StoreRecorder persists run metadata through the SQLite store.
type StoreRecorder struct {
	store *store.Store
}

// NewStoreRecorder creates the recorder.
func NewStoreRecorder(s *store.Store) *StoreRecorder {
	return &StoreRecorder{store: s}
}

// RecordRun saves the article and image records.
func (r *StoreRecorder) RecordRun(result *core.FinalArticle, receipt *Receipt, topic, style, backupPath string) error {
	images := make([]store.ImageRecord, 0, len(result.AllImages))
	for i, url := range result.AllImages {
		if url == "" {
			continue
		}
		prompt := result.Prompts.HeroPrompt
		aspect := core.HeroAspectRatio
		if i > 0 {
			aspect = core.SectionAspectRatio
			if i-1 < len(result.Prompts.SectionPrompts) {
				prompt = result.Prompts.SectionPrompts[i-1].Prompt
			}
		}
		images = append(images, store.ImageRecord{Prompt: prompt, URL: url, AspectRatio: aspect})
	}

	_, err := r.store.SaveRun(store.ArticleRecord{
		Title:      result.Title,
		Topic:      topic,
		Style:      style,
		Mode:       receipt.Mode,
		PostID:     receipt.PostID,
		PostLink:   receipt.PostLink,
		BackupPath: backupPath,
	}, images)
	return err
}
