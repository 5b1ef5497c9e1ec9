package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"newsstand/internal/article"
	"newsstand/internal/backup"
	"newsstand/internal/config"
	"newsstand/internal/core"
	"newsstand/internal/email"
	"newsstand/internal/imagegen"
	"newsstand/internal/imageprompt"
	"newsstand/internal/layout"
	"newsstand/internal/pipeline"
	"newsstand/internal/publish"
	"newsstand/internal/research"
	"newsstand/internal/store"
	"newsstand/internal/wordpress"
)

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the full article generation pipeline",
		Long: `Generate researches a topic, drafts an article, renders images for the
hero and every section, assembles the magazine layout and delivers the
result.

With WordPress configured the article lands as a draft post with its
images uploaded to the media library. With --local (or when WordPress is
not configured) the article is emailed as a self-contained HTML file
with all images inlined.

Examples:
  newsstand generate --topic "solid state batteries"
  newsstand generate                                  # next topic from rotation
  newsstand generate --local --style "Conversational/Accessible"`,
		Run: generateRunFunc,
	}

	generateCmd.Flags().String("topic", "", "Topic to write about (default: next from configured rotation)")
	generateCmd.Flags().String("style", "", "Writing style (see configured styles; free text is passed through)")
	generateCmd.Flags().Bool("local", false, "Deliver by email instead of WordPress")
	generateCmd.Flags().Int("word-count-low", 0, "Lower bound of the target word count")
	generateCmd.Flags().Int("word-count-high", 0, "Upper bound of the target word count")
	generateCmd.Flags().Duration("timeout", 30*time.Minute, "Overall run deadline")

	return generateCmd
}

func generateRunFunc(cmd *cobra.Command, _ []string) {
	cfg := config.Get()

	local, _ := cmd.Flags().GetBool("local")
	if !local && !cfg.HasWordPress() {
		fmt.Println("ℹ️  WordPress is not configured, falling back to local delivery")
		local = true
	}
	if local && !cfg.HasEmail() {
		fmt.Fprintln(os.Stderr, "Error: local delivery requires SMTP settings and NOTIFICATION_EMAIL")
		os.Exit(1)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	st, err := store.NewStore(cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" {
		rotation := research.NewRotation(cfg.App.Topics, st)
		topic, err = rotation.Next()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: no topic given and rotation is empty: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("📌 Topic from rotation: %q\n\n", topic)
	}

	style, _ := cmd.Flags().GetString("style")
	if style == "" {
		style = cfg.App.Style
	}

	wordLow, _ := cmd.Flags().GetInt("word-count-low")
	if wordLow == 0 {
		wordLow = cfg.App.WordLow
	}
	wordHigh, _ := cmd.Flags().GetInt("word-count-high")
	if wordHigh == 0 {
		wordHigh = cfg.App.WordHigh
	}

	p, err := buildPipeline(ctx, cfg, st, local)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := p.Run(ctx, pipeline.Options{
		Topic:         topic,
		Style:         core.WritingStyle(style),
		WordCountLow:  wordLow,
		WordCountHigh: wordHigh,
	})
	if err != nil {
		printFailure(err)
		os.Exit(1)
	}

	printResult(result)
}

// buildPipeline wires every stage component from configuration.
func buildPipeline(ctx context.Context, cfg *config.Config, st *store.Store, local bool) (*pipeline.Pipeline, error) {
	researchTimeout, _ := time.ParseDuration(cfg.Research.Timeout)
	researcher := research.NewClient(cfg.Research.APIKey, cfg.Research.Model, cfg.Research.BaseURL, researchTimeout)

	articleGen, err := article.NewGenerator(cfg.AI.OpenAI.APIKey, cfg.AI.OpenAI.Model, cfg.AI.OpenAI.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to create article generator: %w", err)
	}

	promptGen, err := imageprompt.NewGenerator(ctx, cfg.AI.Gemini.APIKey, cfg.AI.Gemini.Model, cfg.AI.Gemini.Temperature)
	if err != nil {
		return nil, fmt.Errorf("failed to create image prompt generator: %w", err)
	}

	pollInterval, _ := time.ParseDuration(cfg.Images.PollInterval)
	jobTimeout, _ := time.ParseDuration(cfg.Images.JobTimeout)
	replicate := imagegen.NewReplicateClient(cfg.Images.ReplicateToken, cfg.Images.Model, cfg.Images.BaseURL)
	imageGen := imagegen.NewGenerator(replicate, pollInterval, jobTimeout)

	backups, err := backup.NewWriter(cfg.Backup.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup writer: %w", err)
	}

	deps := pipeline.Deps{
		Research: researcher,
		Articles: articleGen,
		Prompts:  promptGen,
		Images:   imageGen,
		Template: layout.NewTemplateAssembler(),
		Backups:  backups,
		Recorder: pipeline.NewStoreRecorder(st),
		Colors: core.BrandColors{
			Primary: cfg.Brand.PrimaryColor,
			Accent:  cfg.Brand.AccentColor,
		},
	}

	if cfg.AI.Anthropic.APIKey != "" {
		anthropicTimeout, _ := time.ParseDuration(cfg.AI.Anthropic.Timeout)
		deps.AILayout = layout.NewClaudeFormatter(
			cfg.AI.Anthropic.APIKey,
			cfg.AI.Anthropic.Model,
			cfg.AI.Anthropic.BaseURL,
			cfg.AI.Anthropic.MaxTokens,
			anthropicTimeout,
		)
	}

	var sender *email.Sender
	if cfg.HasEmail() {
		sender = email.NewSender(
			cfg.Email.SMTP.Host,
			cfg.Email.SMTP.Port,
			cfg.Email.SMTP.Username,
			cfg.Email.SMTP.Password,
			cfg.Email.FromAddress,
			cfg.Email.FromName,
		)
		deps.Notifier = pipeline.NewEmailNotifier(sender, cfg.Email.Recipient)
	}

	if local {
		deps.Persister = pipeline.PassthroughPersister{}
		deps.Deliverer = pipeline.NewLocalDeliverer(publish.NewInliner(0), sender, cfg.Email.Recipient)
	} else {
		wpTimeout, _ := time.ParseDuration(cfg.WordPress.Timeout)
		wp := wordpress.NewClient(cfg.WordPress.BaseURL, cfg.WordPress.Username, cfg.WordPress.Password, wpTimeout)
		deps.Persister = pipeline.NewWordPressPersister(wp)
		deps.Deliverer = pipeline.NewWordPressDeliverer(wp)
	}

	return pipeline.New(deps)
}

var (
	resultBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#08b2c6")).
			Padding(1, 2)
	resultTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#08b2c6"))
	resultLabelStyle = lipgloss.NewStyle().Faint(true)
	warningStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b11"))
)

func printResult(result *pipeline.Result) {
	var b strings.Builder
	b.WriteString(resultTitleStyle.Render(result.Title) + "\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n", resultLabelStyle.Render("Delivered via:"), result.Receipt.Mode))
	if result.Receipt.PostLink != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", resultLabelStyle.Render("Draft:"), result.Receipt.PostLink))
	}
	if result.Receipt.EditLink != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", resultLabelStyle.Render("Edit:"), result.Receipt.EditLink))
	}
	if result.Receipt.Attachment != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", resultLabelStyle.Render("Attachment:"), result.Receipt.Attachment))
	}
	b.WriteString(fmt.Sprintf("%s %d\n", resultLabelStyle.Render("Images:"), result.ImageCount))
	if result.BackupPath != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", resultLabelStyle.Render("Backup:"), result.BackupPath))
	}
	b.WriteString(fmt.Sprintf("%s %s", resultLabelStyle.Render("Duration:"), result.Duration.Round(time.Second)))

	fmt.Println(resultBoxStyle.Render(b.String()))

	for _, warning := range result.Warnings {
		fmt.Println(warningStyle.Render("⚠️  " + warning))
	}
}

func printFailure(err error) {
	var stageError *pipeline.StageError
	if errors.As(err, &stageError) {
		fmt.Fprintf(os.Stderr, "\n❌ Generation failed at the %s stage (%s)\n   %s\n", stageError.Stage, stageError.Code, stageError.Reason)
		return
	}
	fmt.Fprintf(os.Stderr, "\n❌ Generation failed: %v\n", err)
}
