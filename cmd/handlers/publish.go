package handlers

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"newsstand/internal/config"
	"newsstand/internal/wordpress"
)

// NewPublishCmd creates the publish command
func NewPublishCmd() *cobra.Command {
	publishCmd := &cobra.Command{
		Use:   "publish <post-id>",
		Short: "Publish a generated WordPress draft",
		Long: `Publish flips a generated draft post to published after review.

Example:
  newsstand publish 1234`,
		Args: cobra.ExactArgs(1),
		Run:  publishRunFunc,
	}

	return publishCmd
}

func publishRunFunc(cmd *cobra.Command, args []string) {
	postID, err := strconv.Atoi(args[0])
	if err != nil || postID <= 0 {
		fmt.Fprintf(os.Stderr, "Error: post id must be a positive number, got %q\n", args[0])
		os.Exit(1)
	}

	cfg := config.Get()
	if !cfg.HasWordPress() {
		fmt.Fprintln(os.Stderr, "Error: WordPress is not configured")
		os.Exit(1)
	}

	timeout, _ := time.ParseDuration(cfg.WordPress.Timeout)
	client := wordpress.NewClient(cfg.WordPress.BaseURL, cfg.WordPress.Username, cfg.WordPress.Password, timeout)

	post, err := client.Publish(cmd.Context(), postID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error publishing post %d: %v\n", postID, err)
		os.Exit(1)
	}

	fmt.Printf("✅ Post %d published\n", post.ID)
	if post.Link != "" {
		fmt.Printf("🔗 %s\n", post.Link)
	}
}
