package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsstand/internal/config"
	"newsstand/internal/store"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recently generated articles",
		Run:   historyRunFunc,
	}

	historyCmd.Flags().Int("limit", 10, "Number of articles to show")
	historyCmd.Flags().Bool("images", false, "Show the images generated for each article")

	return historyCmd
}

func historyRunFunc(cmd *cobra.Command, _ []string) {
	cfg := config.Get()

	st, err := store.NewStore(cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	articles, err := st.RecentArticles(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
		os.Exit(1)
	}
	if len(articles) == 0 {
		fmt.Println("No articles generated yet.")
		return
	}

	showImages, _ := cmd.Flags().GetBool("images")
	fmt.Printf("📰 Last %d articles:\n\n", len(articles))
	for _, record := range articles {
		fmt.Printf("  %s  %s\n", record.CreatedAt.Local().Format("2006-01-02 15:04"), record.Title)
		fmt.Printf("      topic: %s | style: %s | via: %s", record.Topic, record.Style, record.Mode)
		if record.PostID > 0 {
			fmt.Printf(" | post %d", record.PostID)
		}
		fmt.Println()
		if record.PostLink != "" {
			fmt.Printf("      %s\n", record.PostLink)
		}

		if showImages {
			images, err := st.ArticleImages(record.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "      error loading images: %v\n", err)
				continue
			}
			for _, img := range images {
				fmt.Printf("      🖼  [%s] %s\n", img.AspectRatio, img.URL)
			}
		}
		fmt.Println()
	}
}
