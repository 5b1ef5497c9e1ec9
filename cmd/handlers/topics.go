package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsstand/internal/config"
	"newsstand/internal/core"
	"newsstand/internal/store"
)

// NewTopicsCmd creates the topics command
func NewTopicsCmd() *cobra.Command {
	topicsCmd := &cobra.Command{
		Use:   "topics",
		Short: "Show the configured topic rotation",
		Long: `Topics lists the configured topic rotation and marks the topic the
next unattended run will pick. Use --styles to list the known writing
styles instead.`,
		Run: topicsRunFunc,
	}

	topicsCmd.Flags().Bool("styles", false, "List the known writing styles")

	return topicsCmd
}

func topicsRunFunc(cmd *cobra.Command, _ []string) {
	if styles, _ := cmd.Flags().GetBool("styles"); styles {
		fmt.Println("🎨 Known writing styles:")
		for _, style := range core.KnownStyles() {
			fmt.Printf("  - %s\n", style)
		}
		return
	}

	cfg := config.Get()
	if len(cfg.App.Topics) == 0 {
		fmt.Println("No topics configured. Set app.topics in the config file.")
		return
	}

	st, err := store.NewStore(cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	lastIndex, err := st.LastTopicIndex()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading rotation state: %v\n", err)
		os.Exit(1)
	}

	next := nextTopicIndex(cfg.App.Topics, lastIndex)
	fmt.Printf("📋 Topic rotation (%d topics):\n", len(cfg.App.Topics))
	for i, topic := range cfg.App.Topics {
		marker := "  "
		if i == next {
			marker = "→ "
		}
		if topic == "" {
			topic = "(empty slot, skipped)"
		}
		fmt.Printf("%s%2d. %s\n", marker, i+1, topic)
	}
}

// nextTopicIndex mirrors the rotation's skip-empty-slots walk without
// advancing the stored position.
func nextTopicIndex(topics []string, lastIndex int) int {
	for offset := 1; offset <= len(topics); offset++ {
		i := (lastIndex + offset) % len(topics)
		if i < 0 {
			i += len(topics)
		}
		if topics[i] != "" {
			return i
		}
	}
	return -1
}
