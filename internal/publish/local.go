// Package publish prepares articles for local-mode delivery: ephemeral
// provider URLs are downloaded and inlined as data URIs so the emailed
// document stays readable after the URLs expire.
package publish

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newsstand/internal/logger"
)

// Inliner downloads images and embeds them into the final HTML.
type Inliner struct {
	httpClient *http.Client
}

// NewInliner creates an inliner. The timeout bounds each download; the
// provider expires URLs roughly an hour after creation, so slow is fine but
// hung is not.
func NewInliner(timeout time.Duration) *Inliner {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &Inliner{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Inline replaces every occurrence of each image URL in the document with a
// base64 data URI. A failed hero download aborts local delivery; failed
// section downloads only log, leaving the remote URL in place.
func (n *Inliner) Inline(ctx context.Context, html, heroURL string, sectionURLs []string) (string, error) {
	if heroURL != "" {
		dataURI, err := n.fetchDataURI(ctx, heroURL)
		if err != nil {
			return "", fmt.Errorf("Hero image download failed: %w", err)
		}
		html = strings.ReplaceAll(html, heroURL, dataURI)
	}

	for _, url := range sectionURLs {
		if url == "" {
			continue
		}
		dataURI, err := n.fetchDataURI(ctx, url)
		if err != nil {
			logger.Warn("section image download failed, leaving remote URL", "url", url, "error", err.Error())
			continue
		}
		html = strings.ReplaceAll(html, url, dataURI)
	}

	return html, nil
}

func (n *Inliner) fetchDataURI(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image body was empty")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}

	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}
