// Package wordpress publishes finished articles to a WordPress site through
// its REST API, authenticating with the JWT auth plugin.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to one WordPress site. The base URL is the site root; REST
// paths are appended internally.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client

	token string
}

// NewClient creates a WordPress client for the site root URL.
func NewClient(baseURL, username, password string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = time.Minute
	}
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Media is an uploaded media item.
type Media struct {
	ID        int    `json:"id"`
	SourceURL string `json:"source_url"`
}

// Post is a created or updated post.
type Post struct {
	ID     int    `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Authenticate fetches a JWT for subsequent requests.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/wp-json/jwt-auth/v1/token", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.send(req, http.StatusOK)
	if err != nil {
		return fmt.Errorf("wordpress authentication failed: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return fmt.Errorf("failed to parse auth response: %w", err)
	}
	if tr.Token == "" {
		return fmt.Errorf("wordpress auth response contained no token")
	}

	c.token = tr.Token
	return nil
}

// UploadMedia uploads image bytes to the media library.
func (c *Client) UploadMedia(ctx context.Context, filename, contentType string, data []byte) (*Media, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/wp-json/wp/v2/media", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create media request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))

	respBody, err := c.send(req, http.StatusCreated, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("media upload failed: %w", err)
	}

	var media Media
	if err := json.Unmarshal(respBody, &media); err != nil {
		return nil, fmt.Errorf("failed to parse media response: %w", err)
	}
	return &media, nil
}

// CreateDraft creates a draft post with an optional featured image.
func (c *Client) CreateDraft(ctx context.Context, title, content string, featuredMediaID int) (*Post, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"title":   title,
		"content": content,
		"status":  "draft",
	}
	if featuredMediaID > 0 {
		payload["featured_media"] = featuredMediaID
	}

	return c.postJSON(ctx, c.baseURL+"/wp-json/wp/v2/posts", payload)
}

// Publish flips a post to published.
func (c *Client) Publish(ctx context.Context, postID int) (*Post, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/wp-json/wp/v2/posts/%d", c.baseURL, postID)
	return c.postJSON(ctx, url, map[string]any{"status": "publish"})
}

// EditURL returns the wp-admin edit link for a post.
func (c *Client) EditURL(postID int) string {
	return fmt.Sprintf("%s/wp-admin/post.php?post=%d&action=edit", c.baseURL, postID)
}

func (c *Client) ensureToken(ctx context.Context) error {
	if c.token != "" {
		return nil
	}
	return c.Authenticate(ctx)
}

func (c *Client) postJSON(ctx context.Context, url string, payload map[string]any) (*Post, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create post request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.send(req, http.StatusCreated, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("post request failed: %w", err)
	}

	var post Post
	if err := json.Unmarshal(respBody, &post); err != nil {
		return nil, fmt.Errorf("failed to parse post response: %w", err)
	}
	return &post, nil
}

func (c *Client) send(req *http.Request, okStatuses ...int) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	for _, status := range okStatuses {
		if resp.StatusCode == status {
			return body, nil
		}
	}
	return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
}
