// Package imagegen renders article images through the Replicate predictions
// API: create a prediction, poll until it settles, cancel on timeout.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.replicate.com"

// Prediction statuses reported by the API.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Prediction is the subset of the prediction resource this package reads.
type Prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Terminal reports whether the prediction has settled.
func (p *Prediction) Terminal() bool {
	switch p.Status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// OutputURL extracts the image URL from the prediction output, which the
// API returns as either a bare string or a single-element array.
func (p *Prediction) OutputURL() string {
	if len(p.Output) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(p.Output, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(p.Output, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

// ReplicateClient is a minimal predictions API client.
type ReplicateClient struct {
	token      string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewReplicateClient creates a client for the given model, e.g.
// "black-forest-labs/flux-1.1-pro".
func NewReplicateClient(token, model, baseURL string) *ReplicateClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ReplicateClient{
		token:   token,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type createRequest struct {
	Input predictionInput `json:"input"`
}

type predictionInput struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	Format      string `json:"output_format"`
}

// Create starts a new prediction for the prompt.
func (c *ReplicateClient) Create(ctx context.Context, prompt, aspectRatio string) (*Prediction, error) {
	body := createRequest{Input: predictionInput{
		Prompt:      prompt,
		AspectRatio: aspectRatio,
		Format:      "jpg",
	}}
	url := fmt.Sprintf("%s/v1/models/%s/predictions", c.baseURL, c.model)
	return c.do(ctx, "POST", url, body, http.StatusCreated, http.StatusOK)
}

// Get fetches the current state of a prediction.
func (c *ReplicateClient) Get(ctx context.Context, id string) (*Prediction, error) {
	url := fmt.Sprintf("%s/v1/predictions/%s", c.baseURL, id)
	return c.do(ctx, "GET", url, nil, http.StatusOK)
}

// Cancel asks the API to stop a running prediction. Errors are returned but
// callers typically only log them: the job is being abandoned either way.
func (c *ReplicateClient) Cancel(ctx context.Context, id string) error {
	url := fmt.Sprintf("%s/v1/predictions/%s/cancel", c.baseURL, id)
	_, err := c.do(ctx, "POST", url, nil, http.StatusOK)
	return err
}

func (c *ReplicateClient) do(ctx context.Context, method, url string, body any, okStatuses ...int) (*Prediction, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read prediction response: %w", err)
	}

	ok := false
	for _, status := range okStatuses {
		if resp.StatusCode == status {
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("prediction API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var prediction Prediction
	if err := json.Unmarshal(respBody, &prediction); err != nil {
		return nil, fmt.Errorf("failed to parse prediction response: %w", err)
	}
	return &prediction, nil
}
