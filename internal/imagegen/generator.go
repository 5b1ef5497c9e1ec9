package imagegen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"newsstand/internal/core"
	"newsstand/internal/logger"
)

// predictionAPI is the slice of the Replicate client the generator uses;
// tests substitute a fake.
type predictionAPI interface {
	Create(ctx context.Context, prompt, aspectRatio string) (*Prediction, error)
	Get(ctx context.Context, id string) (*Prediction, error)
	Cancel(ctx context.Context, id string) error
}

// Generator runs image jobs with polling, a hard per-job timeout, and one
// retry after a timed-out job is canceled.
type Generator struct {
	api          predictionAPI
	pollInterval time.Duration
	jobTimeout   time.Duration
}

// NewGenerator creates a generator over the given client. Zero durations
// fall back to 1s polling and a 4 minute job timeout.
func NewGenerator(api predictionAPI, pollInterval, jobTimeout time.Duration) *Generator {
	if pollInterval == 0 {
		pollInterval = time.Second
	}
	if jobTimeout == 0 {
		jobTimeout = 4 * time.Minute
	}
	return &Generator{api: api, pollInterval: pollInterval, jobTimeout: jobTimeout}
}

// GenerateImages renders one image per prompt concurrently and returns
// exactly len(prompts) slots in order. A slot whose job failed has an empty
// RemoteURL; per-image failure never fails the batch. The error return is
// reserved for context cancellation.
func (g *Generator) GenerateImages(ctx context.Context, prompts []string, aspectRatio string) ([]core.GeneratedImage, error) {
	results := make([]core.GeneratedImage, len(prompts))

	eg, ctx := errgroup.WithContext(ctx)
	for i, prompt := range prompts {
		results[i] = core.GeneratedImage{Prompt: prompt, AspectRatio: aspectRatio}
		eg.Go(func() error {
			url, err := g.runJob(ctx, prompt, aspectRatio)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("image job failed", "slot", i, "error", err.Error())
				return nil
			}
			results[i].RemoteURL = url
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("image generation aborted: %w", err)
	}
	return results, nil
}

// runJob runs one prediction to completion. A job that exceeds the timeout
// is canceled and retried exactly once with a brand-new prediction.
func (g *Generator) runJob(ctx context.Context, prompt, aspectRatio string) (string, error) {
	url, err := g.runOnce(ctx, prompt, aspectRatio)
	if err == nil {
		return url, nil
	}

	var timeoutErr *jobTimeoutError
	if !errors.As(err, &timeoutErr) {
		return "", err
	}

	logger.Warn("image job timed out, retrying once", "prediction_id", timeoutErr.predictionID)
	return g.runOnce(ctx, prompt, aspectRatio)
}

// jobTimeoutError marks a job that exceeded the hard deadline.
type jobTimeoutError struct {
	predictionID string
}

func (e *jobTimeoutError) Error() string {
	return fmt.Sprintf("prediction %s exceeded job timeout", e.predictionID)
}

func (g *Generator) runOnce(ctx context.Context, prompt, aspectRatio string) (string, error) {
	prediction, err := g.api.Create(ctx, prompt, aspectRatio)
	if err != nil {
		return "", err
	}

	deadline := time.Now().Add(g.jobTimeout)
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		if prediction.Terminal() {
			break
		}
		if time.Now().After(deadline) {
			// Best-effort cancel; the slot is abandoned regardless.
			if cancelErr := g.api.Cancel(ctx, prediction.ID); cancelErr != nil {
				logger.Warn("failed to cancel timed-out prediction", "prediction_id", prediction.ID, "error", cancelErr.Error())
			}
			return "", &jobTimeoutError{predictionID: prediction.ID}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		prediction, err = g.api.Get(ctx, prediction.ID)
		if err != nil {
			return "", err
		}
	}

	switch prediction.Status {
	case StatusSucceeded:
		url := prediction.OutputURL()
		if url == "" {
			return "", fmt.Errorf("prediction %s succeeded with no output", prediction.ID)
		}
		return url, nil
	case StatusCanceled:
		return "", fmt.Errorf("prediction %s was canceled", prediction.ID)
	default:
		return "", fmt.Errorf("prediction %s failed: %s", prediction.ID, prediction.Error)
	}
}
