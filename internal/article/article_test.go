package article

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"

	"newsstand/internal/core"
)

func completionResponse(content string) string {
	msg, _ := json.Marshal(content)
	return fmt.Sprintf(`{"id": "cmpl-1", "object": "chat.completion", "choices": [{"index": 0, "message": {"role": "assistant", "content": %s}}]}`, msg)
}

func TestGenerateSuccess(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse(validDoc)))
	}))
	defer server.Close()

	gen, err := NewGenerator("test-key", "gpt-4o-2024-08-06", 0, option.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	draft, err := gen.Generate(context.Background(), Request{
		Topic:           "grid batteries",
		ResearchSummary: "Battery installations doubled this year.",
		Style:           core.StyleAuthoritative,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if draft.Title != "The Quiet Rise of Grid Batteries" {
		t.Errorf("unexpected title %q", draft.Title)
	}

	if gotBody.Model != "gpt-4o-2024-08-06" {
		t.Errorf("unexpected model %q", gotBody.Model)
	}
	if len(gotBody.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(gotBody.Messages))
	}
	if !strings.Contains(gotBody.Messages[1].Content, "Battery installations doubled") {
		t.Error("research summary missing from user prompt")
	}
	if !strings.Contains(gotBody.Messages[0].Content, "semantic HTML only") {
		t.Error("semantic-only contract missing from system prompt")
	}
}

func TestGenerateRepairRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			_, _ = w.Write([]byte(completionResponse("Sorry, here is prose instead of JSON.")))
			return
		}

		// Repair round must carry the bad output and a corrective instruction.
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode repair request: %v", err)
		}
		if len(body.Messages) != 4 {
			t.Errorf("expected 4 messages in repair round, got %d", len(body.Messages))
		}
		last := body.Messages[len(body.Messages)-1].Content
		if !strings.Contains(last, "could not be used") {
			t.Errorf("repair instruction missing, got %q", last)
		}

		_, _ = w.Write([]byte(completionResponse(validDoc)))
	}))
	defer server.Close()

	gen, err := NewGenerator("test-key", "", 0, option.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	draft, err := gen.Generate(context.Background(), Request{ResearchSummary: "research"})
	if err != nil {
		t.Fatalf("Generate failed after repair: %v", err)
	}
	if draft == nil || draft.Title == "" {
		t.Error("repair round produced no draft")
	}
	if calls != 2 {
		t.Errorf("expected 2 API calls, got %d", calls)
	}
}

func TestGenerateRepairExhausted(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse("still not JSON")))
	}))
	defer server.Close()

	gen, err := NewGenerator("test-key", "", 0, option.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	_, err = gen.Generate(context.Background(), Request{ResearchSummary: "research"})
	if err == nil {
		t.Fatal("expected error after repair exhausted")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected ParseError, got %T", err)
	}
	if calls != 2 {
		t.Errorf("expected exactly 2 API calls, got %d", calls)
	}
}

func TestGenerateRequiresResearch(t *testing.T) {
	gen, err := NewGenerator("test-key", "", 0)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	if _, err := gen.Generate(context.Background(), Request{}); err == nil {
		t.Error("expected error for empty research summary")
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	if _, err := NewGenerator("", "model", 0); err == nil {
		t.Error("expected error for missing API key")
	}
}
