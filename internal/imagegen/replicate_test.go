package imagegen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReplicateClientCreate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/v1/models/black-forest-labs/flux-1.1-pro/predictions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Input.Prompt != "a lighthouse at dusk" || req.Input.AspectRatio != "16:9" {
			t.Errorf("unexpected input %+v", req.Input)
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "pred-1", "status": "starting"}`))
	}))
	defer server.Close()

	client := NewReplicateClient("tok", "black-forest-labs/flux-1.1-pro", server.URL)
	prediction, err := client.Create(context.Background(), "a lighthouse at dusk", "16:9")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if prediction.ID != "pred-1" || prediction.Status != StatusStarting {
		t.Errorf("unexpected prediction %+v", prediction)
	}
}

func TestReplicateClientGetAndCancel(t *testing.T) {
	var canceled bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET" && r.URL.Path == "/v1/predictions/pred-1":
			_, _ = w.Write([]byte(`{"id": "pred-1", "status": "succeeded", "output": ["https://img.example/x.jpg"]}`))
		case r.Method == "POST" && r.URL.Path == "/v1/predictions/pred-1/cancel":
			canceled = true
			_, _ = w.Write([]byte(`{"id": "pred-1", "status": "canceled"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewReplicateClient("tok", "m/m", server.URL)

	prediction, err := client.Get(context.Background(), "pred-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !prediction.Terminal() || prediction.OutputURL() != "https://img.example/x.jpg" {
		t.Errorf("unexpected prediction %+v", prediction)
	}

	if err := client.Cancel(context.Background(), "pred-1"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if !canceled {
		t.Error("cancel endpoint not hit")
	}
}

func TestReplicateClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "invalid token"}`))
	}))
	defer server.Close()

	client := NewReplicateClient("bad", "m/m", server.URL)
	_, err := client.Create(context.Background(), "prompt", "16:9")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 401") {
		t.Errorf("unexpected error %v", err)
	}
}
