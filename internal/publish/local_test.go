package publish

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInlineReplacesAllOccurrences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("pngdata"))
	}))
	defer server.Close()

	heroURL := server.URL + "/hero.png"
	sectionURL := server.URL + "/s1.png"
	html := `<div style="background-image: url('` + heroURL + `')"></div>` +
		`<img src="` + heroURL + `">` +
		`<div style="background-image: url('` + sectionURL + `')"></div>`

	out, err := NewInliner(10*time.Second).Inline(context.Background(), html, heroURL, []string{sectionURL})
	if err != nil {
		t.Fatalf("Inline failed: %v", err)
	}

	if strings.Contains(out, server.URL) {
		t.Error("remote URLs still present after inlining")
	}
	expected := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("pngdata"))
	if strings.Count(out, expected) != 3 {
		t.Errorf("expected 3 inlined occurrences, got %d", strings.Count(out, expected))
	}
}

func TestInlineHeroFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	heroURL := server.URL + "/gone.jpg"
	_, err := NewInliner(10*time.Second).Inline(context.Background(), "<p>x</p>", heroURL, nil)
	if err == nil {
		t.Fatal("expected error for failed hero download")
	}
	if !strings.Contains(err.Error(), "Hero image download failed") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestInlineSectionFailureWarnsOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "hero") {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("herodata"))
			return
		}
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	heroURL := server.URL + "/hero.jpg"
	sectionURL := server.URL + "/expired.jpg"
	html := heroURL + " " + sectionURL

	out, err := NewInliner(10*time.Second).Inline(context.Background(), html, heroURL, []string{sectionURL})
	if err != nil {
		t.Fatalf("Inline failed: %v", err)
	}
	if strings.Contains(out, heroURL) {
		t.Error("hero URL should be inlined")
	}
	if !strings.Contains(out, sectionURL) {
		t.Error("failed section URL should remain in place")
	}
}

func TestInlineEmptyInputs(t *testing.T) {
	out, err := NewInliner(0).Inline(context.Background(), "<p>doc</p>", "", []string{""})
	if err != nil {
		t.Fatalf("Inline failed: %v", err)
	}
	if out != "<p>doc</p>" {
		t.Errorf("document changed unexpectedly: %q", out)
	}
}
