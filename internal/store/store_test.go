package store

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveRunAndQuery(t *testing.T) {
	s := newTestStore(t)

	id, err := s.SaveRun(ArticleRecord{
		Title:    "Grid Batteries",
		Topic:    "energy storage",
		Style:    "Authoritative/Expert",
		Mode:     "wordpress",
		PostID:   7,
		PostLink: "https://site.example/?p=7",
	}, []ImageRecord{
		{Prompt: "hero prompt", URL: "https://img.example/hero.jpg", AspectRatio: "16:9"},
		{Prompt: "section prompt", URL: "https://img.example/s1.jpg", AspectRatio: "4:3"},
	})
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if id == "" {
		t.Fatal("SaveRun returned empty id")
	}

	articles, err := s.RecentArticles(5)
	if err != nil {
		t.Fatalf("RecentArticles failed: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Title != "Grid Batteries" || articles[0].PostID != 7 {
		t.Errorf("unexpected record %+v", articles[0])
	}

	images, err := s.ArticleImages(id)
	if err != nil {
		t.Fatalf("ArticleImages failed: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
	if images[0].ArticleID != id {
		t.Errorf("image not linked to article: %+v", images[0])
	}
}

func TestTopicCursor(t *testing.T) {
	s := newTestStore(t)

	index, err := s.LastTopicIndex()
	if err != nil {
		t.Fatalf("LastTopicIndex failed: %v", err)
	}
	if index != -1 {
		t.Errorf("expected -1 before first run, got %d", index)
	}

	if err := s.SetLastTopicIndex(2); err != nil {
		t.Fatalf("SetLastTopicIndex failed: %v", err)
	}
	if err := s.SetLastTopicIndex(3); err != nil {
		t.Fatalf("SetLastTopicIndex failed: %v", err)
	}

	index, err = s.LastTopicIndex()
	if err != nil {
		t.Fatalf("LastTopicIndex failed: %v", err)
	}
	if index != 3 {
		t.Errorf("expected cursor 3, got %d", index)
	}
}

func TestRecentArticlesLimit(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		if _, err := s.SaveRun(ArticleRecord{Title: "a", Mode: "local"}, nil); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	articles, err := s.RecentArticles(2)
	if err != nil {
		t.Fatalf("RecentArticles failed: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("expected 2 articles, got %d", len(articles))
	}
}
