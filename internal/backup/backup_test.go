package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveStage(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	w.now = func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) }

	path := w.SaveStage("raw_draft", "<p>draft</p>")
	if path == "" {
		t.Fatal("SaveStage returned empty path")
	}
	if filepath.Base(path) != "article_backup_raw_draft_20250601_093000.html" {
		t.Errorf("unexpected file name %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}
	if string(data) != "<p>draft</p>" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestSaveEmergency(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	path := w.SaveEmergency("<html>rescue</html>")
	if path == "" {
		t.Fatal("SaveEmergency returned empty path")
	}
	if !strings.HasPrefix(filepath.Base(path), "emergency_article_") {
		t.Errorf("unexpected file name %q", filepath.Base(path))
	}
}

func TestWriteFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	// Remove the directory so the write fails.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("failed to remove dir: %v", err)
	}

	if path := w.SaveStage("raw_draft", "x"); path != "" {
		t.Errorf("expected empty path on write failure, got %q", path)
	}
}

func TestNewWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "backups")
	if _, err := NewWriter(dir); err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("backup directory not created: %v", err)
	}
}
