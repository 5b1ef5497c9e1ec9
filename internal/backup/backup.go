// Package backup writes article HTML to disk at stage transitions. These
// files are the only thing left standing when a late stage fails after the
// expensive generation work already succeeded.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"newsstand/internal/logger"
)

// Writer saves stage snapshots into one directory.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a backup writer rooted at dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "backups"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &Writer{dir: dir, now: time.Now}, nil
}

// SaveStage writes a snapshot for a named stage, e.g. "raw_draft" or
// "formatted". The write is best effort: failures are logged, never fatal,
// because a backup problem must not kill a healthy run.
func (w *Writer) SaveStage(stage, html string) string {
	name := fmt.Sprintf("article_backup_%s_%s.html", stage, w.timestamp())
	return w.write(name, html)
}

// SaveEmergency writes a last-resort snapshot when the pipeline is about to
// fail with generated content in hand.
func (w *Writer) SaveEmergency(html string) string {
	name := fmt.Sprintf("emergency_article_%s.html", w.timestamp())
	return w.write(name, html)
}

func (w *Writer) write(name, html string) string {
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		logger.Warn("failed to write backup", "path", path, "error", err.Error())
		return ""
	}
	logger.Info("backup written", "path", path)
	return path
}

func (w *Writer) timestamp() string {
	return w.now().Format("20060102_150405")
}
