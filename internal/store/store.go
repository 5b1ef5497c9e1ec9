// Package store persists run metadata in SQLite: generated articles, their
// images, and the topic rotation cursor. Records are written only after a
// run fully succeeds.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Store is the SQLite-backed metadata store.
type Store struct {
	db   *sql.DB
	path string
	log  zerolog.Logger
}

// NewStore opens (or creates) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = filepath.Join(".newsstand", "newsstand.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:   db,
		path: path,
		log:  zerolog.New(os.Stderr).With().Timestamp().Str("component", "store").Logger(),
	}

	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	articlesTable := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT,
		topic TEXT,
		style TEXT,
		mode TEXT,
		post_id INTEGER,
		post_link TEXT,
		backup_path TEXT,
		created_at DATETIME
	);`

	imagesTable := `
	CREATE TABLE IF NOT EXISTS images (
		id TEXT PRIMARY KEY,
		article_id TEXT,
		prompt TEXT,
		url TEXT,
		aspect_ratio TEXT,
		FOREIGN KEY (article_id) REFERENCES articles (id)
	);`

	rotationTable := `
	CREATE TABLE IF NOT EXISTS topic_rotation (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		last_index INTEGER NOT NULL
	);`

	for _, table := range []string{articlesTable, imagesTable, rotationTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ArticleRecord is one completed run.
type ArticleRecord struct {
	ID         string
	Title      string
	Topic      string
	Style      string
	Mode       string
	PostID     int
	PostLink   string
	BackupPath string
	CreatedAt  time.Time
}

// ImageRecord is one generated image belonging to an article.
type ImageRecord struct {
	ID          string
	ArticleID   string
	Prompt      string
	URL         string
	AspectRatio string
}

// SaveRun records a successful run and its images in one transaction,
// returning the article record's id.
func (s *Store) SaveRun(record ArticleRecord, images []ImageRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO articles (id, title, topic, style, mode, post_id, post_link, backup_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Title, record.Topic, record.Style, record.Mode,
		record.PostID, record.PostLink, record.BackupPath, record.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert article record: %w", err)
	}

	for _, img := range images {
		id := img.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err = tx.Exec(`
			INSERT INTO images (id, article_id, prompt, url, aspect_ratio)
			VALUES (?, ?, ?, ?, ?)`,
			id, record.ID, img.Prompt, img.URL, img.AspectRatio)
		if err != nil {
			return "", fmt.Errorf("failed to insert image record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	s.log.Info().Str("article_id", record.ID).Int("images", len(images)).Msg("run recorded")
	return record.ID, nil
}

// RecentArticles returns the newest runs, most recent first.
func (s *Store) RecentArticles(limit int) ([]ArticleRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT id, title, topic, style, mode, post_id, post_link, backup_path, created_at
		FROM articles ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []ArticleRecord
	for rows.Next() {
		var r ArticleRecord
		if err := rows.Scan(&r.ID, &r.Title, &r.Topic, &r.Style, &r.Mode,
			&r.PostID, &r.PostLink, &r.BackupPath, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan article record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ArticleImages returns the images recorded for an article.
func (s *Store) ArticleImages(articleID string) ([]ImageRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, article_id, prompt, url, aspect_ratio
		FROM images WHERE article_id = ?`, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []ImageRecord
	for rows.Next() {
		var r ImageRecord
		if err := rows.Scan(&r.ID, &r.ArticleID, &r.Prompt, &r.URL, &r.AspectRatio); err != nil {
			return nil, fmt.Errorf("failed to scan image record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// LastTopicIndex returns the rotation cursor; -1 when no run has happened.
func (s *Store) LastTopicIndex() (int, error) {
	var index int
	err := s.db.QueryRow(`SELECT last_index FROM topic_rotation WHERE id = 1`).Scan(&index)
	if err == sql.ErrNoRows {
		return -1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read topic cursor: %w", err)
	}
	return index, nil
}

// SetLastTopicIndex persists the rotation cursor.
func (s *Store) SetLastTopicIndex(i int) error {
	_, err := s.db.Exec(`
		INSERT INTO topic_rotation (id, last_index) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET last_index = excluded.last_index`, i)
	if err != nil {
		return fmt.Errorf("failed to save topic cursor: %w", err)
	}
	return nil
}
