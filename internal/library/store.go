// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library archives completed review reports in a local SQLite
// database with full-text search. Only finished reports are stored, on
// request; the synthesis pipeline itself never persists intermediate state.
package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/review-engine/pkg/types"
)

const dbFile = "reports.db"

// Report is one archived review.
type Report struct {
	ID        string    `json:"id" yaml:"id"`
	Topic     string    `json:"topic" yaml:"topic"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	DocCount  int       `json:"doc_count" yaml:"doc_count"`
	Content   string    `json:"content,omitempty" yaml:"content,omitempty"`
}

// Store manages the report archive database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the archive database at cfg.Dir/reports.db and
// creates the schema if it does not exist.
func Open(cfg types.LibraryConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "library"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating library directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			created_at TEXT NOT NULL,
			doc_count INTEGER,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_topic ON reports(topic)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='reports_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE reports_fts USING fts5(topic, content, content=reports, content_rowid=rowid)`,
			`CREATE TRIGGER reports_ai AFTER INSERT ON reports BEGIN
				INSERT INTO reports_fts(rowid, topic, content) VALUES (new.rowid, new.topic, new.content);
			END`,
			`CREATE TRIGGER reports_ad AFTER DELETE ON reports BEGIN
				INSERT INTO reports_fts(reports_fts, rowid, topic, content) VALUES('delete', old.rowid, old.topic, old.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Save archives a completed report and returns the stored record.
func (s *Store) Save(ctx context.Context, topic, content string, docCount int) (Report, error) {
	if topic == "" {
		return Report{}, fmt.Errorf("topic must not be empty")
	}
	if content == "" {
		return Report{}, fmt.Errorf("content must not be empty")
	}

	r := Report{
		ID:        uuid.NewString(),
		Topic:     topic,
		CreatedAt: time.Now().UTC(),
		DocCount:  docCount,
		Content:   content,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, topic, created_at, doc_count, content) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Topic, r.CreatedAt.Format(time.RFC3339Nano), r.DocCount, r.Content,
	)
	if err != nil {
		return Report{}, fmt.Errorf("inserting report: %w", err)
	}
	return r, nil
}

// List returns archived report metadata (no content), newest first.
func (s *Store) List(ctx context.Context) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, created_at, doc_count FROM reports ORDER BY created_at DESC LIMIT ?`,
		s.maxResults,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Topic, &createdAt, &r.DocCount); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// Get returns one archived report including its content.
func (s *Store) Get(ctx context.Context, id string) (Report, error) {
	var r Report
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, topic, created_at, doc_count, content FROM reports WHERE id = ?`, id,
	).Scan(&r.ID, &r.Topic, &createdAt, &r.DocCount, &r.Content)
	if err == sql.ErrNoRows {
		return Report{}, fmt.Errorf("report %s not found", id)
	}
	if err != nil {
		return Report{}, fmt.Errorf("reading report: %w", err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return r, nil
}

// Search runs an FTS5 full-text query over topics and report bodies.
func (s *Store) Search(ctx context.Context, query string) ([]Report, error) {
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.topic, r.created_at, r.doc_count
		 FROM reports_fts
		 JOIN reports r ON r.rowid = reports_fts.rowid
		 WHERE reports_fts MATCH ?
		 ORDER BY reports_fts.rank
		 LIMIT ?`,
		query, s.maxResults,
	)
	if err != nil {
		return nil, fmt.Errorf("searching reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Topic, &createdAt, &r.DocCount); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
