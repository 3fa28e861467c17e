package export

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is stored in the meta table.
const SchemaVersion = 1

const schema = `
CREATE TABLE chapters (
	idx INTEGER PRIMARY KEY,
	page_id TEXT NOT NULL,
	path TEXT,
	title TEXT NOT NULL,
	words INTEGER NOT NULL DEFAULT 0,
	minutes INTEGER NOT NULL DEFAULT 0,
	read INTEGER NOT NULL DEFAULT 0,
	scroll INTEGER NOT NULL DEFAULT 0,
	last_page INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX idx_chapters_page ON chapters(page_id);
CREATE TABLE bookmark (
	path TEXT NOT NULL,
	scroll INTEGER NOT NULL,
	title TEXT,
	saved_at TEXT
);
CREATE TABLE meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE VIEW progress_summary AS
	SELECT COUNT(*) AS total,
	       COALESCE(SUM(read), 0) AS read,
	       COALESCE(SUM(CASE WHEN read = 0 THEN minutes ELSE 0 END), 0) AS remaining_minutes
	FROM chapters;
`

// SQLiteExporter writes a Report to a SQLite database.
type SQLiteExporter struct {
	Report Report
}

// NewSQLiteExporter creates a new exporter for r.
func NewSQLiteExporter(r Report) *SQLiteExporter {
	return &SQLiteExporter{Report: r}
}

// Export writes the database to path, replacing any existing file.
func (e *SQLiteExporter) Export(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	// Remove existing database if present
	_ = os.Remove(path)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := e.insertChapters(db); err != nil {
		return fmt.Errorf("insert chapters: %w", err)
	}
	if err := e.insertBookmark(db); err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	if err := e.insertMeta(db); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}
	return db.Close()
}

// insertChapters inserts one row per sidebar chapter.
func (e *SQLiteExporter) insertChapters(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO chapters (idx, page_id, path, title, words, minutes, read, scroll, last_page)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range e.Report.Chapters {
		var path *string
		if c.Path != "" {
			p := c.Path
			path = &p
		}
		_, err := stmt.Exec(c.Index, c.ID, path, c.Title, c.Words, c.Minutes, boolInt(c.Read), c.Scroll, boolInt(c.Last))
		if err != nil {
			return fmt.Errorf("insert chapter %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

func (e *SQLiteExporter) insertBookmark(db *sql.DB) error {
	b := e.Report.Bookmark
	if b == nil {
		return nil
	}
	var savedAt *string
	if t := b.Time(); !t.IsZero() {
		s := t.UTC().Format(time.RFC3339)
		savedAt = &s
	}
	_, err := db.Exec(`INSERT INTO bookmark (path, scroll, title, saved_at) VALUES (?, ?, ?, ?)`,
		b.Path, b.Scroll, b.Title, savedAt)
	return err
}

// insertMeta inserts export metadata.
func (e *SQLiteExporter) insertMeta(db *sql.DB) error {
	r := e.Report
	stats, err := json.Marshal(r.Stats)
	if err != nil {
		return err
	}
	meta := map[string]string{
		"title":          r.Title,
		"generated_at":   r.Generated.UTC().Format(time.RFC3339),
		"schema_version": fmt.Sprintf("%d", SchemaVersion),
		"stats":          string(stats),
		"total_words":    fmt.Sprintf("%d", r.Lengths.TotalWords),
	}
	if r.LastPage != "" {
		meta["last_page"] = r.LastPage
	}
	if !r.LastVisit.IsZero() {
		meta["last_visit"] = r.LastVisit.UTC().Format(time.RFC3339)
	}
	if r.FontSize != "" {
		meta["font_size"] = r.FontSize
	}

	for key, value := range meta {
		if _, err := db.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("insert meta %s: %w", key, err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
