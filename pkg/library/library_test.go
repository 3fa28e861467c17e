package library

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/readmark/pkg/progress"
	"github.com/Dicklesworthstone/readmark/pkg/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const bookPage = `<html><head><title>%TITLE%</title></head><body>
<nav class="sidebar"><a href="index.html">Intro</a><a href="ch1.html">One</a></nav>
<div class="content"><main><p>text</p></main></div></body></html>`

func writeBookDir(t *testing.T, dir, title string) {
	t.Helper()
	page := strings.ReplaceAll(bookPage, "%TITLE%", title)
	writeFile(t, filepath.Join(dir, "index.html"), page)
	writeFile(t, filepath.Join(dir, "ch1.html"), page)
}

func TestLoadLibrary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.yaml")
	writeFile(t, path, `
books:
  - name: guide
    path: books/guide
  - path: books/manual
    enabled: false
    storage_key: manual-progress
`)
	lib, err := LoadLibrary(path)
	if err != nil {
		t.Fatalf("LoadLibrary failed: %v", err)
	}
	if len(lib.Books) != 2 {
		t.Fatalf("Books = %+v", lib.Books)
	}
	if lib.Books[1].GetName() != "manual" || lib.Books[1].IsEnabled() {
		t.Errorf("book 2 = %+v", lib.Books[1])
	}
	if enabled := lib.Enabled(); len(enabled) != 1 || enabled[0].Name != "guide" {
		t.Errorf("Enabled = %+v", enabled)
	}
}

func TestLoadLibrary_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing path", "books:\n  - name: x\n", "has no path"},
		{"duplicate", "books:\n  - path: a/x\n  - path: b/x\n", "duplicate book name"},
		{"bad yaml", "books: [", "parsing library"},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "library.yaml")
		writeFile(t, path, tt.content)
		_, err := LoadLibrary(path)
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: err = %v, want %q", tt.name, err, tt.wantErr)
		}
	}
	if _, err := LoadLibrary(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestResolvePath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "book")
	if got := ResolvePath(BookConfig{Path: abs}, "/root"); got != abs {
		t.Errorf("absolute path changed: %q", got)
	}
	if got := ResolvePath(BookConfig{Path: "books/a"}, "/lib"); got != filepath.Join("/lib", "books/a") {
		t.Errorf("relative path = %q", got)
	}
}

func TestLoadAll_ContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	writeBookDir(t, filepath.Join(dir, "good"), "Good Book")
	path := filepath.Join(dir, "library.yaml")
	writeFile(t, path, "books:\n  - path: good\n  - path: missing\n")

	results, err := LoadAllFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadAllFromFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Error != nil || results[0].Book.Title() != "Good Book" {
		t.Errorf("good book = %+v", results[0])
	}
	if results[1].Error == nil {
		t.Error("Expected missing book to fail")
	}

	s := Summarize(results)
	if s.TotalBooks != 2 || s.SuccessfulBooks != 1 || s.FailedBooks != 1 || s.TotalPages != 2 {
		t.Errorf("Summary = %+v", s)
	}
	if len(s.FailedBookNames) != 1 || s.FailedBookNames[0] != "missing" {
		t.Errorf("FailedBookNames = %v", s.FailedBookNames)
	}
}

func TestLoadAll_NoEnabledBooks(t *testing.T) {
	off := false
	l := NewAggregateLoader(&Library{Books: []BookConfig{{Path: "x", Enabled: &off}}}, t.TempDir())
	l.SetLogger(quietLogger())
	if _, err := l.LoadAll(context.Background()); err == nil {
		t.Error("Expected error when nothing is enabled")
	}
	if _, err := NewAggregateLoader(nil, "").LoadAll(context.Background()); err == nil {
		t.Error("Expected error for nil library")
	}
}

func TestCollectStats(t *testing.T) {
	dir := t.TempDir()
	writeBookDir(t, filepath.Join(dir, "a"), "A")
	writeBookDir(t, filepath.Join(dir, "b"), "B")
	lib := &Library{Books: []BookConfig{
		{Path: "a"},
		{Path: "b", StorageKey: "b-key"},
		{Path: "gone"},
	}}
	l := NewAggregateLoader(lib, dir)
	l.SetLogger(quietLogger())
	results, err := l.LoadAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	stores := map[string]*storage.Memory{}
	open := func(root string) (storage.Backing, error) {
		m, ok := stores[root]
		if !ok {
			m = storage.NewMemory()
			stores[root] = m
		}
		return m, nil
	}
	aStore, _ := open(filepath.Join(dir, "a"))
	progress.NewStore(aStore, progress.WithLogger(quietLogger())).MarkRead("ch1.html")
	bStore, _ := open(filepath.Join(dir, "b"))
	progress.NewStore(bStore, progress.WithKey("b-key"), progress.WithLogger(quietLogger())).MarkRead("index.html")
	progress.NewStore(bStore, progress.WithLogger(quietLogger())).MarkRead("ch1.html")

	stats := CollectStats(results, open, progress.DefaultStorageKey, progress.IDLastSegment, quietLogger())
	if len(stats) != 3 {
		t.Fatalf("stats = %+v", stats)
	}
	if s := stats[0].Stats; s.ReadInBook != 1 || s.Total != 2 || s.Percentage != 50 {
		t.Errorf("book a = %+v", s)
	}
	if s := stats[1].Stats; s.Read != 1 || !s.Record.IsRead("index.html") {
		t.Errorf("book b should use its own key, got %+v", s)
	}
	if stats[2].Error == "" {
		t.Error("Expected error for the missing book")
	}
}
