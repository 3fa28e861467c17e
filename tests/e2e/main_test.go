package main_test

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Dicklesworthstone/readmark/pkg/progress"
	"github.com/Dicklesworthstone/readmark/pkg/storage"
)

var (
	buildOnce sync.Once
	binPath   string
	buildErr  error
	buildOut  []byte
)

// buildReadmarkBinary builds cmd/readmark once per test run.
func buildReadmarkBinary(t *testing.T) string {
	t.Helper()
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "readmark-e2e")
		if err != nil {
			buildErr = err
			return
		}
		binPath = filepath.Join(dir, "readmark")
		cmd := exec.Command("go", "build", "-o", binPath, "./cmd/readmark")
		cmd.Dir = "../../" // Run from project root
		buildOut, buildErr = cmd.CombinedOutput()
	})
	if buildErr != nil {
		t.Fatalf("Build failed: %v\n%s", buildErr, buildOut)
	}
	return binPath
}

type env struct {
	bin     string
	book    string
	dataDir string
	config  string
}

const sidebar = `<nav class="sidebar"><a href="index.html">Introduction</a><a href="ch1.html">One</a><a href="ch2.html">Two</a></nav>`

func page(title, body string) string {
	return fmt.Sprintf(`<html><head><title>%s</title></head><body>%s<div class="content"><main>%s</main></div></body></html>`, title, sidebar, body)
}

// newEnv writes a three page book and a config pointing storage at a
// temporary data directory.
func newEnv(t *testing.T) env {
	t.Helper()
	tmp := t.TempDir()
	e := env{
		bin:     buildReadmarkBinary(t),
		book:    filepath.Join(tmp, "book"),
		dataDir: filepath.Join(tmp, "data"),
		config:  filepath.Join(tmp, "config.yaml"),
	}
	if err := os.MkdirAll(e.book, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"index.html": page("E2E Book", "<h1>Introduction</h1><p>Welcome to the book.</p>"),
		"ch1.html":   page("One", "<h1>One</h1><p>"+strings.Repeat("word ", 400)+"</p>"),
		"ch2.html":   page("Two", "<h1>Two</h1><p>"+strings.Repeat("word ", 200)+"</p>"),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(e.book, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := fmt.Sprintf("storage: file\ndata_dir: %s\nwatch: false\n", e.dataDir)
	if err := os.WriteFile(e.config, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return e
}

// seed stores a record the way the reader would.
func (e env) seed(t *testing.T, rec map[string]interface{}) {
	t.Helper()
	st, err := storage.Open(storage.BackendFile, e.dataDir, e.book)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	progress.NewStore(st).Save(rec)
}

func (e env) run(t *testing.T, args ...string) []byte {
	t.Helper()
	cmd := exec.Command(e.bin, append([]string{"--config", e.config, "--book", e.book}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = string(ee.Stderr)
		}
		t.Fatalf("readmark %v failed: %v\n%s%s", args, err, out, stderr)
	}
	return out
}

func TestEndToEndVersion(t *testing.T) {
	bin := buildReadmarkBinary(t)
	out, err := exec.Command(bin, "--version").CombinedOutput()
	if err != nil {
		t.Fatalf("Execution failed: %v\n%s", err, out)
	}
	if !strings.HasPrefix(string(out), "readmark v") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestEndToEndRobotStats(t *testing.T) {
	e := newEnv(t)
	e.seed(t, map[string]interface{}{
		progress.KeyReadChapters: []string{"ch1.html", "removed.html"},
	})

	out := e.run(t, "--robot-stats")
	var result map[string]interface{}
	if err := json.Unmarshal(out, &result); err != nil {
		t.Fatalf("--robot-stats output is not valid JSON: %v\nOutput: %s", err, out)
	}

	want := map[string]float64{"read": 2, "read_in_book": 1, "total": 3, "percentage": 33}
	for k, v := range want {
		if got, ok := result[k].(float64); !ok || got != v {
			t.Errorf("%s = %v, want %v", k, result[k], v)
		}
	}
	if _, ok := result["record"].(map[string]interface{}); !ok {
		t.Error("missing 'record'")
	}
}

func TestEndToEndRobotRecordKeepsUnknownKeys(t *testing.T) {
	e := newEnv(t)
	e.seed(t, map[string]interface{}{
		progress.KeyFontSize: "18px",
		"theme":              "sepia",
	})

	out := e.run(t, "--robot-record")
	var result map[string]interface{}
	if err := json.Unmarshal(out, &result); err != nil {
		t.Fatalf("--robot-record output is not valid JSON: %v\nOutput: %s", err, out)
	}
	if result["fontSize"] != "18px" || result["theme"] != "sepia" {
		t.Errorf("record = %v", result)
	}
}

func TestEndToEndRobotRecordEmpty(t *testing.T) {
	e := newEnv(t)
	out := e.run(t, "--robot-record")
	if strings.TrimSpace(string(out)) != "{}" {
		t.Errorf("empty record = %q", out)
	}
}

func TestEndToEndClear(t *testing.T) {
	e := newEnv(t)
	e.seed(t, map[string]interface{}{
		progress.KeyReadChapters: []string{"ch1.html"},
	})

	// Without a terminal, clearing needs --yes.
	cmd := exec.Command(e.bin, "--config", e.config, "--book", e.book, "--clear")
	if out, err := cmd.CombinedOutput(); err == nil {
		t.Fatalf("--clear without --yes succeeded:\n%s", out)
	}

	e.run(t, "--clear", "--yes")
	out := e.run(t, "--robot-record")
	if strings.TrimSpace(string(out)) != "{}" {
		t.Errorf("record after clear = %s", out)
	}
}

func TestEndToEndClearCorruptRecord(t *testing.T) {
	e := newEnv(t)
	path := storage.NewFileStorage(e.dataDir, e.book).Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := e.run(t, "--clear", "--yes")
	if !strings.Contains(string(out), "Reading progress cleared.") {
		t.Errorf("clear output = %q", out)
	}
	if _, err := os.Stat(path + ".corrupt"); err != nil {
		t.Errorf("corrupt file not kept aside: %v", err)
	}
	out = e.run(t, "--robot-record")
	if strings.TrimSpace(string(out)) != "{}" {
		t.Errorf("record after clear = %s", out)
	}
}

func TestEndToEndWriteConfig(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cmd := exec.Command(e.bin, "--config", path, "--storage", "sqlite", "--write-config")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("--write-config failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "Wrote "+path) {
		t.Errorf("output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	for _, want := range []string{"storage_key: solisp-book-progress", "storage: sqlite"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("config missing %q:\n%s", want, data)
		}
	}
}

func TestEndToEndNonInteractiveSummary(t *testing.T) {
	e := newEnv(t)
	e.seed(t, map[string]interface{}{
		progress.KeyReadChapters: []string{"ch2.html"},
	})
	out := e.run(t)
	if got := strings.TrimSpace(string(out)); got != "E2E Book: 1/3 chapters read (33%)" {
		t.Errorf("summary = %q", got)
	}
}

func TestEndToEndLibraryStats(t *testing.T) {
	e := newEnv(t)
	lib := filepath.Join(filepath.Dir(e.book), "library.yaml")
	content := "books:\n  - name: first\n    path: book\n  - name: missing\n    path: nowhere\n"
	if err := os.WriteFile(lib, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(e.bin, "--config", e.config, "--library", lib)
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("--library failed: %v\n%s", err, out)
	}
	var result []map[string]interface{}
	if err := json.Unmarshal(out, &result); err != nil {
		t.Fatalf("--library output is not valid JSON: %v\nOutput: %s", err, out)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 books, got %d", len(result))
	}
	names := map[string]map[string]interface{}{}
	for _, b := range result {
		names[b["name"].(string)] = b
	}
	if _, ok := names["first"]["stats"].(map[string]interface{}); !ok {
		t.Errorf("first book missing stats: %v", names["first"])
	}
	if names["missing"]["error"] == nil || names["missing"]["error"] == "" {
		t.Errorf("missing book has no error: %v", names["missing"])
	}
}
