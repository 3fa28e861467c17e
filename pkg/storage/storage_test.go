package storage_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/readmark/pkg/storage"
)

func exerciseStorage(t *testing.T, s storage.Storage) {
	t.Helper()

	if _, ok, err := s.GetItem("missing"); err != nil || ok {
		t.Fatalf("GetItem(missing) = ok=%v err=%v; want absent", ok, err)
	}

	if err := s.SetItem("k", `{"a":1}`); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	v, ok, err := s.GetItem("k")
	if err != nil || !ok || v != `{"a":1}` {
		t.Fatalf("GetItem(k) = %q, %v, %v", v, ok, err)
	}

	if err := s.SetItem("k", "second"); err != nil {
		t.Fatalf("SetItem overwrite: %v", err)
	}
	if v, _, _ := s.GetItem("k"); v != "second" {
		t.Errorf("Expected overwrite to win, got %q", v)
	}

	if err := s.RemoveItem("k"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if _, ok, _ := s.GetItem("k"); ok {
		t.Error("Expected key to be removed")
	}

	// Removing an absent key is not an error
	if err := s.RemoveItem("k"); err != nil {
		t.Errorf("RemoveItem on absent key: %v", err)
	}
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, storage.NewMemory())
}

func TestMemoryStorage_Quota(t *testing.T) {
	m := storage.NewMemory()
	m.Quota = 10
	if err := m.SetItem("k", "12345"); err != nil {
		t.Fatalf("Expected small write to fit: %v", err)
	}
	err := m.SetItem("k", "1234567890")
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Errorf("Expected ErrQuotaExceeded, got %v", err)
	}
	if v, _, _ := m.GetItem("k"); v != "12345" {
		t.Errorf("Failed write must not change value, got %q", v)
	}
}

func TestMemoryStorage_Disabled(t *testing.T) {
	m := storage.NewMemory()
	m.Disabled = true
	if _, _, err := m.GetItem("k"); !errors.Is(err, storage.ErrDisabled) {
		t.Errorf("GetItem: expected ErrDisabled, got %v", err)
	}
	if err := m.SetItem("k", "v"); !errors.Is(err, storage.ErrDisabled) {
		t.Errorf("SetItem: expected ErrDisabled, got %v", err)
	}
}

func TestFileStorage(t *testing.T) {
	exerciseStorage(t, storage.NewFileStorage(t.TempDir(), "/books/solisp"))
}

func TestFileStorage_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	a := storage.NewFileStorage(dir, "/books/solisp")
	if err := a.SetItem("progress", "hello"); err != nil {
		t.Fatal(err)
	}

	b := storage.NewFileStorage(dir, "/books/solisp")
	v, ok, err := b.GetItem("progress")
	if err != nil || !ok || v != "hello" {
		t.Fatalf("Second instance read %q, %v, %v", v, ok, err)
	}

	// A different origin is isolated
	c := storage.NewFileStorage(dir, "/books/other")
	if _, ok, _ := c.GetItem("progress"); ok {
		t.Error("Origins must not share items")
	}
}

func TestFileStorage_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	fs := storage.NewFileStorage(dir, "/books/solisp")
	if err := os.WriteFile(fs.Path(), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, err := fs.GetItem("progress")
	if !errors.Is(err, storage.ErrCorrupt) || !strings.Contains(err.Error(), "parsing storage file") {
		t.Errorf("Expected parse error, got %v", err)
	}

	// The store recovers empty and keeps the bad file aside.
	kept, err := os.ReadFile(fs.CorruptPath())
	if err != nil || string(kept) != "not json" {
		t.Errorf("corrupt file = %q, %v", kept, err)
	}
	if _, ok, err := fs.GetItem("progress"); err != nil || ok {
		t.Errorf("GetItem after recovery = ok=%v err=%v", ok, err)
	}
	if err := fs.SetItem("progress", `{"fontSize":"18px"}`); err != nil {
		t.Fatalf("SetItem after corruption: %v", err)
	}
	if err := fs.RemoveItem("progress"); err != nil {
		t.Fatalf("RemoveItem after corruption: %v", err)
	}

	reopened := storage.NewFileStorage(dir, "/books/solisp")
	if _, ok, err := reopened.GetItem("progress"); err != nil || ok {
		t.Errorf("reopened GetItem = ok=%v err=%v", ok, err)
	}
}

func TestFileStorage_CorruptFileThenWrite(t *testing.T) {
	dir := t.TempDir()
	fs := storage.NewFileStorage(dir, "/books/solisp")
	if err := os.WriteFile(fs.Path(), []byte("{garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fs.SetItem("k", "v"); err != nil {
		t.Fatalf("SetItem on a corrupt file: %v", err)
	}
	if _, err := os.Stat(fs.CorruptPath()); err != nil {
		t.Errorf("corrupt file not kept: %v", err)
	}
	if v, ok, err := storage.NewFileStorage(dir, "/books/solisp").GetItem("k"); err != nil || !ok || v != "v" {
		t.Errorf("GetItem = %q, %v, %v", v, ok, err)
	}
}

func TestFileStorage_RemoveOnCorruptFile(t *testing.T) {
	dir := t.TempDir()
	fs := storage.NewFileStorage(dir, "/books/solisp")
	if err := os.WriteFile(fs.Path(), []byte("{garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fs.RemoveItem("progress"); err != nil {
		t.Fatalf("RemoveItem on a corrupt file: %v", err)
	}
	if _, ok, err := fs.GetItem("progress"); err != nil || ok {
		t.Errorf("GetItem = ok=%v err=%v", ok, err)
	}
}
