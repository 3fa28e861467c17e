// Package storage provides origin-scoped key/value backends with the
// semantics of browser local storage: string keys, string values, and
// synchronous reads and writes.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrQuotaExceeded is returned when a write would exceed the backend quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrDisabled is returned by every operation of a disabled backend.
	ErrDisabled = errors.New("storage disabled")
	// ErrCorrupt is returned once when a backing file could not be parsed.
	// The backend continues empty; writes after it are not affected.
	ErrCorrupt = errors.New("storage file corrupt")
)

// Storage is the capability the progress store persists through.
type Storage interface {
	// GetItem returns the value stored under key. The boolean is false when
	// the key is absent.
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Backing is a Storage that owns resources.
type Backing interface {
	Storage
	io.Closer
}

// Backend names a persistent storage implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// ParseBackend validates a backend name from config or flags.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendFile, BackendSQLite, BackendMemory:
		return b, nil
	case "":
		return BackendFile, nil
	default:
		return "", fmt.Errorf("unknown storage backend %q (want file, sqlite or memory)", s)
	}
}

// Open returns the backend's storage scoped to origin. Every book gets its
// own origin so that two books never share a progress record.
func Open(backend Backend, dataDir, origin string) (Backing, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStorage(dataDir, origin), nil
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dataDir, "readmark.sqlite3"), origin)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// OriginID returns a stable, filesystem-safe identifier for an origin
// (a book root path or URL).
func OriginID(origin string) string {
	if abs, err := filepath.Abs(origin); err == nil && !strings.Contains(origin, "://") {
		origin = abs
	}
	h := sha256.Sum256([]byte(origin))
	return hex.EncodeToString(h[:8])
}
