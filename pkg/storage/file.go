package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage keeps one origin's items in a JSON object on disk,
// <dataDir>/<origin id>.json. The file is read once and rewritten on every
// mutation, like the browser flushing local storage.
type FileStorage struct {
	dataDir string
	origin  string

	mu     sync.RWMutex
	loaded bool
	cache  map[string]string
}

// NewFileStorage creates a file-backed store for origin under dataDir.
func NewFileStorage(dataDir, origin string) *FileStorage {
	return &FileStorage{
		dataDir: dataDir,
		origin:  origin,
		cache:   make(map[string]string),
	}
}

// Path returns the backing file path.
func (fs *FileStorage) Path() string {
	return filepath.Join(fs.dataDir, OriginID(fs.origin)+".json")
}

// load reads the backing file into the cache. Caller holds mu.
func (fs *FileStorage) load() error {
	if fs.loaded {
		return nil
	}
	data, err := os.ReadFile(fs.Path())
	if os.IsNotExist(err) {
		// Nothing persisted for this origin yet
		fs.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading storage file: %w", err)
	}
	items := make(map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			// Start over with an empty store. The unreadable file is kept
			// next to it so the next write does not destroy it.
			fs.cache = make(map[string]string)
			fs.loaded = true
			perr := fmt.Errorf("parsing storage file %s: %w: %v", fs.Path(), ErrCorrupt, err)
			if rerr := os.Rename(fs.Path(), fs.CorruptPath()); rerr != nil {
				return fmt.Errorf("%w (moving it aside: %v)", perr, rerr)
			}
			return perr
		}
	}
	fs.cache = items
	fs.loaded = true
	return nil
}

// CorruptPath is where an unreadable backing file is moved.
func (fs *FileStorage) CorruptPath() string {
	return fs.Path() + ".corrupt"
}

// flush writes the cache back to disk through a temp file + rename.
func (fs *FileStorage) flush() error {
	if err := os.MkdirAll(fs.dataDir, 0755); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}
	data, err := json.MarshalIndent(fs.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling storage: %w", err)
	}
	tmp, err := os.CreateTemp(fs.dataDir, ".readmark-*.json")
	if err != nil {
		return fmt.Errorf("creating temp storage file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing storage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing storage file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.Path()); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing storage file: %w", err)
	}
	return nil
}

func (fs *FileStorage) GetItem(key string) (string, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.load(); err != nil {
		return "", false, err
	}
	v, ok := fs.cache[key]
	return v, ok, nil
}

func (fs *FileStorage) SetItem(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.load(); err != nil && !errors.Is(err, ErrCorrupt) {
		return err
	}
	prev, had := fs.cache[key]
	fs.cache[key] = value
	if err := fs.flush(); err != nil {
		if had {
			fs.cache[key] = prev
		} else {
			delete(fs.cache, key)
		}
		return err
	}
	return nil
}

func (fs *FileStorage) RemoveItem(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.load(); err != nil && !errors.Is(err, ErrCorrupt) {
		return err
	}
	if _, ok := fs.cache[key]; !ok {
		return nil
	}
	delete(fs.cache, key)
	return fs.flush()
}

// Close is a no-op; every mutation is already on disk.
func (fs *FileStorage) Close() error { return nil }
