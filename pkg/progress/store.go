package progress

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dicklesworthstone/readmark/pkg/storage"
)

// Reloader is notified after Clear so the host can discard in-memory state.
type Reloader interface {
	Reload()
}

// Store reads and writes the progress record. Every failure is logged and
// swallowed: a broken backend degrades to "nothing remembered".
type Store struct {
	storage  storage.Storage
	key      string
	logger   *slog.Logger
	reloader Reloader
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithKey overrides DefaultStorageKey.
func WithKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger persistence warnings go to.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReloader sets what Clear reloads.
func WithReloader(r Reloader) StoreOption {
	return func(s *Store) { s.reloader = r }
}

// NewStore creates a Store over st.
func NewStore(st storage.Storage, opts ...StoreOption) *Store {
	s := &Store{
		storage: st,
		key:     DefaultStorageKey,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Key returns the storage key in use.
func (s *Store) Key() string { return s.key }

// loadRaw returns the persisted top-level object, empty on any failure.
func (s *Store) loadRaw() map[string]json.RawMessage {
	raw := make(map[string]json.RawMessage)
	if s.storage == nil {
		return raw
	}
	blob, ok, err := s.storage.GetItem(s.key)
	if err != nil {
		s.logger.Warn("could not load reading progress", "key", s.key, "error", err)
		return raw
	}
	if !ok || blob == "" {
		return raw
	}
	if err := json.Unmarshal([]byte(blob), &raw); err != nil || raw == nil {
		s.logger.Warn("could not load reading progress", "key", s.key, "error", fmt.Errorf("malformed record: %w", err))
		return make(map[string]json.RawMessage)
	}
	return raw
}

// Load returns the current record; an empty record when nothing usable is
// stored.
func (s *Store) Load() Record {
	rec, bad := decodeRecord(s.loadRaw())
	if len(bad) > 0 {
		s.logger.Warn("ignoring malformed progress fields", "key", s.key, "fields", bad)
	}
	return rec
}

// Raw returns the persisted object as generic JSON values, unknown keys
// included.
func (s *Store) Raw() map[string]interface{} {
	out := make(map[string]interface{})
	for k, v := range s.loadRaw() {
		var val interface{}
		if err := json.Unmarshal(v, &val); err == nil {
			out[k] = val
		}
	}
	return out
}

// Save shallow-merges partial over the stored object and writes it back.
// Only top-level keys are merged; nested maps in partial replace the stored
// ones wholesale.
func (s *Store) Save(partial map[string]interface{}) {
	if s.storage == nil || len(partial) == 0 {
		return
	}
	existing := s.loadRaw()
	for k, v := range partial {
		encoded, err := json.Marshal(v)
		if err != nil {
			s.logger.Warn("could not save reading progress", "key", s.key, "field", k, "error", err)
			return
		}
		existing[k] = encoded
	}
	blob, err := json.Marshal(existing)
	if err != nil {
		s.logger.Warn("could not save reading progress", "key", s.key, "error", err)
		return
	}
	if err := s.storage.SetItem(s.key, string(blob)); err != nil {
		s.logger.Warn("could not save reading progress", "key", s.key, "error", err)
	}
}

// Clear removes the record and reloads the host.
func (s *Store) Clear() {
	if s.storage != nil {
		if err := s.storage.RemoveItem(s.key); err != nil {
			s.logger.Warn("could not clear reading progress", "key", s.key, "error", err)
		}
	}
	if s.reloader != nil {
		s.reloader.Reload()
	}
}

// SaveScroll records the offset of page id, merged into the existing
// positions, and stamps lastPage/lastVisit.
func (s *Store) SaveScroll(id string, y int, now time.Time) {
	positions := make(map[string]int)
	for k, v := range s.Load().ScrollPositions {
		positions[k] = v
	}
	positions[id] = y
	s.Save(map[string]interface{}{
		KeyScrollPositions: positions,
		KeyLastPage:        id,
		KeyLastVisit:       now.UnixMilli(),
	})
}

// MarkRead adds id to readChapters. It reports whether the id was newly
// added; marking an already read page is a no-op.
func (s *Store) MarkRead(id string) bool {
	rec := s.Load()
	if rec.IsRead(id) {
		return false
	}
	chapters := append(append([]string{}, rec.ReadChapters...), id)
	s.Save(map[string]interface{}{KeyReadChapters: chapters})
	return true
}

// SaveBookmark replaces the stored bookmark.
func (s *Store) SaveBookmark(b Bookmark) {
	s.Save(map[string]interface{}{KeyBookmark: b})
}

// SetFontSize stores the chosen base font size, e.g. "18px".
func (s *Store) SetFontSize(size string) {
	s.Save(map[string]interface{}{KeyFontSize: size})
}
