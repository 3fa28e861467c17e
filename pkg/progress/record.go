// Package progress persists a book's reading progress as a single JSON
// object under one storage key, with shallow merge-on-save semantics.
package progress

import (
	"encoding/json"
	"math"
	"sort"
	"time"
)

// Top-level keys of the persisted object.
const (
	KeyReadChapters    = "readChapters"
	KeyScrollPositions = "scrollPositions"
	KeyBookmark        = "bookmark"
	KeyFontSize        = "fontSize"
	KeyLastPage        = "lastPage"
	KeyLastVisit       = "lastVisit"
)

// DefaultStorageKey is the key the record lives under.
const DefaultStorageKey = "solisp-book-progress"

// Bookmark is the single manually saved reading position.
type Bookmark struct {
	Path      string `json:"path"`
	Scroll    int    `json:"scroll"`
	Timestamp int64  `json:"timestamp"` // milliseconds since the Unix epoch
	Title     string `json:"title,omitempty"`
}

// UnmarshalJSON accepts the older "time" key as an alias of "timestamp" and
// fractional scroll offsets.
func (b *Bookmark) UnmarshalJSON(data []byte) error {
	var raw struct {
		Path      string   `json:"path"`
		Scroll    float64  `json:"scroll"`
		Timestamp *float64 `json:"timestamp"`
		Time      *float64 `json:"time"`
		Title     string   `json:"title"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Path = raw.Path
	b.Scroll = int(math.Round(raw.Scroll))
	b.Title = raw.Title
	switch {
	case raw.Timestamp != nil:
		b.Timestamp = int64(*raw.Timestamp)
	case raw.Time != nil:
		b.Timestamp = int64(*raw.Time)
	default:
		b.Timestamp = 0
	}
	return nil
}

// Time returns the bookmark timestamp as a time.Time.
func (b Bookmark) Time() time.Time {
	if b.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(b.Timestamp)
}

// Record is the decoded view of the persisted object. Keys the tracker does
// not know about are kept in Extra so that a full re-encode round-trips them.
type Record struct {
	ReadChapters    []string
	ScrollPositions map[string]int
	Bookmark        *Bookmark
	FontSize        string
	LastPage        string
	LastVisit       int64

	Extra map[string]json.RawMessage
}

// IsRead reports whether id is in ReadChapters.
func (r Record) IsRead(id string) bool {
	for _, c := range r.ReadChapters {
		if c == id {
			return true
		}
	}
	return false
}

// ScrollFor returns the saved offset for id, 0 when none.
func (r Record) ScrollFor(id string) int {
	return r.ScrollPositions[id]
}

// LastVisitTime returns LastVisit as a time.Time.
func (r Record) LastVisitTime() time.Time {
	if r.LastVisit == 0 {
		return time.Time{}
	}
	return time.UnixMilli(r.LastVisit)
}

// IsEmpty reports whether nothing at all is stored.
func (r Record) IsEmpty() bool {
	return len(r.ReadChapters) == 0 && len(r.ScrollPositions) == 0 && r.Bookmark == nil &&
		r.FontSize == "" && r.LastPage == "" && r.LastVisit == 0 && len(r.Extra) == 0
}

// MarshalJSON encodes the record as the persisted object, known keys and
// Extra together. Absent optional fields are omitted.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Extra)+6)
	for k, v := range r.Extra {
		out[k] = v
	}
	if r.ReadChapters != nil {
		out[KeyReadChapters] = r.ReadChapters
	}
	if r.ScrollPositions != nil {
		out[KeyScrollPositions] = r.ScrollPositions
	}
	if r.Bookmark != nil {
		out[KeyBookmark] = r.Bookmark
	}
	if r.FontSize != "" {
		out[KeyFontSize] = r.FontSize
	}
	if r.LastPage != "" {
		out[KeyLastPage] = r.LastPage
	}
	if r.LastVisit != 0 {
		out[KeyLastVisit] = r.LastVisit
	}
	return json.Marshal(out)
}

// decodeRecord builds a Record from the raw top-level object. A known key
// with an unexpected shape is treated as absent and reported in bad.
func decodeRecord(raw map[string]json.RawMessage) (rec Record, bad []string) {
	for k, v := range raw {
		switch k {
		case KeyReadChapters:
			var chapters []string
			if err := json.Unmarshal(v, &chapters); err != nil {
				bad = append(bad, k)
				continue
			}
			rec.ReadChapters = dedupe(chapters)
		case KeyScrollPositions:
			var positions map[string]float64
			if err := json.Unmarshal(v, &positions); err != nil {
				bad = append(bad, k)
				continue
			}
			rec.ScrollPositions = make(map[string]int, len(positions))
			for id, y := range positions {
				rec.ScrollPositions[id] = int(math.Round(y))
			}
		case KeyBookmark:
			if string(v) == "null" {
				continue
			}
			var b Bookmark
			if err := json.Unmarshal(v, &b); err != nil {
				bad = append(bad, k)
				continue
			}
			rec.Bookmark = &b
		case KeyFontSize:
			if err := json.Unmarshal(v, &rec.FontSize); err != nil {
				bad = append(bad, k)
			}
		case KeyLastPage:
			if err := json.Unmarshal(v, &rec.LastPage); err != nil {
				bad = append(bad, k)
			}
		case KeyLastVisit:
			var ms float64
			if err := json.Unmarshal(v, &ms); err != nil {
				bad = append(bad, k)
				continue
			}
			rec.LastVisit = int64(ms)
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]json.RawMessage)
			}
			rec.Extra[k] = v
		}
	}
	sort.Strings(bad)
	return rec, bad
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
