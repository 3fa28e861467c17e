package reader

import (
	"math"

	"github.com/Dicklesworthstone/readmark/pkg/progress"
)

// Stats summarises reading progress over a book.
type Stats struct {
	// Read counts every page ever marked read, including pages no longer in
	// the sidebar.
	Read int `json:"read"`
	// ReadInBook counts read pages that are current chapters.
	ReadInBook int `json:"read_in_book"`
	Total      int `json:"total"`
	// Percentage is ReadInBook over Total, rounded; 0 for an empty book.
	Percentage int             `json:"percentage"`
	Record     progress.Record `json:"record"`
}

// ComputeStats derives Stats from a record and a chapter list.
func ComputeStats(rec progress.Record, chapters []Chapter, mode progress.IDMode) Stats {
	s := Stats{Read: len(rec.ReadChapters), Total: len(chapters), Record: rec}
	seen := make(map[string]bool, len(chapters))
	for _, c := range chapters {
		id := progress.PageID(c.Href, mode)
		if seen[id] {
			continue
		}
		seen[id] = true
		if rec.IsRead(id) {
			s.ReadInBook++
		}
	}
	if s.Total > 0 {
		s.Percentage = int(math.Round(float64(s.ReadInBook) / float64(s.Total) * 100))
	}
	return s
}

// Stats returns the reading statistics of the book the page belongs to.
func (t *Tracker) Stats() Stats {
	return ComputeStats(t.store.Load(), t.chapters, t.opts.IDMode)
}
