// Package export renders a book's reading progress as Markdown, SQLite,
// SVG or PNG.
package export

import (
	"time"

	"github.com/Dicklesworthstone/readmark/pkg/library"
	"github.com/Dicklesworthstone/readmark/pkg/progress"
	"github.com/Dicklesworthstone/readmark/pkg/reader"
	"github.com/Dicklesworthstone/readmark/pkg/site"
)

// ChapterRow is one sidebar chapter with its progress.
type ChapterRow struct {
	Index   int    `json:"index"`
	ID      string `json:"id"`
	Path    string `json:"path,omitempty"`
	Title   string `json:"title"`
	Words   int    `json:"words"`
	Minutes int    `json:"minutes"`
	Read    bool   `json:"read"`
	Scroll  int    `json:"scroll"`
	// Last marks the page read most recently visited.
	Last bool `json:"last,omitempty"`
}

// Report is everything the exporters render.
type Report struct {
	Title     string             `json:"title"`
	Generated time.Time          `json:"generated"`
	Chapters  []ChapterRow       `json:"chapters"`
	Stats     reader.Stats       `json:"stats"`
	Bookmark  *progress.Bookmark `json:"bookmark,omitempty"`
	LastPage  string             `json:"last_page,omitempty"`
	LastVisit time.Time          `json:"last_visit,omitempty"`
	FontSize  string             `json:"font_size,omitempty"`
	// Lengths summarises chapter sizes.
	Lengths site.LengthStats `json:"lengths"`
}

// BuildReport joins a book's chapters with a progress record.
func BuildReport(book *site.Book, rec progress.Record, mode progress.IDMode, now time.Time) Report {
	chapters := library.Chapters(book)
	r := Report{
		Title:     book.Title(),
		Generated: now,
		Stats:     reader.ComputeStats(rec, chapters, mode),
		Bookmark:  rec.Bookmark,
		LastPage:  rec.LastPage,
		LastVisit: rec.LastVisitTime(),
		FontSize:  rec.FontSize,
		Lengths:   book.LengthStats(),
	}

	for i, c := range chapters {
		id := progress.PageID(c.Href, mode)
		row := ChapterRow{
			Index:  i + 1,
			ID:     id,
			Title:  c.Title,
			Read:   rec.IsRead(id),
			Scroll: rec.ScrollFor(id),
			Last:   id == rec.LastPage,
		}
		if rel, ok := book.Resolve(book.Landing(), c.Href); ok {
			row.Path = rel
			if p, ok := book.Page(rel); ok {
				row.Words = p.Words()
				row.Minutes = reader.ReadingMinutes(row.Words)
			}
		}
		r.Chapters = append(r.Chapters, row)
	}
	return r
}

// ReadCount returns how many rows are read.
func (r Report) ReadCount() int {
	n := 0
	for _, c := range r.Chapters {
		if c.Read {
			n++
		}
	}
	return n
}
