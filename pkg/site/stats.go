package site

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// wordsPerMinute matches the reading-time estimate shown per chapter.
const wordsPerMinute = 200

// ChapterLength is the size of one chapter page.
type ChapterLength struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Words   int    `json:"words"`
	Minutes int    `json:"minutes"`
}

// LengthStats summarises chapter lengths across a book.
type LengthStats struct {
	Chapters     []ChapterLength `json:"chapters"`
	TotalWords   int             `json:"total_words"`
	TotalMinutes int             `json:"total_minutes"`
	MeanWords    float64         `json:"mean_words"`
	StdDevWords  float64         `json:"stddev_words"`
	Longest      string          `json:"longest,omitempty"`
}

// LengthStats measures the chapters of the sidebar, or every page when the
// book has no sidebar. Chapters pointing outside the book are skipped.
func (b *Book) LengthStats() LengthStats {
	var paths []string
	seen := make(map[string]bool)
	landing := b.Landing()
	for _, c := range b.Chapters() {
		rel, ok := b.Resolve(landing, c.Href)
		if !ok || seen[rel] {
			continue
		}
		seen[rel] = true
		paths = append(paths, rel)
	}
	if len(paths) == 0 {
		paths = b.Paths
	}

	var s LengthStats
	words := make([]float64, 0, len(paths))
	longest := -1
	for _, rel := range paths {
		p := b.Pages[rel]
		n := p.Words()
		s.Chapters = append(s.Chapters, ChapterLength{
			Path:    rel,
			Title:   p.Title,
			Words:   n,
			Minutes: int(math.Ceil(float64(n) / wordsPerMinute)),
		})
		s.TotalWords += n
		words = append(words, float64(n))
		if n > longest {
			longest = n
			s.Longest = rel
		}
	}
	s.TotalMinutes = int(math.Ceil(float64(s.TotalWords) / wordsPerMinute))

	switch len(words) {
	case 0:
	case 1:
		s.MeanWords = words[0]
	default:
		s.MeanWords, s.StdDevWords = stat.MeanStdDev(words, nil)
	}
	return s
}
