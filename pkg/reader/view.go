package reader

import (
	"math"
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/readmark/pkg/progress"
)

// View is the indicator state a host renders.
type View struct {
	PageID string

	// Fraction is the clamped scroll fraction; Progress the bar width in
	// percent.
	Fraction float64
	Progress float64

	Dots []Dot

	Toast        string
	ToastVisible bool

	HelpVisible bool
	BackToTop   bool
	SkipTarget  string

	Banner *Banner
	TOC    []TOCEntry
	Info   *ChapterInfo

	FontSize float64
}

// Dot is one chapter indicator.
type Dot struct {
	Href    string
	Title   string
	ID      string
	Read    bool
	Current bool
}

// Banner offers to continue from a bookmark on another page.
type Banner struct {
	Bookmark progress.Bookmark
}

// TOCEntry is one line of the mini table of contents.
type TOCEntry struct {
	ID     string
	Text   string
	Level  int
	Active bool
}

// ChapterInfo is the length summary of the page.
type ChapterInfo struct {
	Words   int
	Minutes int
}

func (v View) clone() View {
	out := v
	out.Dots = append([]Dot(nil), v.Dots...)
	out.TOC = append([]TOCEntry(nil), v.TOC...)
	if v.Banner != nil {
		b := *v.Banner
		out.Banner = &b
	}
	if v.Info != nil {
		i := *v.Info
		out.Info = &i
	}
	return out
}

func (t *Tracker) chapterID(href string) string {
	return progress.PageID(href, t.opts.IDMode)
}

func (t *Tracker) buildDots() {
	t.chapters = t.doc.Chapters()
	if len(t.chapters) == 0 {
		return
	}
	t.view.Dots = make([]Dot, len(t.chapters))
	for i, c := range t.chapters {
		t.view.Dots[i] = Dot{Href: c.Href, Title: strings.TrimSpace(c.Title), ID: t.chapterID(c.Href)}
	}
}

func (t *Tracker) annotateDots(rec progress.Record) {
	for i := range t.view.Dots {
		d := &t.view.Dots[i]
		d.Read = rec.IsRead(d.ID)
		d.Current = d.ID == t.pageID
	}
}

// ActivateDot navigates to the i-th chapter.
func (t *Tracker) ActivateDot(i int) bool {
	if i < 0 || i >= len(t.view.Dots) {
		return false
	}
	t.loc.Navigate(t.view.Dots[i].Href)
	return true
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// ReadingMinutes is the reading time of words at WordsPerMinute, rounded up.
func ReadingMinutes(words int) int {
	return int(math.Ceil(float64(words) / WordsPerMinute))
}

func (t *Tracker) buildChapterInfo() {
	text, ok := t.doc.ContentText()
	if !ok {
		return
	}
	words := CountWords(text)
	t.view.Info = &ChapterInfo{Words: words, Minutes: ReadingMinutes(words)}
}

func (t *Tracker) buildMiniTOC() {
	headings := t.doc.Headings()
	if len(headings) < TOCMinHeadings {
		return
	}
	t.view.TOC = make([]TOCEntry, len(headings))
	for i, h := range headings {
		if h.ID == "" {
			h.ID = "heading-" + strconv.Itoa(i)
			t.doc.SetHeadingID(i, h.ID)
		}
		t.view.TOC[i] = TOCEntry{ID: h.ID, Text: strings.TrimSpace(h.Text), Level: h.Level}
	}
}

// updateMiniTOC marks the last heading above the activation line.
func (t *Tracker) updateMiniTOC() {
	if len(t.view.TOC) == 0 {
		return
	}
	active := -1
	for i, h := range t.doc.Headings() {
		if h.Top < TOCActivationLine {
			active = i
		}
	}
	for i := range t.view.TOC {
		t.view.TOC[i].Active = i == active
	}
}

// JumpToHeading scrolls the i-th mini TOC heading to the top of the
// viewport.
func (t *Tracker) JumpToHeading(i int) bool {
	headings := t.doc.Headings()
	if len(t.view.TOC) == 0 || i < 0 || i >= len(headings) {
		return false
	}
	t.scrollTo(t.doc.ScrollTop() + headings[i].Top)
	return true
}

func (t *Tracker) checkContinueReading(rec progress.Record) {
	b := rec.Bookmark
	if b == nil || b.Path == t.pageID || !strings.Contains(t.pageID, t.opts.LandingMarker) {
		return
	}
	t.view.Banner = &Banner{Bookmark: *b}
}

// DismissBanner hides the continue banner.
func (t *Tracker) DismissBanner() {
	t.view.Banner = nil
}

// ContinueReading navigates to the bookmarked page offered by the banner.
func (t *Tracker) ContinueReading() bool {
	if t.view.Banner == nil {
		return false
	}
	path := t.view.Banner.Bookmark.Path
	t.view.Banner = nil
	t.loc.Navigate(path)
	return true
}
