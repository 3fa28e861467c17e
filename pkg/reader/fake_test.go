package reader

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Dicklesworthstone/readmark/pkg/progress"
	"github.com/Dicklesworthstone/readmark/pkg/schedule"
	"github.com/Dicklesworthstone/readmark/pkg/storage"
)

type fakeLocation struct {
	path      string
	navigated []string
	reloads   int
}

func (l *fakeLocation) Path() string         { return l.path }
func (l *fakeLocation) Navigate(href string) { l.navigated = append(l.navigated, href) }
func (l *fakeLocation) Reload()              { l.reloads++ }

type fakeDocument struct {
	title      string
	scrollTop  int
	height     int
	viewport   int
	chapters   []Chapter
	prev, next string
	headings   []Heading // Top is the document offset
	content    *string
	contentID  string
	fontSize   float64
}

func (d *fakeDocument) Title() string       { return d.title }
func (d *fakeDocument) ScrollTop() int      { return d.scrollTop }
func (d *fakeDocument) ScrollHeight() int   { return d.height }
func (d *fakeDocument) ViewportHeight() int { return d.viewport }

func (d *fakeDocument) ScrollTo(y int) {
	limit := d.height - d.viewport
	if y > limit {
		y = limit
	}
	if y < 0 {
		y = 0
	}
	d.scrollTop = y
}

func (d *fakeDocument) ScrollBy(dy int) { d.ScrollTo(d.scrollTop + dy) }

func (d *fakeDocument) Chapters() []Chapter { return d.chapters }

func (d *fakeDocument) NavLink(dir Direction) (string, bool) {
	href := d.next
	if dir == Previous {
		href = d.prev
	}
	return href, href != ""
}

func (d *fakeDocument) Headings() []Heading {
	out := make([]Heading, len(d.headings))
	for i, h := range d.headings {
		h.Top -= d.scrollTop
		out[i] = h
	}
	return out
}

func (d *fakeDocument) SetHeadingID(i int, id string) { d.headings[i].ID = id }

func (d *fakeDocument) ContentText() (string, bool) {
	if d.content == nil {
		return "", false
	}
	return *d.content, true
}

func (d *fakeDocument) SetContentID(id string) { d.contentID = id }
func (d *fakeDocument) FontSize() float64      { return d.fontSize }
func (d *fakeDocument) SetFontSize(px float64) { d.fontSize = px }

type fakeEnv struct {
	mem    *storage.Memory
	loc    *fakeLocation
	doc    *fakeDocument
	clock  *schedule.Virtual
	frames *schedule.FrameQueue
}

func (e *fakeEnv) Storage() storage.Storage { return e.mem }
func (e *fakeEnv) Location() Location       { return e.loc }
func (e *fakeEnv) Document() Document       { return e.doc }
func (e *fakeEnv) Clock() schedule.Clock    { return e.clock }
func (e *fakeEnv) Frames() schedule.Frames  { return e.frames }

var testEpoch = time.UnixMilli(1700000000000)

func newEnv(path string) *fakeEnv {
	return &fakeEnv{
		mem:    storage.NewMemory(),
		loc:    &fakeLocation{path: path},
		doc:    &fakeDocument{title: "Test Page", height: 2000, viewport: 1000, fontSize: DefaultFontSize},
		clock:  schedule.NewVirtual(testEpoch),
		frames: schedule.NewFrameQueue(nil),
	}
}

func testOptions() Options {
	return Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (e *fakeEnv) store() *progress.Store {
	return progress.NewStore(e.mem, progress.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// scrollTo simulates a user scroll followed by the next frame.
func scrollTo(t *testing.T, tr *Tracker, e *fakeEnv, y int) {
	t.Helper()
	e.doc.ScrollTo(y)
	tr.OnScroll()
	e.frames.Flush()
}

func strPtr(s string) *string { return &s }
