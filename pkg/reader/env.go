// Package reader is the reading-progress tracker. It observes scrolling and
// key presses on a document, persists progress through a progress.Store and
// maintains the state of the indicators a host renders (progress bar,
// chapter dots, toast, help overlay, continue banner, mini TOC).
//
// A Tracker is not safe for concurrent use; hosts deliver events and run
// timer callbacks from a single goroutine.
package reader

import (
	"github.com/Dicklesworthstone/readmark/pkg/schedule"
	"github.com/Dicklesworthstone/readmark/pkg/storage"
)

// Env is everything the tracker needs from its host.
type Env interface {
	Storage() storage.Storage
	Location() Location
	Document() Document
	Clock() schedule.Clock
	Frames() schedule.Frames
}

// Location is the address of the page being read.
type Location interface {
	// Path is the URL path of the current page, e.g. "/book/ch1.html".
	Path() string
	// Navigate leaves the page for href, resolved against Path.
	Navigate(href string)
	// Reload discards in-memory state and reopens the current page.
	Reload()
}

// Chapter is one sidebar entry.
type Chapter struct {
	Href  string
	Title string
}

// Heading is an h2/h3 of the content container. Top is the heading's
// offset from the top of the viewport; negative once scrolled past.
type Heading struct {
	ID    string
	Text  string
	Level int
	Top   int
}

// Direction selects a chapter navigation control.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

// Document is the rendered page. Lookups of optional pieces report absence
// rather than failing; the dependent feature is then skipped.
type Document interface {
	Title() string

	ScrollTop() int
	ScrollHeight() int
	ViewportHeight() int
	// ScrollTo and ScrollBy move the viewport; implementations clamp.
	ScrollTo(y int)
	ScrollBy(dy int)

	// Chapters lists sidebar links outside part titles, in document order.
	// Nil when the page has no sidebar.
	Chapters() []Chapter
	// NavLink returns the href of the previous/next chapter control.
	NavLink(dir Direction) (string, bool)
	// Headings lists the h2/h3 headings of the content container.
	Headings() []Heading
	// SetHeadingID assigns an id to the i-th heading of Headings.
	SetHeadingID(i int, id string)
	// ContentText is the text of the content container.
	ContentText() (string, bool)
	// SetContentID assigns the content container's id.
	SetContentID(id string)

	// FontSize is the current base font size in px.
	FontSize() float64
	SetFontSize(px float64)
}
