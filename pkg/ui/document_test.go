package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/readmark/pkg/reader"
	"github.com/Dicklesworthstone/readmark/pkg/site"
)

func longPage(n int) *site.Page {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Line %d.\n\n", i)
	}
	return &site.Page{
		Title:      "Long",
		Markdown:   b.String(),
		Text:       b.String(),
		HasContent: true,
	}
}

func TestFindLine(t *testing.T) {
	lines := []string{"# Title", "", "## Install now", "text", "Install the tool on", "your machine"}

	tests := []struct {
		text string
		from int
		want int
	}{
		{"Install now", 0, 2},
		{"Install now", 3, -1},
		{"Install the tool on your machine", 0, 4},
		{"Missing", 0, -1},
		{"", 0, -1},
	}
	for _, tt := range tests {
		if got := findLine(lines, tt.from, tt.text); got != tt.want {
			t.Errorf("findLine(%q, %d) = %d, want %d", tt.text, tt.from, got, tt.want)
		}
	}
}

func TestPageDocument_WrapWidth(t *testing.T) {
	md := NewMarkdownRenderer(40, StylePlain)
	d := newPageDocument(longPage(5), md, 40, 10)

	if got := d.wrapWidth(); got != 40 {
		t.Errorf("wrapWidth at default size = %d", got)
	}
	d.SetFontSize(24)
	if got := d.wrapWidth(); got != 40*16/24 {
		t.Errorf("wrapWidth at 24px = %d", got)
	}
	d.SetFontSize(14)
	if got := d.wrapWidth(); got != 40 {
		t.Errorf("wrapWidth should not exceed the viewport, got %d", got)
	}

	narrow := newPageDocument(longPage(5), md, 20, 10)
	narrow.SetFontSize(24)
	if got := narrow.wrapWidth(); got != minWrap {
		t.Errorf("narrow wrapWidth = %d, want %d", got, minWrap)
	}
}

func TestPageDocument_Scrolling(t *testing.T) {
	d := newPageDocument(longPage(50), NewMarkdownRenderer(40, StylePlain), 40, 10)
	n := len(d.lines)
	if n <= 10 {
		t.Fatalf("page renders to %d lines", n)
	}

	if d.ScrollHeight() != n*LinePx {
		t.Errorf("ScrollHeight = %d", d.ScrollHeight())
	}
	if d.ViewportHeight() != 10*LinePx {
		t.Errorf("ViewportHeight = %d", d.ViewportHeight())
	}

	d.ScrollTo(-50)
	if d.ScrollTop() != 0 {
		t.Errorf("ScrollTop after negative scroll = %d", d.ScrollTop())
	}
	d.ScrollTo(65)
	if d.ScrollTop() != 60 {
		t.Errorf("ScrollTop = %d, want line-aligned 60", d.ScrollTop())
	}
	d.ScrollBy(LinePx)
	if d.ScrollTop() != 80 {
		t.Errorf("ScrollTop after ScrollBy = %d", d.ScrollTop())
	}
	d.ScrollTo(1 << 20)
	if want := (n - 10) * LinePx; d.ScrollTop() != want {
		t.Errorf("ScrollTop past the end = %d, want %d", d.ScrollTop(), want)
	}
	if f := reader.Fraction(d.ScrollTop(), d.ScrollHeight(), d.ViewportHeight()); f != 1 {
		t.Errorf("Fraction at end = %v", f)
	}
}

func TestPageDocument_Headings(t *testing.T) {
	page := longPage(30)
	page.Markdown = "## Alpha\n\n" + page.Markdown + "## Beta\n\ntail\n"
	page.Headings = []site.Heading{
		{ID: "alpha", Text: "Alpha", Level: 2},
		{Text: "Beta", Level: 2},
	}
	d := newPageDocument(page, NewMarkdownRenderer(40, StylePlain), 40, 10)

	hs := d.Headings()
	if len(hs) != 2 {
		t.Fatalf("Headings = %+v", hs)
	}
	if hs[0].ID != "alpha" || hs[0].Top != d.headingLine[0]*LinePx {
		t.Errorf("heading 0 = %+v", hs[0])
	}
	if d.headingLine[1] <= d.headingLine[0] {
		t.Errorf("heading lines = %v", d.headingLine)
	}

	d.ScrollTo(5 * LinePx)
	if got := d.Headings()[1].Top; got != (d.headingLine[1]-5)*LinePx {
		t.Errorf("Top after scroll = %d", got)
	}

	d.SetHeadingID(1, "beta")
	d.SetHeadingID(7, "ignored")
	if d.Headings()[1].ID != "beta" {
		t.Errorf("SetHeadingID not applied: %+v", d.Headings()[1])
	}
}

func TestPageDocument_Navigation(t *testing.T) {
	page := longPage(2)
	d := newPageDocument(page, NewMarkdownRenderer(40, StylePlain), 40, 10)
	if d.Chapters() != nil {
		t.Error("Expected nil chapters without a sidebar")
	}
	if _, ok := d.NavLink(reader.Next); ok {
		t.Error("Expected no next link")
	}

	page.Chapters = []site.Chapter{{Href: "a.html", Title: "A"}}
	page.Next = "b.html"
	if ch := d.Chapters(); len(ch) != 1 || ch[0].Href != "a.html" || ch[0].Title != "A" {
		t.Errorf("Chapters = %+v", ch)
	}
	if href, ok := d.NavLink(reader.Next); !ok || href != "b.html" {
		t.Errorf("NavLink(Next) = %q, %v", href, ok)
	}
	if _, ok := d.NavLink(reader.Previous); ok {
		t.Error("Expected no previous link")
	}
}

func TestPageDocument_FallsBackToText(t *testing.T) {
	page := &site.Page{Title: "Plain", Text: "only text here"}
	d := newPageDocument(page, NewMarkdownRenderer(40, StylePlain), 40, 5)
	if !strings.Contains(d.View(), "only text here") {
		t.Errorf("View = %q", d.View())
	}
	if _, ok := d.ContentText(); ok {
		t.Error("Expected no content container")
	}
}

func TestPageDocument_ResizeKeepsPosition(t *testing.T) {
	d := newPageDocument(longPage(50), NewMarkdownRenderer(60, StylePlain), 60, 10)
	d.ScrollTo(d.ScrollHeight() / 2)
	before := float64(d.vp.YOffset) / float64(len(d.lines))

	d.SetSize(30, 10)
	if d.width != 30 || d.vp.Width != 30 {
		t.Fatalf("width = %d, viewport %d", d.width, d.vp.Width)
	}
	after := float64(d.vp.YOffset) / float64(len(d.lines))
	if diff := before - after; diff > 0.1 || diff < -0.1 {
		t.Errorf("position moved from %.2f to %.2f", before, after)
	}
}
