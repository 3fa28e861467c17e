package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/x/ansi"

	"github.com/Dicklesworthstone/readmark/pkg/reader"
	"github.com/Dicklesworthstone/readmark/pkg/site"
)

// LinePx is the height of one terminal line in the tracker's pixel units.
// Offsets and thresholds keep their browser meaning: 300px is 15 lines.
const LinePx = 20

// minWrap keeps large font sizes readable on narrow terminals.
const minWrap = 20

// pageDocument is a rendered page in a scrollable viewport. Font size is
// emulated through the wrap width: a larger font wraps narrower.
type pageDocument struct {
	page *site.Page
	md   *MarkdownRenderer
	vp   viewport.Model

	width    int
	fontSize float64

	lines       []string
	headingLine []int
	headingIDs  []string
	contentID   string
}

func newPageDocument(page *site.Page, md *MarkdownRenderer, width, height int) *pageDocument {
	d := &pageDocument{
		page:     page,
		md:       md,
		vp:       viewport.New(width, height),
		width:    width,
		fontSize: reader.DefaultFontSize,
	}
	d.headingIDs = make([]string, len(page.Headings))
	for i, h := range page.Headings {
		d.headingIDs[i] = h.ID
	}
	d.render()
	return d
}

// wrapWidth is the text width for the current font size.
func (d *pageDocument) wrapWidth() int {
	w := int(float64(d.width) * reader.DefaultFontSize / d.fontSize)
	if w > d.width {
		w = d.width
	}
	if w < minWrap {
		w = minWrap
	}
	return w
}

func (d *pageDocument) render() {
	d.md.SetWidth(d.wrapWidth())
	source := d.page.Markdown
	if strings.TrimSpace(source) == "" {
		source = d.page.Text
	}
	out, err := d.md.Render(source)
	if err != nil || strings.TrimSpace(out) == "" {
		out = d.page.Text
	}
	d.lines = strings.Split(out, "\n")
	d.vp.SetContent(out)
	d.locateHeadings()
}

// locateHeadings finds the rendered line of each heading, in order.
func (d *pageDocument) locateHeadings() {
	d.headingLine = make([]int, len(d.page.Headings))
	from := 0
	for i, h := range d.page.Headings {
		line := findLine(d.lines, from, h.Text)
		if line < 0 {
			line = from
		}
		d.headingLine[i] = line
		from = line
	}
}

func findLine(lines []string, from int, text string) int {
	needles := []string{strings.TrimSpace(text)}
	if words := strings.Fields(text); len(words) > 3 {
		needles = append(needles, strings.Join(words[:3], " "))
	}
	for _, needle := range needles {
		if needle == "" {
			continue
		}
		for i := from; i < len(lines); i++ {
			if strings.Contains(ansi.Strip(lines[i]), needle) {
				return i
			}
		}
	}
	return -1
}

// SetSize resizes the viewport and rewraps the text, keeping the reading
// position proportionally.
func (d *pageDocument) SetSize(width, height int) {
	if width == d.width && height == d.vp.Height {
		return
	}
	d.vp.Height = height
	d.vp.Width = width
	if width != d.width {
		d.width = width
		d.rewrap()
		return
	}
	d.vp.SetYOffset(d.vp.YOffset)
}

func (d *pageDocument) rewrap() {
	before := len(d.lines)
	offset := d.vp.YOffset
	d.render()
	if before > 0 {
		d.vp.SetYOffset(offset * len(d.lines) / before)
	}
}

// View renders the visible lines.
func (d *pageDocument) View() string { return d.vp.View() }

func (d *pageDocument) Title() string { return d.page.Title }

func (d *pageDocument) ScrollTop() int      { return d.vp.YOffset * LinePx }
func (d *pageDocument) ScrollHeight() int   { return len(d.lines) * LinePx }
func (d *pageDocument) ViewportHeight() int { return d.vp.Height * LinePx }

func (d *pageDocument) ScrollTo(y int) {
	if y < 0 {
		y = 0
	}
	d.vp.SetYOffset(y / LinePx)
}

func (d *pageDocument) ScrollBy(dy int) { d.ScrollTo(d.ScrollTop() + dy) }

func (d *pageDocument) Chapters() []reader.Chapter {
	if d.page.Chapters == nil {
		return nil
	}
	out := make([]reader.Chapter, len(d.page.Chapters))
	for i, c := range d.page.Chapters {
		out[i] = reader.Chapter{Href: c.Href, Title: c.Title}
	}
	return out
}

func (d *pageDocument) NavLink(dir reader.Direction) (string, bool) {
	href := d.page.Next
	if dir == reader.Previous {
		href = d.page.Prev
	}
	return href, href != ""
}

func (d *pageDocument) Headings() []reader.Heading {
	out := make([]reader.Heading, len(d.page.Headings))
	for i, h := range d.page.Headings {
		out[i] = reader.Heading{
			ID:    d.headingIDs[i],
			Text:  h.Text,
			Level: h.Level,
			Top:   (d.headingLine[i] - d.vp.YOffset) * LinePx,
		}
	}
	return out
}

func (d *pageDocument) SetHeadingID(i int, id string) {
	if i >= 0 && i < len(d.headingIDs) {
		d.headingIDs[i] = id
	}
}

func (d *pageDocument) ContentText() (string, bool) {
	return d.page.Text, d.page.HasContent
}

func (d *pageDocument) SetContentID(id string) { d.contentID = id }

func (d *pageDocument) FontSize() float64 { return d.fontSize }

func (d *pageDocument) SetFontSize(px float64) {
	if px <= 0 || px == d.fontSize {
		return
	}
	d.fontSize = px
	d.rewrap()
}
