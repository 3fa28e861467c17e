// Package site reads a statically generated book (mdBook-style HTML output)
// into pages: title, sidebar chapters, previous/next controls, content
// headings and the content itself as sanitized Markdown.
package site

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Chapter is a sidebar link.
type Chapter struct {
	Href  string `json:"href"`
	Title string `json:"title"`
}

// Heading is an h2 or h3 of the content container.
type Heading struct {
	ID    string `json:"id,omitempty"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// Page is one parsed HTML page.
type Page struct {
	// Path is slash-separated and relative to the book root.
	Path  string
	Title string

	// Chapters are the sidebar links outside part titles, nil without a
	// sidebar.
	Chapters []Chapter
	// Prev and Next are the hrefs of the chapter navigation controls.
	Prev, Next string

	Headings []Heading

	// HasContent reports whether the page has a ".content main" container.
	// Text and Markdown fall back to the body when it does not.
	HasContent bool
	Text       string
	Markdown   string
}

// Words is the word count of the page text.
func (p *Page) Words() int {
	return len(strings.Fields(p.Text))
}

// Parser turns HTML into Pages. It is safe for concurrent use.
type Parser struct {
	policy *bluemonday.Policy
	md     *converter.Converter
}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{
		policy: bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Parse reads one page. path is recorded as the page's Path.
func (p *Parser) Parse(path string, r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	page := &Page{Path: path, Title: findTitle(doc)}

	if sidebar := findFirst(doc, func(n *html.Node) bool { return hasClass(n, "sidebar") }); sidebar != nil {
		page.Chapters = sidebarChapters(sidebar)
	}
	page.Prev = navHref(doc, "previous")
	page.Next = navHref(doc, "next")

	content := findContentMain(doc)
	if content != nil {
		page.HasContent = true
		page.Headings = contentHeadings(content)
	} else {
		content = findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	}
	if content == nil {
		return page, nil
	}

	page.Text = collectText(content)
	page.Markdown = p.toMarkdown(content, page.Text)
	return page, nil
}

// toMarkdown sanitizes the subtree and converts it to Markdown, falling back
// to the plain text.
func (p *Parser) toMarkdown(n *html.Node, fallback string) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return fallback
	}
	clean := p.policy.SanitizeBytes(buf.Bytes())
	result, err := p.md.ConvertString(string(clean))
	if err != nil || strings.TrimSpace(result) == "" {
		return fallback
	}
	return strings.TrimSpace(result)
}

func findTitle(n *html.Node) string {
	t := findFirst(n, func(n *html.Node) bool { return n.DataAtom == atom.Title })
	if t == nil {
		return ""
	}
	return collectText(t)
}

// findFirst returns the first node, in document order, matching match.
func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool, out *[]*html.Node) {
	if n.Type == html.ElementNode && match(n) {
		*out = append(*out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		findAll(c, match, out)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// closest reports whether n or one of its ancestors carries class.
func closest(n *html.Node, class string) bool {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && hasClass(n, class) {
			return true
		}
	}
	return false
}

func sidebarChapters(sidebar *html.Node) []Chapter {
	var links []*html.Node
	findAll(sidebar, func(n *html.Node) bool {
		href, ok := attr(n, "href")
		return n.DataAtom == atom.A && ok && href != ""
	}, &links)

	chapters := make([]Chapter, 0, len(links))
	for _, a := range links {
		if closest(a, "part-title") {
			continue
		}
		href, _ := attr(a, "href")
		chapters = append(chapters, Chapter{Href: href, Title: collectText(a)})
	}
	return chapters
}

// navHref returns the href of the first ".nav-chapters.<dir>" element.
func navHref(doc *html.Node, dir string) string {
	n := findFirst(doc, func(n *html.Node) bool {
		return hasClass(n, "nav-chapters") && hasClass(n, dir)
	})
	if n == nil {
		return ""
	}
	href, _ := attr(n, "href")
	return href
}

// findContentMain returns the first <main> inside a ".content" element.
func findContentMain(doc *html.Node) *html.Node {
	var containers []*html.Node
	findAll(doc, func(n *html.Node) bool { return hasClass(n, "content") }, &containers)
	for _, c := range containers {
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			if m := findFirst(child, func(n *html.Node) bool { return n.DataAtom == atom.Main }); m != nil {
				return m
			}
		}
	}
	return nil
}

func contentHeadings(content *html.Node) []Heading {
	var nodes []*html.Node
	findAll(content, func(n *html.Node) bool {
		return n.DataAtom == atom.H2 || n.DataAtom == atom.H3
	}, &nodes)

	headings := make([]Heading, 0, len(nodes))
	for _, n := range nodes {
		id, _ := attr(n, "id")
		level := 2
		if n.DataAtom == atom.H3 {
			level = 3
		}
		headings = append(headings, Heading{ID: id, Text: collectText(n), Level: level})
	}
	return headings
}

// collectText extracts the visible text of a subtree, whitespace collapsed.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			for _, w := range strings.Fields(n.Data) {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(w)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
