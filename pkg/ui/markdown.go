package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Glamour style names accepted by NewMarkdownRenderer. StyleAuto picks dark
// or light from the terminal background; StylePlain emits no escape codes.
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StylePlain = "notty"
)

// MarkdownRenderer renders page Markdown for the terminal, word-wrapped to a
// width.
type MarkdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer wrapping at width.
func NewMarkdownRenderer(width int, style string) *MarkdownRenderer {
	m := &MarkdownRenderer{style: style}
	m.SetWidth(width)
	return m
}

func styleOption(style string) glamour.TermRendererOption {
	switch style {
	case "", StyleAuto:
		return glamour.WithAutoStyle()
	default:
		return glamour.WithStandardStyle(style)
	}
}

// SetWidth changes the wrap width. The glamour renderer is rebuilt only when
// the width changes.
func (m *MarkdownRenderer) SetWidth(width int) {
	if width < 10 {
		width = 10
	}
	if width == m.width && m.renderer != nil {
		return
	}
	m.width = width
	r, err := glamour.NewTermRenderer(
		styleOption(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = r
}

// Width returns the current wrap width.
func (m *MarkdownRenderer) Width() int { return m.width }

// Render renders md. Without a working glamour renderer the text is returned
// as is.
func (m *MarkdownRenderer) Render(md string) (string, error) {
	if m.renderer == nil {
		return md, nil
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md, err
	}
	return strings.Trim(out, "\n"), nil
}
