package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/readmark/pkg/reader"
)

// OutlineWidth is the width of the contents sidebar, borders included.
const OutlineWidth = 30

type outlineKind int

const (
	outlineChapter outlineKind = iota
	outlineHeading
)

// outlineItem is one selectable line of the sidebar: a book chapter or a
// heading of the current page.
type outlineItem struct {
	kind   outlineKind
	index  int // into View.Dots or View.TOC
	title  string
	level  int
	dot    reader.Dot
	active bool
}

// OutlineModel is the contents sidebar: the book's chapters with their
// read state, then the current page's sections.
type OutlineModel struct {
	items   []outlineItem
	visible bool
	focused bool
	cursor  int
	height  int
	theme   Theme
}

// NewOutlineModel creates a hidden sidebar.
func NewOutlineModel(theme Theme) OutlineModel {
	return OutlineModel{theme: theme, height: 20}
}

// SetView rebuilds the items from the tracker state.
func (m *OutlineModel) SetView(v reader.View) {
	m.items = m.items[:0]
	for i, d := range v.Dots {
		m.items = append(m.items, outlineItem{kind: outlineChapter, index: i, title: d.Title, dot: d})
	}
	for i, e := range v.TOC {
		m.items = append(m.items, outlineItem{kind: outlineHeading, index: i, title: e.Text, level: e.Level, active: e.Active})
	}
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Toggle shows or hides the sidebar; showing it moves focus to it.
func (m *OutlineModel) Toggle() {
	m.visible = !m.visible
	m.focused = m.visible
	if m.visible {
		m.syncCursor()
	}
}

// syncCursor puts the cursor on the current chapter.
func (m *OutlineModel) syncCursor() {
	for i, it := range m.items {
		if it.kind == outlineChapter && it.dot.Current {
			m.cursor = i
			return
		}
	}
}

// SwitchFocus moves focus between the sidebar and the page.
func (m *OutlineModel) SwitchFocus() {
	if !m.visible {
		return
	}
	m.focused = !m.focused
	if m.focused {
		m.syncCursor()
	}
}

func (m OutlineModel) Visible() bool { return m.visible }
func (m OutlineModel) Focused() bool { return m.visible && m.focused }

// SetHeight sets the number of rows available, borders included.
func (m *OutlineModel) SetHeight(h int) {
	m.height = h
}

// Update moves the cursor. On enter it returns the selected item.
func (m OutlineModel) Update(msg tea.KeyMsg) (OutlineModel, *outlineItem) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = len(m.items) - 1
	case "enter", " ":
		if m.cursor >= 0 && m.cursor < len(m.items) {
			it := m.items[m.cursor]
			m.focused = false
			return m, &it
		}
	case "h", "left", "esc":
		m.focused = false
	}
	return m, nil
}

// View renders the sidebar with focus indication.
func (m OutlineModel) View() string {
	r := m.theme.Renderer

	// Use different border style when the sidebar has focus
	borderColor := m.theme.Border
	if m.Focused() {
		borderColor = m.theme.Primary
	}

	inner := OutlineWidth - 4
	rows := m.height - 2
	if rows < 3 {
		rows = 3
	}

	style := r.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(OutlineWidth - 2).
		Height(rows)

	headerStyle := r.NewStyle().Bold(true).Foreground(m.theme.Primary)
	sectionStyle := r.NewStyle().Foreground(m.theme.Secondary).Bold(true)
	itemStyle := r.NewStyle().Foreground(m.theme.Subtext)
	activeStyle := r.NewStyle().Bold(true).Foreground(m.theme.Primary)
	cursorStyle := r.NewStyle().
		Bold(true).
		Foreground(m.theme.Accent).
		Background(m.theme.Highlight)

	var lines []string
	cursorLine := 0
	lines = append(lines, headerStyle.Render("Contents"))
	if len(m.items) == 0 {
		lines = append(lines, itemStyle.Render("No chapters"))
	}
	inHeadings := false
	for i, it := range m.items {
		if it.kind == outlineHeading && !inHeadings {
			inHeadings = true
			lines = append(lines, "", sectionStyle.Render("▸ On this page"))
		}

		prefix := "  "
		lineStyle := itemStyle
		var title string
		switch it.kind {
		case outlineChapter:
			icon, color := m.theme.GetDotIcon(it.dot)
			prefix = r.NewStyle().Foreground(color).Render(icon) + " "
			if it.dot.Current {
				lineStyle = activeStyle
			}
			title = TruncateTitle(it.title, inner-2)
		case outlineHeading:
			indent := ""
			if it.level > 2 {
				indent = "  "
			}
			if it.active {
				lineStyle = activeStyle
			}
			title = TruncateTitle(indent+it.title, inner-2)
		}

		if m.Focused() && i == m.cursor {
			lineStyle = cursorStyle
			cursorLine = len(lines)
		}
		lines = append(lines, prefix+lineStyle.Render(title))
	}

	// Keep the cursor in the visible window.
	start := 0
	if len(lines) > rows && cursorLine >= rows {
		start = cursorLine - rows + 1
	}
	end := start + rows
	if end > len(lines) {
		end = len(lines)
	}
	return style.Render(strings.Join(lines[start:end], "\n"))
}
