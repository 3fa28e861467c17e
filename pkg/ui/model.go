// Package ui is the terminal reader: it renders a book page in a scrollable
// viewport and drives a reader.Tracker with the terminal's key, mouse and
// resize events.
package ui

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/readmark/pkg/progress"
	"github.com/Dicklesworthstone/readmark/pkg/reader"
	"github.com/Dicklesworthstone/readmark/pkg/schedule"
	"github.com/Dicklesworthstone/readmark/pkg/site"
	"github.com/Dicklesworthstone/readmark/pkg/storage"
)

// DefaultScrollLines is the j/k step when Options.ScrollStep is unset.
const DefaultScrollLines = 3

// chromeLines are the rows outside the page: header, progress bar, banner
// and footer.
const chromeLines = 4

const frameInterval = time.Second / 60

// Config configures a Model.
type Config struct {
	Book *site.Book
	// Loader re-parses pages that change on disk.
	Loader  *site.Loader
	Storage storage.Storage
	// Options are passed to every page's tracker. ScrollStep is in lines.
	Options reader.Options
	// Page is the book-relative path to open; empty opens the landing page.
	Page string
	// Style is the glamour style: auto, dark, light or notty.
	Style  string
	Logger *slog.Logger
}

type frameMsg struct{ gen int }

type timerMsg struct {
	gen int
	f   func()
}

// PagesChangedMsg reports book pages that changed on disk.
type PagesChangedMsg struct {
	Paths []string
}

// location is the reader.Location of the open page. Navigation requested
// by the tracker is applied by the model once the current event is done.
type location struct {
	path     string
	target   string
	navigate bool
	reload   bool
}

func (l *location) Path() string { return l.path }

func (l *location) Navigate(href string) {
	l.target = href
	l.navigate = true
}

func (l *location) Reload() { l.reload = true }

type pageEnv struct {
	storage storage.Storage
	loc     *location
	doc     *pageDocument
	clock   schedule.Clock
	frames  *schedule.FrameQueue
}

func (e *pageEnv) Storage() storage.Storage  { return e.storage }
func (e *pageEnv) Location() reader.Location { return e.loc }
func (e *pageEnv) Document() reader.Document { return e.doc }
func (e *pageEnv) Clock() schedule.Clock     { return e.clock }
func (e *pageEnv) Frames() schedule.Frames   { return e.frames }

// Model is the bubbletea model of the reader.
type Model struct {
	book    *site.Book
	loader  *site.Loader
	storage storage.Storage
	opts    reader.Options
	logger  *slog.Logger

	theme   Theme
	keys    keyMap
	help    help.Model
	md      *MarkdownRenderer
	outline OutlineModel

	// Per-page state. gen increases with every opened page so timer and
	// frame messages of a page that was left are dropped.
	rel          string
	doc          *pageDocument
	tracker      *reader.Tracker
	loc          *location
	frames       *schedule.FrameQueue
	gen          int
	framePending bool

	timers   chan timerMsg
	newClock func(post func(func())) schedule.Clock
	now      func() time.Time

	width, height int
	ready         bool
	confirmClear  bool
	status        string
}

// NewModel creates a reader for cfg.Book. The page is opened on the first
// window size message.
func NewModel(cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loader := cfg.Loader
	if loader == nil {
		loader = site.NewLoader()
		loader.SetLogger(logger)
	}

	opts := cfg.Options
	if opts.ScrollStep <= 0 {
		opts.ScrollStep = DefaultScrollLines
	}
	opts.ScrollStep *= LinePx
	if opts.IDMode == "" {
		opts.IDMode = progress.DefaultIDMode
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}

	rel := cfg.Page
	if _, ok := cfg.Book.Page(rel); !ok {
		if rel != "" {
			logger.Warn("page not found, opening landing page", "page", rel)
		}
		rel = cfg.Book.Landing()
	}

	theme := DefaultTheme(lipgloss.DefaultRenderer())
	h := help.New()

	return Model{
		book:    cfg.Book,
		loader:  loader,
		storage: cfg.Storage,
		opts:    opts,
		logger:  logger,
		theme:   theme,
		keys:    defaultKeyMap(),
		help:    h,
		md:      NewMarkdownRenderer(80, cfg.Style),
		outline: NewOutlineModel(theme),
		rel:     rel,
		timers:  make(chan timerMsg, 64),
		newClock: func(post func(func())) schedule.Clock {
			return schedule.NewSystem(post)
		},
		now: time.Now,
	}
}

// Init starts listening for timer callbacks.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForTimer(m.timers), tea.SetWindowTitle(m.book.Title()))
}

func waitForTimer(ch <-chan timerMsg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func frameTick(gen int) tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return frameMsg{gen: gen} })
}

// Tracker returns the tracker of the open page, nil before the first
// window size message.
func (m Model) Tracker() *reader.Tracker { return m.tracker }

// Page returns the book-relative path of the open page.
func (m Model) Page() string { return m.rel }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.outline.SetHeight(m.bodyHeight())
		if !m.ready {
			m.ready = true
			m.openPage(m.rel)
		} else {
			m.resize()
		}

	case frameMsg:
		if msg.gen == m.gen {
			m.framePending = false
			m.frames.Flush()
		}

	case timerMsg:
		if msg.gen == m.gen {
			msg.f()
		}
		cmds = append(cmds, waitForTimer(m.timers))

	case PagesChangedMsg:
		m.reloadPages(msg.Paths)

	case tea.MouseMsg:
		if m.tracker != nil && msg.Action == tea.MouseActionPress {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				m.doc.ScrollBy(-DefaultScrollLines * LinePx)
				m.tracker.OnScroll()
			case tea.MouseButtonWheelDown:
				m.doc.ScrollBy(DefaultScrollLines * LinePx)
				m.tracker.OnScroll()
			}
		}

	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	if m.tracker != nil {
		m.followLocation()
		m.outline.SetView(m.tracker.View())
		if !m.framePending && m.frames.Len() > 0 {
			m.framePending = true
			cmds = append(cmds, frameTick(m.gen))
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.tracker == nil {
		if key.Matches(msg, m.keys.Quit) {
			return tea.Quit
		}
		return nil
	}

	if m.confirmClear {
		m.confirmClear = false
		m.status = ""
		if key.Matches(msg, m.keys.confirmOK) {
			m.tracker.ClearProgress()
			m.status = "Reading progress cleared"
		}
		return nil
	}

	if m.outline.Focused() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return tea.Quit
		case key.Matches(msg, m.keys.Outline):
			m.outline.Toggle()
			m.resize()
			return nil
		case key.Matches(msg, m.keys.Focus):
			m.outline.SwitchFocus()
			return nil
		}
		var sel *outlineItem
		m.outline, sel = m.outline.Update(msg)
		if sel != nil {
			m.activate(*sel)
		}
		return nil
	}

	view := m.tracker.View()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Outline):
		m.outline.Toggle()
		m.resize()
	case key.Matches(msg, m.keys.Focus):
		m.outline.SwitchFocus()
	case key.Matches(msg, m.keys.Continue) && view.Banner != nil:
		m.tracker.ContinueReading()
	case key.Matches(msg, m.keys.Dismiss):
		switch {
		case view.Banner != nil:
			m.tracker.DismissBanner()
		case view.HelpVisible:
			m.tracker.ToggleHelp()
		}
	case key.Matches(msg, m.keys.Top):
		m.tracker.BackToTop()
	case key.Matches(msg, m.keys.Heading):
		m.jumpHeading(view, 1)
	case key.Matches(msg, m.keys.PrevHead):
		m.jumpHeading(view, -1)
	case key.Matches(msg, m.keys.Copy):
		m.copyBookmark()
	case key.Matches(msg, m.keys.Clear):
		m.confirmClear = true
		m.status = "Clear all reading progress? (y/N)"
	default:
		if ev, ok := m.keys.trackerKey(msg); ok {
			m.status = ""
			m.tracker.HandleKey(ev)
		}
	}
	return nil
}

func (m *Model) activate(it outlineItem) {
	switch it.kind {
	case outlineChapter:
		m.tracker.ActivateDot(it.index)
	case outlineHeading:
		m.tracker.JumpToHeading(it.index)
	}
}

// jumpHeading moves to the section after or before the active one.
func (m *Model) jumpHeading(view reader.View, dir int) {
	if len(view.TOC) == 0 {
		return
	}
	active := -1
	for i, e := range view.TOC {
		if e.Active {
			active = i
		}
	}
	target := active + dir
	if target < 0 {
		target = 0
	}
	if target >= len(view.TOC) {
		return
	}
	m.tracker.JumpToHeading(target)
}

// copyBookmark puts the bookmarked page's file path on the clipboard.
func (m *Model) copyBookmark() {
	b := m.tracker.Record().Bookmark
	if b == nil {
		m.status = "No bookmark saved"
		return
	}
	rel, ok := m.resolve(b.Path)
	if !ok {
		m.status = "Bookmarked page not found: " + b.Path
		return
	}
	p := filepath.Join(m.book.Root, filepath.FromSlash(rel))
	if err := clipboard.WriteAll(p); err != nil {
		m.logger.Warn("clipboard unavailable", "error", err)
		m.status = "Clipboard unavailable"
		return
	}
	m.status = "Copied " + p
}

// resolve maps an href from the open page to a book page. Bookmarks store
// page ids, so an href that does not resolve is matched by id.
func (m *Model) resolve(href string) (string, bool) {
	if rel, ok := m.book.Resolve(m.rel, href); ok {
		return rel, true
	}
	id := progress.PageID(href, m.opts.IDMode)
	for _, p := range m.book.Paths {
		if progress.PageID("/"+p, m.opts.IDMode) == id {
			return p, true
		}
	}
	return "", false
}

func (m *Model) followLocation() {
	loc := m.loc
	switch {
	case loc.reload:
		loc.reload = false
		loc.navigate = false
		m.openPage(m.rel)
	case loc.navigate:
		loc.navigate = false
		rel, ok := m.resolve(loc.target)
		if !ok {
			m.status = "Cannot open " + loc.target
			m.logger.Warn("navigation target not in book", "href", loc.target, "from", m.rel)
			return
		}
		m.openPage(rel)
	}
}

// openPage renders rel and attaches a fresh tracker to it, as a browser
// does on page load.
func (m *Model) openPage(rel string) {
	page, ok := m.book.Page(rel)
	if !ok {
		m.status = "Page not found: " + rel
		return
	}

	m.gen++
	gen := m.gen
	timers := m.timers
	post := func(f func()) { timers <- timerMsg{gen: gen, f: f} }

	m.rel = rel
	m.loc = &location{path: "/" + rel}
	m.frames = schedule.NewFrameQueue(nil)
	m.framePending = false
	w, h := m.docSize()
	m.doc = newPageDocument(page, m.md, w, h)
	m.tracker = reader.New(&pageEnv{
		storage: m.storage,
		loc:     m.loc,
		doc:     m.doc,
		clock:   m.newClock(post),
		frames:  m.frames,
	}, m.opts)
	m.outline.SetView(m.tracker.View())
	m.logger.Debug("opened page", "page", rel, "id", m.tracker.PageID())
}

func (m *Model) reloadPages(paths []string) {
	current := false
	for _, p := range paths {
		if err := m.loader.ReloadPage(m.book, p); err != nil {
			m.logger.Warn("reloading page", "page", p, "error", err)
			continue
		}
		if p == m.rel {
			current = true
		}
	}
	if m.tracker == nil {
		return
	}
	if _, ok := m.book.Page(m.rel); ok {
		if current {
			m.openPage(m.rel)
			m.status = "Page reloaded"
		}
		return
	}
	// The open page is gone. Keep showing it until the book has a page
	// again; generators often delete their output before rewriting it.
	if len(m.book.Paths) == 0 {
		m.status = "Book is empty"
		return
	}
	m.status = ""
	m.openPage(m.book.Landing())
}

func (m Model) bodyHeight() int {
	h := m.height - chromeLines
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) docSize() (int, int) {
	w := m.width
	if m.outline.Visible() {
		w -= OutlineWidth + 1
	}
	if w < minWrap {
		w = minWrap
	}
	return w, m.bodyHeight()
}

// resize refits the page after a layout change.
func (m *Model) resize() {
	if m.doc == nil {
		return
	}
	m.doc.SetSize(m.docSize())
	m.tracker.OnScroll()
}

func (m Model) View() string {
	if !m.ready || m.tracker == nil {
		return "Loading..."
	}
	v := m.tracker.View()

	var b strings.Builder
	b.WriteString(m.renderHeader(v))
	b.WriteString("\n")
	b.WriteString(m.renderProgress(v))
	b.WriteString("\n")
	b.WriteString(m.renderBody(v))
	b.WriteString("\n")
	b.WriteString(m.renderBanner(v))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(v))
	return b.String()
}

func (m Model) renderHeader(v reader.View) string {
	r := m.theme.Renderer
	title := m.theme.Header.Render(TruncateTitle(m.book.Title(), m.width/3))
	dots := RenderDots(v.Dots, m.theme, m.width/3)
	chapter := r.NewStyle().Bold(true).Render(" " + TruncateTitle(m.doc.Title(), m.width-lipgloss.Width(title)-lipgloss.Width(dots)-3))
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(chapter) - lipgloss.Width(dots)
	if gap < 1 {
		gap = 1
	}
	return title + chapter + strings.Repeat(" ", gap) + dots
}

func (m Model) renderProgress(v reader.View) string {
	r := m.theme.Renderer
	pct := fmt.Sprintf(" %3.0f%%", v.Progress)
	color := m.theme.InProgress
	if v.Fraction > reader.ReadThreshold {
		color = m.theme.Read
	}
	bar := RenderProgressBar(v.Fraction, m.width-len(pct))
	return r.NewStyle().Foreground(color).Render(bar) + r.NewStyle().Foreground(m.theme.Subtext).Render(pct)
}

func (m Model) renderBody(v reader.View) string {
	_, h := m.docSize()
	if v.HelpVisible {
		return lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, m.renderHelp())
	}
	content := m.doc.View()
	if m.outline.Visible() {
		return lipgloss.JoinHorizontal(lipgloss.Top, m.outline.View(), " ", content)
	}
	return content
}

// renderHelp is the shortcut overlay: the tracker's shortcut hints, then
// the terminal's own bindings.
func (m Model) renderHelp() string {
	r := m.theme.Renderer
	keyStyle := r.NewStyle().Bold(true).Foreground(m.theme.Primary).Width(8)
	descStyle := r.NewStyle().Foreground(m.theme.Subtext)

	var b strings.Builder
	b.WriteString(r.NewStyle().Bold(true).Render("Keyboard shortcuts"))
	b.WriteString("\n\n")
	for _, s := range reader.Shortcuts {
		b.WriteString(keyStyle.Render(s.Keys) + descStyle.Render(s.Help) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))

	return r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Primary).
		Padding(1, 2).
		Render(b.String())
}

func (m Model) renderBanner(v reader.View) string {
	if v.Banner == nil {
		return ""
	}
	bm := v.Banner.Bookmark
	title := bm.Title
	if title == "" {
		title = bm.Path
	}
	text := fmt.Sprintf("Continue reading %q", title)
	if t := bm.Time(); !t.IsZero() {
		text += " (" + FormatTimeRel(t, m.now()) + ")"
	}
	text += "?  c continue · x dismiss"
	return m.theme.Banner.Render(TruncateTitle(text, m.width))
}

func (m Model) renderFooter(v reader.View) string {
	r := m.theme.Renderer
	muted := r.NewStyle().Foreground(m.theme.Subtext)

	var left []string
	if v.Info != nil {
		left = append(left, fmt.Sprintf("%d words · %d min read", v.Info.Words, v.Info.Minutes))
	}
	if v.BackToTop {
		left = append(left, "↑ 0 back to top")
	}
	leftText := muted.Render(strings.Join(left, " · "))

	var right string
	switch {
	case v.ToastVisible:
		right = m.theme.Toast.Render(v.Toast)
	case m.status != "":
		right = r.NewStyle().Foreground(m.theme.InProgress).Render(m.status)
	default:
		right = m.help.ShortHelpView(m.keys.ShortHelp())
	}

	gap := m.width - lipgloss.Width(leftText) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return leftText + strings.Repeat(" ", gap) + right
}
