package reader

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/readmark/pkg/progress"
	"github.com/Dicklesworthstone/readmark/pkg/schedule"
)

// Tracker follows reading progress on one page.
type Tracker struct {
	opts   Options
	logger *slog.Logger

	doc   Document
	loc   Location
	clock schedule.Clock
	store *progress.Store

	pageID    string
	chapters  []Chapter
	headings  []Heading
	scroll    *schedule.Coalescer
	toastTime schedule.Timer
	restore   schedule.Timer

	view View
}

// New attaches a tracker to the page env describes: it restores the saved
// font size and scroll offset, builds the indicators and starts observing.
func New(env Env, opts Options) *Tracker {
	opts = opts.withDefaults()
	t := &Tracker{
		opts:   opts,
		logger: opts.Logger,
		doc:    env.Document(),
		loc:    env.Location(),
		clock:  env.Clock(),
	}
	t.store = progress.NewStore(env.Storage(),
		progress.WithKey(opts.StorageKey),
		progress.WithLogger(opts.Logger),
		progress.WithReloader(t.loc),
	)
	t.pageID = progress.PageID(t.loc.Path(), opts.IDMode)
	t.scroll = schedule.NewCoalescer(env.Frames().RequestFrame, t.tick)
	t.init()
	return t
}

func (t *Tracker) init() {
	t.view.PageID = t.pageID
	t.view.SkipTarget = "#" + MainContentID
	t.view.FontSize = t.doc.FontSize()

	t.updateProgressBar()
	t.buildDots()
	t.buildChapterInfo()
	if _, ok := t.doc.ContentText(); ok {
		t.doc.SetContentID(MainContentID)
	}
	t.buildMiniTOC()

	rec := t.store.Load()
	t.applyFontSize(rec.FontSize)
	t.annotateDots(rec)
	t.restoreScroll(rec)
	t.checkContinueReading(rec)

	if t.opts.MarkReadOnOpen {
		t.markRead()
	}
}

// PageID returns the id of the tracked page.
func (t *Tracker) PageID() string { return t.pageID }

// View returns a copy of the indicator state.
func (t *Tracker) View() View { return t.view.clone() }

// Record returns the persisted progress record.
func (t *Tracker) Record() progress.Record { return t.store.Load() }

// OnScroll reports a scroll event. Updates are coalesced to one per frame.
func (t *Tracker) OnScroll() {
	t.scroll.Trigger()
}

// tick runs once per frame after scrolling.
func (t *Tracker) tick() {
	t.updateProgressBar()
	t.view.BackToTop = t.doc.ScrollTop() > BackToTopThreshold
	t.updateMiniTOC()
	t.store.SaveScroll(t.pageID, t.doc.ScrollTop(), t.clock.Now())
	if t.view.Fraction > ReadThreshold {
		t.markRead()
	}
}

// Fraction returns how far through a document the viewport is, in [0, 1];
// 0 when the document does not scroll.
func Fraction(scrollTop, scrollHeight, viewportHeight int) float64 {
	h := scrollHeight - viewportHeight
	if h <= 0 {
		return 0
	}
	f := float64(scrollTop) / float64(h)
	return math.Max(0, math.Min(f, 1))
}

// BarWidth is the progress indicator width, in percent, for fraction f.
func BarWidth(f float64) float64 {
	return math.Min(f, 1) * 100
}

func (t *Tracker) updateProgressBar() {
	t.view.Fraction = Fraction(t.doc.ScrollTop(), t.doc.ScrollHeight(), t.doc.ViewportHeight())
	t.view.Progress = BarWidth(t.view.Fraction)
}

func (t *Tracker) markRead() {
	if !t.store.MarkRead(t.pageID) {
		return
	}
	for i := range t.view.Dots {
		if t.view.Dots[i].ID == t.pageID {
			t.view.Dots[i].Read = true
		}
	}
}

func (t *Tracker) restoreScroll(rec progress.Record) {
	y := rec.ScrollFor(t.pageID)
	if y == 0 {
		return
	}
	t.restore = t.clock.AfterFunc(RestoreDelay, func() {
		t.scrollTo(y)
	})
}

// scrollTo moves the viewport and observes the move like a user scroll.
func (t *Tracker) scrollTo(y int) {
	t.doc.ScrollTo(y)
	t.OnScroll()
}

func (t *Tracker) scrollBy(dy int) {
	t.doc.ScrollBy(dy)
	t.OnScroll()
}

// BackToTop scrolls to the start of the page.
func (t *Tracker) BackToTop() {
	t.scrollTo(0)
}

func (t *Tracker) applyFontSize(stored string) {
	px, ok := parsePx(stored)
	if !ok {
		if stored != "" {
			t.logger.Warn("ignoring stored font size", "fontSize", stored)
		}
		return
	}
	t.doc.SetFontSize(px)
	t.view.FontSize = px
}

// AdjustFontSize changes the base font size by delta px, clamped to
// [MinFontSize, MaxFontSize], persists it and confirms with a toast.
func (t *Tracker) AdjustFontSize(delta float64) {
	cur := t.doc.FontSize()
	if cur <= 0 {
		cur = DefaultFontSize
	}
	px := math.Max(MinFontSize, math.Min(MaxFontSize, cur+delta))
	size := formatPx(px)
	t.doc.SetFontSize(px)
	t.view.FontSize = px
	t.store.SetFontSize(size)
	t.showToast("Font size: " + size)
}

func parsePx(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	if s == "" {
		return 0, false
	}
	px, err := strconv.ParseFloat(s, 64)
	if err != nil || px <= 0 {
		return 0, false
	}
	return px, true
}

func formatPx(px float64) string {
	return strconv.FormatFloat(px, 'f', -1, 64) + "px"
}

// SaveBookmark stores the current position as the bookmark, replacing any
// previous one.
func (t *Tracker) SaveBookmark() progress.Bookmark {
	b := progress.Bookmark{
		Path:      t.pageID,
		Scroll:    t.doc.ScrollTop(),
		Timestamp: t.clock.Now().UnixMilli(),
		Title:     t.doc.Title(),
	}
	t.store.SaveBookmark(b)
	t.showToast("Bookmark saved")
	return b
}

// showToast displays msg for ToastDuration. Showing another toast restarts
// the timer.
func (t *Tracker) showToast(msg string) {
	t.view.Toast = msg
	t.view.ToastVisible = true
	if t.toastTime != nil {
		t.toastTime.Stop()
	}
	t.toastTime = t.clock.AfterFunc(ToastDuration, func() {
		t.view.ToastVisible = false
	})
}

// ToggleHelp shows or hides the shortcut overlay.
func (t *Tracker) ToggleHelp() {
	t.view.HelpVisible = !t.view.HelpVisible
}

// NavigateChapter follows the page's previous/next control, if present.
func (t *Tracker) NavigateChapter(dir Direction) bool {
	href, ok := t.doc.NavLink(dir)
	if !ok || href == "" {
		return false
	}
	t.loc.Navigate(href)
	return true
}

// ClearProgress removes all persisted progress and reloads the page.
func (t *Tracker) ClearProgress() {
	if t.restore != nil {
		t.restore.Stop()
	}
	t.store.Clear()
}
