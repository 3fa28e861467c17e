package reader

import "strings"

// Key names understood by HandleKey.
const (
	KeyDown       = "j"
	KeyUp         = "k"
	KeyHome       = "Home"
	KeyEnd        = "End"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyHelp       = "?"
	KeyPlus       = "+"
	KeyEquals     = "="
	KeyMinus      = "-"
	KeyBookmark   = "b"
)

// Focus targets that swallow shortcuts.
const (
	TargetInput    = "INPUT"
	TargetTextArea = "TEXTAREA"
)

// KeyEvent is a key press. Target names the element holding focus.
type KeyEvent struct {
	Key    string
	Ctrl   bool
	Target string
}

func (e KeyEvent) inTextField() bool {
	return strings.EqualFold(e.Target, TargetInput) || strings.EqualFold(e.Target, TargetTextArea)
}

// Shortcut describes one key binding for the help overlay.
type Shortcut struct {
	Keys string
	Help string
}

// Shortcuts lists the bindings in overlay order.
var Shortcuts = []Shortcut{
	{"j/k", "Scroll"},
	{"←/→", "Prev/Next"},
	{"+/-", "Font size"},
	{"Ctrl+B", "Bookmark"},
	{"?", "Toggle hints"},
}

// HandleKey runs the shortcut bound to ev and reports whether one ran.
// Nothing runs while focus is in a text field.
func (t *Tracker) HandleKey(ev KeyEvent) bool {
	if ev.inTextField() {
		return false
	}
	if ev.Ctrl {
		if strings.EqualFold(ev.Key, KeyBookmark) {
			t.SaveBookmark()
			return true
		}
		return false
	}

	switch ev.Key {
	case KeyDown:
		t.scrollBy(t.opts.ScrollStep)
	case KeyUp:
		t.scrollBy(-t.opts.ScrollStep)
	case KeyHome:
		t.scrollTo(0)
	case KeyEnd:
		t.scrollTo(t.doc.ScrollHeight())
	case KeyArrowLeft:
		t.NavigateChapter(Previous)
	case KeyArrowRight:
		t.NavigateChapter(Next)
	case KeyHelp:
		t.ToggleHelp()
	case KeyPlus, KeyEquals:
		t.AdjustFontSize(t.opts.FontStep)
	case KeyMinus:
		t.AdjustFontSize(-t.opts.FontStep)
	default:
		return false
	}
	return true
}
