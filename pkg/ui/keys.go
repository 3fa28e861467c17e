package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/readmark/pkg/reader"
)

// keyMap holds the reader's bindings. Tracker shortcuts are translated into
// reader.KeyEvents; the rest are handled by the model.
type keyMap struct {
	Down      key.Binding
	Up        key.Binding
	Home      key.Binding
	End       key.Binding
	Prev      key.Binding
	Next      key.Binding
	Help      key.Binding
	FontUp    key.Binding
	FontDown  key.Binding
	Bookmark  key.Binding
	Outline   key.Binding
	Focus     key.Binding
	Select    key.Binding
	Continue  key.Binding
	Dismiss   key.Binding
	Top       key.Binding
	Heading   key.Binding
	PrevHead  key.Binding
	Copy      key.Binding
	Clear     key.Binding
	Quit      key.Binding
	confirmOK key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "scroll")),
		Up:        key.NewBinding(key.WithKeys("k", "up")),
		Home:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g/G", "start/end")),
		End:       key.NewBinding(key.WithKeys("end", "G")),
		Prev:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "prev/next chapter")),
		Next:      key.NewBinding(key.WithKeys("right", "l")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle hints")),
		FontUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "font size")),
		FontDown:  key.NewBinding(key.WithKeys("-")),
		Bookmark:  key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "bookmark")),
		Outline:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "contents")),
		Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus contents")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Continue:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "continue reading")),
		Dismiss:   key.NewBinding(key.WithKeys("x", "esc"), key.WithHelp("x", "dismiss")),
		Top:       key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "back to top")),
		Heading:   key.NewBinding(key.WithKeys("]"), key.WithHelp("[/]", "prev/next section")),
		PrevHead:  key.NewBinding(key.WithKeys("[")),
		Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy bookmark")),
		Clear:     key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "clear progress")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		confirmOK: key.NewBinding(key.WithKeys("y", "Y")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Prev, k.Bookmark, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Home, k.Prev, k.Heading, k.Top},
		{k.FontUp, k.Bookmark, k.Continue, k.Dismiss, k.Copy},
		{k.Outline, k.Focus, k.Select, k.Clear, k.Help, k.Quit},
	}
}

// trackerKey translates a terminal key into the tracker's key vocabulary.
func (k keyMap) trackerKey(msg tea.KeyMsg) (reader.KeyEvent, bool) {
	switch {
	case key.Matches(msg, k.Bookmark):
		return reader.KeyEvent{Key: reader.KeyBookmark, Ctrl: true}, true
	case key.Matches(msg, k.Down):
		return reader.KeyEvent{Key: reader.KeyDown}, true
	case key.Matches(msg, k.Up):
		return reader.KeyEvent{Key: reader.KeyUp}, true
	case key.Matches(msg, k.Home):
		return reader.KeyEvent{Key: reader.KeyHome}, true
	case key.Matches(msg, k.End):
		return reader.KeyEvent{Key: reader.KeyEnd}, true
	case key.Matches(msg, k.Prev):
		return reader.KeyEvent{Key: reader.KeyArrowLeft}, true
	case key.Matches(msg, k.Next):
		return reader.KeyEvent{Key: reader.KeyArrowRight}, true
	case key.Matches(msg, k.Help):
		return reader.KeyEvent{Key: reader.KeyHelp}, true
	case key.Matches(msg, k.FontUp):
		return reader.KeyEvent{Key: reader.KeyPlus}, true
	case key.Matches(msg, k.FontDown):
		return reader.KeyEvent{Key: reader.KeyMinus}, true
	}
	return reader.KeyEvent{}, false
}
