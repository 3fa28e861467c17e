package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/readmark/pkg/reader"
)

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	// Reading status
	Read       lipgloss.AdaptiveColor
	InProgress lipgloss.AdaptiveColor
	Unread     lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Accent    lipgloss.AdaptiveColor

	// Styles
	Base     lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style
	Toast    lipgloss.Style
	Banner   lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		// Dracula / Light Mode equivalent
		Primary:   lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Subtext:   lipgloss.AdaptiveColor{Light: "#999999", Dark: "#BFBFBF"}, // Dim
		Muted:     lipgloss.AdaptiveColor{Light: "#BBBBBB", Dark: "#44475A"},

		Read:       lipgloss.AdaptiveColor{Light: "#00A800", Dark: "#50FA7B"}, // Green
		InProgress: lipgloss.AdaptiveColor{Light: "#A8A800", Dark: "#F1FA8C"}, // Yellow
		Unread:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray

		Border:    lipgloss.AdaptiveColor{Light: "#DDDDDD", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#44475A"},
		Accent:    lipgloss.AdaptiveColor{Light: "#007EA8", Dark: "#8BE9FD"}, // Cyan
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.Toast = r.NewStyle().
		Background(t.Accent).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Padding(0, 1)

	t.Banner = r.NewStyle().
		Foreground(t.InProgress).
		Bold(true)

	return t
}

// Chapter reading states, as used by GetStatusColor.
const (
	StatusRead       = "read"
	StatusInProgress = "in_progress"
	StatusUnread     = "unread"
	StatusCurrent    = "current"
)

func (t Theme) GetStatusColor(s string) lipgloss.AdaptiveColor {
	switch s {
	case StatusRead:
		return t.Read
	case StatusInProgress:
		return t.InProgress
	case StatusUnread:
		return t.Unread
	case StatusCurrent:
		return t.Primary
	default:
		return t.Subtext
	}
}

// DotStatus names the state of a chapter dot. The current chapter wins over
// its read state so the reader can always find it.
func DotStatus(d reader.Dot) string {
	switch {
	case d.Current:
		return StatusCurrent
	case d.Read:
		return StatusRead
	default:
		return StatusUnread
	}
}

func (t Theme) GetDotIcon(d reader.Dot) (string, lipgloss.AdaptiveColor) {
	switch DotStatus(d) {
	case StatusCurrent:
		if d.Read {
			return "◉", t.Read
		}
		return "◉", t.Primary
	case StatusRead:
		return "●", t.Read
	default:
		return "○", t.Unread
	}
}
