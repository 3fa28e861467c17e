package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/readmark/pkg/reader"
)

// RenderProgressBar creates a textual bar of val (0.0 - 1.0), exactly width
// cells wide.
func RenderProgressBar(val float64, width int) string {
	if width <= 0 {
		return ""
	}

	chars := []string{" ", "▏", "▎", "▍", "▌", "▋", "▊", "▉"}

	if math.IsNaN(val) {
		val = 0
	}
	if val < 0 {
		val = 0
	}
	if val > 1 {
		val = 1
	}

	// Calculate fullness
	fullChars := int(val * float64(width))
	remainder := (val * float64(width)) - float64(fullChars)

	var sb strings.Builder
	sb.WriteString(strings.Repeat("█", fullChars))

	if fullChars < width {
		idx := int(remainder * float64(len(chars)))
		// Ensure non-zero values are visible
		if idx == 0 && remainder > 0 {
			idx = 1
		}
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		sb.WriteString(chars[idx])
	}

	// Pad
	padding := width - fullChars - 1
	if padding > 0 {
		sb.WriteString(strings.Repeat(" ", padding))
	}

	return sb.String()
}

// RenderDots draws one glyph per chapter. When there are more chapters than
// limit, a window around the current chapter is shown with ellipses.
func RenderDots(dots []reader.Dot, t Theme, limit int) string {
	if len(dots) == 0 || limit <= 0 {
		return ""
	}
	start, end := 0, len(dots)
	if len(dots) > limit {
		cur := 0
		for i, d := range dots {
			if d.Current {
				cur = i
				break
			}
		}
		start = cur - limit/2
		if start < 0 {
			start = 0
		}
		end = start + limit
		if end > len(dots) {
			end = len(dots)
			start = end - limit
		}
	}

	r := t.Renderer
	var sb strings.Builder
	if start > 0 {
		sb.WriteString(r.NewStyle().Foreground(t.Muted).Render("…"))
	}
	for _, d := range dots[start:end] {
		icon, color := t.GetDotIcon(d)
		sb.WriteString(r.NewStyle().Foreground(color).Render(icon))
	}
	if end < len(dots) {
		sb.WriteString(r.NewStyle().Foreground(t.Muted).Render("…"))
	}
	return sb.String()
}

// TruncateTitle shortens s to at most width terminal cells.
func TruncateTitle(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// FormatTimeRel returns a relative time string like "2h ago".
func FormatTimeRel(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
