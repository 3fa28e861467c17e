package ui

import (
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/readmark/pkg/reader"
)

func plainTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(io.Discard))
}

func TestDefaultTheme(t *testing.T) {
	renderer := lipgloss.NewRenderer(io.Discard)
	theme := DefaultTheme(renderer)

	if theme.Renderer != renderer {
		t.Error("DefaultTheme renderer mismatch")
	}
	// Check a few known colors are set (not zero value)
	if isColorEmpty(theme.Primary) {
		t.Error("DefaultTheme Primary color is empty")
	}
	if isColorEmpty(theme.Read) {
		t.Error("DefaultTheme Read color is empty")
	}
}

func isColorEmpty(c lipgloss.AdaptiveColor) bool {
	return c.Light == "" && c.Dark == ""
}

func TestGetStatusColor(t *testing.T) {
	theme := plainTheme()

	tests := []struct {
		status string
		want   lipgloss.AdaptiveColor
	}{
		{StatusRead, theme.Read},
		{StatusInProgress, theme.InProgress},
		{StatusUnread, theme.Unread},
		{StatusCurrent, theme.Primary},
		{"unknown", theme.Subtext},
		{"", theme.Subtext},
	}

	for _, tt := range tests {
		got := theme.GetStatusColor(tt.status)
		if got != tt.want {
			t.Errorf("GetStatusColor(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestGetDotIcon(t *testing.T) {
	theme := plainTheme()

	tests := []struct {
		dot      reader.Dot
		wantIcon string
		wantCol  lipgloss.AdaptiveColor
	}{
		{reader.Dot{}, "○", theme.Unread},
		{reader.Dot{Read: true}, "●", theme.Read},
		{reader.Dot{Current: true}, "◉", theme.Primary},
		{reader.Dot{Current: true, Read: true}, "◉", theme.Read},
	}

	for _, tt := range tests {
		icon, col := theme.GetDotIcon(tt.dot)
		if icon != tt.wantIcon {
			t.Errorf("GetDotIcon(%+v) icon = %q, want %q", tt.dot, icon, tt.wantIcon)
		}
		if col != tt.wantCol {
			t.Errorf("GetDotIcon(%+v) color = %v, want %v", tt.dot, col, tt.wantCol)
		}
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		val   float64
		width int
		full  int
	}{
		{0, 10, 0},
		{0.5, 10, 5},
		{1, 10, 10},
		{1.5, 10, 10},
		{-1, 10, 0},
		{0.99, 4, 3},
	}
	for _, tt := range tests {
		bar := RenderProgressBar(tt.val, tt.width)
		if w := utf8.RuneCountInString(bar); w != tt.width {
			t.Errorf("RenderProgressBar(%v, %d) width = %d", tt.val, tt.width, w)
		}
		if got := strings.Count(bar, "█"); got != tt.full {
			t.Errorf("RenderProgressBar(%v, %d) full cells = %d, want %d", tt.val, tt.width, got, tt.full)
		}
	}
	if RenderProgressBar(0.5, 0) != "" {
		t.Error("Expected empty bar for zero width")
	}
	// Small non-zero values stay visible.
	if bar := RenderProgressBar(0.01, 10); strings.TrimSpace(bar) == "" {
		t.Error("Expected a visible sliver for 1%")
	}
}

func TestRenderDots(t *testing.T) {
	theme := plainTheme()
	dots := make([]reader.Dot, 10)
	dots[0].Read = true
	dots[7].Current = true

	all := RenderDots(dots, theme, 20)
	if all != "●○○○○○○◉○○" {
		t.Errorf("RenderDots = %q", all)
	}

	windowed := RenderDots(dots, theme, 4)
	if windowed != "…○○◉○…" {
		t.Errorf("windowed RenderDots = %q", windowed)
	}

	if RenderDots(nil, theme, 5) != "" {
		t.Error("Expected no dots without chapters")
	}
}

func TestTruncateTitle(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Short", 10, "Short"},
		{"A longer chapter title", 10, "A longer …"},
		{"日本語のタイトル", 7, "日本語…"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateTitle(tt.in, tt.width); got != tt.want {
			t.Errorf("TruncateTitle(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestFormatTimeRel(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		t        time.Time
		expected string
	}{
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-30 * time.Minute), "30m ago"},
		{now.Add(-2 * time.Hour), "2h ago"},
		{now.Add(-25 * time.Hour), "1d ago"},
		{now.Add(-48 * time.Hour), "2d ago"},
		{time.Time{}, "unknown"},
	}

	for _, tt := range tests {
		got := FormatTimeRel(tt.t, now)
		if got != tt.expected {
			t.Errorf("FormatTimeRel(%v) = %q, want %q", tt.t, got, tt.expected)
		}
	}
}
