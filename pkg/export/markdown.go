package export

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// sanitizeTableText prepares text for a Markdown table cell.
func sanitizeTableText(text string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"\n", " ",
		"\r", "",
	)
	result := replacer.Replace(text)

	// Remove any remaining control characters
	result = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, result)

	result = strings.TrimSpace(result)

	// Truncate if too long (UTF-8 safe using runes)
	runes := []rune(result)
	if len(runes) > 60 {
		result = string(runes[:57]) + "..."
	}
	return result
}

// GenerateMarkdown creates a reading progress report
func GenerateMarkdown(r Report) (string, error) {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s\n\n", r.Title))
	sb.WriteString(fmt.Sprintf("*Generated: %s*\n\n", r.Generated.Format(time.RFC1123)))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString(progressBar(r.Stats.Percentage, 30) + "\n\n")
	sb.WriteString("| Metric | Value |\n|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| **Chapters** | %d |\n", r.Stats.Total))
	sb.WriteString(fmt.Sprintf("| Read | %d |\n", r.Stats.ReadInBook))
	sb.WriteString(fmt.Sprintf("| Progress | %d%% |\n", r.Stats.Percentage))
	if extra := r.Stats.Read - r.Stats.ReadInBook; extra > 0 {
		sb.WriteString(fmt.Sprintf("| Read, no longer in book | %d |\n", extra))
	}
	sb.WriteString(fmt.Sprintf("| Words | %d |\n", r.Lengths.TotalWords))
	sb.WriteString(fmt.Sprintf("| Reading time | %s |\n", formatMinutes(r.Lengths.TotalMinutes)))
	sb.WriteString(fmt.Sprintf("| Remaining | %s |\n", formatMinutes(remainingMinutes(r))))
	if r.FontSize != "" {
		sb.WriteString(fmt.Sprintf("| Font size | %s |\n", r.FontSize))
	}
	if !r.LastVisit.IsZero() {
		sb.WriteString(fmt.Sprintf("| Last visit | %s (`%s`) |\n", r.LastVisit.Format("2006-01-02 15:04"), r.LastPage))
	}
	sb.WriteString("\n")

	// Bookmark
	if b := r.Bookmark; b != nil {
		sb.WriteString("## Bookmark\n\n")
		title := b.Title
		if title == "" {
			title = b.Path
		}
		sb.WriteString(fmt.Sprintf("**%s**: `%s` at offset %d", sanitizeTableText(title), b.Path, b.Scroll))
		if !b.Time().IsZero() {
			sb.WriteString(fmt.Sprintf(", saved %s", b.Time().Format("2006-01-02 15:04")))
		}
		sb.WriteString("\n\n")
	}

	// Chapters
	sb.WriteString("## Chapters\n\n")
	if len(r.Chapters) == 0 {
		sb.WriteString("*No chapters found in the sidebar.*\n\n")
		return sb.String(), nil
	}
	sb.WriteString("| # | Chapter | Status | Words | Time |\n|---|---------|--------|-------|------|\n")
	for _, c := range r.Chapters {
		sb.WriteString(fmt.Sprintf("| %d | [%s](#%s) | %s | %d | %s |\n",
			c.Index, sanitizeTableText(c.Title), createSlug(c.ID), getStatusEmoji(c), c.Words, formatMinutes(c.Minutes)))
	}
	sb.WriteString("\n---\n\n")

	for _, c := range r.Chapters {
		sb.WriteString(fmt.Sprintf("### <a id=\"%s\"></a>%d. %s\n\n", createSlug(c.ID), c.Index, c.Title))
		sb.WriteString(fmt.Sprintf("- Page: `%s`\n", c.ID))
		sb.WriteString(fmt.Sprintf("- Status: %s %s\n", getStatusEmoji(c), statusLabel(c)))
		if c.Scroll != 0 {
			sb.WriteString(fmt.Sprintf("- Saved offset: %d\n", c.Scroll))
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// remainingMinutes sums the reading time of unread chapters.
func remainingMinutes(r Report) int {
	total := 0
	for _, c := range r.Chapters {
		if !c.Read {
			total += c.Minutes
		}
	}
	return total
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%d min", m)
	}
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}

// progressBar draws a text bar, e.g. "`█████░░░░░` 50%".
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return fmt.Sprintf("`%s%s` %d%%", strings.Repeat("█", filled), strings.Repeat("░", width-filled), percent)
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// createSlug creates a URL-friendly slug from an ID
func createSlug(id string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(id), "-")
	return strings.Trim(slug, "-")
}

func getStatusEmoji(c ChapterRow) string {
	switch {
	case c.Read:
		return "✅"
	case c.Scroll != 0:
		return "📖"
	default:
		return "⚪"
	}
}

func statusLabel(c ChapterRow) string {
	switch {
	case c.Read:
		return "read"
	case c.Scroll != 0:
		return "in progress"
	default:
		return "unread"
	}
}

// SaveMarkdownToFile writes the generated markdown to a file
func SaveMarkdownToFile(r Report, filename string) error {
	content, err := GenerateMarkdown(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}
