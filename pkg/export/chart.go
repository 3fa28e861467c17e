package export

import (
	"fmt"
	"io"
	"os"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
)

// Chart geometry shared by the SVG and PNG renderers. Each chapter is one
// row: a bar whose length is proportional to the chapter's word count,
// coloured by its status.
const (
	chartWidth   = 720
	chartPadding = 16
	chartHeader  = 40
	rowHeight    = 22
	labelWidth   = 220
	barHeight    = 14
)

const (
	colorRead     = "#50FA7B"
	colorProgress = "#F1FA8C"
	colorUnread   = "#6272A4"
	colorText     = "#282A36"
	colorBack     = "#F8F8F2"
)

func chartHeight(r Report) int {
	return chartHeader + len(r.Chapters)*rowHeight + chartPadding
}

func rowColor(c ChapterRow) string {
	switch {
	case c.Read:
		return colorRead
	case c.Scroll != 0:
		return colorProgress
	default:
		return colorUnread
	}
}

// barLength scales words against the longest chapter. Chapters with no
// measured text still get a sliver so they stay visible.
func barLength(words, longest int) int {
	full := chartWidth - labelWidth - 2*chartPadding
	if longest <= 0 || words <= 0 {
		return 2
	}
	n := words * full / longest
	if n < 2 {
		n = 2
	}
	return n
}

func longestWords(r Report) int {
	longest := 0
	for _, c := range r.Chapters {
		if c.Words > longest {
			longest = c.Words
		}
	}
	return longest
}

func chartLabel(c ChapterRow) string {
	return truncateRunes(fmt.Sprintf("%d. %s", c.Index, c.Title), 32)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func chartTitle(r Report) string {
	return fmt.Sprintf("%s: %d/%d chapters read (%d%%)", r.Title, r.Stats.ReadInBook, r.Stats.Total, r.Stats.Percentage)
}

// WriteSVG renders the progress chart as SVG.
func WriteSVG(w io.Writer, r Report) error {
	height := chartHeight(r)
	longest := longestWords(r)

	canvas := svg.New(w)
	canvas.Start(chartWidth, height)
	canvas.Title(r.Title)
	canvas.Rect(0, 0, chartWidth, height, "fill:"+colorBack)
	canvas.Text(chartPadding, chartPadding+12, chartTitle(r), "font-family:sans-serif;font-size:16px;fill:"+colorText)

	canvas.Gstyle("font-family:monospace;font-size:12px;fill:" + colorText)
	for i, c := range r.Chapters {
		y := chartHeader + i*rowHeight
		canvas.Text(chartPadding, y+barHeight-2, chartLabel(c))
		canvas.Rect(chartPadding+labelWidth, y, barLength(c.Words, longest), barHeight, "fill:"+rowColor(c))
	}
	canvas.Gend()
	canvas.End()
	return nil
}

// WritePNG renders the progress chart as PNG.
func WritePNG(w io.Writer, r Report) error {
	height := chartHeight(r)
	longest := longestWords(r)

	dc := gg.NewContext(chartWidth, height)
	dc.SetHexColor(colorBack)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetHexColor(colorText)
	dc.DrawString(chartTitle(r), chartPadding, chartPadding+12)

	for i, c := range r.Chapters {
		y := float64(chartHeader + i*rowHeight)
		dc.SetHexColor(colorText)
		dc.DrawString(chartLabel(c), chartPadding, y+barHeight-2)

		dc.SetHexColor(rowColor(c))
		dc.DrawRectangle(chartPadding+labelWidth, y, float64(barLength(c.Words, longest)), barHeight)
		dc.Fill()
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SaveChart writes the chart to filename using render.
func SaveChart(r Report, filename string, render func(io.Writer, Report) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := render(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
