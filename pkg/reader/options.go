package reader

import (
	"log/slog"
	"time"

	"github.com/Dicklesworthstone/readmark/pkg/progress"
)

// Fixed policy constants.
const (
	// ReadThreshold is the scroll fraction a page must exceed to count as
	// read.
	ReadThreshold = 0.9

	MinFontSize     = 14
	MaxFontSize     = 24
	DefaultFontSize = 16

	ToastDuration  = 2 * time.Second
	RestoreDelay   = 100 * time.Millisecond
	WordsPerMinute = 200

	BackToTopThreshold = 300
	TOCActivationLine  = 100
	TOCMinHeadings     = 3

	MainContentID = "main-content"
)

// Options tune the tracker. The zero value of each field means its default.
type Options struct {
	// StorageKey is the key the progress record lives under.
	StorageKey string
	// IDMode selects how page ids are derived from the location path.
	IDMode progress.IDMode
	// LandingMarker is the substring that makes a page id a landing page,
	// where the continue banner may appear.
	LandingMarker string
	// ScrollStep is the j/k scroll distance.
	ScrollStep int
	// FontStep is the +/- font size change in px.
	FontStep float64
	// MarkReadOnOpen marks every opened page read immediately.
	MarkReadOnOpen bool

	Logger *slog.Logger
}

// DefaultOptions returns the defaults.
func DefaultOptions() Options {
	return Options{
		StorageKey:    progress.DefaultStorageKey,
		IDMode:        progress.DefaultIDMode,
		LandingMarker: "index",
		ScrollStep:    100,
		FontStep:      1,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.StorageKey == "" {
		o.StorageKey = d.StorageKey
	}
	if o.IDMode == "" {
		o.IDMode = d.IDMode
	}
	if o.LandingMarker == "" {
		o.LandingMarker = d.LandingMarker
	}
	if o.ScrollStep <= 0 {
		o.ScrollStep = d.ScrollStep
	}
	if o.FontStep <= 0 {
		o.FontStep = d.FontStep
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
