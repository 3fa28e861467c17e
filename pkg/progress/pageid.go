package progress

import (
	"fmt"
	"regexp"
	"strings"
)

// IDMode selects how a page identifier is derived from a URL path.
type IDMode string

const (
	// IDLastSegment uses the last path segment, "index.html" when empty.
	IDLastSegment IDMode = "last-segment"
	// IDHTMLSuffix uses the trailing "*.html" segment, the whole path
	// otherwise.
	IDHTMLSuffix IDMode = "html-suffix"
)

// DefaultIDMode is used when no mode is configured.
const DefaultIDMode = IDLastSegment

var htmlSegment = regexp.MustCompile(`([^/]+\.html)$`)

// ParseIDMode validates a configured id mode.
func ParseIDMode(s string) (IDMode, error) {
	switch m := IDMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return DefaultIDMode, nil
	case IDLastSegment, IDHTMLSuffix:
		return m, nil
	default:
		return "", fmt.Errorf("unknown page id mode %q (want %s or %s)", s, IDLastSegment, IDHTMLSuffix)
	}
}

// PageID derives the page identifier from a location path. Query strings
// and fragments are ignored. The same path always yields the same id.
func PageID(path string, mode IDMode) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	switch mode {
	case IDHTMLSuffix:
		if m := htmlSegment.FindStringSubmatch(path); m != nil {
			return m[1]
		}
		return path
	default:
		seg := path
		if i := strings.LastIndex(path, "/"); i >= 0 {
			seg = path[i+1:]
		}
		if seg == "" {
			return "index.html"
		}
		return seg
	}
}
