package site

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// IndexPage is the conventional landing page of a book.
const IndexPage = "index.html"

// Book is every page under a book root.
type Book struct {
	Root  string
	Pages map[string]*Page
	// Paths lists page paths in lexical order.
	Paths []string
}

// PageResult is the outcome of loading one page.
type PageResult struct {
	Path  string
	Page  *Page
	Error error
}

// Loader reads books from disk.
type Loader struct {
	parser *Parser
	logger *slog.Logger
	limit  int
}

// NewLoader creates a Loader parsing up to GOMAXPROCS pages at a time.
func NewLoader() *Loader {
	return &Loader{
		parser: NewParser(),
		logger: slog.Default(),
		limit:  runtime.GOMAXPROCS(0),
	}
}

// SetLogger sets the logger that reports pages which failed to load.
func (l *Loader) SetLogger(logger *slog.Logger) {
	if logger != nil {
		l.logger = logger
	}
}

// Load parses every .html page under root in parallel. Pages that fail to
// parse are logged and skipped; a book with no loadable page is an error.
func (l *Loader) Load(ctx context.Context, root string) (*Book, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving book root: %w", err)
	}
	paths, err := findPages(abs)
	if err != nil {
		return nil, fmt.Errorf("scanning book %s: %w", root, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no HTML pages found in %s", root)
	}

	results, err := l.loadPagesParallel(ctx, abs, paths)
	if err != nil {
		return nil, fmt.Errorf("loading book %s: %w", root, err)
	}

	book := &Book{Root: abs, Pages: make(map[string]*Page, len(results))}
	for _, r := range results {
		if r.Error != nil {
			l.logger.Warn("skipping page", "path", r.Path, "error", r.Error)
			continue
		}
		book.Pages[r.Path] = r.Page
		book.Paths = append(book.Paths, r.Path)
	}
	if len(book.Paths) == 0 {
		return nil, fmt.Errorf("no loadable pages in %s", root)
	}
	sort.Strings(book.Paths)
	return book, nil
}

// LoadBook is a convenience wrapper around NewLoader().Load.
func LoadBook(ctx context.Context, root string) (*Book, error) {
	return NewLoader().Load(ctx, root)
}

func findPages(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isPageFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	return paths, err
}

func isPageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".html" || ext == ".htm"
}

func (l *Loader) loadPagesParallel(ctx context.Context, root string, paths []string) ([]PageResult, error) {
	results := make([]PageResult, len(paths))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.limit)

	for i, rel := range paths {
		i, rel := i, rel
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			page, err := l.loadPage(root, rel)

			mu.Lock()
			results[i] = PageResult{Path: rel, Page: page, Error: err}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (l *Loader) loadPage(root, rel string) (*Page, error) {
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.parser.Parse(rel, f)
}

// ReloadPage parses one page again and replaces it in the book.
func (l *Loader) ReloadPage(b *Book, rel string) error {
	page, err := l.loadPage(b.Root, rel)
	if err != nil {
		if os.IsNotExist(err) {
			b.remove(rel)
			return nil
		}
		return fmt.Errorf("reloading %s: %w", rel, err)
	}
	if _, ok := b.Pages[rel]; !ok {
		b.Paths = append(b.Paths, rel)
		sort.Strings(b.Paths)
	}
	b.Pages[rel] = page
	return nil
}

func (b *Book) remove(rel string) {
	if _, ok := b.Pages[rel]; !ok {
		return
	}
	delete(b.Pages, rel)
	for i, p := range b.Paths {
		if p == rel {
			b.Paths = append(b.Paths[:i], b.Paths[i+1:]...)
			break
		}
	}
}

// Page returns the page at rel.
func (b *Book) Page(rel string) (*Page, bool) {
	p, ok := b.Pages[rel]
	return p, ok
}

// Landing returns the path of the page a reader starts on: index.html, the
// first sidebar chapter, or the first page. It is empty when every page has
// been removed.
func (b *Book) Landing() string {
	if len(b.Paths) == 0 {
		return ""
	}
	if _, ok := b.Pages[IndexPage]; ok {
		return IndexPage
	}
	for _, p := range b.Paths {
		for _, c := range b.Pages[p].Chapters {
			if rel, ok := b.Resolve(p, c.Href); ok {
				return rel
			}
		}
	}
	return b.Paths[0]
}

// Title is the title of the landing page.
func (b *Book) Title() string {
	if p, ok := b.Pages[b.Landing()]; ok && p.Title != "" {
		return p.Title
	}
	return filepath.Base(b.Root)
}

// Chapters returns the sidebar of the landing page, or of the first page
// that has one.
func (b *Book) Chapters() []Chapter {
	if p, ok := b.Pages[b.Landing()]; ok && len(p.Chapters) > 0 {
		return p.Chapters
	}
	for _, rel := range b.Paths {
		if cs := b.Pages[rel].Chapters; len(cs) > 0 {
			return cs
		}
	}
	return nil
}

// Resolve turns href, as found on page from, into a book page path. It
// reports false for external links and hrefs outside the book.
func (b *Book) Resolve(from, href string) (string, bool) {
	rel, ok := ResolveHref(from, href)
	if !ok {
		return "", false
	}
	if _, exists := b.Pages[rel]; exists {
		return rel, true
	}
	if _, exists := b.Pages[path.Join(rel, IndexPage)]; exists {
		return path.Join(rel, IndexPage), true
	}
	return "", false
}

// ResolveHref resolves href relative to the page path from, without checking
// that the target exists. Fragments and queries are dropped; a trailing
// slash names the directory's index page.
func ResolveHref(from, href string) (string, bool) {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return from, from != ""
	}
	if strings.Contains(href, "://") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "//") {
		return "", false
	}

	var joined string
	if strings.HasPrefix(href, "/") {
		joined = path.Clean(href)
	} else {
		joined = path.Clean(path.Join("/", path.Dir(from), href))
	}
	if strings.HasSuffix(href, "/") || joined == "/" {
		joined = path.Join(joined, IndexPage)
	}
	rel := strings.TrimPrefix(joined, "/")
	if rel == "" || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}
