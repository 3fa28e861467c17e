package library

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/readmark/pkg/progress"
	"github.com/Dicklesworthstone/readmark/pkg/reader"
	"github.com/Dicklesworthstone/readmark/pkg/site"
	"github.com/Dicklesworthstone/readmark/pkg/storage"
)

// LoadResult contains the result of loading a single book
type LoadResult struct {
	// Name is the book's library name
	Name string

	// Root is the resolved book directory
	Root string

	// StorageKey is the progress key for the book, empty for the default
	StorageKey string

	// Book is the loaded book
	Book *site.Book

	// Error is set if loading failed
	Error error
}

// AggregateLoader loads every enabled book of a library
type AggregateLoader struct {
	library *Library
	root    string
	logger  *slog.Logger
	pages   *site.Loader
}

// NewAggregateLoader creates a loader for lib; relative book paths resolve
// against root
func NewAggregateLoader(lib *Library, root string) *AggregateLoader {
	return &AggregateLoader{
		library: lib,
		root:    root,
		logger:  slog.Default(),
		pages:   site.NewLoader(),
	}
}

// SetLogger sets a custom logger for error reporting
func (l *AggregateLoader) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	l.logger = logger
	l.pages.SetLogger(logger)
}

// LoadAll loads all enabled books in parallel.
// Failed books are logged but don't break the overall loading process.
func (l *AggregateLoader) LoadAll(ctx context.Context) ([]LoadResult, error) {
	if l.library == nil {
		return nil, fmt.Errorf("library is nil")
	}

	enabled := l.library.Enabled()
	if len(enabled) == 0 {
		return nil, fmt.Errorf("no enabled books in library")
	}

	results, err := l.loadBooksParallel(ctx, enabled)
	if err != nil {
		return results, fmt.Errorf("fatal error during parallel loading: %w", err)
	}

	for _, result := range results {
		if result.Error != nil {
			// Individual book failures don't break the whole load
			l.logger.Warn("failed to load book", "book", result.Name, "error", result.Error)
		}
	}
	return results, nil
}

// loadBooksParallel loads all books concurrently using errgroup
func (l *AggregateLoader) loadBooksParallel(ctx context.Context, books []BookConfig) ([]LoadResult, error) {
	results := make([]LoadResult, len(books))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)

	for i, b := range books {
		i, b := i, b

		g.Go(func() error {
			root := ResolvePath(b, l.root)
			result := LoadResult{Name: b.GetName(), Root: root, StorageKey: b.StorageKey}

			select {
			case <-ctx.Done():
				result.Error = ctx.Err()
			default:
				result.Book, result.Error = l.pages.Load(ctx, root)
			}

			mu.Lock()
			results[i] = result
			mu.Unlock()

			return nil // Individual book errors are captured in results, not propagated
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// LoadAllFromFile is a convenience function that reads a library file and
// loads all its books, resolving book paths against the file's directory
func LoadAllFromFile(ctx context.Context, path string) ([]LoadResult, error) {
	lib, err := LoadLibrary(path)
	if err != nil {
		return nil, err
	}
	return NewAggregateLoader(lib, filepath.Dir(path)).LoadAll(ctx)
}

// LoadSummary summarises load results
type LoadSummary struct {
	TotalBooks      int
	SuccessfulBooks int
	FailedBooks     int
	TotalPages      int
	FailedBookNames []string
}

// Summarize returns a summary of the load results
func Summarize(results []LoadResult) LoadSummary {
	summary := LoadSummary{TotalBooks: len(results)}

	for _, result := range results {
		if result.Error != nil {
			summary.FailedBooks++
			summary.FailedBookNames = append(summary.FailedBookNames, result.Name)
			continue
		}
		summary.SuccessfulBooks++
		summary.TotalPages += len(result.Book.Paths)
	}

	return summary
}

// BookStats is the reading progress of one library book
type BookStats struct {
	Name  string       `json:"name"`
	Root  string       `json:"root"`
	Stats reader.Stats `json:"stats"`
	Error string       `json:"error,omitempty"`
}

// OpenFunc opens the progress storage of the book at root
type OpenFunc func(root string) (storage.Backing, error)

// CollectStats reads the progress record of every loaded book. Books that
// failed to load or whose storage cannot be opened carry an Error.
func CollectStats(results []LoadResult, open OpenFunc, defaultKey string, mode progress.IDMode, logger *slog.Logger) []BookStats {
	if logger == nil {
		logger = slog.Default()
	}
	out := make([]BookStats, 0, len(results))
	for _, r := range results {
		bs := BookStats{Name: r.Name, Root: r.Root}
		if r.Error != nil {
			bs.Error = r.Error.Error()
			out = append(out, bs)
			continue
		}

		st, err := open(r.Root)
		if err != nil {
			bs.Error = err.Error()
			out = append(out, bs)
			continue
		}
		key := r.StorageKey
		if key == "" {
			key = defaultKey
		}
		store := progress.NewStore(st, progress.WithKey(key), progress.WithLogger(logger))
		bs.Stats = reader.ComputeStats(store.Load(), Chapters(r.Book), mode)
		if err := st.Close(); err != nil {
			logger.Warn("closing storage", "book", r.Name, "error", err)
		}
		out = append(out, bs)
	}
	return out
}

// Chapters converts a book's sidebar into tracker chapters, with hrefs
// resolved to page paths so ids match the tracked pages.
func Chapters(b *site.Book) []reader.Chapter {
	landing := b.Landing()
	var chapters []reader.Chapter
	for _, c := range b.Chapters() {
		href := c.Href
		if rel, ok := site.ResolveHref(landing, c.Href); ok {
			href = "/" + rel
		}
		chapters = append(chapters, reader.Chapter{Href: href, Title: c.Title})
	}
	return chapters
}
