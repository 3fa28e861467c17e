// Command readmark reads a static HTML book in the terminal and remembers how
// far you got.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/readmark/pkg/config"
	"github.com/Dicklesworthstone/readmark/pkg/export"
	"github.com/Dicklesworthstone/readmark/pkg/library"
	"github.com/Dicklesworthstone/readmark/pkg/progress"
	"github.com/Dicklesworthstone/readmark/pkg/reader"
	"github.com/Dicklesworthstone/readmark/pkg/site"
	"github.com/Dicklesworthstone/readmark/pkg/storage"
	"github.com/Dicklesworthstone/readmark/pkg/ui"
	"github.com/Dicklesworthstone/readmark/pkg/version"
)

func main() {
	bookDir := flag.String("book", ".", "Book output directory (HTML pages)")
	page := flag.String("page", "", "Page to open, relative to the book directory")
	configPath := flag.String("config", config.DefaultPath(), "Configuration file")
	storageFlag := flag.String("storage", "", "Storage backend: file, sqlite or memory")
	debug := flag.Bool("debug", false, "Log debug messages")
	showVersion := flag.Bool("version", false, "Show version")
	robotStats := flag.Bool("robot-stats", false, "Output reading statistics as JSON")
	robotRecord := flag.Bool("robot-record", false, "Output the persisted progress record as JSON")
	clearProgress := flag.Bool("clear", false, "Clear the book's reading progress")
	yes := flag.Bool("yes", false, "Do not ask for confirmation with --clear")
	exportMD := flag.String("export-md", "", "Export a Markdown progress report to this file")
	exportSVG := flag.String("export-svg", "", "Export an SVG progress chart to this file")
	exportPNG := flag.String("export-png", "", "Export a PNG progress chart to this file")
	exportSQLite := flag.String("export-sqlite", "", "Export progress to a SQLite database file")
	libraryPath := flag.String("library", "", "Library file listing several books (use with --robot-stats)")
	writeConfig := flag.Bool("write-config", false, "Write the effective configuration to the --config file and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("readmark %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *storageFlag != "" {
		if _, err := storage.ParseBackend(*storageFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Storage = *storageFlag
	}

	if *writeConfig {
		if err := cfg.Save(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *configPath)
		return
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	tui := interactive && !*robotStats && !*robotRecord && !*clearProgress && *libraryPath == "" &&
		*exportMD == "" && *exportSVG == "" && *exportPNG == "" && *exportSQLite == ""

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger, closeLog := newLogger(cfg.DataDir, level, tui)
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *libraryPath != "" {
		if err := runLibraryStats(ctx, *libraryPath, cfg, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	loader := site.NewLoader()
	loader.SetLogger(logger)
	book, err := loader.Load(ctx, *bookDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading book: %v\n", err)
		os.Exit(1)
	}

	st, err := storage.Open(cfg.Backend(), cfg.DataDir, book.Root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	opts := cfg.ReaderOptions()
	opts.Logger = logger
	store := progress.NewStore(st, progress.WithKey(opts.StorageKey), progress.WithLogger(logger))

	if *clearProgress {
		if err := runClear(book, st, store, *yes, interactive); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *robotRecord {
		if err := writeJSON(os.Stdout, store.Raw()); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding record: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *robotStats {
		stats := reader.ComputeStats(store.Load(), library.Chapters(book), opts.IDMode)
		if err := writeJSON(os.Stdout, stats); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding stats: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *exportMD != "" || *exportSVG != "" || *exportPNG != "" || *exportSQLite != "" {
		report := export.BuildReport(book, store.Load(), opts.IDMode, time.Now())
		if err := runExports(report, *exportMD, *exportSVG, *exportPNG, *exportSQLite); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if !interactive {
		stats := reader.ComputeStats(store.Load(), library.Chapters(book), opts.IDMode)
		fmt.Printf("%s: %d/%d chapters read (%d%%)\n", book.Title(), stats.ReadInBook, stats.Total, stats.Percentage)
		return
	}

	if err := runTUI(ctx, book, loader, st, opts, cfg, *page, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error running reader: %v\n", err)
		os.Exit(1)
	}
}

// newLogger logs to stderr, or to a file in the data directory while the
// reader owns the terminal.
func newLogger(dataDir string, level slog.Level, tui bool) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: level}
	if !tui {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "readmark.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	return slog.New(slog.NewTextHandler(f, opts)), func() { f.Close() }
}

func runTUI(ctx context.Context, book *site.Book, loader *site.Loader, st storage.Storage, opts reader.Options, cfg config.Config, page string, logger *slog.Logger) error {
	m := ui.NewModel(ui.Config{
		Book:    book,
		Loader:  loader,
		Storage: st,
		Options: opts,
		Page:    page,
		Style:   cfg.Theme,
		Logger:  logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	if cfg.WatchEnabled() {
		w, err := site.NewWatcher(book.Root, logger)
		if err != nil {
			logger.Warn("live reload disabled", "error", err)
		} else {
			defer w.Close()
			go func() {
				err := w.Run(ctx, func(paths []string) {
					p.Send(ui.PagesChangedMsg{Paths: paths})
				})
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("book watcher stopped", "error", err)
				}
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func runClear(book *site.Book, st storage.Storage, store *progress.Store, yes, interactive bool) error {
	if !yes {
		if !interactive {
			return errors.New("refusing to clear progress without --yes when not on a terminal")
		}
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Clear all reading progress for %q?", book.Title())).
			Description("Read chapters, scroll positions and the bookmark are removed.").
			Affirmative("Clear").
			Negative("Keep").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Kept reading progress.")
			return nil
		}
	}
	store.Clear()
	// Clear only logs storage failures; check the key is really gone.
	if _, ok, err := st.GetItem(store.Key()); err != nil || ok {
		if err == nil {
			err = errors.New("progress is still stored")
		}
		return fmt.Errorf("clearing reading progress: %w", err)
	}
	fmt.Println("Reading progress cleared.")
	return nil
}

func runExports(report export.Report, md, svg, png, sqlitePath string) error {
	if md != "" {
		if err := export.SaveMarkdownToFile(report, md); err != nil {
			return fmt.Errorf("exporting markdown: %w", err)
		}
		fmt.Printf("Wrote %s\n", md)
	}
	if svg != "" {
		if err := export.SaveChart(report, svg, export.WriteSVG); err != nil {
			return fmt.Errorf("exporting svg: %w", err)
		}
		fmt.Printf("Wrote %s\n", svg)
	}
	if png != "" {
		if err := export.SaveChart(report, png, export.WritePNG); err != nil {
			return fmt.Errorf("exporting png: %w", err)
		}
		fmt.Printf("Wrote %s\n", png)
	}
	if sqlitePath != "" {
		if err := export.NewSQLiteExporter(report).Export(sqlitePath); err != nil {
			return fmt.Errorf("exporting sqlite: %w", err)
		}
		fmt.Printf("Wrote %s\n", sqlitePath)
	}
	return nil
}

func runLibraryStats(ctx context.Context, path string, cfg config.Config, logger *slog.Logger) error {
	results, err := library.LoadAllFromFile(ctx, path)
	if err != nil {
		return err
	}
	summary := library.Summarize(results)
	if summary.FailedBooks > 0 {
		logger.Warn("some books failed to load", "books", summary.FailedBookNames)
	}
	opts := cfg.ReaderOptions()
	open := func(root string) (storage.Backing, error) {
		return storage.Open(cfg.Backend(), cfg.DataDir, root)
	}
	stats := library.CollectStats(results, open, opts.StorageKey, opts.IDMode, logger)
	return writeJSON(os.Stdout, stats)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
