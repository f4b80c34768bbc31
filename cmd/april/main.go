package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amm926616/april/internal/app"
	"github.com/amm926616/april/internal/config"
	"github.com/amm926616/april/internal/library"
	"github.com/amm926616/april/internal/logging"
	"github.com/amm926616/april/internal/notes"
	"github.com/amm926616/april/internal/player"
	"github.com/amm926616/april/internal/store"
	"github.com/amm926616/april/internal/ui"
)

var version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `April - a terminal music player with synced lyrics

Usage: april [options]

Options:
  -config string
        Path to config file (default: ~/.config/april/config.toml)
  -version
        Print version and exit

Library:
  -doctor
        Check configuration and dependencies
  -scan
        Scan library roots, refresh the cache and print counts
  -tree
        Print the artist / album / track tree
  -search string
        Filter the tree and print matches, best first

Lyrics:
  -lyrics string
        Print the synced lyrics for an audio file
  -play
        With -lyrics, play the file and print lines as they are reached

Examples:
  april                                  # Start interactive TUI
  april -scan                            # Rescan music library
  april -search "yesterdy"               # Fuzzy search
  april -lyrics song.mp3 -play           # Karaoke in the terminal

`)
	}

	cfgPath := flag.String("config", "", "")
	showVersion := flag.Bool("version", false, "")
	doctor := flag.Bool("doctor", false, "")
	scan := flag.Bool("scan", false, "")
	tree := flag.Bool("tree", false, "")
	query := flag.String("search", "", "")
	lyricsFor := flag.String("lyrics", "", "")
	play := flag.Bool("play", false, "")
	flag.Parse()

	if *showVersion {
		fmt.Println("april", version)
		return
	}

	cfg, resolvedPath, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, logFile, err := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("setup logging: %v", err)
	}
	defer logFile.Close()
	slog.SetDefault(logger)
	logger.Info("starting april", slog.String("config", resolvedPath))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *doctor {
		runDoctor(cfg, resolvedPath)
		return
	}
	if *lyricsFor != "" {
		if err := runLyrics(ctx, os.Stdout, cfg, *lyricsFor, *play, logger); err != nil {
			log.Fatalf("lyrics: %v", err)
		}
		return
	}

	db, lib, err := openLibrary(cfg, logger)
	if err != nil {
		log.Fatalf("open library: %v", err)
	}
	defer db.Close()

	switch {
	case *scan:
		start := time.Now()
		idx, err := lib.Refresh(ctx)
		if err != nil {
			log.Fatalf("scan: %v", err)
		}
		fmt.Printf("Scan complete in %s\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("  %d tracks, %d artists\n", idx.Len(), len(idx.Artists))
		return
	case *tree, *query != "":
		idx, err := loadIndex(ctx, cfg, lib)
		if err != nil {
			log.Fatalf("load library: %v", err)
		}
		if *tree {
			printTree(os.Stdout, idx)
		} else {
			printSearch(os.Stdout, idx, *query, cfg.Search.FuzzyThreshold)
		}
		return
	}

	if err := runTUI(ctx, cfg, db, lib, logger); err != nil {
		logger.Error("run tui", slog.Any("err", err))
		log.Fatalf("tui: %v", err)
	}
}

func openLibrary(cfg *config.Config, logger *slog.Logger) (*store.DB, *library.Library, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Library.CacheDB), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := store.Open(cfg.Library.CacheDB, logger)
	if err != nil {
		return nil, nil, err
	}
	lib := library.New(library.NewCache(db), library.Options{
		Roots:      cfg.Library.Roots,
		Extensions: cfg.Library.Extensions,
		Workers:    cfg.Library.Workers,
		Reader:     library.FileTagReader{ProbeDuration: cfg.Library.ProbeDuration},
		Logger:     logger,
	})
	return db, lib, nil
}

// loadIndex rescans unless scanning on start is disabled.
func loadIndex(ctx context.Context, cfg *config.Config, lib *library.Library) (*library.Index, error) {
	if cfg.Library.ScanOnStartEnabled() {
		return lib.Refresh(ctx)
	}
	return lib.Cached(ctx)
}

func runTUI(ctx context.Context, cfg *config.Config, db *store.DB, lib *library.Library, logger *slog.Logger) error {
	if err := cfg.CheckMPV(); err != nil {
		return err
	}
	ctrl := player.New(player.Options{
		MPVPath: cfg.Player.MPVPath,
		IPCPath: cfg.Player.IPC,
		Logger:  logger,
	})
	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("start player: %w", err)
	}
	defer ctrl.Stop()

	deps := app.Deps{
		Library: lib,
		Notes:   notes.NewStore(db, logger),
		Player:  ctrl,
		Events:  ctrl.Events(),
		Logger:  logger,
		Theme:   ui.Current(),
	}
	if cfg.Library.WatchEnabled() {
		w, err := library.NewWatcher(cfg.Library.Roots, cfg.Library.Extensions, library.DefaultSettle, logger)
		if err != nil {
			logger.Warn("library watcher unavailable", slog.Any("err", err))
		} else {
			go w.Run(ctx)
			deps.Changes = w.Changes()
		}
	}

	model := app.New(cfg, deps)
	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if m, ok := final.(app.Model); ok {
		m.Close()
	} else {
		model.Close()
	}
	return err
}

func runDoctor(cfg *config.Config, path string) {
	fmt.Println("April doctor")
	fmt.Printf("Config file: %s\n", path)

	if err := cfg.CheckMPV(); err != nil {
		fmt.Printf("mpv (%s): NOT FOUND\n", cfg.Player.MPVPath)
	} else {
		fmt.Println("mpv: OK")
	}
	if p, err := exec.LookPath("ffprobe"); err != nil {
		fmt.Println("ffprobe: NOT FOUND (optional, for duration detection)")
	} else {
		fmt.Printf("ffprobe: OK (%s)\n", p)
	}
	for _, r := range cfg.Library.Roots {
		fmt.Printf("Library root: %s\n", r)
	}
	for _, r := range cfg.MissingRoots() {
		fmt.Printf("  missing: %s\n", r)
	}
	fmt.Printf("Cache: %s\n", cfg.Library.CacheDB)
}
