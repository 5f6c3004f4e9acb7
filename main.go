package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"chessclient/internal/board"
	"chessclient/internal/clock"
	"chessclient/internal/config"
	"chessclient/internal/game"
	"chessclient/internal/logging"
	"chessclient/internal/session"
	"chessclient/internal/storage"
	"chessclient/internal/theme"
	"chessclient/internal/toast"
	"chessclient/internal/tui"
	"chessclient/pkg/utils"
)

func main() {
	cfg, err := config.Parse(os.Args[1:], os.Getenv)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "chessclient:", err)
		os.Exit(2)
	}
	if cfg.Version {
		fmt.Println(versionString())
		return
	}
	logging.Debug = cfg.Debug

	if err := run(cfg); err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if !cfg.Headless {
		path := cfg.LogFile
		if path == "" {
			path = filepath.Join(os.TempDir(), "chessclient.log")
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logging.SetOutput(f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	playerID := cfg.PlayerID
	if playerID == "" {
		playerID = utils.RandomID("player", 4)
	}
	url, err := config.GameURL(cfg.Server, cfg.GameID, playerID)
	if err != nil {
		return err
	}

	var store *storage.Store
	if cfg.DSN != "" {
		db, err := storage.New(cfg.DSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		store = storage.NewStore(db)
	}
	archived := 0
	if store != nil {
		moves, err := store.LoadMoves(ctx, cfg.GameID)
		if err != nil {
			logging.Warnf("load archived moves: %v", err)
		}
		archived = len(moves)
		logging.Infof("game %s has %d archived moves", cfg.GameID, archived)
	}

	themes := theme.New(themeBackend(cfg, store, playerID), theme.WithSystem(theme.SystemFromEnv(os.Getenv)))
	logging.Infof("theme %s", themes.Theme())

	clk := clock.Real{}
	g := game.New(cfg.GameID)
	sink := toast.NewSink(clk, cfg.ToastTTL)
	b := board.New(g, board.Options{
		Player:       playerID,
		Variant:      cfg.Variant,
		Clock:        clk,
		HighlightFor: cfg.HighlightFor,
	})

	opts := session.Options{
		URL:           url,
		GameID:        cfg.GameID,
		PlayerID:      playerID,
		UserAgent:     userAgent(),
		BaseDelay:     cfg.BaseDelay,
		MaxAttempts:   cfg.MaxAttempts,
		PingInterval:  cfg.PingInterval,
		Clock:         clk,
		View:          g,
		Board:         b,
		Notifier:      sink,
		ArchivedMoves: archived,
	}
	if store != nil {
		opts.Archive = store
	}
	s := session.New(opts)
	b.SetSender(s)
	b.LoadSetup()

	defer func() {
		if s.State() != session.StateDestroyed {
			_ = s.Leave()
		}
	}()
	if err := s.Connect(ctx); err != nil {
		logging.Warnf("initial connect: %v", err)
	}

	if cfg.Headless {
		runHeadless(ctx, g, sink)
		return nil
	}
	return tui.New(g, b, s, sink, themes, playerID).Run(ctx)
}

func themeBackend(cfg config.Config, store *storage.Store, playerID string) theme.Backend {
	if store != nil {
		return storage.ThemeBackend{Store: store, PlayerID: playerID}
	}
	path := cfg.ThemeFile
	if path == "" {
		p, err := theme.DefaultPath()
		if err != nil {
			logging.Warnf("no config dir, theme kept in memory: %v", err)
			return nil
		}
		path = p
	}
	return theme.FileBackend{Path: path}
}

// runHeadless logs what the board would show until ctx is done.
func runHeadless(ctx context.Context, g *game.Game, sink *toast.Sink) {
	var mu sync.Mutex
	lastID := 0
	sink.OnChange(func() {
		mu.Lock()
		defer mu.Unlock()
		for _, t := range sink.Active() {
			if t.ID > lastID {
				lastID = t.ID
				logging.Infof("[%s] %s", t.Level, t.Message)
			}
		}
	})

	changed := make(chan struct{}, 1)
	g.AddWatcher(changed)
	defer g.RemoveWatcher(changed)

	seen := 0
	turn := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
			snap := g.Snapshot()
			for _, e := range snap.History[seen:] {
				logging.Infof("move %s", e)
			}
			seen = len(snap.History)
			if snap.CurrentPlayer != turn {
				turn = snap.CurrentPlayer
				logging.Infof("turn: %s", turn)
			}
		case <-time.After(time.Minute):
			logging.Debugf("still watching game %s", g.ID)
		}
	}
}
