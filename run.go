package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/sfjuke/sfjuke/internal/config"
	"github.com/sfjuke/sfjuke/internal/export"
	"github.com/sfjuke/sfjuke/internal/input"
	"github.com/sfjuke/sfjuke/internal/library"
	"github.com/sfjuke/sfjuke/internal/lifecycle"
	"github.com/sfjuke/sfjuke/internal/metadata"
	"github.com/sfjuke/sfjuke/internal/proc"
	"github.com/sfjuke/sfjuke/internal/renderer"
	"github.com/sfjuke/sfjuke/internal/session"
	"github.com/sfjuke/sfjuke/internal/workspace"
	"github.com/sfjuke/sfjuke/ui"
)

// runSession checks the environment, loads the library and plays it until
// the user quits or a signal arrives.
func runSession(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	report := checkDependencies(ctx, cfg)
	if err := report.Err(); err != nil {
		fmt.Fprintln(os.Stderr, report.Render())
		return err
	}

	tracks, err := library.EnumerateTracks(cfg.Library.Dir, library.Options{Shuffle: cfg.Library.Shuffle})
	if err != nil {
		return fmt.Errorf("unable to read library %s: %w", cfg.Library.Dir, err)
	}
	voices, err := library.EnumerateVoices(cfg.Library.Voices)
	if err != nil {
		return fmt.Errorf("unable to read soundfonts in %s: %w", cfg.Library.Voices, err)
	}
	log.Info("Library loaded", "tracks", len(tracks), "soundfonts", len(voices))

	startVoice := 0
	if voiceQuery != "" {
		i, ok := library.FindVoice(voices, voiceQuery)
		if !ok {
			return fmt.Errorf("no soundfont matches %q", voiceQuery)
		}
		startVoice = i
	}

	uiCfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	mgr := lifecycle.New()
	defer mgr.Cleanup()
	defer mgr.Recover()

	if n := workspace.SweepStale(""); n > 0 {
		log.Info("Removed stale session directories", "count", n)
	}
	ws, err := workspace.New("")
	if err != nil {
		return err
	}
	mgr.Register(ws)

	ctx, stop, tty, err := openInput(ctx, mgr, func() (terminal, error) {
		return input.OpenTerminal(os.Stdin)
	})
	if err != nil {
		return err
	}
	defer stop()

	runner := proc.NewExec(proc.DefaultTimeout)
	extractor, err := newExtractor(cfg, runner, ws)
	if err != nil {
		return err
	}
	if c, ok := extractor.(*metadata.Cached); ok {
		mgr.RegisterFunc("metadata cache", func(context.Context) error {
			return c.Cache.Close()
		})
	}

	exporter := export.New(cfg.Export.Dir,
		&export.Fluidsynth{Binary: cfg.Renderer.Binary, Gain: cfg.Renderer.Gain, Runner: runner},
		&export.Lame{Binary: cfg.Export.Encoder, Bitrate: cfg.Export.Bitrate, Runner: runner},
	)
	exporter.CopyPath = cfg.Export.CopyPath

	var limiter *rate.Limiter
	if cfg.Renderer.MaxSpawnRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Renderer.MaxSpawnRate), 1)
	}

	keys := input.DefaultKeyMap()
	poller := input.NewPoller(tty, cfg.Input.Interval)
	poller.Keys = keys

	ctrl, err := session.New(tracks, voices, session.Options{
		Launcher:     renderer.NewFluidsynth(cfg.RendererConfig()),
		Poller:       poller,
		Display:      ui.NewScreen(os.Stdout, uiCfg, keys),
		Exporter:     exporter,
		Extractor:    extractor,
		Workspace:    ws,
		Cleaner:      mgr,
		ShowMetadata: cfg.ShowMetadata(),
		MaxPlay:      cfg.Session.MaxPlay,
		Limiter:      limiter,
		StartVoice:   startVoice,
	})
	if err != nil {
		return err
	}
	// Registered last so the renderer is stopped before the terminal is
	// restored and the workspace removed.
	mgr.Register(ctrl)

	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// terminal is the keyboard as the session sees it.
type terminal interface {
	input.KeySource
	lifecycle.Component
}

// openInput installs the signal handler and only then puts the terminal in
// cbreak mode, so a signal can never leave the terminal unrestored. The
// terminal is registered with mgr.
func openInput(ctx context.Context, mgr *lifecycle.Manager, open func() (terminal, error)) (context.Context, context.CancelFunc, terminal, error) {
	ctx, stop := mgr.Watch(ctx, os.Exit)
	tty, err := open()
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	mgr.Register(tty)
	return ctx, stop, tty, nil
}

// newExtractor returns the configured metadata backend, cached for the
// lifetime of the session.
func newExtractor(cfg config.Config, runner proc.Runner, ws *workspace.Workspace) (metadata.Extractor, error) {
	if !cfg.ShowMetadata() {
		return nil, nil
	}

	var next metadata.Extractor
	switch cfg.Metadata.Backend {
	case config.BackendSMF:
		next = metadata.SMF{}
	default:
		next = metadata.NewMidicsv(cfg.Metadata.Midicsv, runner)
	}

	cache, err := metadata.NewCache(ws.Path("metadata"))
	if err != nil {
		log.Warn("Metadata cache disabled", "error", err)
		return next, nil
	}
	return &metadata.Cached{Next: next, Cache: cache}, nil
}
