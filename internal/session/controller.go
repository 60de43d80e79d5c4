package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/sfjuke/sfjuke/internal/input"
	"github.com/sfjuke/sfjuke/internal/library"
	"github.com/sfjuke/sfjuke/internal/metadata"
	"github.com/sfjuke/sfjuke/internal/renderer"
)

// Poller waits for the next command while alive reports true.
type Poller interface {
	Poll(ctx context.Context, alive func() bool) input.Command
}

// Exporter saves a track rendered with a voice.
type Exporter interface {
	Export(ctx context.Context, track, voice string) (string, error)
}

// Workspace hands out a scratch directory per cycle.
type Workspace interface {
	Acquire() (dir string, release func(), err error)
	Sweep() int
}

// Cleaner runs the session's cleanup steps.
type Cleaner interface {
	Cleanup()
}

// Options wires a Controller to its collaborators. Launcher and Poller are
// required.
type Options struct {
	Launcher  renderer.Launcher
	Poller    Poller
	Display   Display
	Exporter  Exporter
	Extractor metadata.Extractor
	Workspace Workspace
	Cleaner   Cleaner

	// ShowMetadata enables metadata extraction for each track.
	ShowMetadata bool
	// MaxPlay ends a cycle after this long. Zero waits for the renderer.
	MaxPlay time.Duration
	// Limiter throttles renderer starts.
	Limiter *rate.Limiter
	// StartVoice is the initial voice index.
	StartVoice int
}

// Controller runs a playback session.
type Controller struct {
	tracks []library.Track
	voices []library.VoiceProfile
	opts   Options

	cursor Cursor
	state  *StateMachine

	message      string
	messageIsErr bool

	mu      sync.Mutex
	current renderer.Process
}

// New validates the collections and returns a Controller positioned at the
// first track.
func New(tracks []library.Track, voices []library.VoiceProfile, opts Options) (*Controller, error) {
	if len(tracks) == 0 {
		return nil, library.ErrEmptyLibrary
	}
	if len(voices) == 0 {
		return nil, library.ErrEmptyVoiceSet
	}
	if opts.Launcher == nil || opts.Poller == nil {
		return nil, errors.New("session needs a launcher and a poller")
	}
	if opts.Display == nil {
		opts.Display = DisplayFunc(func(Frame) {})
	}

	c := &Controller{
		tracks: tracks,
		voices: voices,
		opts:   opts,
		cursor: Cursor{
			Voice:  Wrap(opts.StartVoice, len(voices)),
			Tracks: len(tracks),
			Voices: len(voices),
		},
		state: NewStateMachine(),
	}
	c.state.OnEnter(Rendering, c.stopRenderer)
	c.state.OnEnter(Terminating, c.shutdown)
	return c, nil
}

// Cursor returns the current position.
func (c *Controller) Cursor() Cursor {
	return c.cursor
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state.Current()
}

// Run plays until Quit, returning nil, or until ctx is done, returning the
// context's error. Either way the renderer is stopped and cleanup has run
// when Run returns.
func (c *Controller) Run(ctx context.Context) error {
	c.transition(Rendering)
	for {
		cmd, err := c.cycle(ctx)
		if err != nil {
			return c.terminate(err)
		}

		switch cmd {
		case input.Quit:
			log.Info("Quit requested")
			return c.terminate(nil)
		case input.Save:
			c.transition(Exporting)
			c.save(ctx)
			if err := ctx.Err(); err != nil {
				return c.terminate(err)
			}
		default:
			c.cursor.Apply(cmd)
		}
		c.transition(Rendering)
	}
}

// cycle plays the current pair and returns the command that ended it.
func (c *Controller) cycle(ctx context.Context) (input.Command, error) {
	if err := ctx.Err(); err != nil {
		return input.None, err
	}
	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return input.None, ctxErr
			}
			log.Debug("Spawn limiter refused", "error", err)
		}
	}

	track := c.tracks[c.cursor.Track]
	voice := c.voices[c.cursor.Voice]

	proc, startErr := c.opts.Launcher.Start(ctx, voice.Path, track.Path)
	if startErr != nil {
		log.Warn("Unable to start renderer", "track", track.Path, "voice", voice.Path, "error", startErr)
		proc = nil
	} else {
		c.setCurrent(proc)
	}

	dir, release := c.acquire()
	defer release()

	frame := c.frame(ctx, dir, startErr)
	c.transition(AwaitingInput)
	frame.State = AwaitingInput
	c.opts.Display.Show(frame)

	pollCtx := ctx
	if c.opts.MaxPlay > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, c.opts.MaxPlay)
		defer cancel()
	}
	alive := func() bool { return proc != nil && proc.Alive() }
	cmd := c.opts.Poller.Poll(pollCtx, alive)

	var exitErr error
	if proc != nil && !proc.Alive() {
		exitErr = proc.ExitErr()
	}
	c.stopRenderer()
	if err := ctx.Err(); err != nil {
		return input.None, err
	}
	if exitErr != nil {
		log.Warn("Renderer exited with an error", "track", track.Path, "voice", voice.Path, "error", exitErr)
		c.setMessage(fmt.Sprintf("%s stopped: %v", track.Name, exitErr), true)
	}
	log.Debug("Cycle finished", "track", c.cursor.Track, "voice", c.cursor.Voice, "command", cmd)
	return cmd, nil
}

func (c *Controller) acquire() (string, func()) {
	if c.opts.Workspace == nil {
		return "", func() {}
	}
	dir, release, err := c.opts.Workspace.Acquire()
	if err != nil {
		log.Warn("Unable to acquire cycle directory", "error", err)
		return "", func() {}
	}
	if n := c.opts.Workspace.Sweep(); n > 0 {
		log.Debug("Swept stray cycle directories", "count", n)
	}
	return dir, release
}

// frame builds the screen for the current position and consumes the
// pending message.
func (c *Controller) frame(ctx context.Context, dir string, renderErr error) Frame {
	f := Frame{
		State:        c.state.Current(),
		Track:        c.tracks[c.cursor.Track],
		TrackPos:     c.cursor.Track + 1,
		TrackTotal:   len(c.tracks),
		NextTrack:    c.tracks[c.cursor.NextTrack()],
		Voice:        c.voices[c.cursor.Voice],
		VoicePos:     c.cursor.Voice + 1,
		VoiceTotal:   len(c.voices),
		ShowMetadata: c.opts.ShowMetadata && c.opts.Extractor != nil,
		RenderErr:    renderErr,
		Message:      c.message,
		MessageIsErr: c.messageIsErr,
		MaxPlay:      c.opts.MaxPlay,
	}
	c.message, c.messageIsErr = "", false

	if f.ShowMetadata {
		res, err := c.opts.Extractor.Extract(ctx, f.Track.Path, dir)
		f.Metadata = res
		switch {
		case err != nil:
			log.Debug("Metadata extraction failed", "track", f.Track.Path, "error", err)
			f.MetadataErr = err
		case !res.Available():
			f.MetadataErr = metadata.ErrUnavailable
		}
	}
	return f
}

func (c *Controller) save(ctx context.Context) {
	track := c.tracks[c.cursor.Track]
	voice := c.voices[c.cursor.Voice]

	c.opts.Display.Show(Frame{
		State:      Exporting,
		Track:      track,
		TrackPos:   c.cursor.Track + 1,
		TrackTotal: len(c.tracks),
		NextTrack:  c.tracks[c.cursor.NextTrack()],
		Voice:      voice,
		VoicePos:   c.cursor.Voice + 1,
		VoiceTotal: len(c.voices),
		Message:    fmt.Sprintf("Saving %s with %s...", track.Name, voice.Name),
	})

	if c.opts.Exporter == nil {
		c.setMessage("Export is not available", true)
		return
	}
	path, err := c.opts.Exporter.Export(ctx, track.Path, voice.Path)
	if err != nil {
		log.Error("Export failed", "track", track.Path, "voice", voice.Path, "error", err)
		c.setMessage(err.Error(), true)
		return
	}
	c.setMessage("Saved "+path, false)
}

func (c *Controller) setMessage(msg string, isErr bool) {
	c.message, c.messageIsErr = msg, isErr
}

func (c *Controller) transition(to State) {
	from := c.state.Current()
	if !c.state.Transition(to) {
		log.Debug("Ignoring illegal state transition", "from", from, "to", to)
	}
}

func (c *Controller) terminate(err error) error {
	c.transition(Terminating)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("Session ended", "error", err)
	}
	return err
}

// shutdown runs on entering Terminating. The renderer goes first so it is
// never alive while the workspace is removed.
func (c *Controller) shutdown() {
	c.stopRenderer()
	if c.opts.Cleaner != nil {
		c.opts.Cleaner.Cleanup()
	}
}

func (c *Controller) setCurrent(p renderer.Process) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = p
}

// stopRenderer terminates the current renderer, if any.
func (c *Controller) stopRenderer() {
	c.mu.Lock()
	p := c.current
	c.current = nil
	c.mu.Unlock()

	if p == nil {
		return
	}
	if err := p.Terminate(); err != nil {
		log.Warn("Unable to stop renderer", "pid", p.Pid(), "error", err)
	}
}

// Name implements lifecycle.Component.
func (c *Controller) Name() string {
	return "renderer"
}

// Shutdown implements lifecycle.Component. It only stops the renderer, so it
// is safe to call from a signal goroutine while Run is still unwinding.
func (c *Controller) Shutdown(context.Context) error {
	c.stopRenderer()
	return nil
}
