// Package renderer launches and supervises the external synthesizer that
// plays a track through a SoundFont.
//
// A Handle owns exactly one OS process. Liveness comes from the handle's own
// Wait, so a Handle never reports on a process it did not start.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ErrStart is returned when the renderer process cannot be started.
var ErrStart = errors.New("renderer failed to start")

// DefaultGrace is how long a renderer gets to exit after SIGTERM before it is
// killed.
const DefaultGrace = 2 * time.Second

// Process is a running renderer.
type Process interface {
	Alive() bool
	Terminate() error
	Pid() int
	// ExitErr is the result of a process that has exited on its own or
	// been terminated. It is nil while the process is alive.
	ExitErr() error
}

// Launcher starts a renderer for a voice and a track.
type Launcher interface {
	Start(ctx context.Context, voice, track string) (Process, error)
}

// Config describes how the synthesizer is invoked.
type Config struct {
	Binary      string
	AudioDriver string
	MidiDriver  string
	// Gain is passed with -g when positive.
	Gain      float64
	ExtraArgs []string
	Grace     time.Duration
}

// DefaultConfig mirrors the command line the player has always used:
// fluidsynth -a pulseaudio -m alsa_seq -i voice track.
func DefaultConfig() Config {
	return Config{
		Binary:      "fluidsynth",
		AudioDriver: "pulseaudio",
		MidiDriver:  "alsa_seq",
		Grace:       DefaultGrace,
	}
}

// PlayArgs returns the synthesizer arguments for live playback.
func (c Config) PlayArgs(voice, track string) []string {
	var args []string
	if c.AudioDriver != "" {
		args = append(args, "-a", c.AudioDriver)
	}
	if c.MidiDriver != "" {
		args = append(args, "-m", c.MidiDriver)
	}
	args = append(args, "-i")
	if c.Gain > 0 {
		args = append(args, "-g", strconv.FormatFloat(c.Gain, 'f', -1, 64))
	}
	args = append(args, c.ExtraArgs...)
	return append(args, voice, track)
}

// Fluidsynth is the Launcher that plays through the configured synthesizer.
type Fluidsynth struct {
	Config Config
}

// NewFluidsynth returns a launcher for cfg.
func NewFluidsynth(cfg Config) *Fluidsynth {
	return &Fluidsynth{Config: cfg}
}

// Start implements Launcher.
func (f *Fluidsynth) Start(ctx context.Context, voice, track string) (Process, error) {
	for _, p := range []string{voice, track} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStart, err)
		}
	}
	return Spawn(ctx, f.Config.Grace, f.Config.Binary, f.Config.PlayArgs(voice, track)...)
}

// Handle supervises one renderer process.
type Handle struct {
	cmd   *exec.Cmd
	grace time.Duration

	done chan struct{}
	err  error

	stop sync.Once
}

// Spawn starts name with args in its own process group. When ctx is
// cancelled the process is terminated.
func Spawn(ctx context.Context, grace time.Duration, name string, args ...string) (*Handle, error) {
	if grace <= 0 {
		grace = DefaultGrace
	}

	cmd := exec.Command(name, args...)
	out := newLogWriter(name)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = grace
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStart, err)
	}

	h := &Handle{
		cmd:   cmd,
		grace: grace,
		done:  make(chan struct{}),
	}
	log.Debug("Renderer started", "cmd", name, "pid", cmd.Process.Pid)

	unwatch := context.AfterFunc(ctx, func() { _ = h.Terminate() })
	go func() {
		h.err = cmd.Wait()
		out.Flush()
		unwatch()
		log.Debug("Renderer exited", "pid", cmd.Process.Pid, "err", h.err)
		close(h.done)
	}()
	return h, nil
}

// Pid returns the process id of the renderer.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Alive reports whether the process has not exited yet. It never blocks.
func (h *Handle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// ExitErr returns the result of Wait, or nil while the process runs.
func (h *Handle) ExitErr() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Terminate asks the process group to exit, waits for the grace period and
// then kills it. It is safe to call more than once and on a process that has
// already exited.
func (h *Handle) Terminate() error {
	h.stop.Do(func() {
		if !h.Alive() {
			return
		}
		pid := h.Pid()
		log.Debug("Terminating renderer", "pid", pid)
		if err := interrupt(h.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
			log.Debug("Failed to signal renderer", "pid", pid, "error", err)
		}

		timer := time.NewTimer(h.grace)
		defer timer.Stop()
		select {
		case <-h.done:
			return
		case <-timer.C:
		}

		log.Warn("Renderer did not exit in time, killing", "pid", pid, "grace", h.grace)
		if err := kill(h.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
			log.Error("Failed to kill renderer", "pid", pid, "error", err)
		}
		<-h.done
	})
	return nil
}
