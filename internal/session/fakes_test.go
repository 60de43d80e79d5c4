package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sfjuke/sfjuke/internal/input"
	"github.com/sfjuke/sfjuke/internal/library"
	"github.com/sfjuke/sfjuke/internal/metadata"
	"github.com/sfjuke/sfjuke/internal/renderer"
)

func tracks(names ...string) []library.Track {
	out := make([]library.Track, len(names))
	for i, n := range names {
		out[i] = library.Track{Path: "/lib/" + n, Name: n}
	}
	return out
}

func voices(names ...string) []library.VoiceProfile {
	out := make([]library.VoiceProfile, len(names))
	for i, n := range names {
		out[i] = library.VoiceProfile{Path: "/sf/" + n, Name: n}
	}
	return out
}

type fakeProcess struct {
	l          *fakeLauncher
	pid        int
	mu         sync.Mutex
	alive      bool
	terminates int
	exitErr    error
}

func (p *fakeProcess) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) ExitErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitErr
}

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.terminates++
	if p.alive {
		p.alive = false
		p.l.exited()
	}
	return nil
}

// exit simulates the renderer finishing on its own.
func (p *fakeProcess) exit() {
	p.exitWith(nil)
}

// exitWith simulates the renderer dying with err.
func (p *fakeProcess) exitWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.alive {
		p.exitErr = err
		p.alive = false
		p.l.exited()
	}
}

type start struct {
	voice, track string
}

type fakeLauncher struct {
	mu       sync.Mutex
	starts   []start
	procs    []*fakeProcess
	alive    int
	maxAlive int
	// fail makes Start fail for these track paths.
	fail map[string]bool
}

func (l *fakeLauncher) Start(_ context.Context, voice, track string) (renderer.Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.starts = append(l.starts, start{voice: voice, track: track})
	if l.fail[track] {
		return nil, fmt.Errorf("%w: boom", renderer.ErrStart)
	}
	p := &fakeProcess{l: l, pid: 1000 + len(l.procs), alive: true}
	l.procs = append(l.procs, p)
	l.alive++
	if l.alive > l.maxAlive {
		l.maxAlive = l.alive
	}
	return p, nil
}

func (l *fakeLauncher) exited() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.alive--
}

func (l *fakeLauncher) trackSequence(all []library.Track) []int {
	var seq []int
	for _, s := range l.starts {
		for i, tr := range all {
			if tr.Path == s.track {
				seq = append(seq, i)
			}
		}
	}
	return seq
}

func (l *fakeLauncher) voiceSequence(all []library.VoiceProfile) []int {
	var seq []int
	for _, s := range l.starts {
		for i, v := range all {
			if v.Path == s.voice {
				seq = append(seq, i)
			}
		}
	}
	return seq
}

// scriptedPoller returns queued commands while the renderer is alive, and
// Quit when the script runs out. A dead renderer yields None without
// consuming the script.
type scriptedPoller struct {
	script []input.Command
	polls  int
	// onPoll runs before each poll with the number of previous polls.
	onPoll func(n int)
}

func (p *scriptedPoller) Poll(ctx context.Context, alive func() bool) input.Command {
	if p.onPoll != nil {
		p.onPoll(p.polls)
	}
	p.polls++
	if ctx.Err() != nil || !alive() {
		return input.None
	}
	if len(p.script) == 0 {
		return input.Quit
	}
	cmd := p.script[0]
	p.script = p.script[1:]
	return cmd
}

type recordingDisplay struct {
	frames []Frame
}

func (d *recordingDisplay) Show(f Frame) { d.frames = append(d.frames, f) }

func (d *recordingDisplay) awaiting() []Frame {
	var out []Frame
	for _, f := range d.frames {
		if f.State == AwaitingInput {
			out = append(out, f)
		}
	}
	return out
}

type fakeExporter struct {
	calls []start
	err   error
}

func (e *fakeExporter) Export(_ context.Context, track, voice string) (string, error) {
	e.calls = append(e.calls, start{voice: voice, track: track})
	if e.err != nil {
		return "", e.err
	}
	return "/out/" + track + ".mp3", nil
}

type fakeWorkspace struct {
	outstanding    int
	maxOutstanding int
	acquired       int
	sweeps         int
	err            error
}

func (w *fakeWorkspace) Acquire() (string, func(), error) {
	if w.err != nil {
		return "", nil, w.err
	}
	w.acquired++
	w.outstanding++
	if w.outstanding > w.maxOutstanding {
		w.maxOutstanding = w.outstanding
	}
	var once sync.Once
	return fmt.Sprintf("/tmp/cycle-%d", w.acquired), func() {
		once.Do(func() { w.outstanding-- })
	}, nil
}

func (w *fakeWorkspace) Sweep() int {
	w.sweeps++
	return 0
}

type countingCleaner struct {
	runs int
	// alive is sampled at cleanup time.
	l            *fakeLauncher
	aliveAtClean int
}

func (c *countingCleaner) Cleanup() {
	c.runs++
	if c.l != nil {
		c.l.mu.Lock()
		c.aliveAtClean = c.l.alive
		c.l.mu.Unlock()
	}
}

type fakeExtractor struct {
	lines []string
	err   error
	calls []string
}

func (e *fakeExtractor) Extract(_ context.Context, track, workdir string) (metadata.Result, error) {
	e.calls = append(e.calls, workdir)
	if e.err != nil {
		return metadata.Result{}, e.err
	}
	return metadata.Result{Details: metadata.Details{Name: track}, Lines: e.lines}, nil
}

var errExportBroken = errors.New("lame crashed")
