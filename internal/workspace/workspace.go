// Package workspace manages the temporary directories a session writes to.
//
// A session owns one root directory. Each playback cycle borrows a
// sub-directory from it and gives it back when the cycle ends, so at most one
// cycle directory is live at a time.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

const (
	rootPrefix  = "sfjuke-session-"
	cyclePrefix = "cycle-"
)

// ErrClosed is returned by Acquire after Remove.
var ErrClosed = errors.New("workspace removed")

// Workspace is the per-session temporary root.
type Workspace struct {
	root string

	mu     sync.Mutex
	active string
	closed bool
}

// New creates a session root under base, or under the system temp directory
// when base is empty. The directory name carries the process id so sessions
// that crashed can be found later by SweepStale.
func New(base string) (*Workspace, error) {
	if base == "" {
		base = os.TempDir()
	}
	root, err := os.MkdirTemp(base, rootPrefix+strconv.Itoa(os.Getpid())+"-*")
	if err != nil {
		return nil, fmt.Errorf("unable to create session directory: %w", err)
	}
	log.Debug("Session workspace created", "root", root)
	return &Workspace{root: root}, nil
}

// Root returns the session root directory.
func (w *Workspace) Root() string {
	return w.root
}

// Path returns a path below the session root.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.root}, elem...)...)
}

// Acquire creates a fresh cycle directory. The returned release func removes
// it and is safe to call more than once.
func (w *Workspace) Acquire() (string, func(), error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return "", func() {}, ErrClosed
	}

	dir, err := os.MkdirTemp(w.root, cyclePrefix+"*")
	if err != nil {
		return "", func() {}, fmt.Errorf("unable to create cycle directory: %w", err)
	}
	w.active = dir

	var once sync.Once
	release := func() {
		once.Do(func() {
			w.mu.Lock()
			if w.active == dir {
				w.active = ""
			}
			w.mu.Unlock()
			if err := os.RemoveAll(dir); err != nil {
				log.Warn("Unable to remove cycle directory", "dir", dir, "error", err)
			}
		})
	}
	return dir, release, nil
}

// Sweep removes cycle directories other than the active one and returns how
// many it removed. Failures are logged and skipped.
func (w *Workspace) Sweep() int {
	w.mu.Lock()
	active := w.active
	w.mu.Unlock()

	entries, err := os.ReadDir(w.root)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug("Unable to sweep workspace", "root", w.root, "error", err)
		}
		return 0
	}

	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), cyclePrefix) {
			continue
		}
		dir := filepath.Join(w.root, e.Name())
		if dir == active {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			log.Debug("Unable to remove stray cycle directory", "dir", dir, "error", err)
			continue
		}
		removed++
	}
	return removed
}

// Remove deletes the session root and everything in it.
func (w *Workspace) Remove() error {
	w.mu.Lock()
	w.closed = true
	w.active = ""
	w.mu.Unlock()

	if err := os.RemoveAll(w.root); err != nil {
		return fmt.Errorf("unable to remove session directory: %w", err)
	}
	log.Debug("Session workspace removed", "root", w.root)
	return nil
}

// Name implements lifecycle.Component.
func (w *Workspace) Name() string {
	return "workspace"
}

// Shutdown implements lifecycle.Component.
func (w *Workspace) Shutdown(context.Context) error {
	return w.Remove()
}

// SweepStale removes session roots under base left behind by processes that
// are no longer running.
func SweepStale(base string) int {
	if base == "" {
		base = os.TempDir()
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return 0
	}

	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), rootPrefix) {
			continue
		}
		pid, ok := sessionPid(e.Name())
		if !ok || pid == os.Getpid() || processAlive(pid) {
			continue
		}
		dir := filepath.Join(base, e.Name())
		if err := os.RemoveAll(dir); err != nil {
			log.Debug("Unable to remove stale session", "dir", dir, "error", err)
			continue
		}
		log.Debug("Removed stale session", "dir", dir, "pid", pid)
		removed++
	}
	return removed
}

// sessionPid extracts the pid from "sfjuke-session-<pid>-<random>".
func sessionPid(name string) (int, bool) {
	rest := strings.TrimPrefix(name, rootPrefix)
	i := strings.IndexByte(rest, '-')
	if i <= 0 {
		return 0, false
	}
	pid, err := strconv.Atoi(rest[:i])
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
