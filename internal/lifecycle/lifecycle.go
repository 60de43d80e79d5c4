// Package lifecycle runs the session's cleanup steps exactly once, however
// the program ends: a quit key, a fatal error, a panic or a signal.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultForceTimeout is how long a signal waits for the session loop to
// unwind before cleanup runs from the signal goroutine.
const DefaultForceTimeout = 5 * time.Second

// Component is something that must be released on exit.
type Component interface {
	// Name returns the component name for logging
	Name() string
	Shutdown(ctx context.Context) error
}

type funcComponent struct {
	name string
	fn   func(context.Context) error
}

func (f funcComponent) Name() string                       { return f.name }
func (f funcComponent) Shutdown(ctx context.Context) error { return f.fn(ctx) }

// Manager holds the registered cleanup steps.
type Manager struct {
	mu         sync.Mutex
	components []Component

	once sync.Once
	runs atomic.Int32
	done chan struct{}

	// ForceTimeout bounds both the wait for the loop after a signal and the
	// context handed to each Shutdown.
	ForceTimeout time.Duration
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{
		done:         make(chan struct{}),
		ForceTimeout: DefaultForceTimeout,
	}
}

// Register adds a component. Components shut down in reverse order of
// registration.
func (m *Manager) Register(c Component) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		log.Warn("Cannot register component after cleanup", "component", c.Name())
		return
	default:
	}
	m.components = append(m.components, c)
	log.Debug("Registered lifecycle component", "name", c.Name())
}

// RegisterFunc registers fn under name.
func (m *Manager) RegisterFunc(name string, fn func(context.Context) error) {
	m.Register(funcComponent{name: name, fn: fn})
}

// Cleanup shuts every component down. Only the first call does any work.
// Errors and panics from components are logged and swallowed.
func (m *Manager) Cleanup() {
	m.once.Do(func() {
		m.runs.Add(1)
		defer close(m.done)

		m.mu.Lock()
		components := make([]Component, len(m.components))
		copy(components, m.components)
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), m.ForceTimeout)
		defer cancel()

		log.Debug("Starting cleanup", "components", len(components))
		for i := len(components) - 1; i >= 0; i-- {
			shutdown(ctx, components[i])
		}
		log.Debug("Cleanup complete")
	})
}

func shutdown(ctx context.Context, c Component) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Component panicked during cleanup", "name", c.Name(), "panic", r)
		}
	}()
	log.Debug("Shutting down component", "name", c.Name())
	if err := c.Shutdown(ctx); err != nil {
		log.Warn("Component shutdown failed", "name", c.Name(), "error", err)
	}
}

// Runs reports how many times cleanup has executed. It is never more than
// one.
func (m *Manager) Runs() int {
	return int(m.runs.Load())
}

// Done is closed when cleanup has finished.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Signals are the signals that end a session.
var Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// Watch returns a context that is cancelled on the first of Signals. The
// session loop is expected to notice, clean up and return. If it has not
// done so within ForceTimeout, Watch runs Cleanup itself and calls exit(1).
// The returned stop func releases the signal handler.
func (m *Manager) Watch(parent context.Context, exit func(int)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, Signals...)

	go func() {
		select {
		case sig := <-sigCh:
			log.Info("Received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
			return
		}

		timer := time.NewTimer(m.ForceTimeout)
		defer timer.Stop()
		select {
		case <-m.done:
		case <-timer.C:
			log.Warn("Session did not stop in time, forcing cleanup", "timeout", m.ForceTimeout)
			m.Cleanup()
			if exit != nil {
				exit(1)
			}
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// Recover runs Cleanup and re-panics. Use it as a deferred call in main so a
// panic never leaves the terminal or a renderer behind.
func (m *Manager) Recover() {
	if r := recover(); r != nil {
		m.Cleanup()
		panic(r)
	}
}
