//go:build linux || darwin

package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal reads keys from a tty in cbreak mode: no line buffering and no
// echo, but signal keys still work, so Ctrl-C raises SIGINT.
type Terminal struct {
	fd int
	// pending holds bytes read but not yet returned as keys.
	pending []byte

	mu    sync.Mutex
	saved *unix.Termios
}

// OpenTerminal switches f into cbreak mode. Call Restore to undo it.
func OpenTerminal(f *os.File) (*Terminal, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}

	saved, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, fmt.Errorf("unable to read terminal state: %w", err)
	}
	raw := *saved
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &raw); err != nil {
		return nil, fmt.Errorf("unable to set terminal mode: %w", err)
	}
	return &Terminal{fd: fd, saved: saved}, nil
}

// maxPending bounds the unread input kept between calls.
const maxPending = 64

// ReadKey implements KeySource using poll(2). Keys that arrive together are
// returned one per call.
func (t *Terminal) ReadKey(timeout time.Duration) (rune, bool, error) {
	if r, ok := t.next(); ok {
		return r, true, nil
	}

	fds := []unix.PollFd{{Fd: int32(t.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}

	var buf [maxPending]byte
	n, err = unix.Read(t.fd, buf[:])
	if err != nil {
		if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if n == 0 {
		return 0, false, io.EOF
	}
	if len(t.pending)+n > maxPending {
		t.pending = t.pending[:0]
	}
	t.pending = append(t.pending, buf[:n]...)
	r, ok := t.next()
	return r, ok, nil
}

func (t *Terminal) next() (rune, bool) {
	r, rest, ok := nextKey(t.pending)
	t.pending = append(t.pending[:0], rest...)
	return r, ok
}

// Restore puts the terminal back the way OpenTerminal found it. Extra calls
// are no-ops.
func (t *Terminal) Restore() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.saved == nil {
		return nil
	}
	err := unix.IoctlSetTermios(t.fd, ioctlSetTermios, t.saved)
	t.saved = nil
	return err
}

// Name implements lifecycle.Component.
func (t *Terminal) Name() string {
	return "terminal"
}

// Shutdown implements lifecycle.Component.
func (t *Terminal) Shutdown(context.Context) error {
	return t.Restore()
}
