//go:build !linux && !darwin

package input

import (
	"context"
	"errors"
	"os"
	"time"
)

// Terminal is unavailable on this platform.
type Terminal struct{}

// OpenTerminal always fails on this platform.
func OpenTerminal(*os.File) (*Terminal, error) {
	return nil, errors.Join(ErrNotTerminal, errors.New("keyboard input is only supported on Linux and macOS"))
}

// ReadKey implements KeySource.
func (*Terminal) ReadKey(time.Duration) (rune, bool, error) {
	return 0, false, ErrNotTerminal
}

// Restore is a no-op.
func (*Terminal) Restore() error { return nil }

// Name implements lifecycle.Component.
func (*Terminal) Name() string { return "terminal" }

// Shutdown implements lifecycle.Component.
func (*Terminal) Shutdown(context.Context) error { return nil }
