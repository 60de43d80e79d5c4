//go:build unix

package main

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfjuke/sfjuke/internal/lifecycle"
)

type fakeTerminal struct {
	restored int
}

func (*fakeTerminal) ReadKey(time.Duration) (rune, bool, error) { return 0, false, nil }
func (*fakeTerminal) Name() string                               { return "terminal" }

func (f *fakeTerminal) Shutdown(context.Context) error {
	f.restored++
	return nil
}

func TestOpenInputCatchesSignalDuringOpen(t *testing.T) {
	mgr := lifecycle.New()
	tty := &fakeTerminal{}

	// Without a handler in place SIGHUP would end the test binary.
	ctx, stop, got, err := openInput(context.Background(), mgr, func() (terminal, error) {
		require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGHUP))
		return tty, nil
	})
	require.NoError(t, err)
	defer stop()
	assert.Equal(t, terminal(tty), got)

	select {
	case <-ctx.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("signal during open was not caught")
	}

	mgr.Cleanup()
	assert.Equal(t, 1, tty.restored)
}

func TestOpenInputFailure(t *testing.T) {
	mgr := lifecycle.New()
	want := errors.New("not a tty")

	ctx, stop, got, err := openInput(context.Background(), mgr, func() (terminal, error) {
		return nil, want
	})
	assert.ErrorIs(t, err, want)
	assert.Nil(t, ctx)
	assert.Nil(t, stop)
	assert.Nil(t, got)

	mgr.Cleanup()
}
