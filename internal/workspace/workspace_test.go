package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestAcquireRelease(t *testing.T) {
	base := t.TempDir()
	w, err := New(base)
	require.NoError(t, err)

	dir, release, err := w.Acquire()
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, w.Root(), filepath.Dir(dir))

	release()
	release()
	assert.NoDirExists(t, dir)
	assert.Zero(t, countEntries(t, w.Root()))
}

func TestSweepKeepsActive(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	stray := w.Path("cycle-stray")
	require.NoError(t, os.Mkdir(stray, 0o700))
	other := w.Path("cache")
	require.NoError(t, os.Mkdir(other, 0o700))

	dir, release, err := w.Acquire()
	require.NoError(t, err)
	defer release()

	assert.Equal(t, 1, w.Sweep())
	assert.DirExists(t, dir)
	assert.DirExists(t, other)
	assert.NoDirExists(t, stray)
}

func TestRemoveLeavesNothing(t *testing.T) {
	base := t.TempDir()
	w, err := New(base)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, err := w.Acquire()
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(w.Path("note"), []byte("x"), 0o600))

	require.NoError(t, w.Shutdown(context.Background()))
	assert.Zero(t, countEntries(t, base))

	_, _, err = w.Acquire()
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, w.Remove())
}

func TestSessionPid(t *testing.T) {
	tests := []struct {
		name string
		pid  int
		ok   bool
	}{
		{"sfjuke-session-123-456789", 123, true},
		{"sfjuke-session-abc-456789", 0, false},
		{"sfjuke-session-", 0, false},
		{"sfjuke-session-0-1", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pid, ok := sessionPid(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.pid, pid)
		})
	}
}

func TestSweepStaleKeepsLiveSessions(t *testing.T) {
	base := t.TempDir()
	w, err := New(base)
	require.NoError(t, err)

	mine := filepath.Base(w.Root())
	ppid := filepath.Join(base, rootPrefix+strconv.Itoa(os.Getppid())+"-1")
	require.NoError(t, os.Mkdir(ppid, 0o700))

	SweepStale(base)
	assert.DirExists(t, filepath.Join(base, mine))
	assert.DirExists(t, ppid)
}
