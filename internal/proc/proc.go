// Package proc runs short-lived helper processes such as the metadata dumper
// and the MP3 encoder.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTimeout bounds a single helper invocation when the caller's context
// has no deadline.
const DefaultTimeout = 5 * time.Minute

// ErrTimeout is returned when a helper outlives its deadline.
var ErrTimeout = errors.New("subprocess timed out")

// Runner executes external commands and collects their output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Exec is the Runner backed by os/exec.
type Exec struct {
	Timeout time.Duration
}

// NewExec returns an Exec with the given timeout, or DefaultTimeout when
// timeout is not positive.
func NewExec(timeout time.Duration) *Exec {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Exec{Timeout: timeout}
}

// Run starts name with args, waits for it and returns its stdout. Stderr is
// attached to the returned error when the command fails.
func (e *Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("Running helper", "cmd", name, "args", strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	err := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", name, ErrTimeout)
		}
		return nil, fmt.Errorf("%s cancelled: %w", name, ctxErr)
	}
	if err != nil {
		if s := strings.TrimSpace(stderr.String()); s != "" {
			return nil, fmt.Errorf("%s failed: %w\nstderr: %s", name, err, s)
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// ErrNotFound is returned by Locate when a program is not in PATH.
var ErrNotFound = errors.New("program not found in PATH")

// Locate resolves name to the executable that Run would start.
func Locate(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w (%w)", name, ErrNotFound, err)
	}
	return path, nil
}
