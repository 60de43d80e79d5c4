package input

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultInterval is how often liveness is checked while waiting for a key.
const DefaultInterval = time.Second

// KeySource delivers single keystrokes.
type KeySource interface {
	// ReadKey waits up to timeout for one key. ok is false on timeout.
	ReadKey(timeout time.Duration) (r rune, ok bool, err error)
}

// Poller waits for a recognised key while the renderer is alive.
type Poller struct {
	Source   KeySource
	Keys     KeyMap
	Interval time.Duration
}

// NewPoller returns a Poller reading from src with the default key map.
func NewPoller(src KeySource, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{Source: src, Keys: DefaultKeyMap(), Interval: interval}
}

// Poll blocks until a bound key is pressed, alive reports false or ctx is
// done. Each wait is bounded by the interval and by ctx's deadline, so alive
// is consulted at least once per interval.
func (p *Poller) Poll(ctx context.Context, alive func() bool) Command {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	for {
		if ctx.Err() != nil || !alive() {
			return None
		}

		wait := interval
		if deadline, ok := ctx.Deadline(); ok {
			if left := time.Until(deadline); left < wait {
				wait = left
			}
		}
		if wait <= 0 {
			return None
		}

		r, ok, err := p.Source.ReadKey(wait)
		if err != nil {
			log.Debug("Key read failed", "error", err)
			select {
			case <-ctx.Done():
				return None
			case <-time.After(wait):
			}
			continue
		}
		if !ok {
			continue
		}
		if cmd := p.Keys.Lookup(r); cmd != None {
			log.Debug("Key pressed", "key", string(r), "command", cmd)
			return cmd
		}
	}
}
