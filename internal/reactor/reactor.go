// Package reactor drives cooperative components from one goroutine.
package reactor

import (
	"context"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/pkg/sys"
)

const defaultPollInterval = time.Millisecond

// Component performs at most one unit of work per call and reports whether
// it made progress. A returned error stops the reactor.
type Component interface {
	Name() string
	ProcessOne(ctx context.Context) (bool, error)
}

// Clock allows deterministic idle waits.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-sys.Shutdown():
		return context.Canceled
	case <-t.C:
		return nil
	}
}

// Config controls the reactor loop.
type Config struct {
	// PollInterval is how long to wait when no component made progress.
	PollInterval time.Duration
}

// Reactor runs components round robin until cancelled.
type Reactor struct {
	cfg        Config
	clock      Clock
	components []Component
}

func New(cfg Config, components ...Component) *Reactor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Reactor{cfg: cfg, clock: realClock{}, components: components}
}

// WithClock swaps the clock implementation.
func (r *Reactor) WithClock(clock Clock) *Reactor {
	if clock != nil {
		r.clock = clock
	}
	return r
}

// Run loops until ctx is done, the process is asked to shut down, or a
// component fails. Cancellation is only observed between steps.
func (r *Reactor) Run(ctx context.Context) error {
	if len(r.components) == 0 {
		return errors.New("reactor has no components")
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sys.Shutdown():
			return nil
		default:
		}

		progress := false
		for _, c := range r.components {
			ok, err := c.ProcessOne(ctx)
			if err != nil {
				return errors.Wrap(err, "component failed").With("component", c.Name())
			}
			progress = progress || ok
		}
		if progress {
			continue
		}
		if err := r.clock.Sleep(ctx, r.cfg.PollInterval); err != nil {
			return nil
		}
	}
}
