package wal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PlaybackConfig controls how a log is replayed.
type PlaybackConfig struct {
	// Speed paces records by their commit time. Zero replays as fast as possible.
	Speed float64
	// Follow keeps polling for new records after reaching the end of the log.
	Follow       bool
	PollInterval time.Duration
	// From skips records before this offset. Zero starts at the first record.
	From int64
	// Idle is called each time the end of the log is reached in follow mode.
	Idle func() error
}

// Clock allows deterministic playback control.
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
	case <-t.C:
		return nil
	}
}

// Handler receives one data record together with the stream it belongs to.
type Handler func(Entry, Announcement) error

// Playback replays the data records of a log in append order.
type Playback struct {
	cfg   PlaybackConfig
	log   *Log
	clock Clock
}

// NewPlayback validates the config and creates a playback engine.
func NewPlayback(l *Log, cfg PlaybackConfig) (*Playback, error) {
	if l == nil {
		return nil, errors.New("playback log is nil")
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Playback{cfg: cfg, log: l, clock: realClock{}}, nil
}

// WithClock swaps the clock implementation.
func (p *Playback) WithClock(clock Clock) *Playback {
	if clock != nil {
		p.clock = clock
	}
	return p
}

func (c PlaybackConfig) withDefaults() PlaybackConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	return c
}

// Validate checks if the config is usable.
func (c PlaybackConfig) Validate() error {
	if c.Speed < 0 {
		return fmt.Errorf("invalid playback config: Speed must be >= 0")
	}
	if c.From < 0 {
		return fmt.Errorf("invalid playback config: From must be >= 0")
	}
	return nil
}

// Run replays records and calls the handler for each one. Without Follow it
// returns nil at the end of the log.
func (p *Playback) Run(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.New("playback handler is nil")
	}

	it := p.log.Begin()
	var prevTS int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entry, ok, err := it.Next()
		if err != nil {
			return fmt.Errorf("read %s at %d: %w", p.log.Path(), it.Offset(), err)
		}
		if !ok {
			if !p.cfg.Follow {
				return nil
			}
			if p.cfg.Idle != nil {
				if err := p.cfg.Idle(); err != nil {
					return err
				}
			}
			if err := p.clock.Sleep(ctx, p.cfg.PollInterval); err != nil {
				return err
			}
			continue
		}
		if entry.Offset < p.cfg.From {
			continue
		}

		ann, err := p.log.Lookup(entry.Stream)
		if err != nil {
			return err
		}
		if err := p.pace(ctx, entry.Time, &prevTS); err != nil {
			return err
		}
		if err := handler(entry, ann); err != nil {
			return err
		}
	}
}

func (p *Playback) pace(ctx context.Context, current int64, prevTS *int64) error {
	if p.cfg.Speed <= 0 || current <= 0 {
		return nil
	}
	if *prevTS > 0 {
		delta := current - *prevTS
		if delta > 0 {
			sleep := time.Duration(float64(delta) / p.cfg.Speed)
			if err := p.clock.Sleep(ctx, sleep); err != nil {
				return err
			}
		}
	}
	*prevTS = current
	return nil
}
