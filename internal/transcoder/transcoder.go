// Package transcoder turns raw vendor streams of an input log into ORE
// streams of an output log, exactly once across restarts.
package transcoder

import (
	"context"
	"fmt"
	"time"

	"orefeed/internal/codec"
	"orefeed/internal/feed"
	"orefeed/internal/obs"
	"orefeed/internal/schema"
	"orefeed/internal/symbology"
	"orefeed/internal/wal"
)

const (
	defaultStatsInterval = time.Second
	defaultBufferSize    = 4096

	recoveryMessageNotice = 1_000_000
	recoveryChannelNotice = 1_000
)

// Phase is the state of the recovery protocol.
type Phase uint8

const (
	PhaseRecovering Phase = iota
	PhaseSteady
)

func (p Phase) String() string {
	if p == PhaseRecovering {
		return "recovering"
	}
	return "steady"
}

// Config controls a Transcoder.
type Config struct {
	// Peer names this transcoder in the output log. Input streams announced
	// by the same peer are never consumed.
	Peer          string
	Feeds         feed.Registry
	Symbology     *symbology.Table
	InstrumentID  int32
	Encoding      string
	StatsInterval time.Duration
	Metrics       *obs.Metrics
	Now           func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Encoding == "" {
		c.Encoding = schema.Encoding
	}
	if c.InstrumentID == 0 {
		c.InstrumentID = feed.DefaultInstrumentID
	}
	if c.StatsInterval == 0 {
		c.StatsInterval = defaultStatsInterval
	}
	if c.Metrics == nil {
		c.Metrics = obs.NewMetrics(nil)
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.Peer == "" {
		return fmt.Errorf("invalid transcoder config: Peer is empty")
	}
	if len(c.Feeds) == 0 {
		return fmt.Errorf("invalid transcoder config: no feeds registered")
	}
	if c.StatsInterval < 0 {
		return fmt.Errorf("invalid transcoder config: StatsInterval must be >= 0")
	}
	return nil
}

// outStream is one ORE output channel.
type outStream struct {
	name      string
	handle    wal.StreamHandle
	recovered uint64
}

// binding ties a normalized input channel to its parser and output stream.
// Every input handle announcing the same channel shares one binding.
type binding struct {
	name      string
	parser    feed.Parser
	out       *outStream
	watermark uint64
}

// Transcoder owns all parser state and resolver caches. It is driven by
// ProcessOne from a single goroutine.
type Transcoder struct {
	cfg     Config
	in      *wal.Log
	out     *wal.Log
	inIter  *wal.Iterator
	outIter *wal.Iterator
	buf     *codec.Buffer
	phase   Phase

	outByName   map[string]*outStream
	outByHandle map[wal.StreamHandle]*outStream
	channels    map[string]*binding
	inByHandle  map[wal.StreamHandle]*binding

	recoveredMessages uint64
	recoveredChannels uint64
	lastStats         time.Time
}

// New creates a transcoder reading in and writing out. in and out may be the
// same log.
func New(cfg Config, in, out *wal.Log) (*Transcoder, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if in == nil || out == nil {
		return nil, fmt.Errorf("invalid transcoder config: nil log")
	}
	return &Transcoder{
		cfg:         cfg,
		in:          in,
		out:         out,
		inIter:      in.Begin(),
		outIter:     out.Begin(),
		buf:         codec.NewBuffer(defaultBufferSize),
		phase:       PhaseRecovering,
		outByName:   make(map[string]*outStream),
		outByHandle: make(map[wal.StreamHandle]*outStream),
		channels:    make(map[string]*binding),
		inByHandle:  make(map[wal.StreamHandle]*binding),
		lastStats:   cfg.Now(),
	}, nil
}

// Name identifies the component in reactor errors.
func (t *Transcoder) Name() string {
	return "transcoder/" + t.cfg.Peer
}

// Phase returns the current recovery phase.
func (t *Transcoder) Phase() Phase {
	return t.phase
}

// ProcessOne performs one unit of work and reports whether it made progress.
// Errors are fatal.
func (t *Transcoder) ProcessOne(ctx context.Context) (bool, error) {
	if t.phase == PhaseRecovering {
		return t.recoverOne()
	}
	return t.transcodeOne()
}

// Recover runs the recovery scan to completion.
func (t *Transcoder) Recover(ctx context.Context) error {
	for t.phase == PhaseRecovering {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.recoverOne(); err != nil {
			return err
		}
	}
	return nil
}

// Drain processes input until none is available.
func (t *Transcoder) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		progress, err := t.ProcessOne(ctx)
		if err != nil {
			return err
		}
		if !progress {
			return nil
		}
	}
}
