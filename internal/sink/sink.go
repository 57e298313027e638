// Package sink stores the Off-Book Trades of an ORE log in PostgreSQL.
package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"orefeed/internal/codec"
	"orefeed/internal/schema"
	"orefeed/internal/wal"
)

// Config controls a sink.
type Config struct {
	// Peer names the cursor row of this sink.
	Peer         string
	BatchSize    int
	Follow       bool
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	return c
}

// Validate checks if the config is usable.
func (c Config) Validate() error {
	if c.Peer == "" {
		return errors.New("invalid sink config: Peer is empty")
	}
	return nil
}

// Sink follows an ORE log and saves its trades.
type Sink struct {
	cfg   Config
	store Store

	pending []Trade
	msgs    []schema.Message
	// offset of the last entry handled and of the last entry saved, -1 for none
	handled int64
	saved   int64
	stored  int
}

// New validates the config and creates a sink.
func New(cfg Config, store Store) (*Sink, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("sink store is nil")
	}
	return &Sink{cfg: cfg, store: store, handled: -1, saved: -1}, nil
}

// Stored is the number of trades saved by this sink since it was created.
func (s *Sink) Stored() int {
	return s.stored
}

// Run stores the trades of l after the saved cursor. Pending trades are saved
// before returning, also when ctx is cancelled.
func (s *Sink) Run(ctx context.Context, l *wal.Log) error {
	offset, ok, err := s.store.Cursor(ctx, s.cfg.Peer)
	if err != nil {
		return errors.Wrap(err, "load cursor").With("peer", s.cfg.Peer)
	}
	from := int64(0)
	if ok {
		s.handled, s.saved = offset, offset
		from = offset + 1
		logs.Infof("sink %s resumes after offset %d", s.cfg.Peer, offset)
	}

	playback, err := wal.NewPlayback(l, wal.PlaybackConfig{
		Follow:       s.cfg.Follow,
		PollInterval: s.cfg.PollInterval,
		From:         from,
		Idle:         func() error { return s.Flush(ctx) },
	})
	if err != nil {
		return err
	}

	runErr := playback.Run(ctx, func(e wal.Entry, ann wal.Announcement) error {
		if err := s.Handle(e, ann); err != nil {
			return err
		}
		if len(s.pending) >= s.cfg.BatchSize {
			return s.Flush(ctx)
		}
		return nil
	})

	if err := s.Flush(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	return runErr
}

// Handle queues the trades of one log entry. Entries of other encodings are
// skipped but still advance the cursor.
func (s *Sink) Handle(e wal.Entry, ann wal.Announcement) error {
	s.handled = e.Offset
	if !strings.HasPrefix(ann.Channel, schema.OREPrefix) || ann.Encoding != schema.Encoding {
		return nil
	}

	msgs, err := codec.DecodeAppend(s.msgs[:0], e.Payload)
	s.msgs = msgs
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("decode entry at %d", e.Offset)).With("channel", ann.Channel)
	}

	for i, m := range msgs {
		if m.Type != schema.MessageOffBookTrade {
			continue
		}
		trade, err := newTrade(s.cfg.Peer, ann.Channel, e.Offset, i, m)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("convert trade at %d", e.Offset)).With("channel", ann.Channel)
		}
		s.pending = append(s.pending, trade)
	}
	return nil
}

// Flush saves queued trades and the cursor.
func (s *Sink) Flush(ctx context.Context) error {
	if s.handled == s.saved {
		return nil
	}
	if err := s.store.Save(ctx, s.cfg.Peer, s.pending, s.handled); err != nil {
		return errors.Wrap(err, fmt.Sprintf("save %d trades", len(s.pending))).With("peer", s.cfg.Peer)
	}
	s.stored += len(s.pending)
	s.saved = s.handled
	s.pending = s.pending[:0]
	return nil
}

func newTrade(peer, channel string, offset int64, index int, m schema.Message) (Trade, error) {
	price, err := decimal.NewFromString(m.Price)
	if err != nil {
		return Trade{}, errors.Wrap(err, "price").With("value", m.Price)
	}
	qty, err := decimal.NewFromString(m.Qty)
	if err != nil {
		return Trade{}, errors.Wrap(err, "qty").With("value", m.Qty)
	}
	return Trade{
		Peer:         peer,
		LogOffset:    offset,
		RecordIndex:  index,
		Channel:      channel,
		InstrumentID: m.InstrumentID,
		RecvTime:     time.Unix(0, m.RecvTime).UTC(),
		VendorTime:   time.Unix(0, m.RecvTime-m.VendorOffset).UTC(),
		VendorSeqno:  m.VendorSeqno,
		Price:        price,
		Qty:          qty,
		Side:         m.Side.String(),
		Batch:        m.Batch == 1,
	}, nil
}
