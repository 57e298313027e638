package wal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	sleeps  []time.Duration
	onSleep func()
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	if c.onSleep != nil {
		c.onSleep()
	}
	return ctx.Err()
}

func TestPlaybackPacesByCommitTime(t *testing.T) {
	l, _ := openTemp(t)
	h, err := l.Announce("peer", "raw/binance/btcusdt@trade", testEncoding)
	require.NoError(t, err)
	require.NoError(t, l.Append(1_000, h, []byte("a")))
	require.NoError(t, l.Append(3_000, h, []byte("b")))
	require.NoError(t, l.Append(7_000, h, []byte("c")))

	p, err := NewPlayback(l, PlaybackConfig{Speed: 2})
	require.NoError(t, err)
	clock := &fakeClock{}
	p.WithClock(clock)

	var got []string
	err = p.Run(context.Background(), func(e Entry, ann Announcement) error {
		assert.Equal(t, "raw/binance/btcusdt@trade", ann.Channel)
		got = append(got, string(e.Payload))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, []time.Duration{1_000, 2_000}, clock.sleeps)
}

func TestPlaybackFollowSeesNewRecords(t *testing.T) {
	l, _ := openTemp(t)
	h, err := l.Announce("peer", "ore/binance/btcusdt@trade", testEncoding)
	require.NoError(t, err)
	require.NoError(t, l.Append(1, h, []byte("first")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := &fakeClock{}
	polls := 0
	clock.onSleep = func() {
		polls++
		if polls == 1 {
			require.NoError(t, l.Append(2, h, []byte("second")))
			return
		}
		cancel()
	}

	idle := 0
	p, err := NewPlayback(l, PlaybackConfig{
		Follow:       true,
		PollInterval: time.Millisecond,
		Idle:         func() error { idle++; return nil },
	})
	require.NoError(t, err)
	p.WithClock(clock)

	var got []string
	err = p.Run(ctx, func(e Entry, _ Announcement) error {
		got = append(got, string(e.Payload))
		return nil
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"first", "second"}, got)
	assert.Equal(t, 2, idle)
}

func TestPlaybackFromOffset(t *testing.T) {
	l, _ := openTemp(t)
	h, err := l.Announce("peer", "raw/kraken/XBT/USD@trade", testEncoding)
	require.NoError(t, err)
	require.NoError(t, l.Append(1, h, []byte("a")))
	entries := drain(t, l.Begin())
	require.Len(t, entries, 1)
	require.NoError(t, l.Append(2, h, []byte("b")))

	p, err := NewPlayback(l, PlaybackConfig{From: entries[0].Offset + 1})
	require.NoError(t, err)

	var got []string
	require.NoError(t, p.Run(context.Background(), func(e Entry, _ Announcement) error {
		got = append(got, string(e.Payload))
		return nil
	}))
	assert.Equal(t, []string{"b"}, got)
}

func TestPlaybackConfigValidate(t *testing.T) {
	_, err := NewPlayback(nil, PlaybackConfig{})
	assert.Error(t, err)

	l, _ := openTemp(t)
	_, err = NewPlayback(l, PlaybackConfig{Speed: -1})
	assert.Error(t, err)

	p, err := NewPlayback(l, PlaybackConfig{})
	require.NoError(t, err)
	assert.Error(t, p.Run(context.Background(), nil))
}
