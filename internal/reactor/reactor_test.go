package reactor

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countdown struct {
	left  int
	calls int
	err   error
}

func (c *countdown) Name() string { return "countdown" }

func (c *countdown) ProcessOne(ctx context.Context) (bool, error) {
	c.calls++
	if c.left == 0 {
		return false, c.err
	}
	c.left--
	return true, nil
}

type fakeClock struct {
	sleeps int
	cancel context.CancelFunc
	after  int
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	f.sleeps++
	if f.sleeps >= f.after {
		f.cancel()
	}
	return nil
}

func TestRunSleepsOnlyWhenIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	c := &countdown{left: 5}
	clock := &fakeClock{cancel: cancel, after: 3}
	err := New(Config{}, c).WithClock(clock).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, clock.sleeps)
	assert.Equal(t, 5+3, c.calls)
}

func TestRunStopsOnError(t *testing.T) {
	boom := stderrors.New("boom")
	c := &countdown{left: 1, err: boom}
	err := New(Config{PollInterval: time.Microsecond}, c).Run(t.Context())
	require.Error(t, err)
	assert.Equal(t, 2, c.calls)
}

func TestRunRequiresComponents(t *testing.T) {
	assert.Error(t, New(Config{}).Run(t.Context()))
}
