package wal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orefeed/internal/errors"
	"orefeed/pkg/exception"
)

const testEncoding = "text/plain"

func openTemp(t *testing.T) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.log")
	l, err := Open(DefaultConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, path
}

func drain(t *testing.T, it *Iterator) []Entry {
	t.Helper()
	var out []Entry
	for {
		e, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		e.Payload = append([]byte(nil), e.Payload...)
		out = append(out, e)
	}
}

func TestAnnounceIsIdempotent(t *testing.T) {
	l, _ := openTemp(t)

	h1, err := l.Announce("feed-a", "raw/binance/btcusdt@trade", testEncoding)
	require.NoError(t, err)
	require.NotZero(t, h1)

	h2, err := l.Announce("feed-a", "raw/binance/btcusdt@trade", testEncoding)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, err := l.Announce("feed-b", "raw/binance/btcusdt@trade", testEncoding)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)

	_, err = l.Announce("feed-a", "raw/binance/btcusdt@trade", "other")
	assert.True(t, errors.Is(err, exception.ErrEncodingMismatch))

	ann, err := l.Lookup(h3)
	require.NoError(t, err)
	assert.Equal(t, "feed-b", ann.Peer)
	assert.Equal(t, "raw/binance/btcusdt@trade", ann.Channel)
	assert.Equal(t, testEncoding, ann.Encoding)
}

func TestCommitAndIterate(t *testing.T) {
	l, path := openTemp(t)

	a, err := l.Announce("p", "a", testEncoding)
	require.NoError(t, err)
	b, err := l.Announce("p", "b", testEncoding)
	require.NoError(t, err)

	require.NoError(t, l.Append(10, a, []byte("one")))
	buf := l.Reserve(8)
	n := copy(buf, "two")
	require.NoError(t, l.Commit(20, b, buf[:n]))
	require.NoError(t, l.Append(30, a, nil))

	entries := drain(t, l.Begin())
	require.Len(t, entries, 3)
	assert.Equal(t, "one", string(entries[0].Payload))
	assert.Equal(t, a, entries[0].Stream)
	assert.Equal(t, uint64(1), entries[0].Seq)
	assert.Equal(t, "two", string(entries[1].Payload))
	assert.Equal(t, int64(20), entries[1].Time)
	assert.Equal(t, b, entries[1].Stream)
	assert.Empty(t, entries[2].Payload)
	assert.Equal(t, uint64(3), entries[2].Seq)

	ro, err := Open(Config{Path: path, ReadOnly: true})
	require.NoError(t, err)
	defer ro.Close()

	it := ro.Begin()
	assert.Len(t, drain(t, it), 3)

	ann, err := ro.Lookup(b)
	require.NoError(t, err)
	assert.Equal(t, "b", ann.Channel)

	// a reader sees later appends from the same position
	require.NoError(t, l.Append(40, b, []byte("late")))
	late := drain(t, it)
	require.Len(t, late, 1)
	assert.Equal(t, "late", string(late[0].Payload))

	err = ro.Append(50, b, []byte("x"))
	assert.True(t, errors.Is(err, exception.ErrLogReadOnly))
}

func TestCommitRejectsUnknownStream(t *testing.T) {
	l, _ := openTemp(t)
	err := l.Append(1, StreamHandle(12345), []byte("x"))
	assert.True(t, errors.Is(err, exception.ErrUnknownStream))

	_, err = l.Lookup(StreamHandle(3))
	assert.True(t, errors.Is(err, exception.ErrUnknownStream))
}

func TestReopenTruncatesTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.log")
	l, err := Open(DefaultConfig(path))
	require.NoError(t, err)
	h, err := l.Announce("p", "c", testEncoding)
	require.NoError(t, err)
	require.NoError(t, l.Append(1, h, []byte("complete")))
	require.NoError(t, l.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	good := info.Size()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("REC1 partial frame"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// readers treat the torn tail as not yet written
	ro, err := Open(Config{Path: path, ReadOnly: true})
	require.NoError(t, err)
	assert.Len(t, drain(t, ro.Begin()), 1)
	require.NoError(t, ro.Close())

	l, err = Open(DefaultConfig(path))
	require.NoError(t, err)
	defer l.Close()

	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, good, info.Size())

	// announcements and sequence survive the reopen
	h2, err := l.Announce("p", "c", testEncoding)
	require.NoError(t, err)
	assert.Equal(t, h, h2)
	require.NoError(t, l.Append(2, h, []byte("next")))

	entries := drain(t, l.Begin())
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(2), entries[1].Seq)
}

func TestChecksumMismatch(t *testing.T) {
	l, path := openTemp(t)
	h, err := l.Announce("p", "c", testEncoding)
	require.NoError(t, err)
	require.NoError(t, l.Append(1, h, []byte("payload")))
	require.NoError(t, l.Append(2, h, []byte("payload")))

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	first := drain(t, l.Begin())[0]
	_, err = f.WriteAt([]byte("X"), first.Offset+recordHeaderSize)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, _, err = l.Begin().Next()
	assert.True(t, errors.Is(err, ErrChecksumMismatch))
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{Path: "x", SyncInterval: -time.Second}.Validate())
	assert.NoError(t, DefaultConfig("x").Validate())

	_, err := Open(Config{Path: filepath.Join(t.TempDir(), "missing.log"), ReadOnly: true})
	assert.Error(t, err)
}
