package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orefeed/internal/codec"
	"orefeed/internal/schema"
)

func q(price, qty string) Quote {
	return Quote{Price: []byte(price), Qty: []byte(qty), Present: true}
}

func apply(t *testing.T, b *TopOfBook, buf *codec.Buffer, seq uint64, bid, ask Quote) []schema.Message {
	t.Helper()
	buf.Reset(false)
	require.NoError(t, b.Apply(buf, Update{RecvTime: int64(seq) * 10, Seq: seq, Bid: bid, Ask: ask}))
	msgs, err := codec.Decode(buf.Bytes())
	require.NoError(t, err)
	return msgs
}

func TestTopOfBookDiff(t *testing.T) {
	b := NewTopOfBook(100)
	buf := codec.NewBuffer(0)

	msgs := apply(t, b, buf, 1, q("10.0", "1"), Quote{})
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.MessageBookControl, msgs[0].Type)
	assert.Equal(t, uint8(1), msgs[0].Batch)
	assert.Equal(t, schema.MessageOrderAdd, msgs[1].Type)
	assert.True(t, msgs[1].IsBid)
	assert.Equal(t, int32(100), msgs[1].OrderID)
	assert.Equal(t, uint8(0), msgs[1].Batch)
	assert.True(t, b.Announced())

	msgs = apply(t, b, buf, 2, q("10.0", "1"), q("11.0", "2"))
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.MessageOrderAdd, msgs[0].Type)
	assert.False(t, msgs[0].IsBid)
	assert.Equal(t, int32(101), msgs[0].OrderID)

	msgs = apply(t, b, buf, 3, q("10.5", "1"), q("11.0", "2"))
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.MessageOrderModify, msgs[0].Type)
	assert.Equal(t, int32(100), msgs[0].OrderID)
	assert.Equal(t, int32(100), msgs[0].NewOrderID)
	assert.Equal(t, "10.5", msgs[0].Price)
	assert.Equal(t, uint64(3), msgs[0].VendorSeqno)

	msgs = apply(t, b, buf, 4, Quote{}, q("11.0", "2"))
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.MessageOrderDelete, msgs[0].Type)
	assert.Equal(t, int32(100), msgs[0].OrderID)

	msgs = apply(t, b, buf, 5, q("9.0", "3"), q("11.0", "5"))
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.MessageOrderAdd, msgs[0].Type)
	assert.Equal(t, uint8(1), msgs[0].Batch)
	assert.Equal(t, schema.MessageOrderModify, msgs[1].Type)
	assert.Equal(t, int32(101), msgs[1].OrderID)
	assert.Equal(t, uint8(0), msgs[1].Batch)

	msgs = apply(t, b, buf, 6, q("9.0", "3"), q("11.0", "5"))
	assert.Empty(t, msgs)
}

func TestTopOfBookDiscardKeepsState(t *testing.T) {
	b := NewTopOfBook(7)
	buf := codec.NewBuffer(0)

	buf.Reset(true)
	require.NoError(t, b.Apply(buf, Update{Seq: 1, Bid: q("1", "1"), Ask: q("2", "1")}))
	assert.Equal(t, 3, buf.Records())
	assert.Zero(t, buf.Len())
	assert.True(t, b.Announced())

	msgs := apply(t, b, buf, 2, q("1", "2"), q("2", "1"))
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.MessageOrderModify, msgs[0].Type)
	assert.Equal(t, int32(7), msgs[0].OrderID)
}

func TestSplitChannel(t *testing.T) {
	symbol, typ, err := SplitChannel("XBT/USD@spread")
	require.NoError(t, err)
	assert.Equal(t, "XBT/USD", symbol)
	assert.Equal(t, "spread", typ)

	_, _, err = SplitChannel("btcusdt")
	assert.Error(t, err)
}

func TestRegistryUnknownFeed(t *testing.T) {
	reg := Registry{}
	_, _, err := reg.Resolve("coinbase", "BTC-USD@ticker", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown feed")
}
