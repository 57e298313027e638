package binance

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orefeed/internal/codec"
	"orefeed/internal/errors"
	"orefeed/internal/feed"
	"orefeed/internal/schema"
	"orefeed/pkg/exception"
)

func bookTicker(u uint64, bidPx, bidQty, askPx, askQty string) []byte {
	return []byte(fmt.Sprintf(`{"u":%d,"s":"BNBUSDT","b":%s,"B":%s,"a":%s,"A":%s}`, u, bidPx, bidQty, askPx, askQty))
}

func parse(t *testing.T, p feed.Parser, msg []byte, recv int64, wm *uint64) (bool, []schema.Message) {
	t.Helper()
	buf := codec.NewBuffer(0)
	buf.Reset(false)
	ok, err := p.Parse(msg, recv, wm, buf)
	require.NoError(t, err)
	msgs, err := codec.Decode(buf.Bytes())
	require.NoError(t, err)
	return ok, msgs
}

func TestResolve(t *testing.T) {
	symbol, p, err := Resolve("btcusdt@bookTicker", feed.Options{InstrumentID: 100})
	require.NoError(t, err)
	assert.Equal(t, "btcusdt", symbol)
	assert.IsType(t, &BookTicker{}, p)

	symbol, p, err = Resolve("btcusdt@trade", feed.Options{InstrumentID: 100})
	require.NoError(t, err)
	assert.Equal(t, "btcusdt", symbol)
	assert.IsType(t, &Trade{}, p)

	_, _, err = Resolve("btcusdt@depth", feed.Options{})
	assert.True(t, errors.Is(err, exception.ErrUnknownStreamType))

	_, _, err = Resolve("btcusdt", feed.Options{})
	assert.True(t, errors.Is(err, exception.ErrMissingStreamType))
}

func TestBookTickerScript(t *testing.T) {
	p := NewBookTicker(100)
	var wm uint64

	ok, msgs := parse(t, p, bookTicker(1, `"10.0"`, `"1"`, "null", "null"), 1000, &wm)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.MessageBookControl, msgs[0].Type)
	assert.Equal(t, schema.MessageOrderAdd, msgs[1].Type)
	assert.True(t, msgs[1].IsBid)
	assert.Equal(t, int64(1000), msgs[1].RecvTime)
	assert.Equal(t, uint64(1), wm)

	_, msgs = parse(t, p, bookTicker(2, `"10.0"`, `"1"`, `"11.0"`, `"2"`), 1001, &wm)
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.MessageOrderAdd, msgs[0].Type)
	assert.False(t, msgs[0].IsBid)
	assert.Equal(t, int32(101), msgs[0].OrderID)

	_, msgs = parse(t, p, bookTicker(3, `"10.5"`, `"1"`, `"11.0"`, `"2"`), 1002, &wm)
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.MessageOrderModify, msgs[0].Type)
	assert.Equal(t, "10.5", msgs[0].Price)

	_, msgs = parse(t, p, bookTicker(4, "null", "null", `"11.0"`, `"2"`), 1003, &wm)
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.MessageOrderDelete, msgs[0].Type)
	assert.Equal(t, int32(100), msgs[0].OrderID)
	assert.Equal(t, uint64(4), msgs[0].VendorSeqno)
}

func TestBookTickerDuplicate(t *testing.T) {
	p := NewBookTicker(100)
	var wm uint64

	ok, msgs := parse(t, p, bookTicker(7, `"10.0"`, `"1"`, `"11.0"`, `"2"`), 1, &wm)
	require.True(t, ok)
	require.Len(t, msgs, 3)

	ok, msgs = parse(t, p, bookTicker(7, `"12.0"`, `"1"`, `"13.0"`, `"2"`), 2, &wm)
	assert.False(t, ok)
	assert.Empty(t, msgs)

	ok, msgs = parse(t, p, bookTicker(6, `"12.0"`, `"1"`, `"13.0"`, `"2"`), 3, &wm)
	assert.False(t, ok)
	assert.Empty(t, msgs)
	assert.Equal(t, uint64(7), wm)

	// state was not touched by the duplicates
	ok, msgs = parse(t, p, bookTicker(8, `"10.0"`, `"1"`, `"11.0"`, `"2"`), 4, &wm)
	assert.True(t, ok)
	assert.Empty(t, msgs)
}

func TestBookTickerParseError(t *testing.T) {
	p := NewBookTicker(100)
	var wm uint64
	buf := codec.NewBuffer(0)

	_, err := p.Parse([]byte(`{"s":"BNBUSDT"}`), 1, &wm, buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrParse))

	var perr *feed.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "update id", perr.Field)
	assert.Equal(t, `{"s":"BNBUSDT"}`, perr.Raw)

	_, err = p.Parse([]byte(`{"u":5,"b":"1.0","B":"2.0"}`), 1, &wm, buf)
	assert.True(t, errors.Is(err, exception.ErrParse))
	assert.Zero(t, wm)
}

func TestTrade(t *testing.T) {
	p := NewTrade(100)
	var wm uint64
	msg := []byte(`{"e":"trade","E":1672515782136,"s":"BNBBTC","t":12345,"p":"0.001","q":"100","T":1672515782136,"m":true,"M":true}`)
	recv := int64(1672515782136_000_000 + 500)

	ok, msgs := parse(t, p, msg, recv, &wm)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	m := msgs[0]
	assert.Equal(t, schema.MessageOffBookTrade, m.Type)
	assert.Equal(t, uint64(12345), m.VendorSeqno)
	assert.Equal(t, int64(500), m.VendorOffset)
	assert.Equal(t, "0.001", m.Price)
	assert.Equal(t, "100", m.Qty)
	assert.Equal(t, schema.SideBid, m.Side)
	assert.Equal(t, int32(100), m.InstrumentID)
	assert.Equal(t, uint64(12345), wm)

	ok, msgs = parse(t, p, msg, recv+1, &wm)
	assert.False(t, ok)
	assert.Empty(t, msgs)

	ok, msgs = parse(t, p, []byte(`{"E":1,"t":12346,"p":"1","q":"2","m":false}`), 1_000_000, &wm)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.SideAsk, msgs[0].Side)
	assert.Zero(t, msgs[0].VendorOffset)
}

func TestTradeParseError(t *testing.T) {
	p := NewTrade(100)
	var wm uint64
	_, err := p.Parse([]byte(`{"E":1,"t":2,"q":"2","m":false}`), 1, &wm, codec.NewBuffer(0))
	var perr *feed.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "price", perr.Field)
	assert.Equal(t, StreamTrade, perr.Stream)
}
