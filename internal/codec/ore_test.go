package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orefeed/internal/errors"
	"orefeed/internal/schema"
	"orefeed/pkg/exception"
)

func header(seq uint64, batch uint8) schema.Header {
	return schema.Header{
		RecvTime:     1_700_000_000_000_000_123,
		VendorOffset: -42,
		VendorSeqno:  seq,
		Batch:        batch,
		InstrumentID: 100,
	}
}

func TestRoundTrip(t *testing.T) {
	b := NewBuffer(0)
	b.Reset(false)

	require.NoError(t, EncodeBookControl(b, schema.BookControl{Header: header(0, 1), Command: schema.BookCommandContinuous}))
	require.NoError(t, EncodeOrderAdd(b, schema.OrderAdd{Header: header(7, 1), OrderID: 100, Price: "25.35190000", Qty: "31.21000000", IsBid: true}))
	require.NoError(t, EncodeOrderModify(b, schema.OrderModify{Header: header(8, 0), OrderID: 101, NewOrderID: 101, Price: "25.36", Qty: "40.66"}))
	require.NoError(t, EncodeOrderDelete(b, schema.OrderDelete{Header: header(9, 0), OrderID: 100}))
	require.NoError(t, EncodeOffBookTrade(b, schema.OffBookTrade{Header: header(10, 0), Price: "0.001", Qty: "100", Side: schema.SideBid}))
	require.Equal(t, 5, b.Records())

	msgs, err := Decode(b.Bytes())
	require.NoError(t, err)
	require.Len(t, msgs, 5)

	assert.Equal(t, schema.MessageBookControl, msgs[0].Type)
	assert.Equal(t, uint8('C'), msgs[0].Command)
	assert.Equal(t, uint8(1), msgs[0].Batch)

	assert.Equal(t, schema.MessageOrderAdd, msgs[1].Type)
	assert.Equal(t, int32(100), msgs[1].OrderID)
	assert.Equal(t, "25.35190000", msgs[1].Price)
	assert.Equal(t, "31.21000000", msgs[1].Qty)
	assert.True(t, msgs[1].IsBid)
	assert.Equal(t, header(7, 1), msgs[1].Header)

	assert.Equal(t, schema.MessageOrderModify, msgs[2].Type)
	assert.Equal(t, int32(101), msgs[2].NewOrderID)
	assert.Equal(t, "40.66", msgs[2].Qty)

	assert.Equal(t, schema.MessageOrderDelete, msgs[3].Type)
	assert.Equal(t, uint64(9), msgs[3].VendorSeqno)

	assert.Equal(t, schema.MessageOffBookTrade, msgs[4].Type)
	assert.Equal(t, schema.SideBid, msgs[4].Side)
	assert.Equal(t, int64(-42), msgs[4].VendorOffset)
}

func TestFixedWidthFields(t *testing.T) {
	b := NewBuffer(16)
	b.Reset(false)
	require.NoError(t, b.WriteRecord(U8(1), I32(1), I64(1), U64(1)))

	// fixarray(4), uint8, int32, int64, uint64 keep their declared width
	want := []byte{
		0x94,
		0xcc, 0x01,
		0xd2, 0x00, 0x00, 0x00, 0x01,
		0xd3, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
		0xcf, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
	}
	assert.Equal(t, want, b.Bytes())
}

func TestDiscardCountsOnly(t *testing.T) {
	b := NewBuffer(0)
	b.Reset(true)
	require.NoError(t, EncodeOrderDelete(b, schema.OrderDelete{Header: header(1, 0), OrderID: 1}))
	assert.Equal(t, 1, b.Records())
	assert.Zero(t, b.Len())

	b.Reset(false)
	assert.Zero(t, b.Records())
	assert.False(t, b.Discarding())
}

func TestDecodeRejectsMalformed(t *testing.T) {
	b := NewBuffer(0)
	b.Reset(false)
	require.NoError(t, b.WriteRecord(U8(uint8(schema.MessageOrderDelete)), I64(1)))

	_, err := Decode(b.Bytes())
	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrFieldType))

	_, err = Decode([]byte{0x97, 0xcc})
	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrDecode))
}
