package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"orefeed/internal/errors"
	"orefeed/internal/schema"
	"orefeed/pkg/exception"
)

// Decode reads every ORE record from a committed payload.
func Decode(data []byte) ([]schema.Message, error) {
	return DecodeAppend(nil, data)
}

// DecodeAppend appends the records found in data to dst.
func DecodeAppend(dst []schema.Message, data []byte) ([]schema.Message, error) {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	for r.Len() > 0 {
		msg, err := decodeRecord(dec)
		if err != nil {
			return dst, errors.Wrapf(err, "record %d", len(dst))
		}
		dst = append(dst, msg)
	}
	return dst, nil
}

func decodeRecord(dec *msgpack.Decoder) (schema.Message, error) {
	var msg schema.Message

	n, err := dec.DecodeArrayLen()
	if err != nil {
		return msg, errors.Wrap(exception.ErrDecode, err.Error())
	}
	typ, err := dec.DecodeUint8()
	if err != nil {
		return msg, errors.Wrap(exception.ErrDecode, err.Error())
	}
	msg.Type = schema.MessageType(typ)
	if want := msg.Type.FieldCount(); want == 0 || want != n {
		return msg, errors.Wrap(exception.ErrFieldType, fmt.Sprintf("type %d has %d fields", typ, n))
	}

	r := fieldReader{dec: dec}
	msg.RecvTime = r.i64()
	msg.VendorOffset = r.i64()
	msg.VendorSeqno = r.u64()
	msg.Batch = r.u8()
	msg.InstrumentID = r.i32()

	switch msg.Type {
	case schema.MessageOrderAdd:
		msg.OrderID = r.i32()
		msg.Price = r.str()
		msg.Qty = r.str()
		msg.IsBid = r.bool()
	case schema.MessageOrderDelete:
		msg.OrderID = r.i32()
	case schema.MessageOrderModify:
		msg.OrderID = r.i32()
		msg.NewOrderID = r.i32()
		msg.Price = r.str()
		msg.Qty = r.str()
	case schema.MessageOffBookTrade:
		msg.Price = r.str()
		msg.Qty = r.str()
		msg.Side = schema.Side(r.u8())
	case schema.MessageBookControl:
		msg.Uncross = r.u8()
		msg.Command = r.u8()
	}
	if r.err != nil {
		return msg, errors.Wrap(exception.ErrDecode, r.err.Error())
	}
	return msg, nil
}

// fieldReader keeps the first decode error so record layouts read linearly.
type fieldReader struct {
	dec *msgpack.Decoder
	err error
}

func (r *fieldReader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.DecodeUint8()
	r.err = err
	return v
}

func (r *fieldReader) i32() int32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.DecodeInt32()
	r.err = err
	return v
}

func (r *fieldReader) i64() int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.DecodeInt64()
	r.err = err
	return v
}

func (r *fieldReader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.DecodeUint64()
	r.err = err
	return v
}

func (r *fieldReader) bool() bool {
	if r.err != nil {
		return false
	}
	v, err := r.dec.DecodeBool()
	r.err = err
	return v
}

func (r *fieldReader) str() string {
	if r.err != nil {
		return ""
	}
	v, err := r.dec.DecodeString()
	r.err = err
	return v
}
