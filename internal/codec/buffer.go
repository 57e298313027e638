package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"orefeed/pkg/exception"
)

const defaultBufferSize = 1024

// EncodeError reports a failure while serializing a record.
type EncodeError struct {
	Field int
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s: field %d: %v", exception.ErrEncode, e.Field, e.Err)
}

func (e *EncodeError) Unwrap() []error {
	return []error{exception.ErrEncode, e.Err}
}

type fieldKind uint8

const (
	kindU8 fieldKind = iota + 1
	kindI32
	kindI64
	kindU64
	kindBool
	kindStr
)

// Field is one element of a record with its wire width.
type Field struct {
	kind fieldKind
	i    int64
	u    uint64
	s    string
}

func U8(v uint8) Field   { return Field{kind: kindU8, u: uint64(v)} }
func I32(v int32) Field  { return Field{kind: kindI32, i: int64(v)} }
func I64(v int64) Field  { return Field{kind: kindI64, i: v} }
func U64(v uint64) Field { return Field{kind: kindU64, u: v} }
func Str(v string) Field { return Field{kind: kindStr, s: v} }

func Bool(v bool) Field {
	f := Field{kind: kindBool}
	if v {
		f.u = 1
	}
	return f
}

// Buffer accumulates msgpack records for a single log commit.
//
// In discard mode records are counted but nothing is written, so a caller can
// learn whether a message would have produced output without encoding it.
type Buffer struct {
	buf     bytes.Buffer
	enc     *msgpack.Encoder
	records int
	discard bool
}

// NewBuffer allocates a scratch buffer with the given initial capacity.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = defaultBufferSize
	}
	b := &Buffer{}
	b.buf.Grow(size)
	b.enc = msgpack.NewEncoder(&b.buf)
	return b
}

// Reset truncates the buffer and sets the discard mode for the next message.
func (b *Buffer) Reset(discard bool) {
	b.buf.Reset()
	b.records = 0
	b.discard = discard
}

func (b *Buffer) Discarding() bool { return b.discard }

// Len is the number of encoded bytes.
func (b *Buffer) Len() int { return b.buf.Len() }

// Records is the number of records written since the last Reset.
func (b *Buffer) Records() int { return b.records }

// Bytes aliases the encoded data until the next write or Reset.
func (b *Buffer) Bytes() []byte { return b.buf.Bytes() }

// WriteRecord appends one msgpack array made of fields.
func (b *Buffer) WriteRecord(fields ...Field) error {
	b.records++
	if b.discard {
		return nil
	}
	if err := b.enc.EncodeArrayLen(len(fields)); err != nil {
		return &EncodeError{Field: -1, Err: err}
	}
	for i, f := range fields {
		var err error
		switch f.kind {
		case kindU8:
			err = b.enc.EncodeUint8(uint8(f.u))
		case kindI32:
			err = b.enc.EncodeInt32(int32(f.i))
		case kindI64:
			err = b.enc.EncodeInt64(f.i)
		case kindU64:
			err = b.enc.EncodeUint64(f.u)
		case kindBool:
			err = b.enc.EncodeBool(f.u != 0)
		case kindStr:
			err = b.enc.EncodeString(f.s)
		default:
			err = exception.ErrInvalidArgument
		}
		if err != nil {
			return &EncodeError{Field: i, Err: err}
		}
	}
	return nil
}
