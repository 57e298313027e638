package wal

import (
	"encoding/binary"
	"errors"
	"io"
)

// Entry is one data record read from a log.
type Entry struct {
	Offset int64
	Seq    uint64
	Time   int64
	Stream StreamHandle
	// Payload is only valid until the next call to Next.
	Payload []byte
}

// Iterator walks the records of a log in append order.
type Iterator struct {
	log          *Log
	off          int64
	lastFrameEnd int64
	hdr          [recordHeaderSize]byte
	buf          []byte
}

// Begin returns an iterator positioned at the first record.
func (l *Log) Begin() *Iterator {
	return &Iterator{log: l, off: fileHeaderSize}
}

// Offset is the position of the next record to read.
func (it *Iterator) Offset() int64 {
	return it.off
}

// Next returns the next data record. Announcements are indexed on the way and
// skipped. ok is false when no complete record is available yet; calling Next
// again later resumes from the same position.
func (it *Iterator) Next() (Entry, bool, error) {
	for {
		h, payload, ok, err := it.read()
		if err != nil || !ok {
			return Entry{}, ok, err
		}
		off := it.off
		it.off += h.frameSize()

		if h.kind == kindAnnounce {
			ann, err := decodeAnnouncement(payload)
			if err != nil {
				return Entry{}, false, err
			}
			ann.Handle = StreamHandle(off)
			it.log.remember(ann)
			continue
		}
		return Entry{
			Offset:  off,
			Seq:     h.seq,
			Time:    h.ts,
			Stream:  h.stream,
			Payload: payload,
		}, true, nil
	}
}

func (it *Iterator) read() (recordHeader, []byte, bool, error) {
	n, err := it.log.file.ReadAt(it.hdr[:], it.off)
	if n < recordHeaderSize {
		if err == nil || errors.Is(err, io.EOF) {
			return recordHeader{}, nil, false, nil
		}
		return recordHeader{}, nil, false, err
	}
	if isZeroMagic(it.hdr[:]) {
		return recordHeader{}, nil, false, nil
	}
	h, err := decodeHeader(it.hdr[:])
	if err != nil {
		return h, nil, false, err
	}
	if limit := it.log.cfg.MaxPayloadSize; limit > 0 && h.payloadLen > uint32(limit) {
		return h, nil, false, ErrPayloadTooLarge
	}

	need := int(h.payloadLen) + checksumSize
	if cap(it.buf) < need {
		it.buf = make([]byte, need)
	}
	it.buf = it.buf[:need]
	n, err = it.log.file.ReadAt(it.buf, it.off+recordHeaderSize)
	if n < need {
		if err == nil || errors.Is(err, io.EOF) {
			return h, nil, false, nil
		}
		return h, nil, false, err
	}

	payload := it.buf[:h.payloadLen]
	if !it.log.cfg.DisableChecksum {
		expected := binary.LittleEndian.Uint32(it.buf[h.payloadLen:])
		if checksum(it.hdr[:], payload) != expected {
			it.lastFrameEnd = it.off + h.frameSize()
			return h, nil, false, ErrChecksumMismatch
		}
	}
	return h, payload, true, nil
}
