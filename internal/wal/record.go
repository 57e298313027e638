package wal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
)

const (
	fileVersion      uint16 = 1
	fileHeaderSize          = 16
	recordVersion    uint16 = 1
	recordHeaderSize        = 40
	checksumSize            = 4

	maxPayloadLen = uint64(^uint32(0))
)

type recordKind uint16

const (
	kindAnnounce recordKind = 1
	kindData     recordKind = 2
)

var (
	fileMagic   = [4]byte{'O', 'R', 'L', '1'}
	recordMagic = [4]byte{'R', 'E', 'C', '1'}
	crcTable    = crc32.MakeTable(crc32.Castagnoli)
)

var (
	ErrInvalidMagic            = errors.New("wal invalid magic")
	ErrUnsupportedVersion      = errors.New("wal unsupported version")
	ErrInvalidRecordHeaderSize = errors.New("wal invalid header size")
	ErrChecksumMismatch        = errors.New("wal checksum mismatch")
	ErrPayloadTooLarge         = errors.New("wal payload too large")
	ErrUnknownRecordKind       = errors.New("wal unknown record kind")
)

type recordHeader struct {
	kind       recordKind
	payloadLen uint32
	seq        uint64
	ts         int64
	stream     StreamHandle
}

func (h recordHeader) frameSize() int64 {
	return int64(recordHeaderSize) + int64(h.payloadLen) + checksumSize
}

func encodeFileHeader(dst []byte) {
	_ = dst[fileHeaderSize-1]
	copy(dst[0:4], fileMagic[:])
	binary.LittleEndian.PutUint16(dst[4:6], fileVersion)
	binary.LittleEndian.PutUint16(dst[6:8], fileHeaderSize)
	binary.LittleEndian.PutUint64(dst[8:16], 0)
}

func decodeFileHeader(src []byte) error {
	if len(src) < fileHeaderSize || !bytes.Equal(src[0:4], fileMagic[:]) {
		return ErrInvalidMagic
	}
	if binary.LittleEndian.Uint16(src[4:6]) != fileVersion {
		return ErrUnsupportedVersion
	}
	if binary.LittleEndian.Uint16(src[6:8]) != fileHeaderSize {
		return ErrInvalidRecordHeaderSize
	}
	return nil
}

func encodeHeader(dst []byte, h recordHeader) {
	_ = dst[recordHeaderSize-1]
	copy(dst[0:4], recordMagic[:])
	binary.LittleEndian.PutUint16(dst[4:6], recordVersion)
	binary.LittleEndian.PutUint16(dst[6:8], uint16(recordHeaderSize))
	binary.LittleEndian.PutUint16(dst[8:10], uint16(h.kind))
	binary.LittleEndian.PutUint16(dst[10:12], 0)
	binary.LittleEndian.PutUint32(dst[12:16], h.payloadLen)
	binary.LittleEndian.PutUint64(dst[16:24], h.seq)
	binary.LittleEndian.PutUint64(dst[24:32], uint64(h.ts))
	binary.LittleEndian.PutUint64(dst[32:40], uint64(h.stream))
}

// isZeroMagic reports space that was allocated but never written.
func isZeroMagic(src []byte) bool {
	return src[0] == 0 && src[1] == 0 && src[2] == 0 && src[3] == 0
}

func decodeHeader(src []byte) (recordHeader, error) {
	if len(src) < recordHeaderSize {
		return recordHeader{}, ErrInvalidRecordHeaderSize
	}
	if !bytes.Equal(src[0:4], recordMagic[:]) {
		return recordHeader{}, ErrInvalidMagic
	}
	if ver := binary.LittleEndian.Uint16(src[4:6]); ver != recordVersion {
		return recordHeader{}, ErrUnsupportedVersion
	}
	if size := binary.LittleEndian.Uint16(src[6:8]); size != recordHeaderSize {
		return recordHeader{}, ErrInvalidRecordHeaderSize
	}
	h := recordHeader{
		kind:       recordKind(binary.LittleEndian.Uint16(src[8:10])),
		payloadLen: binary.LittleEndian.Uint32(src[12:16]),
		seq:        binary.LittleEndian.Uint64(src[16:24]),
		ts:         int64(binary.LittleEndian.Uint64(src[24:32])),
		stream:     StreamHandle(binary.LittleEndian.Uint64(src[32:40])),
	}
	if h.kind != kindAnnounce && h.kind != kindData {
		return h, ErrUnknownRecordKind
	}
	return h, nil
}

func checksum(header []byte, payload []byte) uint32 {
	crc := crc32.Update(0, crcTable, header)
	return crc32.Update(crc, crcTable, payload)
}
