package wal

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"sync"
	"time"

	ierrors "orefeed/internal/errors"
	"orefeed/pkg/exception"
)

// Log is one append-only log file.
//
// Appends must come from a single goroutine. Iterators and Lookup may run
// concurrently with the writer.
type Log struct {
	cfg  Config
	file *os.File

	mu       sync.RWMutex
	byHandle map[StreamHandle]Announcement
	byKey    map[string]StreamHandle

	// writer state
	size     int64
	nextSeq  uint64
	frame    []byte
	reserved int
	lastSync time.Time
	closed   bool
}

// Open opens or creates the log at cfg.Path.
func Open(cfg Config) (*Log, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	flag := os.O_RDWR | os.O_CREATE
	if cfg.ReadOnly {
		flag = os.O_RDONLY
	}
	file, err := os.OpenFile(cfg.Path, flag, 0o644)
	if err != nil {
		return nil, ierrors.Wrapf(err, "open log %s", cfg.Path)
	}

	l := &Log{
		cfg:      cfg,
		file:     file,
		byHandle: make(map[StreamHandle]Announcement),
		byKey:    make(map[string]StreamHandle),
		frame:    make([]byte, defaultFrameSize),
		lastSync: time.Now(),
	}

	if err := l.init(); err != nil {
		_ = file.Close()
		return nil, ierrors.Wrapf(err, "open log %s", cfg.Path)
	}
	return l, nil
}

func (l *Log) init() error {
	info, err := l.file.Stat()
	if err != nil {
		return err
	}

	if info.Size() == 0 {
		if l.cfg.ReadOnly {
			return ierrors.Wrap(ErrInvalidMagic, "empty log")
		}
		var hdr [fileHeaderSize]byte
		encodeFileHeader(hdr[:])
		if _, err := l.file.WriteAt(hdr[:], 0); err != nil {
			return err
		}
		l.size = fileHeaderSize
		return l.file.Sync()
	}

	var hdr [fileHeaderSize]byte
	if _, err := l.file.ReadAt(hdr[:], 0); err != nil {
		return err
	}
	if err := decodeFileHeader(hdr[:]); err != nil {
		return err
	}
	if l.cfg.ReadOnly {
		return nil
	}
	return l.recoverTail(info.Size())
}

// recoverTail indexes every announcement, restores the sequence counter and
// drops an incomplete trailing record.
func (l *Log) recoverTail(fileSize int64) error {
	it := l.Begin()
	for {
		e, ok, err := it.Next()
		if err != nil {
			if errors.Is(err, ErrChecksumMismatch) && it.lastFrameEnd == fileSize {
				break
			}
			return err
		}
		if !ok {
			break
		}
		l.nextSeq = e.Seq
	}

	l.size = it.off
	if l.size < fileSize {
		if err := l.file.Truncate(l.size); err != nil {
			return err
		}
		return l.file.Sync()
	}
	return nil
}

// Path returns the file path of the log.
func (l *Log) Path() string {
	return l.cfg.Path
}

// Announce registers a stream and returns its handle. Announcing the same
// peer and channel again returns the existing handle.
func (l *Log) Announce(peer, channel, encoding string) (StreamHandle, error) {
	if err := l.writable(); err != nil {
		return 0, err
	}

	key := streamKey(peer, channel)
	l.mu.RLock()
	handle, ok := l.byKey[key]
	existing := l.byHandle[handle]
	l.mu.RUnlock()
	if ok {
		if existing.Encoding != encoding {
			return 0, ierrors.Wrapf(exception.ErrEncodingMismatch, "stream %s/%s", peer, channel)
		}
		return handle, nil
	}

	if len(peer) > math.MaxUint16 || len(channel) > math.MaxUint16 {
		return 0, ierrors.Wrapf(exception.ErrInvalidArgument, "stream name too long: %s/%s", peer, channel)
	}

	handle = StreamHandle(l.size)
	payload := encodeAnnouncement(make([]byte, 0, announcementSize(peer, channel, encoding)), peer, channel, encoding)
	h := recordHeader{
		kind:       kindAnnounce,
		payloadLen: uint32(len(payload)),
		ts:         time.Now().UnixNano(),
	}
	if err := l.writeFrame(h, payload); err != nil {
		return 0, err
	}

	ann := Announcement{Handle: handle, Peer: peer, Channel: channel, Encoding: encoding}
	l.remember(ann)
	return handle, nil
}

// Reserve returns a writable region of n bytes for the next Commit.
// The region is valid until Commit or the next Reserve.
func (l *Log) Reserve(n int) []byte {
	need := recordHeaderSize + n + checksumSize
	if cap(l.frame) < need {
		l.frame = make([]byte, need)
	}
	l.frame = l.frame[:need]
	l.reserved = n
	return l.frame[recordHeaderSize : recordHeaderSize+n]
}

// Commit appends data as one record on stream.
func (l *Log) Commit(ts int64, stream StreamHandle, data []byte) error {
	if err := l.writable(); err != nil {
		return err
	}
	if len(data) > l.reserved {
		return exception.ErrReservationLength
	}
	if l.cfg.MaxPayloadSize > 0 && len(data) > l.cfg.MaxPayloadSize {
		return ErrPayloadTooLarge
	}
	l.mu.RLock()
	_, known := l.byHandle[stream]
	l.mu.RUnlock()
	if !known {
		return ierrors.Wrapf(exception.ErrUnknownStream, "handle %d", stream)
	}

	h := recordHeader{
		kind:       kindData,
		payloadLen: uint32(len(data)),
		seq:        l.nextSeq + 1,
		ts:         ts,
		stream:     stream,
	}
	if err := l.writeFrame(h, data); err != nil {
		return err
	}
	l.nextSeq++
	l.reserved = 0
	return nil
}

// Append reserves, copies and commits payload in one call.
func (l *Log) Append(ts int64, stream StreamHandle, payload []byte) error {
	copy(l.Reserve(len(payload)), payload)
	return l.Commit(ts, stream, payload)
}

func (l *Log) writeFrame(h recordHeader, payload []byte) error {
	size := int(h.frameSize())
	if cap(l.frame) < size {
		l.frame = make([]byte, size)
	}
	frame := l.frame[:size]
	copy(frame[recordHeaderSize:], payload)
	encodeHeader(frame[:recordHeaderSize], h)
	sum := checksum(frame[:recordHeaderSize], frame[recordHeaderSize:recordHeaderSize+len(payload)])
	binary.LittleEndian.PutUint32(frame[size-checksumSize:], sum)

	if _, err := l.file.WriteAt(frame, l.size); err != nil {
		return ierrors.Wrap(err, "write record")
	}
	l.size += int64(size)
	return l.maybeSync()
}

func (l *Log) maybeSync() error {
	if l.cfg.SyncInterval <= 0 {
		return nil
	}
	if time.Since(l.lastSync) < l.cfg.SyncInterval {
		return nil
	}
	return l.Sync()
}

// Sync flushes written records to stable storage.
func (l *Log) Sync() error {
	if l.cfg.ReadOnly {
		return nil
	}
	l.lastSync = time.Now()
	return l.file.Sync()
}

// Lookup returns the announcement behind handle.
func (l *Log) Lookup(handle StreamHandle) (Announcement, error) {
	l.mu.RLock()
	ann, ok := l.byHandle[handle]
	l.mu.RUnlock()
	if ok {
		return ann, nil
	}
	if handle < fileHeaderSize {
		return Announcement{}, ierrors.Wrapf(exception.ErrUnknownStream, "handle %d", handle)
	}

	var hdr [recordHeaderSize]byte
	if _, err := l.file.ReadAt(hdr[:], int64(handle)); err != nil {
		return Announcement{}, ierrors.Wrapf(exception.ErrUnknownStream, "handle %d: %v", handle, err)
	}
	h, err := decodeHeader(hdr[:])
	if err != nil || h.kind != kindAnnounce {
		return Announcement{}, ierrors.Wrapf(exception.ErrUnknownStream, "handle %d", handle)
	}
	buf := make([]byte, int(h.payloadLen)+checksumSize)
	if _, err := l.file.ReadAt(buf, int64(handle)+recordHeaderSize); err != nil {
		return Announcement{}, ierrors.Wrapf(exception.ErrUnknownStream, "handle %d: %v", handle, err)
	}
	payload := buf[:h.payloadLen]
	if !l.cfg.DisableChecksum && binary.LittleEndian.Uint32(buf[h.payloadLen:]) != checksum(hdr[:], payload) {
		return Announcement{}, ErrChecksumMismatch
	}
	ann, err = decodeAnnouncement(payload)
	if err != nil {
		return Announcement{}, err
	}
	ann.Handle = handle
	l.remember(ann)
	return ann, nil
}

// Streams returns every announcement seen so far.
func (l *Log) Streams() []Announcement {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Announcement, 0, len(l.byHandle))
	for _, ann := range l.byHandle {
		out = append(out, ann)
	}
	return out
}

func (l *Log) remember(ann Announcement) {
	l.mu.Lock()
	l.byHandle[ann.Handle] = ann
	if _, ok := l.byKey[ann.key()]; !ok {
		l.byKey[ann.key()] = ann.Handle
	}
	l.mu.Unlock()
}

func (l *Log) writable() error {
	if l.closed {
		return exception.ErrLogClosed
	}
	if l.cfg.ReadOnly {
		return exception.ErrLogReadOnly
	}
	return nil
}

// Close syncs a writable log and releases the file.
func (l *Log) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	if !l.cfg.ReadOnly {
		if err := l.file.Sync(); err != nil {
			_ = l.file.Close()
			return err
		}
	}
	return l.file.Close()
}

var _ io.Closer = (*Log)(nil)
