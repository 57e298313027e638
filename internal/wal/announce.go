package wal

import (
	"encoding/binary"
	"fmt"
)

// StreamHandle identifies a stream inside one log file.
type StreamHandle uint64

// Announcement describes a stream.
type Announcement struct {
	Handle   StreamHandle
	Peer     string
	Channel  string
	Encoding string
}

func (a Announcement) key() string {
	return streamKey(a.Peer, a.Channel)
}

func streamKey(peer, channel string) string {
	return peer + "\x00" + channel
}

func announcementSize(peer, channel, encoding string) int {
	return 2 + len(peer) + 2 + len(channel) + 4 + len(encoding)
}

func encodeAnnouncement(dst []byte, peer, channel, encoding string) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(peer)))
	dst = append(dst, peer...)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(channel)))
	dst = append(dst, channel...)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(encoding)))
	dst = append(dst, encoding...)
	return dst
}

func decodeAnnouncement(src []byte) (Announcement, error) {
	var a Announcement
	read := func(width int) (string, bool) {
		if len(src) < width {
			return "", false
		}
		var n int
		if width == 2 {
			n = int(binary.LittleEndian.Uint16(src))
		} else {
			n = int(binary.LittleEndian.Uint32(src))
		}
		src = src[width:]
		if len(src) < n {
			return "", false
		}
		s := string(src[:n])
		src = src[n:]
		return s, true
	}
	var ok bool
	if a.Peer, ok = read(2); !ok {
		return a, fmt.Errorf("wal announcement: truncated peer")
	}
	if a.Channel, ok = read(2); !ok {
		return a, fmt.Errorf("wal announcement: truncated channel")
	}
	if a.Encoding, ok = read(4); !ok {
		return a, fmt.Errorf("wal announcement: truncated encoding")
	}
	return a, nil
}
