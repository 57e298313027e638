package scanner

// FindValue locates marker in haystack and returns the text between the end of
// marker and the first byte of terminators that follows it. rest starts right
// after that terminator. Both results alias haystack.
func FindValue(haystack, marker, terminators []byte) (value, rest []byte, ok bool) {
	idx := IndexOf(haystack, marker)
	if idx < 0 {
		return nil, haystack, false
	}
	start := idx + len(marker)
	for i := start; i < len(haystack); i++ {
		if IndexByte(terminators, haystack[i]) >= 0 {
			return haystack[start:i], haystack[i+1:], true
		}
	}
	return nil, haystack, false
}

// Unquote strips one pair of surrounding double quotes.
func Unquote(v []byte) ([]byte, bool) {
	v = TrimSpace(v)
	if len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return v, false
	}
	return v[1 : len(v)-1], true
}

// ParseUint parses a base-10 unsigned integer, optionally surrounded by spaces.
func ParseUint(v []byte) (uint64, bool) {
	v = TrimSpace(v)
	if len(v) == 0 {
		return 0, false
	}
	var n uint64
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint64(c - '0')
		if n > (^uint64(0)-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	return n, true
}

func TrimSpace(v []byte) []byte {
	for len(v) > 0 && IsSpace(v[0]) {
		v = v[1:]
	}
	for len(v) > 0 && IsSpace(v[len(v)-1]) {
		v = v[:len(v)-1]
	}
	return v
}

func IndexOf(payload []byte, key []byte) int {
	if len(key) == 0 {
		return 0
	}
	if len(payload) < len(key) {
		return -1
	}
outer:
	for i := 0; i <= len(payload)-len(key); i++ {
		for j := 0; j < len(key); j++ {
			if payload[i+j] != key[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

func IndexByte(payload []byte, b byte) int {
	for i := range payload {
		if payload[i] == b {
			return i
		}
	}
	return -1
}

func IsSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
