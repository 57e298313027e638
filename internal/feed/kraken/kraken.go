// Package kraken parses Kraken public websocket channels.
package kraken

import (
	"orefeed/internal/feed"
	"orefeed/pkg/scanner"
)

const Name = "kraken"

const (
	StreamSpread = "spread"
	StreamTrade  = "trade"
)

var (
	quote      = []byte(`"`)
	tupleClose = byte(']')
	tuplesOpen = []byte(`[[`)
)

// Resolve creates the parser for a channel such as "XBT/USD@spread".
func Resolve(channel string, opts feed.Options) (string, feed.Parser, error) {
	symbol, streamType, err := feed.SplitChannel(channel)
	if err != nil {
		return "", nil, err
	}
	switch streamType {
	case StreamSpread:
		return symbol, NewSpread(opts.InstrumentID), nil
	case StreamTrade:
		return symbol, NewTrade(opts.InstrumentID), nil
	default:
		return "", nil, feed.UnknownStreamType(Name, streamType)
	}
}

// parseTime converts "seconds.fraction" into nanoseconds since the epoch.
func parseTime(v []byte) (uint64, bool) {
	dot := scanner.IndexByte(v, '.')
	if dot < 0 {
		secs, ok := scanner.ParseUint(v)
		return secs * 1_000_000_000, ok
	}
	secs, ok := scanner.ParseUint(v[:dot])
	if !ok {
		return 0, false
	}
	frac := v[dot+1:]
	var ns uint64
	for i := 0; i < 9; i++ {
		ns *= 10
		if i < len(frac) {
			c := frac[i]
			if c < '0' || c > '9' {
				return 0, false
			}
			ns += uint64(c - '0')
		}
	}
	return secs*1_000_000_000 + ns, true
}

// nextToken reads the next double-quoted token of a positional array.
func nextToken(rest []byte) (token, after []byte, ok bool) {
	return scanner.FindValue(rest, quote, quote)
}
