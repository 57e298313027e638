// Package binance parses Binance spot market streams.
package binance

import (
	"orefeed/internal/feed"
)

const Name = "binance"

const (
	StreamBookTicker = "bookTicker"
	StreamTrade      = "trade"
)

var (
	markerUpdateID  = []byte(`"u":`)
	markerBidPrice  = []byte(`"b":`)
	markerBidQty    = []byte(`"B":`)
	markerAskPrice  = []byte(`"a":`)
	markerAskQty    = []byte(`"A":`)
	markerEventTime = []byte(`"E":`)
	markerTradeID   = []byte(`"t":`)
	markerPrice     = []byte(`"p":`)
	markerQty       = []byte(`"q":`)
	markerMaker     = []byte(`"m":`)

	fieldEnd = []byte(",}")
	null     = "null"
)

// Resolve creates the parser for a channel such as "btcusdt@bookTicker".
func Resolve(channel string, opts feed.Options) (string, feed.Parser, error) {
	symbol, streamType, err := feed.SplitChannel(channel)
	if err != nil {
		return "", nil, err
	}
	switch streamType {
	case StreamBookTicker:
		return symbol, NewBookTicker(opts.InstrumentID), nil
	case StreamTrade:
		return symbol, NewTrade(opts.InstrumentID), nil
	default:
		return "", nil, feed.UnknownStreamType(Name, streamType)
	}
}
