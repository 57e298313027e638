package kraken

import (
	"orefeed/internal/codec"
	"orefeed/internal/feed"
)

// Spread parses the spread channel: bid, ask, timestamp, bid volume and ask
// volume as quoted positional fields. The channel carries no sequence number,
// so the receive time stands in for one and nothing is ever rejected.
type Spread struct {
	book *feed.TopOfBook
}

func NewSpread(instrumentID int32) *Spread {
	return &Spread{book: feed.NewTopOfBook(instrumentID)}
}

var spreadFields = [...]string{"bid price", "ask price", "timestamp", "bid volume", "ask volume"}

func (p *Spread) Parse(msg []byte, recvTime int64, watermark *uint64, out *codec.Buffer) (bool, error) {
	var tokens [len(spreadFields)][]byte
	rest := msg
	for i := range tokens {
		tok, after, ok := nextToken(rest)
		if !ok {
			return false, feed.NewParseError(Name, StreamSpread, spreadFields[i], msg)
		}
		tokens[i], rest = tok, after
	}
	vendorNs, ok := parseTime(tokens[2])
	if !ok {
		return false, feed.NewParseError(Name, StreamSpread, spreadFields[2], msg)
	}

	seq := uint64(recvTime)
	if seq > *watermark {
		*watermark = seq
	}
	return true, p.book.Apply(out, feed.Update{
		RecvTime:     recvTime,
		VendorOffset: recvTime - int64(vendorNs),
		Seq:          seq,
		Bid:          quoteOf(tokens[0], tokens[3]),
		Ask:          quoteOf(tokens[1], tokens[4]),
	})
}

// quoteOf treats an empty or zero volume as an empty side.
func quoteOf(price, qty []byte) feed.Quote {
	if len(price) == 0 || len(qty) == 0 || isZero(qty) {
		return feed.Quote{}
	}
	return feed.Quote{Price: price, Qty: qty, Present: true}
}

func isZero(v []byte) bool {
	for _, c := range v {
		if c != '0' && c != '.' {
			return false
		}
	}
	return true
}
