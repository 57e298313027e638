package kraken

import (
	"orefeed/internal/codec"
	"orefeed/internal/feed"
	"orefeed/internal/schema"
	"orefeed/pkg/scanner"
)

// Trade parses the trade channel, a batch of
// [price, volume, "secs.frac", side, ...] tuples.
//
// Kraken sends no trade id. The sequence of a trade is its vendor time in
// nanoseconds plus the number of directly preceding trades with the same
// time, so trades sharing a timestamp stay distinct.
type Trade struct {
	instrumentID int32
	lastNs       uint64
	occurrence   uint64
}

func NewTrade(instrumentID int32) *Trade {
	return &Trade{instrumentID: instrumentID}
}

func (p *Trade) Parse(msg []byte, recvTime int64, watermark *uint64, out *codec.Buffer) (bool, error) {
	start := scanner.IndexOf(msg, tuplesOpen)
	if start < 0 {
		return false, p.fail("trade list", msg)
	}
	rest := msg[start+1:]

	for {
		price, r, ok := nextToken(rest)
		if !ok {
			return false, p.fail("trade price", msg)
		}
		qty, r, ok := nextToken(r)
		if !ok {
			return false, p.fail("trade volume", msg)
		}
		ts, r, ok := nextToken(r)
		if !ok {
			return false, p.fail("trade time", msg)
		}
		vendorNs, ok := parseTime(ts)
		if !ok {
			return false, p.fail("trade time", msg)
		}
		side, r, ok := nextToken(r)
		if !ok || len(side) == 0 {
			return false, p.fail("trade side", msg)
		}
		end := scanner.IndexByte(r, tupleClose)
		if end < 0 {
			return false, p.fail("trade list", msg)
		}
		r = r[end+1:]
		more := len(r) > 0 && r[0] == ','

		if vendorNs == p.lastNs {
			p.occurrence++
		} else {
			p.occurrence = 0
		}
		p.lastNs = vendorNs
		seq := vendorNs + p.occurrence
		if seq > *watermark {
			*watermark = seq
		}

		trade := schema.OffBookTrade{
			Header: schema.Header{
				RecvTime:     recvTime,
				VendorOffset: recvTime - int64(vendorNs),
				VendorSeqno:  seq,
				InstrumentID: p.instrumentID,
			},
			Price: string(price),
			Qty:   string(qty),
			Side:  schema.SideAsk,
		}
		if more {
			trade.Batch = 1
		}
		if side[0] == 'b' {
			trade.Side = schema.SideBid
		}
		if err := codec.EncodeOffBookTrade(out, trade); err != nil {
			return false, err
		}
		if !more {
			return true, nil
		}
		rest = r
	}
}

func (p *Trade) fail(field string, msg []byte) error {
	return feed.NewParseError(Name, StreamTrade, field, msg)
}
