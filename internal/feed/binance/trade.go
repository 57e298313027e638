package binance

import (
	"orefeed/internal/codec"
	"orefeed/internal/feed"
	"orefeed/internal/schema"
	"orefeed/pkg/scanner"
)

// Trade parses the trade stream. The trade id "t" orders messages.
type Trade struct {
	instrumentID int32
}

func NewTrade(instrumentID int32) *Trade {
	return &Trade{instrumentID: instrumentID}
}

func (p *Trade) Parse(msg []byte, recvTime int64, watermark *uint64, out *codec.Buffer) (bool, error) {
	eventMs, ok := p.scanUint(msg, markerEventTime)
	if !ok {
		return false, p.fail("event time", msg)
	}
	seq, ok := p.scanUint(msg, markerTradeID)
	if !ok {
		return false, p.fail("trade id", msg)
	}
	if seq <= *watermark {
		return false, nil
	}

	price, ok := p.scanString(msg, markerPrice)
	if !ok {
		return false, p.fail("price", msg)
	}
	qty, ok := p.scanString(msg, markerQty)
	if !ok {
		return false, p.fail("quantity", msg)
	}
	maker, _, ok := scanner.FindValue(msg, markerMaker, fieldEnd)
	if !ok {
		return false, p.fail("maker flag", msg)
	}

	side := schema.SideAsk
	if string(scanner.TrimSpace(maker)) == "true" {
		side = schema.SideBid
	}

	*watermark = seq
	return true, codec.EncodeOffBookTrade(out, schema.OffBookTrade{
		Header: schema.Header{
			RecvTime:     recvTime,
			VendorOffset: recvTime - int64(eventMs)*1_000_000,
			VendorSeqno:  seq,
			InstrumentID: p.instrumentID,
		},
		Price: string(price),
		Qty:   string(qty),
		Side:  side,
	})
}

func (p *Trade) scanUint(msg, marker []byte) (uint64, bool) {
	raw, _, ok := scanner.FindValue(msg, marker, fieldEnd)
	if !ok {
		return 0, false
	}
	return scanner.ParseUint(raw)
}

func (p *Trade) scanString(msg, marker []byte) ([]byte, bool) {
	raw, _, ok := scanner.FindValue(msg, marker, fieldEnd)
	if !ok {
		return nil, false
	}
	v, ok := scanner.Unquote(raw)
	return v, ok && len(v) > 0
}

func (p *Trade) fail(field string, msg []byte) error {
	return feed.NewParseError(Name, StreamTrade, field, msg)
}
