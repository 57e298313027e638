package binance

import (
	"orefeed/internal/codec"
	"orefeed/internal/feed"
	"orefeed/pkg/scanner"
)

// BookTicker parses the bookTicker stream into top-of-book operations.
// The update id "u" orders messages.
type BookTicker struct {
	book *feed.TopOfBook
}

func NewBookTicker(instrumentID int32) *BookTicker {
	return &BookTicker{book: feed.NewTopOfBook(instrumentID)}
}

func (p *BookTicker) Parse(msg []byte, recvTime int64, watermark *uint64, out *codec.Buffer) (bool, error) {
	raw, _, ok := scanner.FindValue(msg, markerUpdateID, fieldEnd)
	if !ok {
		return false, p.fail("update id", msg)
	}
	seq, ok := scanner.ParseUint(raw)
	if !ok {
		return false, p.fail("update id", msg)
	}
	if seq <= *watermark {
		return false, nil
	}

	bid, err := p.quote(msg, markerBidPrice, markerBidQty, "bid")
	if err != nil {
		return false, err
	}
	ask, err := p.quote(msg, markerAskPrice, markerAskQty, "ask")
	if err != nil {
		return false, err
	}

	*watermark = seq
	return true, p.book.Apply(out, feed.Update{
		RecvTime: recvTime,
		Seq:      seq,
		Bid:      bid,
		Ask:      ask,
	})
}

func (p *BookTicker) quote(msg, priceMarker, qtyMarker []byte, side string) (feed.Quote, error) {
	rawPx, _, ok := scanner.FindValue(msg, priceMarker, fieldEnd)
	if !ok {
		return feed.Quote{}, p.fail(side+" price", msg)
	}
	rawQty, _, ok := scanner.FindValue(msg, qtyMarker, fieldEnd)
	if !ok {
		return feed.Quote{}, p.fail(side+" quantity", msg)
	}
	px, pxQuoted := scanner.Unquote(rawPx)
	qty, qtyQuoted := scanner.Unquote(rawQty)
	if !pxQuoted || !qtyQuoted {
		if string(px) == null || string(qty) == null {
			return feed.Quote{}, nil
		}
		return feed.Quote{}, p.fail(side, msg)
	}
	if len(px) == 0 || len(qty) == 0 {
		return feed.Quote{}, nil
	}
	return feed.Quote{Price: px, Qty: qty, Present: true}, nil
}

func (p *BookTicker) fail(field string, msg []byte) error {
	return feed.NewParseError(Name, StreamBookTicker, field, msg)
}
