package feed

import (
	"orefeed/internal/codec"
	"orefeed/internal/schema"
)

// Quote is one side of a top-of-book update. Price and Qty alias the raw
// message; Present is false when the side is empty.
type Quote struct {
	Price   []byte
	Qty     []byte
	Present bool
}

// Update is a full top-of-book snapshot as sent by the vendor.
type Update struct {
	RecvTime     int64
	VendorOffset int64
	Seq          uint64
	Bid          Quote
	Ask          Quote
}

type level struct {
	price   string
	qty     string
	present bool
}

type op uint8

const (
	opNone op = iota
	opAdd
	opModify
	opDelete
)

func (l *level) diff(q Quote) op {
	switch {
	case !l.present && q.Present:
		return opAdd
	case l.present && !q.Present:
		return opDelete
	case l.present && q.Present && (l.price != string(q.Price) || l.qty != string(q.Qty)):
		return opModify
	default:
		return opNone
	}
}

func (l *level) apply(o op, q Quote) {
	switch o {
	case opAdd, opModify:
		l.price = string(q.Price)
		l.qty = string(q.Qty)
		l.present = true
	case opDelete:
		l.price, l.qty = "", ""
		l.present = false
	}
}

// TopOfBook remembers the last best bid and ask of one instrument and turns
// snapshots into book operations. The bid is order InstrumentID, the ask
// order InstrumentID+1.
type TopOfBook struct {
	InstrumentID int32

	bid       level
	ask       level
	announced bool
}

func NewTopOfBook(instrumentID int32) *TopOfBook {
	return &TopOfBook{InstrumentID: instrumentID}
}

// Announced reports whether the book control record was already written.
func (b *TopOfBook) Announced() bool { return b.announced }

// Apply diffs u against the remembered book, writes the resulting records and
// remembers u.
func (b *TopOfBook) Apply(out *codec.Buffer, u Update) error {
	bidOp := b.bid.diff(u.Bid)
	askOp := b.ask.diff(u.Ask)

	if !b.announced && (bidOp == opAdd || askOp == opAdd) {
		err := codec.EncodeBookControl(out, schema.BookControl{
			Header: schema.Header{
				RecvTime:     u.RecvTime,
				Batch:        1,
				InstrumentID: b.InstrumentID,
			},
			Command: schema.BookCommandContinuous,
		})
		if err != nil {
			return err
		}
		b.announced = true
	}

	hdr := schema.Header{
		RecvTime:     u.RecvTime,
		VendorOffset: u.VendorOffset,
		VendorSeqno:  u.Seq,
		InstrumentID: b.InstrumentID,
	}
	if askOp != opNone {
		hdr.Batch = 1
	}
	if err := b.write(out, hdr, bidOp, b.InstrumentID, u.Bid, true); err != nil {
		return err
	}
	b.bid.apply(bidOp, u.Bid)

	hdr.Batch = 0
	if err := b.write(out, hdr, askOp, b.InstrumentID+1, u.Ask, false); err != nil {
		return err
	}
	b.ask.apply(askOp, u.Ask)
	return nil
}

func (b *TopOfBook) write(out *codec.Buffer, hdr schema.Header, o op, orderID int32, q Quote, isBid bool) error {
	switch o {
	case opAdd:
		return codec.EncodeOrderAdd(out, schema.OrderAdd{
			Header:  hdr,
			OrderID: orderID,
			Price:   string(q.Price),
			Qty:     string(q.Qty),
			IsBid:   isBid,
		})
	case opModify:
		return codec.EncodeOrderModify(out, schema.OrderModify{
			Header:     hdr,
			OrderID:    orderID,
			NewOrderID: orderID,
			Price:      string(q.Price),
			Qty:        string(q.Qty),
		})
	case opDelete:
		return codec.EncodeOrderDelete(out, schema.OrderDelete{
			Header:  hdr,
			OrderID: orderID,
		})
	}
	return nil
}
