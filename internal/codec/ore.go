package codec

import (
	"orefeed/internal/schema"
)

// EncodeOrderAdd writes an ORE Order Add record.
func EncodeOrderAdd(b *Buffer, m schema.OrderAdd) error {
	return b.WriteRecord(
		U8(uint8(schema.MessageOrderAdd)),
		I64(m.RecvTime),
		I64(m.VendorOffset),
		U64(m.VendorSeqno),
		U8(m.Batch),
		I32(m.InstrumentID),
		I32(m.OrderID),
		Str(m.Price),
		Str(m.Qty),
		Bool(m.IsBid),
	)
}

// EncodeOrderDelete writes an ORE Order Delete record.
func EncodeOrderDelete(b *Buffer, m schema.OrderDelete) error {
	return b.WriteRecord(
		U8(uint8(schema.MessageOrderDelete)),
		I64(m.RecvTime),
		I64(m.VendorOffset),
		U64(m.VendorSeqno),
		U8(m.Batch),
		I32(m.InstrumentID),
		I32(m.OrderID),
	)
}

// EncodeOrderModify writes an ORE Order Modify record.
func EncodeOrderModify(b *Buffer, m schema.OrderModify) error {
	return b.WriteRecord(
		U8(uint8(schema.MessageOrderModify)),
		I64(m.RecvTime),
		I64(m.VendorOffset),
		U64(m.VendorSeqno),
		U8(m.Batch),
		I32(m.InstrumentID),
		I32(m.OrderID),
		I32(m.NewOrderID),
		Str(m.Price),
		Str(m.Qty),
	)
}

// EncodeOffBookTrade writes an ORE Off-Book Trade record.
func EncodeOffBookTrade(b *Buffer, m schema.OffBookTrade) error {
	return b.WriteRecord(
		U8(uint8(schema.MessageOffBookTrade)),
		I64(m.RecvTime),
		I64(m.VendorOffset),
		U64(m.VendorSeqno),
		U8(m.Batch),
		I32(m.InstrumentID),
		Str(m.Price),
		Str(m.Qty),
		U8(uint8(m.Side)),
	)
}

// EncodeBookControl writes an ORE Book Control record.
func EncodeBookControl(b *Buffer, m schema.BookControl) error {
	return b.WriteRecord(
		U8(uint8(schema.MessageBookControl)),
		I64(m.RecvTime),
		I64(m.VendorOffset),
		U64(m.VendorSeqno),
		U8(m.Batch),
		I32(m.InstrumentID),
		U8(m.Uncross),
		U8(m.Command),
	)
}
